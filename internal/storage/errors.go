package storage

import "errors"

// ErrInvalidInput is returned for nil fills and other malformed input.
var ErrInvalidInput = errors.New("invalid input")
