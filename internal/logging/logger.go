// Package logging configures the process-wide zerolog logger.
package logging

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var once sync.Once

// Setup configures the global logger once per process. Later calls are no-ops.
// format "console" writes human-readable output, anything else writes JSON.
// Logs always go to stderr so stdout stays reserved for query results.
func Setup(level, format string) {
	once.Do(func() {
		log.Logger = New(os.Stderr, level, format)
		zerolog.SetGlobalLevel(parseLevel(level))
	})
}

// New builds a logger writing to w without touching global state.
func New(w io.Writer, level, format string) zerolog.Logger {
	if strings.EqualFold(format, "console") {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	return zerolog.New(w).Level(parseLevel(level)).With().Timestamp().Logger()
}

func parseLevel(level string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || level == "" {
		return zerolog.InfoLevel
	}
	return lvl
}
