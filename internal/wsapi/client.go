package wsapi

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

// ClientConfig configures a query Client.
type ClientConfig struct {
	// HandshakeTimeout bounds the initial dial.
	HandshakeTimeout time.Duration
	// PingInterval is the interval between ping frames. Zero disables pings.
	PingInterval time.Duration
	// WriteTimeout is the deadline for writing one batch.
	WriteTimeout time.Duration
	// ReadTimeout is the deadline for receiving a batch reply.
	ReadTimeout time.Duration
}

// DefaultClientConfig returns the default client configuration.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		HandshakeTimeout: 10 * time.Second,
		PingInterval:     30 * time.Second,
		WriteTimeout:     10 * time.Second,
		ReadTimeout:      10 * time.Minute,
	}
}

// Client sends query batches to a fill-stats server. Batches are serialized
// on the connection; Query is safe for concurrent use.
type Client struct {
	config ClientConfig

	mu     sync.Mutex
	conn   *websocket.Conn
	closed atomic.Bool

	done chan struct{}
	wg   sync.WaitGroup
}

// Dial connects to the websocket endpoint, e.g. ws://localhost:8080/ws.
func Dial(ctx context.Context, endpoint string, config *ClientConfig) (*Client, error) {
	cfg := DefaultClientConfig()
	if config != nil {
		cfg = *config
	}

	dialer := websocket.Dialer{HandshakeTimeout: cfg.HandshakeTimeout}
	conn, _, err := dialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("websocket dial: %w", err)
	}

	c := &Client{
		config: cfg,
		conn:   conn,
		done:   make(chan struct{}),
	}
	if cfg.PingInterval > 0 {
		c.wg.Add(1)
		go c.pingLoop()
	}
	return c, nil
}

// Query sends lines as one batch and returns the printed results in order.
// Lines that failed on the server have no result.
func (c *Client) Query(ctx context.Context, lines []string) ([]string, error) {
	if c.closed.Load() {
		return nil, fmt.Errorf("client closed")
	}
	if len(lines) == 0 {
		return nil, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	stop := context.AfterFunc(ctx, func() {
		_ = c.conn.SetReadDeadline(time.Now())
	})
	defer stop()

	_ = c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout))
	if err := c.conn.WriteMessage(websocket.TextMessage, []byte(strings.Join(lines, "\n"))); err != nil {
		return nil, fmt.Errorf("write batch: %w", err)
	}

	_ = c.conn.SetReadDeadline(time.Now().Add(c.config.ReadTimeout))
	_, reply, err := c.conn.ReadMessage()
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("read reply: %w", err)
	}

	text := strings.TrimRight(string(reply), "\n")
	if text == "" {
		return []string{}, nil
	}
	return strings.Split(text, "\n"), nil
}

// Close sends a close frame and releases the connection.
func (c *Client) Close() error {
	if c.closed.Swap(true) {
		return nil
	}
	close(c.done)
	c.wg.Wait()

	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	return c.conn.Close()
}

func (c *Client) pingLoop() {
	defer c.wg.Done()

	ticker := time.NewTicker(c.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			// WriteControl may run concurrently with Query's writes.
			_ = c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(c.config.WriteTimeout))
		}
	}
}
