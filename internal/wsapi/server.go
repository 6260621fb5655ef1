// Package wsapi serves aggregate queries over websocket.
//
// Each text message carries one or more newline-separated query lines. The
// lines run concurrently against the shared cache and the reply is a single
// text message holding one result per printable line, in the order sent.
package wsapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"fill-stats/internal/engine"
	"fill-stats/internal/observability"
	"fill-stats/internal/rangecache"
)

const (
	writeWait      = 10 * time.Second
	maxMessageSize = 1 << 20
)

// Handler upgrades connections and answers query batches.
type Handler struct {
	resolver engine.Resolver
	upgrader websocket.Upgrader
	logger   zerolog.Logger
}

// NewHandler creates a Handler answering through resolver.
func NewHandler(resolver engine.Resolver, logger *zerolog.Logger) *Handler {
	h := &Handler{
		resolver: resolver,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		logger: log.Logger,
	}
	if logger != nil {
		h.logger = *logger
	}
	h.logger = h.logger.With().Str("component", "wsapi").Logger()
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn().Err(err).Str("remote", r.RemoteAddr).Msg("upgrade failed")
		return
	}
	defer conn.Close()

	conn.SetReadLimit(maxMessageSize)
	logger := h.logger.With().Str("remote", r.RemoteAddr).Logger()
	logger.Info().Msg("client connected")

	if err := h.serve(r.Context(), conn, logger); err != nil {
		logger.Info().Err(err).Msg("client disconnected")
	}
}

func (h *Handler) serve(ctx context.Context, conn *websocket.Conn, logger zerolog.Logger) error {
	for {
		typ, msg, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		if typ != websocket.TextMessage {
			continue
		}

		reply, err := h.answer(ctx, msg, logger)
		if err != nil {
			return err
		}

		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteMessage(websocket.TextMessage, reply); err != nil {
			return err
		}
	}
}

// answer runs every line of msg through a fresh engine over the shared resolver.
func (h *Handler) answer(ctx context.Context, msg []byte, logger zerolog.Logger) ([]byte, error) {
	eng := engine.New(h.resolver, engine.Options{Logger: &logger})

	text := strings.TrimRight(strings.ReplaceAll(string(msg), "\r\n", "\n"), "\n")
	for _, line := range strings.Split(text, "\n") {
		eng.Submit(ctx, line)
	}

	var buf bytes.Buffer
	if err := eng.DrainTo(ctx, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// StatsSource reports cache counters for /status.
type StatsSource interface {
	Stats() rangecache.Stats
}

// StatusResponse is the JSON body of /status.
type StatusResponse struct {
	Status     string    `json:"status"`
	Started    time.Time `json:"started"`
	Uptime     string    `json:"uptime"`
	SlotHits   uint64    `json:"slot_hits"`
	SlotMisses uint64    `json:"slot_misses"`
	GapFetches uint64    `json:"gap_fetches"`
	Evictions  uint64    `json:"evictions"`
	Buckets    int       `json:"buckets"`
}

// NewMux wires the websocket endpoint, health, status and metrics.
func NewMux(h *Handler, stats StatsSource) *http.ServeMux {
	started := time.Now()

	mux := http.NewServeMux()
	mux.Handle("/ws", h)
	mux.Handle("/metrics", observability.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})
	mux.HandleFunc("/status", func(w http.ResponseWriter, _ *http.Request) {
		st := stats.Stats()
		resp := StatusResponse{
			Status:     "running",
			Started:    started,
			Uptime:     time.Since(started).Round(time.Second).String(),
			SlotHits:   st.SlotHits,
			SlotMisses: st.SlotMisses,
			GapFetches: st.GapFetches,
			Evictions:  st.Evictions,
			Buckets:    st.Buckets,
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	})
	return mux
}
