// Package obsapi serves the operational observability surface: a
// health check, a point-in-time status snapshot, and a streaming feed
// of the internal event bus over WebSocket.
package obsapi

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/thornlake/wardenmq/internal/events"
)

// StatusFunc reports a point-in-time snapshot for GET /status. The
// supervisor supplies this as a closure rather than obsapi importing
// the supervisor package, avoiding an import cycle.
type StatusFunc func() any

// Server is the observability HTTP server.
type Server struct {
	address  string
	port     int
	bus      *events.Bus
	status   StatusFunc
	logger   *slog.Logger
	server   *http.Server
	upgrader websocket.Upgrader
}

// NewServer builds an observability server. statusFn may be nil, in
// which case GET /status reports an empty object.
func NewServer(address string, port int, bus *events.Bus, statusFn StatusFunc, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if statusFn == nil {
		statusFn = func() any { return map[string]any{} }
	}
	return &Server{
		address: address,
		port:    port,
		bus:     bus,
		status:  statusFn,
		logger:  logger.With("component", "obsapi"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Observability stream, not a browser-facing app — allow
			// any origin rather than maintaining an allowlist.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

func writeJSON(w http.ResponseWriter, v any, logger *slog.Logger) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Debug("failed to write JSON response", "error", err)
	}
}

// Start begins serving HTTP requests. It blocks until the server stops
// (via Shutdown or a listener error).
func (s *Server) Start(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealthz)
	mux.HandleFunc("GET /status", s.handleStatus)
	mux.HandleFunc("GET /events", s.handleEvents)

	s.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", s.address, s.port),
		Handler:      s.withLogging(mux),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 0, // the /events stream is long-lived
	}

	s.logger.Info("starting observability server", "address", s.address, "port", s.port)
	err := s.server.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Debug("request", "method", r.Method, "path", r.URL.Path, "duration", time.Since(start))
	})
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "healthy"}, s.logger)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.status(), s.logger)
}

// handleEvents upgrades the request to a WebSocket and streams every
// event published on the bus until the client disconnects, a write
// fails, or the subscription channel is closed.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Debug("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	ch := s.bus.Subscribe(64)
	defer s.bus.Unsubscribe(ch)

	// Drain client-initiated control frames (pings/close) on their own
	// goroutine; this connection never expects inbound data frames.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-closed:
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			if err := conn.WriteJSON(ev); err != nil {
				s.logger.Debug("websocket write failed", "error", err)
				return
			}
		}
	}
}
