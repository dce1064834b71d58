package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/vjranagit/detector-stability/pkg/evaluator"
	"go.uber.org/zap"
)

// clientBuffer is the number of pending windows kept per stream client
const clientBuffer = 8

// Server implements the HTTP API server. It is the presentation side of the
// evaluation loop: the loop publishes, handlers only read.
type Server struct {
	addr     string
	server   *http.Server
	gatherer prometheus.Gatherer
	logger   *zap.Logger

	mu      sync.RWMutex
	latest  []byte
	clients map[chan []byte]struct{}
}

// Compile-time interface guard.
var _ evaluator.Sink = (*Server)(nil)

// NewServer creates a new API server
func NewServer(addr string, gatherer prometheus.Gatherer, logger *zap.Logger) *Server {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		addr:     addr,
		gatherer: gatherer,
		logger:   logger,
		clients:  make(map[chan []byte]struct{}),
	}
}

// Handler returns the route table
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// Register handlers
	mux.HandleFunc("GET /api/v1/window", s.handleWindow)
	mux.HandleFunc("GET /api/v1/stream", s.handleStream)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("GET /metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))

	return mux
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.addr,
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	return s.server.ListenAndServe()
}

// Stop stops the HTTP server
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

// Publish implements evaluator.Sink. The window is encoded once and fanned out
// to stream clients; a client that falls behind misses windows.
func (s *Server) Publish(_ context.Context, res evaluator.WindowResult) {
	data, err := json.Marshal(newWindowView(res))
	if err != nil {
		s.logger.Warn("failed to encode window", zap.Error(err))
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.latest = data
	for ch := range s.clients {
		select {
		case ch <- data:
		default:
		}
	}
}

// handleWindow returns the latest window
func (s *Server) handleWindow(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	data := s.latest
	s.mu.RUnlock()

	if data == nil {
		http.Error(w, "No window evaluated yet", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Write(data)
}

// handleStream upgrades to WebSocket and sends one message per window
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket accept failed", zap.Error(err))
		return
	}
	defer conn.CloseNow()

	ch := make(chan []byte, clientBuffer)

	s.mu.Lock()
	s.clients[ch] = struct{}{}
	if s.latest != nil {
		ch <- s.latest
	}
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.clients, ch)
		s.mu.Unlock()
	}()

	// The stream is write-only; CloseRead handles control frames
	ctx := conn.CloseRead(r.Context())

	for {
		select {
		case <-ctx.Done():
			conn.Close(websocket.StatusNormalClosure, "")
			return
		case data := <-ch:
			writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err := conn.Write(writeCtx, websocket.MessageText, data)
			cancel()
			if err != nil {
				s.logger.Debug("stream client dropped", zap.Error(err))
				return
			}
		}
	}
}

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	ready := s.latest != nil
	s.mu.RUnlock()

	status := "starting"
	if ready {
		status = "healthy"
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"status": status,
	})
}
