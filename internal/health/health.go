/*
Package health serves the keep-alive and health endpoints.

	GET /        - plain "Bot is alive!" for uptime pingers
	GET /health  - JSON status of every registered check

A check reports unhealthy when it returns an error.
*/
package health

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"sort"
	"sync"
	"time"
)

// AliveMessage is the body served at "/".
const AliveMessage = "Bot is alive!"

// Status is the health status.
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusUnhealthy Status = "unhealthy"
)

// CheckResult is the result of one health check.
type CheckResult struct {
	Name    string `json:"name"`
	Status  Status `json:"status"`
	Message string `json:"message,omitempty"`
	Latency int64  `json:"latency_ms"`
}

// Response is the body served at /health.
type Response struct {
	Status    Status        `json:"status"`
	Timestamp string        `json:"timestamp"`
	Version   string        `json:"version,omitempty"`
	Uptime    string        `json:"uptime"`
	Checks    []CheckResult `json:"checks,omitempty"`
}

// Check probes one dependency.
type Check func(ctx context.Context) error

// Server serves the health endpoints.
type Server struct {
	addr    string
	version string
	started time.Time
	logger  *slog.Logger

	mu     sync.RWMutex
	checks map[string]Check

	server *http.Server
}

// NewServer creates a health server listening on addr once started.
func NewServer(addr, version string, logger *slog.Logger) *Server {
	return &Server{
		addr:    addr,
		version: version,
		started: time.Now(),
		logger:  logger,
		checks:  make(map[string]Check),
	}
}

// RegisterCheck adds a named check to /health.
func (s *Server) RegisterCheck(name string, check Check) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checks[name] = check
}

// RunChecks runs every registered check in name order.
func (s *Server) RunChecks(ctx context.Context) Response {
	s.mu.RLock()
	names := make([]string, 0, len(s.checks))
	for name := range s.checks {
		names = append(names, name)
	}
	checks := make(map[string]Check, len(s.checks))
	for k, v := range s.checks {
		checks[k] = v
	}
	s.mu.RUnlock()
	sort.Strings(names)

	resp := Response{
		Status:    StatusHealthy,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   s.version,
		Uptime:    time.Since(s.started).Round(time.Second).String(),
		Checks:    make([]CheckResult, 0, len(names)),
	}
	for _, name := range names {
		start := time.Now()
		result := CheckResult{Name: name, Status: StatusHealthy}
		if err := checks[name](ctx); err != nil {
			result.Status = StatusUnhealthy
			result.Message = err.Error()
			resp.Status = StatusUnhealthy
		}
		result.Latency = time.Since(start).Milliseconds()
		resp.Checks = append(resp.Checks, result)
	}
	return resp
}

// Handler returns the HTTP handler for both endpoints.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleAlive)
	mux.HandleFunc("/health", s.handleHealth)
	return mux
}

// Start listens on the configured address and serves in the background.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	s.server = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		s.logger.Info("starting health server", "addr", ln.Addr().String())
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("health server error", "error", err)
		}
	}()
	return nil
}

// Stop shuts the server down.
func (s *Server) Stop() error {
	if s.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}

func (s *Server) handleAlive(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	s.logger.Debug("ping received", "remote", r.RemoteAddr)
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	io.WriteString(w, AliveMessage)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := s.RunChecks(r.Context())

	w.Header().Set("Content-Type", "application/json")
	if resp.Status != StatusHealthy {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	json.NewEncoder(w).Encode(resp)
}
