package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"hardsub/internal/deps"
	"hardsub/internal/history"
	"hardsub/internal/logging"
	"hardsub/internal/session"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 500
)

// StatsSource reports live manager counters. *session.Manager satisfies it.
type StatsSource interface {
	Stats() session.Stats
}

// HistorySource lists recent jobs. *history.Store satisfies it.
type HistorySource interface {
	Recent(ctx context.Context, limit int) ([]history.Record, error)
}

// DependencyChecker reports toolchain availability.
type DependencyChecker func(ctx context.Context) deps.Toolchain

// Option customizes a Server.
type Option func(*Server)

// WithHistory exposes the job ledger under /api/history.
func WithHistory(source HistorySource) Option {
	return func(s *Server) { s.history = source }
}

// WithToken requires a bearer token on every /api route.
func WithToken(token string) Option {
	return func(s *Server) { s.token = token }
}

// WithDependencies adds toolchain status to /api/status.
func WithDependencies(check DependencyChecker) Option {
	return func(s *Server) { s.deps = check }
}

// WithClock overrides time.Now for uptime calculation.
func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		if now != nil {
			s.now = now
		}
	}
}

// Server is the operator status endpoint.
type Server struct {
	bind    string
	token   string
	stats   StatsSource
	history HistorySource
	deps    DependencyChecker
	now     func() time.Time
	logger  *slog.Logger

	listener net.Listener
	server   *http.Server
}

// NewServer builds a server for bind. Nothing listens until Start.
func NewServer(bind string, stats StatsSource, logger *slog.Logger, opts ...Option) *Server {
	if logger == nil {
		logger = logging.NewNop()
	}
	s := &Server{
		bind:   bind,
		stats:  stats,
		now:    time.Now,
		logger: logging.NewComponentLogger(logger, "api"),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.server = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)

	apiRoutes := r.PathPrefix("/api").Subrouter()
	apiRoutes.Use(authMiddleware(s.token))
	apiRoutes.HandleFunc("/status", s.handleStatus).Methods(http.MethodGet)
	apiRoutes.HandleFunc("/history", s.handleHistory).Methods(http.MethodGet)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})
	return r
}

// Start listens on the configured address and serves until ctx is done or
// Stop is called.
func (s *Server) Start(ctx context.Context) error {
	if s == nil {
		return nil
	}
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.ErrorWithContext(s.logger, "api server error", "api_serve_failed", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	s.logger.Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

// Addr returns the bound address once Start succeeded.
func (s *Server) Addr() string {
	if s == nil || s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Stop shuts the server down, waiting briefly for in-flight requests.
func (s *Server) Stop() {
	if s == nil || s.server == nil {
		return
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = s.server.Shutdown(shutdownCtx)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	var stats session.Stats
	if s.stats != nil {
		stats = s.stats.Stats()
	}
	payload := FromStats(stats, s.now())
	payload.PID = os.Getpid()
	payload.HistoryEnabled = s.history != nil
	if s.deps != nil {
		payload.Dependencies = FromDependencies(s.deps(r.Context()))
	}
	writeJSON(w, http.StatusOK, payload)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeError(w, http.StatusNotFound, "history is disabled")
		return
	}
	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(parsed, maxHistoryLimit)
	}
	records, err := s.history.Recent(r.Context(), limit)
	if err != nil {
		logging.WarnWithContext(s.logger, "history query failed", "api_history_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check the history database path and permissions"),
			logging.String(logging.FieldImpact, "status API returned an error"),
		)
		writeError(w, http.StatusInternalServerError, "history query failed")
		return
	}
	jobs := make([]Job, 0, len(records))
	for _, rec := range records {
		jobs = append(jobs, FromRecord(rec))
	}
	writeJSON(w, http.StatusOK, HistoryResponse{Jobs: jobs})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}
