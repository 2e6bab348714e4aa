// Package api exposes the read-only HTTP interface over the persisted
// catalog and changelog.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Trust914/MivaFocus-Extension/internal/catalog"
	"github.com/Trust914/MivaFocus-Extension/internal/metrics"
)

// ArtifactStore reads persisted run artifacts.
type ArtifactStore interface {
	Load(ctx context.Context, name string) ([]byte, error)
}

// Config controls the server routes.
type Config struct {
	CatalogName   string
	ChangelogName string
	Timeout       time.Duration
}

// Server wires HTTP handlers to the artifact store.
type Server struct {
	router  chi.Router
	store   ArtifactStore
	metrics *metrics.Metrics
	cfg     Config
	logger  *zap.Logger
}

// NewServer constructs a Server with middleware and routes.
func NewServer(store ArtifactStore, m *metrics.Metrics, cfg Config, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.CatalogName == "" {
		cfg.CatalogName = "courses.json"
	}
	if cfg.ChangelogName == "" {
		cfg.ChangelogName = "CHANGELOG.md"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	s := &Server{
		store:   store,
		metrics: m,
		cfg:     cfg,
		logger:  logger,
	}

	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware(logger))
	r.Use(recoverMiddleware(logger))
	r.Use(timeoutMiddleware(cfg.Timeout))

	r.Get("/healthz", s.healthz)
	r.Get("/readyz", s.readyz)
	if m != nil {
		r.Method(http.MethodGet, "/metrics", m.Handler())
	}

	r.Route("/v1", func(r chi.Router) {
		r.Get("/catalog", s.getCatalog)
		r.Get("/catalog/departments/{code}", s.getDepartment)
		r.Get("/changelog", s.getChangelog)
	})

	s.router = r
	return s
}

// Handler returns the router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) readyz(w http.ResponseWriter, r *http.Request) {
	// Ready once a catalog baseline exists to serve.
	if _, err := s.store.Load(r.Context(), s.cfg.CatalogName); err != nil {
		s.writeError(w, http.StatusServiceUnavailable, "catalog not available")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) getCatalog(w http.ResponseWriter, r *http.Request) {
	data, err := s.store.Load(r.Context(), s.cfg.CatalogName)
	if err != nil {
		if os.IsNotExist(err) {
			s.writeError(w, http.StatusNotFound, "catalog not found")
			return
		}
		s.writeError(w, http.StatusInternalServerError, "failed to load catalog")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		s.logger.Error("catalog write failed", zap.Error(err))
	}
}

func (s *Server) getDepartment(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	data, err := s.store.Load(r.Context(), s.cfg.CatalogName)
	if err != nil {
		s.writeError(w, http.StatusNotFound, "catalog not found")
		return
	}
	cat, err := catalog.Decode(data)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "catalog is corrupt")
		return
	}
	dept, ok := cat.Departments()[code]
	if !ok {
		s.writeError(w, http.StatusNotFound, "department not found")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"code": code, "department": dept})
}

func (s *Server) getChangelog(w http.ResponseWriter, r *http.Request) {
	data, err := s.store.Load(r.Context(), s.cfg.ChangelogName)
	if err != nil {
		if os.IsNotExist(err) {
			s.writeError(w, http.StatusNotFound, "changelog not found")
			return
		}
		s.writeError(w, http.StatusInternalServerError, "failed to load changelog")
		return
	}
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		s.logger.Error("changelog write failed", zap.Error(err))
	}
}

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := uuid.NewString()
		ctx := context.WithValue(r.Context(), requestIDKey{}, reqID)
		w.Header().Set("X-Request-ID", reqID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func loggingMiddleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := &responseWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(ww, r)
			logger.Info("request completed",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.status),
				zap.Int64("duration_ms", time.Since(start).Milliseconds()),
			)
		})
	}
}

func recoverMiddleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					logger.Error("panic recovered", zap.Any("error", rec))
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{"error": "internal server error"})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

func timeoutMiddleware(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.TimeoutHandler(next, d, "request timed out")
	}
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

type requestIDKey struct{}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("write JSON failed", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}
