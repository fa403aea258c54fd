// Package serve provides the HTTP API over the file catalog: listing,
// timeline grouping, previews, uploads, and event streaming.
package serve

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"runtime/debug"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/timelane/timelane/internal/config"
	"github.com/timelane/timelane/internal/events"
	"github.com/timelane/timelane/internal/index"
	"github.com/timelane/timelane/internal/store"
)

const requestIDHeader = "X-Request-Id"

type ctxKey string

const requestIDKey ctxKey = "request_id"

// Rescanner triggers a catalog rescan, typically after an upload lands.
type Rescanner interface {
	ScanAll(ctx context.Context) error
}

// Server exposes the catalog over HTTP.
type Server struct {
	cfg    *config.Config
	store  *store.Store
	bus    *events.Bus
	thumbs *index.Thumbnailer
	rescan Rescanner
	log    *slog.Logger
	router chi.Router
	server *http.Server
}

// New assembles the server and its routes.
func New(cfg *config.Config, st *store.Store, bus *events.Bus, rescan Rescanner, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		cfg:    cfg,
		store:  st,
		bus:    bus,
		thumbs: index.NewThumbnailer(cfg.ThumbsDir()),
		rescan: rescan,
		log:    logger.With("component", "serve"),
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()

	r.Use(chimw.RealIP)
	r.Use(s.requestIDMiddleware)
	r.Use(s.recovererMiddleware)
	r.Use(s.loggingMiddleware)

	r.Get("/health", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Get("/files", s.handleListFiles)
		r.Get("/files/{id}", s.handleGetFile)
		r.Get("/timeline", s.handleTimeline)
		r.Get("/config", s.handleConfig)
		r.Post("/upload", s.handleUpload)
		r.Get("/events", s.handleEvents)
	})

	r.Get("/files/{id}/preview", s.handlePreview)
	r.Get("/files/{id}/thumb", s.handleThumbnail)

	return r
}

// Handler returns the assembled router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start runs the server until the context is cancelled.
func (s *Server) Start(ctx context.Context) error {
	s.server = &http.Server{
		Addr:        s.cfg.Addr(),
		Handler:     s.router,
		ReadTimeout: 15 * time.Second,
		// WriteTimeout stays off so websocket streams at /api/events
		// are not cut short.
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}

	s.log.Info("starting http server", "addr", s.cfg.Addr())

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.log.Info("shutting down http server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.server.Shutdown(shutdownCtx)
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	}
}

func (s *Server) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := sanitizeRequestID(r.Header.Get(requestIDHeader))
		if reqID == "" {
			reqID = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, reqID)
		ctx := context.WithValue(r.Context(), requestIDKey, reqID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) recovererMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.log.Error("panic recovered",
					"panic", rec,
					"request_id", requestIDFromContext(r.Context()),
					"stack", string(debug.Stack()))
				writeError(w, http.StatusInternalServerError, "internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.log.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"elapsed", time.Since(start),
			"request_id", requestIDFromContext(r.Context()))
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	total, err := s.store.Count()
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "catalog unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"files":  total,
	})
}

func requestIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}

func sanitizeRequestID(id string) string {
	id = strings.TrimSpace(id)
	if len(id) > 64 {
		return ""
	}
	for _, c := range id {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-', c == '_':
		default:
			return ""
		}
	}
	return id
}

// pathWithinRoot guards file serving against rows pointing outside the
// files root.
func pathWithinRoot(root, path string) bool {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return false
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(absRoot, absPath)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Warn("encode response failed", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": message})
}
