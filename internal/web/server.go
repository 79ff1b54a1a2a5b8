package web

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"product-mockup-studio/internal/apperr"
	"product-mockup-studio/internal/catalog"
	"product-mockup-studio/internal/overlay"
	"product-mockup-studio/internal/session"
)

type Options struct {
	Sessions       *session.Store
	Catalog        *catalog.Catalog
	Logger         *slog.Logger
	RequestTimeout time.Duration
}

type Server struct {
	sessions *session.Store
	catalog  *catalog.Catalog
	logger   *slog.Logger
	timeout  time.Duration
}

type apiError struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

func New(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	cat := opts.Catalog
	if cat == nil {
		cat = catalog.Default()
	}
	timeout := opts.RequestTimeout
	if timeout <= 0 {
		timeout = 180 * time.Second
	}
	return &Server{sessions: opts.Sessions, catalog: cat, logger: logger, timeout: timeout}
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer)
	r.Use(func(next http.Handler) http.Handler { return withLogging(next, s.logger) })

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/options", s.handleOptions)
		r.Post("/sessions", s.handleCreateSession)

		r.Route("/sessions/{id}", func(r chi.Router) {
			r.Get("/", s.withSession(s.handleView))
			r.Delete("/", s.handleDeleteSession)

			r.Put("/product", s.withSession(s.handleSetProduct))
			r.Delete("/product", s.withSession(s.handleClearProduct))
			r.Put("/style", s.withSession(s.handleSetStyle))
			r.Delete("/style", s.withSession(s.handleClearStyle))
			r.Patch("/settings", s.withSession(s.handleSettings))
			r.Post("/generate", s.withSession(s.handleGenerate))
			r.Post("/modify", s.withSession(s.handleModify))

			r.Route("/overlay", func(r chi.Router) {
				r.Put("/product", s.withSession(s.handleSetOverlayProduct))
				r.Delete("/product", s.withSession(s.handleClearOverlayProduct))
				r.Put("/style", s.withSession(s.handleSetOverlayStyle))
				r.Delete("/style", s.withSession(s.handleClearOverlayStyle))
				r.Patch("/options", s.withSession(s.handleOverlayOptions))
				r.Post("/stages/{stage}", s.withSession(s.handleOverlayStage))
				r.Post("/run", s.withSession(s.handleOverlayRun))
			})

			r.Get("/history", s.withSession(s.handleHistory))
			r.Delete("/history", s.withSession(s.handleClearHistory))
		})
	})

	return r
}

type sessionHandler func(w http.ResponseWriter, r *http.Request, ws *session.Workspace)

func (s *Server) withSession(h sessionHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ws, ok := s.sessions.Get(chi.URLParam(r, "id"))
		if !ok {
			writeJSON(w, http.StatusNotFound, apiError{Error: "session not found"})
			return
		}
		h(w, r, ws)
	}
}

// modelContext bounds a request that makes model calls.
func (s *Server) modelContext(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), s.timeout)
}

func (s *Server) writeError(w http.ResponseWriter, op string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Warn("request failed", "op", op, "status", status, "err", err)
	}
	writeJSON(w, status, apiError{Error: session.ErrorMessage(op, err), Kind: apperr.KindOf(err).String()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, overlay.ErrSuperseded), errors.Is(err, session.ErrProductChanged):
		return http.StatusConflict
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	switch apperr.KindOf(err) {
	case apperr.KindPrecondition:
		return http.StatusBadRequest
	case apperr.KindConfiguration:
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadGateway
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("content-type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func withLogging(next http.Handler, logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		logger.Info("http",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"request_id", middleware.GetReqID(r.Context()),
			"dur_ms", time.Since(start).Milliseconds(),
		)
	})
}
