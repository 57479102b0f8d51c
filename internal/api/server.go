// Package api serves the mock backend over HTTP under /api and as MCP tools.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/kalambet/talentflow/internal/hiring"
	"github.com/kalambet/talentflow/internal/mockapi"
)

const maxRequestBodySize = 1 << 20 // 1MB

// Deps holds what the HTTP handlers need. Chaos may be nil.
type Deps struct {
	Backend *mockapi.Backend
	Chaos   *mockapi.Chaos
	Logger  *slog.Logger
}

// NewHandler returns the router: /health plus every /api route, each wrapped
// in the chaos class that matches it.
func NewHandler(deps Deps) http.Handler {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(deps.Logger))

	r.Get("/health", handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(withChaos(deps, mockapi.OpRead))
			r.Get("/jobs", handleListJobs(deps))
			r.Get("/jobs/{id}", handleGetJob(deps))
			r.Get("/candidates", handleListCandidates(deps))
			r.Get("/candidates/{id}", handleGetCandidate(deps))
			r.Get("/candidates/{id}/timeline", handleTimeline(deps))
			r.Get("/assessments/{jobId}", handleGetAssessment(deps))
			r.Get("/assessments/{jobId}/submissions", handleListSubmissions(deps))
		})

		r.Group(func(r chi.Router) {
			r.Use(withChaos(deps, mockapi.OpWrite))
			r.Post("/jobs", handleCreateJob(deps))
			r.Patch("/jobs/{id}", handleUpdateJob(deps))
			r.Delete("/jobs/{id}", handleDeleteJob(deps))
			r.Post("/candidates", handleCreateCandidate(deps))
			r.Patch("/candidates/{id}", handleUpdateCandidate(deps))
			r.Put("/assessments/{jobId}", handlePutAssessment(deps))
			r.Post("/assessments/{jobId}/submit", handleSubmit(deps))
		})

		r.With(withChaos(deps, mockapi.OpReorder)).Patch("/jobs/{id}/reorder", handleReorderJob(deps))
	})

	return r
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

// withChaos delays every request of the group and fails a share of them with
// a 500, as the configured rates dictate.
func withChaos(deps Deps, kind mockapi.OpKind) func(http.Handler) http.Handler {
	msg := "Random error"
	if kind == mockapi.OpReorder {
		msg = "Injected 500 for reorder"
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := deps.Chaos.Delay(r.Context()); err != nil {
				return
			}
			if deps.Chaos.Fail(kind) {
				deps.Logger.Info("injected failure", "method", r.Method, "path", r.URL.Path, "request_id", requestIDFrom(r))
				httpError(w, http.StatusInternalServerError, "%s", msg)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

const requestIDHeader = "X-Request-Id"

func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(requestIDHeader)
			if id == "" {
				id = uuid.New().String()
				r.Header.Set(requestIDHeader, id)
			}
			w.Header().Set(requestIDHeader, id)

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Debug("request",
				"request_id", id,
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"duration_ms", time.Since(start).Milliseconds(),
			)
		})
	}
}

func requestIDFrom(r *http.Request) string {
	return r.Header.Get(requestIDHeader)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func httpError(w http.ResponseWriter, code int, format string, args ...any) {
	writeJSON(w, code, map[string]any{"error": fmt.Sprintf(format, args...)})
}

// writeBackendError maps mock backend errors onto status codes. notFound is
// the message used for a 404.
func writeBackendError(w http.ResponseWriter, err error, notFound string) {
	var verr *hiring.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":  verr.Error(),
			"fields": verr.Fields,
		})
	case errors.Is(err, mockapi.ErrDuplicateSlug):
		httpError(w, http.StatusBadRequest, "Slug already exists")
	case errors.Is(err, mockapi.ErrJobInUse):
		httpError(w, http.StatusConflict, "Job has candidates or an assessment")
	case errors.Is(err, mockapi.ErrOrderMoved):
		httpError(w, http.StatusConflict, "%v", err)
	case errors.Is(err, mockapi.ErrNotFound):
		httpError(w, http.StatusNotFound, "%s", notFound)
	default:
		httpError(w, http.StatusInternalServerError, "%v", err)
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		httpError(w, http.StatusBadRequest, "invalid request body: %v", err)
		return false
	}
	return true
}

func parseID(w http.ResponseWriter, r *http.Request, key string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, key), 10, 64)
	if err != nil || id <= 0 {
		httpError(w, http.StatusBadRequest, "invalid %s %q", key, chi.URLParam(r, key))
		return 0, false
	}
	return id, true
}

func parseIntParam(r *http.Request, key string, defaultVal, maxVal int) int {
	s := r.URL.Query().Get(key)
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 0 {
		return defaultVal
	}
	if maxVal > 0 && v > maxVal {
		return maxVal
	}
	return v
}
