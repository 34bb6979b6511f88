// Package http exposes the engine as a small JSON API.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/promptdown"
	"github.com/aretw0/promptdown/internal/sanitize"
	"github.com/aretw0/promptdown/pkg/domain"
	"github.com/aretw0/promptdown/pkg/ports"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RequestIDHeader carries the request ID in both directions.
const RequestIDHeader = "X-Request-ID"

// maxBodyBytes bounds request bodies; variables are the only large part.
const maxBodyBytes = 1 << 20

// Server handles the API routes.
type Server struct {
	Engine ports.PromptEngine
	Logger *slog.Logger
}

// PlaceholdersResponse is the body of a successful POST /placeholders.
type PlaceholdersResponse struct {
	Document     string   `json:"document"`
	Placeholders []string `json:"placeholders"`
}

// ErrorResponse wraps the report of a failed request.
type ErrorResponse struct {
	Error     domain.ErrorReport `json:"error"`
	RequestID string             `json:"request_id,omitempty"`
}

type requestIDKey struct{}

// NewHandler creates the HTTP handler for engine. When gatherer is not nil its
// metrics are served on GET /metrics.
func NewHandler(engine ports.PromptEngine, logger *slog.Logger, gatherer prometheus.Gatherer) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{Engine: engine, Logger: logger}

	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(s.accessLog)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.Health)
	r.Post("/render", s.Render)
	r.Post("/placeholders", s.Placeholders)
	if gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}
	return r
}

// Health handles GET /healthz.
func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": strings.TrimSpace(promptdown.Version),
	})
}

// Render handles POST /render.
func (s *Server) Render(w http.ResponseWriter, r *http.Request) {
	var req ports.RenderRequest
	if !s.decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Path) == "" {
		s.badRequest(w, r, "path is required")
		return
	}
	vars, err := sanitize.Variables(req.Variables)
	if err != nil {
		s.badRequest(w, r, err.Error())
		return
	}
	req.Variables = vars

	out, err := s.Engine.RenderFile(r.Context(), req)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// Placeholders handles POST /placeholders.
func (s *Server) Placeholders(w http.ResponseWriter, r *http.Request) {
	var req ports.PlaceholderRequest
	if !s.decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Path) == "" {
		s.badRequest(w, r, "path is required")
		return
	}

	names, err := s.Engine.PlaceholdersFile(r.Context(), req)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	sorted := names.Sorted()
	if sorted == nil {
		sorted = []string{}
	}
	writeJSON(w, http.StatusOK, PlaceholdersResponse{Document: req.Path, Placeholders: sorted})
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		s.badRequest(w, r, fmt.Sprintf("invalid request body: %v", err))
		return false
	}
	return true
}

func (s *Server) badRequest(w http.ResponseWriter, r *http.Request, msg string) {
	writeJSON(w, http.StatusBadRequest, ErrorResponse{
		Error:     domain.ErrorReport{Kind: "bad_request", Message: msg},
		RequestID: RequestID(r.Context()),
	})
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	report := domain.ReportError(err)
	status := StatusFor(err)
	if status >= http.StatusInternalServerError {
		s.Logger.Error("Request failed", "request_id", RequestID(r.Context()), "err", err)
	}
	writeJSON(w, status, ErrorResponse{Error: report, RequestID: RequestID(r.Context())})
}

// StatusFor maps an engine error to an HTTP status code.
func StatusFor(err error) int {
	switch domain.ErrorKind(err) {
	case "ok":
		return http.StatusOK
	case "not_found":
		return http.StatusNotFound
	case "invalid_include_path":
		return http.StatusForbidden
	case "circular_include", "include_not_found", "missing_variable",
		"unknown_section", "syntax_error", "invalid_manifest":
		return http.StatusUnprocessableEntity
	case "canceled":
		if errors.Is(err, context.DeadlineExceeded) {
			return http.StatusGatewayTimeout
		}
		return http.StatusRequestTimeout
	default:
		return http.StatusInternalServerError
	}
}

// RequestID returns the ID assigned to the request carried by ctx.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// requestID keeps a caller-supplied X-Request-ID or assigns a new one.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(RequestIDHeader))
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id)))
	})
}

func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.Logger.Debug("Request served",
			"request_id", RequestID(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
		)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
