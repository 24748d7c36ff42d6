// Package chi wires the scoring service to its HTTP surface. The wire
// contract is deliberately minimal: every classification response is
// {"result":0|1}, and failures degrade to the benign label so a scanning
// pipeline upstream never stalls on one bad sample.
package chi

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/osprey-sec/malscan/internal/domain"
	healthuc "github.com/osprey-sec/malscan/internal/usecase/health"
)

// errorHandler tries to map a pipeline error to an HTTP status. Returns
// true if handled.
type errorHandler func(w http.ResponseWriter, err error) bool

// Server exposes classification over HTTP.
type Server struct {
	scorer         domain.Scorer
	health         *healthuc.Service
	logger         *zap.Logger
	maxUploadBytes int64
	errorHandlers  []errorHandler
}

// NewServer creates an HTTP API server. maxUploadBytes of 0 disables the
// request size cap.
func NewServer(
	scorer domain.Scorer,
	health *healthuc.Service,
	logger *zap.Logger,
	maxUploadBytes int64,
) *Server {
	s := &Server{
		scorer:         scorer,
		health:         health,
		logger:         logger,
		maxUploadBytes: maxUploadBytes,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrEmptyInput, http.StatusBadRequest),
		sentinelHandler(domain.ErrUnreadableInput, http.StatusBadRequest),
		sentinelHandler(domain.ErrTruncated, http.StatusBadRequest),
		sentinelHandler(domain.ErrMalformedFormat, http.StatusBadRequest),
		sentinelHandler(domain.ErrUnsupportedVariant, http.StatusBadRequest),
		sentinelHandler(domain.ErrSchemaMismatch, http.StatusInternalServerError),
		sentinelHandler(domain.ErrModelLoad, http.StatusInternalServerError),
	}
	return s
}

// RegisterRoutes mounts the API endpoints on the router.
func (s *Server) RegisterRoutes(r chi.Router) {
	r.Post("/classify", s.Classify)
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
}

// Classify handles POST /classify. The body is the raw binary.
func (s *Server) Classify(w http.ResponseWriter, r *http.Request) {
	if ct := r.Header.Get("Content-Type"); ct != "" {
		mediaType, _, err := mime.ParseMediaType(ct)
		if err != nil || mediaType != "application/octet-stream" {
			writeVerdict(w, http.StatusUnsupportedMediaType, domain.LabelBenign)
			return
		}
	}

	body := r.Body
	if s.maxUploadBytes > 0 {
		body = http.MaxBytesReader(w, body, s.maxUploadBytes)
	}

	data, err := io.ReadAll(body)
	if err != nil {
		s.logger.Warn("Failed to read request body", zap.Error(err))
		status := http.StatusBadRequest
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			status = http.StatusRequestEntityTooLarge
		}
		writeVerdict(w, status, domain.LabelBenign)
		return
	}

	result, err := s.scorer.Score(r.Context(), data)
	if err != nil {
		s.handleScoreError(w, err)
		return
	}

	writeVerdict(w, http.StatusOK, result.Label)
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, map[string]any{
		"status": report.Status,
		"checks": report.Checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// handleScoreError resolves a pipeline failure to a status code. The body
// is always the benign verdict: callers act on the label, not the status.
func (s *Server) handleScoreError(w http.ResponseWriter, err error) {
	s.logger.Warn("Classification degraded to benign", zap.Error(err))
	for _, h := range s.errorHandlers {
		if h(w, err) {
			return
		}
	}
	s.logger.Error("Internal error", zap.Error(err))
	writeVerdict(w, http.StatusInternalServerError, domain.LabelBenign)
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeVerdict(w, status, domain.LabelBenign)
		return true
	}
}

func writeVerdict(w http.ResponseWriter, status, label int) {
	writeJSON(w, status, domain.Verdict{Result: label})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
