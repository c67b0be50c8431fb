//go:generate go run github.com/golang/mock/mockgen -destination=./mocks/runner.go -package=mocks . PipelineRunner

package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/tejusbharadwaj/telemetry-resampler/internal/models"
	"github.com/tejusbharadwaj/telemetry-resampler/internal/pipeline"
	"github.com/tejusbharadwaj/telemetry-resampler/internal/resample"
	middleware "github.com/tejusbharadwaj/telemetry-resampler/internal/server/middlewares"
)

// maxBodyBytes bounds the request body of POST /resample
const maxBodyBytes = 1 << 20

// ServerConfig holds configuration options for the HTTP server
type ServerConfig struct {
	RateLimit      float64 // Requests per second
	RateLimitBurst int     // Maximum burst size for rate limiting
}

// DefaultServerConfig returns a ServerConfig with sensible defaults
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		RateLimit:      5.0, // 5 requests per second
		RateLimitBurst: 10,  // Burst of 10 requests
	}
}

// PipelineRunner runs one resampling request end to end
type PipelineRunner interface {
	Run(ctx context.Context, req models.PipelineRequest) (*pipeline.Result, error)
}

// ResampleService encapsulates the request handling
type ResampleService struct {
	runner    PipelineRunner
	validator *RequestValidator
}

// NewResampleService creates a new service instance
func NewResampleService(runner PipelineRunner) *ResampleService {
	return &ResampleService{
		runner:    runner,
		validator: NewRequestValidator(),
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

// HandleResample implements POST /resample
func (s *ResampleService) HandleResample(w http.ResponseWriter, r *http.Request) {
	var req models.PipelineRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}

	// Validate request
	if err := s.validator.Validate(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := s.runner.Run(r.Context(), req)
	if err != nil {
		if errors.Is(err, resample.ErrInvalidParameter) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("resampling failed: %v", err))
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// SetupServer builds the routed handler with all middleware. Metrics are
// registered on reg and exposed on /metrics.
func SetupServer(
	runner PipelineRunner,
	health *HealthChecker,
	logger *logrus.Logger,
	reg *prometheus.Registry,
	config ServerConfig,
) (http.Handler, error) {
	metrics, err := middleware.NewMetrics(reg)
	if err != nil {
		return nil, err
	}

	service := NewResampleService(runner)
	limiter := middleware.NewRateLimiter(config.RateLimit, config.RateLimitBurst)

	mux := http.NewServeMux()
	mux.Handle("POST /resample", metrics.Instrument("resample",
		limiter(http.HandlerFunc(service.HandleResample)),
	))
	mux.Handle("GET /healthz", metrics.Instrument("healthz", health))
	mux.Handle("GET /metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("OK"))
	})

	return chainMiddlewares(mux,
		middleware.ContextMiddleware,            // Add request ID first
		middleware.NewLoggingMiddleware(logger), // Log all requests (with request ID)
	), nil
}

// chainMiddlewares wraps h so that the first middleware runs outermost
func chainMiddlewares(h http.Handler, middlewares ...func(http.Handler) http.Handler) http.Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}
	return h
}

func writeJSON(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, errorResponse{Error: msg})
}
