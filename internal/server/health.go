package server

import (
	"context"
	"net/http"
	"sync"
	"time"
)

// ServingStatus mirrors the states of the gRPC health protocol
type ServingStatus int

const (
	StatusUnknown ServingStatus = iota
	StatusServing
	StatusNotServing
)

func (s ServingStatus) String() string {
	switch s {
	case StatusServing:
		return "SERVING"
	case StatusNotServing:
		return "NOT_SERVING"
	default:
		return "UNKNOWN"
	}
}

// Pinger is satisfied by the telemetry repository
type Pinger interface {
	Ping(ctx context.Context) error
}

const pingTimeout = 2 * time.Second

// HealthChecker answers GET /healthz?service=<name>
type HealthChecker struct {
	mu     sync.RWMutex
	status map[string]ServingStatus
	pinger Pinger
}

// NewHealthChecker returns a checker; pinger may be nil.
func NewHealthChecker(pinger Pinger) *HealthChecker {
	return &HealthChecker{
		status: make(map[string]ServingStatus),
		pinger: pinger,
	}
}

// Check reports the status of service, consulting the database while serving.
func (h *HealthChecker) Check(ctx context.Context, service string) (ServingStatus, bool) {
	h.mu.RLock()
	status, ok := h.status[service]
	h.mu.RUnlock()
	if !ok {
		return StatusUnknown, false
	}

	if status == StatusServing && h.pinger != nil {
		ctx, cancel := context.WithTimeout(ctx, pingTimeout)
		defer cancel()
		if err := h.pinger.Ping(ctx); err != nil {
			return StatusNotServing, true
		}
	}
	return status, true
}

// SetServingStatus sets the serving status of a service
func (h *HealthChecker) SetServingStatus(service string, status ServingStatus) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.status[service] = status
}

func (h *HealthChecker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	status, ok := h.Check(r.Context(), r.URL.Query().Get("service"))
	if !ok {
		writeError(w, http.StatusNotFound, "unknown service")
		return
	}

	code := http.StatusOK
	if status != StatusServing {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, map[string]string{"status": status.String()})
}
