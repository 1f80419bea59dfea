package handlers

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/eldtechnologies/roomboard/internal/metrics"
)

const version = "0.1.0"

// Check represents the status of a health check.
type Check struct {
	Status  string `json:"status"`            // "pass" or "fail"
	Latency string `json:"latency,omitempty"` // e.g., "2ms"
	Message string `json:"message,omitempty"`
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status    string           `json:"status"` // "healthy" or "degraded"
	Version   string           `json:"version"`
	Instance  string           `json:"instance,omitempty"`
	Checks    map[string]Check `json:"checks"`
	Timestamp string           `json:"timestamp"`
}

type pinger interface {
	Ping(ctx context.Context) error
}

// Health handles the health check endpoint.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	checks := make(map[string]Check)
	allHealthy := true

	// Check the message database
	if h.Store != nil {
		checks["database"] = ping(ctx, "database", h.Store)
	} else {
		checks["database"] = Check{Status: "fail", Message: "not configured"}
	}

	// Check the session store; the in-memory one has nothing to ping
	if p, ok := h.Sessions.(pinger); ok {
		checks["sessions"] = ping(ctx, "sessions", p)
	} else {
		checks["sessions"] = Check{Status: "pass", Message: "in-memory"}
	}

	for _, c := range checks {
		if c.Status != "pass" {
			allHealthy = false
		}
	}

	status := "healthy"
	statusCode := http.StatusOK
	if !allHealthy {
		status = "degraded"
		statusCode = http.StatusServiceUnavailable
	}

	resp := HealthResponse{
		Status:    status,
		Version:   version,
		Instance:  os.Getenv("HOSTNAME"),
		Checks:    checks,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}

	h.JSON(w, statusCode, resp)
}

func ping(ctx context.Context, backend string, p pinger) Check {
	start := time.Now()
	err := p.Ping(ctx)
	elapsed := time.Since(start)
	metrics.StoreLatency.WithLabelValues(backend).Observe(elapsed.Seconds())
	if err != nil {
		return Check{Status: "fail", Message: "connection failed"}
	}
	return Check{Status: "pass", Latency: elapsed.String()}
}

// RootResponse represents the API info endpoint response.
type RootResponse struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// Root handles the API info endpoint.
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	h.JSON(w, http.StatusOK, RootResponse{
		Name:    "roomboard",
		Version: version,
	})
}
