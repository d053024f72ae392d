package handlers

import (
	"net/http"
	"os"
	"time"

	"github.com/eldtechnologies/relay/internal/relay"
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
	Status    string           `json:"status"` // "healthy"
	Version   string           `json:"version"`
	Region    string           `json:"region,omitempty"`
	Instance  string           `json:"instance"`
	Checks    map[string]Check `json:"checks"`
	Store     relay.Stats      `json:"store"`
	Timestamp string           `json:"timestamp"`
}

// Health handles the health check endpoint. The relay has no external
// dependencies, so the only check is that the store lock is obtainable.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	stats := h.relay.Stats()

	resp := HealthResponse{
		Status:   "healthy",
		Version:  version,
		Region:   os.Getenv("FLY_REGION"),
		Instance: h.instance,
		Checks: map[string]Check{
			"store": {Status: "pass", Latency: time.Since(start).String()},
		},
		Store:     stats,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}

	h.JSON(w, http.StatusOK, resp)
}
