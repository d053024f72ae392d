package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/eldtechnologies/relay/internal/relay"
)

// Handler contains shared dependencies for all HTTP handlers.
type Handler struct {
	relay    *relay.Relay
	logger   zerolog.Logger
	instance string
}

// NewHandler creates a new Handler around the given relay.
func NewHandler(rl *relay.Relay, logger zerolog.Logger) *Handler {
	return &Handler{
		relay:    rl,
		logger:   logger,
		instance: uuid.Must(uuid.NewV7()).String(),
	}
}

// JSON sends a JSON response with the given status code. Every response
// allows any origin.
func (h *Handler) JSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Debug().Err(err).Msg("response write failed")
	}
}
