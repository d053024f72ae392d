package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/eldtechnologies/relay/internal/metrics"
	"github.com/eldtechnologies/relay/internal/models"
)

// ErrInvalidBody is returned when a send body is not a single JSON object.
var ErrInvalidBody = errors.New("body must be a single JSON object")

// Receive handles GET ?name=<recipient>. It responds with the drained inbox,
// which is an empty array when nothing arrived in time.
func (h *Handler) Receive(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	msgs := h.relay.Receive(r.Context(), name)
	h.JSON(w, http.StatusOK, msgs)
}

// Send handles POST of a JSON object with a string "recipient" field.
// It responds true on success and false on any failure.
func (h *Handler) Send(w http.ResponseWriter, r *http.Request) {
	msg, err := decodeMessage(r.Body)
	if err != nil {
		metrics.SendFailures.WithLabelValues("body").Inc()
		h.logger.Debug().Err(err).Msg("send rejected")
		h.JSON(w, http.StatusOK, false)
		return
	}

	recipient, _ := msg.Recipient()
	if err := h.relay.Send(recipient, msg); err != nil {
		h.logger.Debug().Err(err).Msg("send rejected")
		h.JSON(w, http.StatusOK, false)
		return
	}

	h.JSON(w, http.StatusOK, true)
}

// Preflight answers CORS preflight requests on any path.
func (h *Handler) Preflight(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Headers", "*")
	w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
	w.WriteHeader(http.StatusNoContent)
}

// decodeMessage reads exactly one JSON object from body. Numbers are kept as
// json.Number so they are relayed verbatim.
func decodeMessage(body io.Reader) (models.Message, error) {
	dec := json.NewDecoder(body)
	dec.UseNumber()

	var msg models.Message
	if err := dec.Decode(&msg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBody, err)
	}
	if msg == nil {
		return nil, fmt.Errorf("%w: got null", ErrInvalidBody)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("%w: trailing data", ErrInvalidBody)
	}
	return msg, nil
}
