package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"toursite-backend-go/internal/services"

	"github.com/rs/zerolog"
)

// Envelope is the shape of every JSON response.
type Envelope struct {
	Success bool                  `json:"success"`
	Data    interface{}           `json:"data,omitempty"`
	Error   string                `json:"error,omitempty"`
	Fields  []services.FieldError `json:"fields,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, payload interface{}) {
	writeEnvelope(w, status, Envelope{Success: true, Data: payload})
}

func WriteError(w http.ResponseWriter, status int, message string) {
	writeEnvelope(w, status, Envelope{Success: false, Error: message})
}

func writeEnvelope(w http.ResponseWriter, status int, env Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(env)
}

// writeServiceError maps a service error to its status and message. Causes
// are logged, never returned.
func writeServiceError(w http.ResponseWriter, logger zerolog.Logger, err error) {
	var serr services.ServiceError
	if !errors.As(err, &serr) {
		logger.Error().Err(err).Msg("unhandled error")
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if serr.Status >= http.StatusInternalServerError {
		logger.Error().Err(err).Str("kind", string(serr.Kind)).Msg("request failed")
	}
	writeEnvelope(w, serr.Status, Envelope{Success: false, Error: serr.Message, Fields: serr.Fields})
}

const (
	maxJSONBody    = 1 << 20
	maxContentBody = 32 << 20
)

func decodeJSON(w http.ResponseWriter, r *http.Request, limit int64, dst interface{}) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, limit)).Decode(dst); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid payload")
		return false
	}
	return true
}

func readBody(w http.ResponseWriter, r *http.Request, limit int64) ([]byte, bool) {
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, limit))
	if err != nil {
		WriteError(w, http.StatusRequestEntityTooLarge, "Payload too large")
		return nil, false
	}
	return raw, true
}

func parseInt(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	if value < 1 {
		return fallback
	}
	return value
}

func paging(r *http.Request) (int, int) {
	q := r.URL.Query()
	return parseInt(q.Get("page"), 1), parseInt(q.Get("pageSize"), services.DefaultPageSize)
}
