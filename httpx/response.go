// Package httpx holds the JSON response helpers shared by every handler.
package httpx

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/facilidevis/facilidevis/internal/common"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

func JSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	var body []byte
	var err error
	if payload != nil {
		body, err = json.Marshal(payload)
		if err != nil {
			// best-effort error response; avoid writing partial JSON
			http.Error(w, `{"error":"encode_error"}`, http.StatusInternalServerError)
			return
		}
	} else {
		body = []byte("null")
	}
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func JSONError(w http.ResponseWriter, status int, msg string, details any) {
	JSON(w, status, ErrorResponse{Error: msg, Details: details})
}

// Error maps a domain error to its HTTP status and error code and writes it.
// It returns the status so callers can decide whether to log.
func Error(w http.ResponseWriter, err error) int {
	status, code, details := classify(err)
	JSONError(w, status, code, details)
	return status
}

func classify(err error) (int, string, any) {
	var verr *common.ValidationError
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest, "validation_failed", verr.Fields
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge, "payload_too_large", map[string]any{"limit": tooLarge.Limit}
	case errors.Is(err, common.ErrNotFound):
		return http.StatusNotFound, "not_found", nil
	case errors.Is(err, common.ErrUnauthorized):
		return http.StatusUnauthorized, "unauthorized", nil
	case errors.Is(err, common.ErrInvalidTransition):
		return http.StatusConflict, "invalid_transition", nil
	case errors.Is(err, common.ErrVersionConflict):
		return http.StatusConflict, "version_conflict", nil
	case errors.Is(err, common.ErrAlreadyScheduled):
		return http.StatusConflict, "reminders_already_scheduled", nil
	case errors.Is(err, common.ErrDuplicate):
		return http.StatusConflict, "already_exists", nil
	case errors.Is(err, common.ErrInUse):
		return http.StatusConflict, "in_use", nil
	case errors.Is(err, common.ErrNoRecipient):
		return http.StatusBadRequest, "no_recipient", nil
	case errors.Is(err, common.ErrConfigMissing):
		return http.StatusServiceUnavailable, "feature_unavailable", nil
	case errors.Is(err, common.ErrDeliveryFailure):
		return http.StatusBadGateway, "delivery_failed", map[string]any{"retryable": true}
	default:
		return http.StatusInternalServerError, "internal_error", nil
	}
}

// MaxBodyBytes caps request bodies read by DecodeJSON.
const MaxBodyBytes = 64 << 10

// DecodeJSON decodes the request body into v, rejecting unknown fields.
func DecodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	return DecodeJSONLimit(w, r, v, MaxBodyBytes)
}

// DecodeJSONLimit is DecodeJSON with a caller-chosen body cap. Reads past
// limit fail with *http.MaxBytesError.
func DecodeJSONLimit(w http.ResponseWriter, r *http.Request, v any, limit int64) error {
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
