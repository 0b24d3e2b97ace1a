package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/facilidevis/facilidevis/internal/common"
)

func TestJSON(t *testing.T) {
	rr := httptest.NewRecorder()
	JSON(rr, http.StatusCreated, map[string]string{"id": "q-1"})

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("unexpected content type %q", ct)
	}
	if rr.Body.String() != `{"id":"q-1"}` {
		t.Fatalf("unexpected body %s", rr.Body.String())
	}
}

func TestJSON_Nil(t *testing.T) {
	rr := httptest.NewRecorder()
	JSON(rr, http.StatusOK, nil)
	if rr.Body.String() != "null" {
		t.Fatalf("expected null body got %s", rr.Body.String())
	}
}

func TestError_Mapping(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{common.ErrNotFound, http.StatusNotFound, "not_found"},
		{fmt.Errorf("get quote: %w", common.ErrNotFound), http.StatusNotFound, "not_found"},
		{common.ErrInvalidTransition, http.StatusConflict, "invalid_transition"},
		{common.ErrVersionConflict, http.StatusConflict, "version_conflict"},
		{common.ErrAlreadyScheduled, http.StatusConflict, "reminders_already_scheduled"},
		{fmt.Errorf("%w: %w", common.ErrDeliveryFailure, common.ErrNoRecipient), http.StatusBadRequest, "no_recipient"},
		{common.ErrConfigMissing, http.StatusServiceUnavailable, "feature_unavailable"},
		{fmt.Errorf("smtp: %w", common.ErrDeliveryFailure), http.StatusBadGateway, "delivery_failed"},
		{common.ErrDuplicate, http.StatusConflict, "already_exists"},
		{common.ErrInUse, http.StatusConflict, "in_use"},
		{common.ErrUnauthorized, http.StatusUnauthorized, "unauthorized"},
		{common.NewValidationError(map[string]string{"title": "too_short"}), http.StatusBadRequest, "validation_failed"},
		{&http.MaxBytesError{Limit: 10}, http.StatusRequestEntityTooLarge, "payload_too_large"},
		{errors.New("boom"), http.StatusInternalServerError, "internal_error"},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			rr := httptest.NewRecorder()
			if got := Error(rr, tt.err); got != tt.status {
				t.Fatalf("expected status %d got %d", tt.status, got)
			}
			var body ErrorResponse
			if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body.Error != tt.code {
				t.Fatalf("expected code %s got %s", tt.code, body.Error)
			}
		})
	}
}

func TestError_ValidationDetails(t *testing.T) {
	rr := httptest.NewRecorder()
	Error(rr, common.NewValidationError(map[string]string{"items": "required"}))

	var body struct {
		Details map[string]string `json:"details"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Details["items"] != "required" {
		t.Fatalf("expected items=required got %v", body.Details)
	}
}

func TestDecodeJSONLimit(t *testing.T) {
	var v struct {
		Name string `json:"name"`
	}

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"Jean"}`))
	if err := DecodeJSON(rr, req, &v); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Name != "Jean" {
		t.Fatalf("expected Jean got %q", v.Name)
	}

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"`+strings.Repeat("x", 100)+`"}`))
	err := DecodeJSONLimit(rr, req, &v, 64)
	var tooLarge *http.MaxBytesError
	if !errors.As(err, &tooLarge) {
		t.Fatalf("expected MaxBytesError got %v", err)
	}
}
