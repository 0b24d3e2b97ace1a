// Package handlers exposes the JSON HTTP API. Handlers decode the request,
// call one service and map domain errors through httpx.
package handlers

import (
	"errors"
	"net"
	"net/http"

	"github.com/facilidevis/facilidevis/auth"
	"github.com/facilidevis/facilidevis/httpx"
	"github.com/facilidevis/facilidevis/internal/common"
	"github.com/facilidevis/facilidevis/internal/logging"
)

// fail writes err and logs it when it is a server-side failure.
func fail(w http.ResponseWriter, r *http.Request, log logging.Logger, err error) {
	if status := httpx.Error(w, err); status >= http.StatusInternalServerError {
		log.Error(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "status", status, "error", err)
	}
}

// decode reads a JSON body, answering 400 on malformed input.
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	return decodeLimit(w, r, v, httpx.MaxBodyBytes)
}

// decodeLimit is decode with its own body cap; oversized bodies get 413.
func decodeLimit(w http.ResponseWriter, r *http.Request, v any, limit int64) bool {
	err := httpx.DecodeJSONLimit(w, r, v, limit)
	if err == nil {
		return true
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		httpx.Error(w, err)
		return false
	}
	httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
	return false
}

// owner returns the authenticated artisan. Routes are mounted behind
// RequireAuth, so a missing id is a wiring error.
func owner(w http.ResponseWriter, r *http.Request) (uint, bool) {
	uid, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		httpx.Error(w, common.ErrUnauthorized)
	}
	return uid, ok
}

// clientIP strips the port from RemoteAddr, which RealIP may already have
// replaced with a bare address.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func writePDF(w http.ResponseWriter, name string, pdf []byte) {
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `inline; filename="`+name+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(pdf)
}
