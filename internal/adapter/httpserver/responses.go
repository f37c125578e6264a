// Package httpserver contains HTTP handlers and middleware.
//
// It exposes the assist pipeline and the workspace collaborators as a JSON
// API and keeps HTTP concerns separated from business logic.
package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/hackmate/hackmate-ai/internal/domain"
)

// retryAfterSeconds is advertised to callers when the whole roster was
// rate limited; it mirrors the gateway cooldown window.
var retryAfterSeconds = 2

type errorEnvelope struct {
	Error apiError `json:"error"`
}

type apiError struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, _ *http.Request, err error, details interface{}) {
	code := http.StatusInternalServerError
	codeStr := "INTERNAL"
	switch {
	case errors.Is(err, domain.ErrInvalidArgument):
		code = http.StatusBadRequest
		codeStr = "INVALID_ARGUMENT"
	case errors.Is(err, domain.ErrNotFound):
		code = http.StatusNotFound
		codeStr = "NOT_FOUND"
	case errors.Is(err, domain.ErrConflict):
		code = http.StatusConflict
		codeStr = "CONFLICT"
	case errors.Is(err, domain.ErrRateLimited):
		code = http.StatusTooManyRequests
		codeStr = "RATE_LIMITED"
	case errors.Is(err, domain.ErrUpstreamRateLimit):
		// Every roster model was rate limited; tell the caller when to retry.
		code = http.StatusServiceUnavailable
		codeStr = "UPSTREAM_RATE_LIMIT"
		w.Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds))
	case errors.Is(err, domain.ErrAllModelsFailed):
		code = http.StatusServiceUnavailable
		codeStr = "ALL_MODELS_FAILED"
	case errors.Is(err, domain.ErrMalformedResponse):
		code = http.StatusServiceUnavailable
		codeStr = "MALFORMED_RESPONSE"
	}
	writeJSON(w, code, errorEnvelope{Error: apiError{Code: codeStr, Message: err.Error(), Details: details}})
}
