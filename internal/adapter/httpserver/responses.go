// Package httpserver contains HTTP handlers and middleware.
//
// It exposes the interview pipeline as a JSON API: résumé upload,
// question generation, answer scoring, summaries and interview
// finalization. Handlers only translate HTTP to usecase calls.
package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/fairyhunter13/ai-interview-engine/internal/domain"
)

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

// statusFor maps the error taxonomy to an HTTP status and error code.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrInvalidArgument):
		return http.StatusBadRequest, "INVALID_ARGUMENT"
	case errors.Is(err, domain.ErrUnsupportedFormat):
		return http.StatusUnsupportedMediaType, "UNSUPPORTED_FORMAT"
	case errors.Is(err, domain.ErrCompletionUnavailable):
		if errors.Is(err, domain.ErrUpstreamRateLimit) {
			return http.StatusServiceUnavailable, "UPSTREAM_RATE_LIMIT"
		}
		return http.StatusServiceUnavailable, "COMPLETION_UNAVAILABLE"
	case errors.Is(err, domain.ErrDecode):
		return http.StatusBadGateway, "DECODE_FAILED"
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadGateway, "VALIDATION_FAILED"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "TIMEOUT"
	}
	return http.StatusInternalServerError, "INTERNAL"
}

func writeError(w http.ResponseWriter, r *http.Request, err error, details interface{}) {
	status, code := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		LoggerFrom(r).Error("request failed", "error", err)
		msg = http.StatusText(status)
	}
	writeJSON(w, status, errorEnvelope{Error: apiError{Code: code, Message: msg, Details: details}})
}
