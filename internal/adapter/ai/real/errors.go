package real

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/fairyhunter13/ai-interview-engine/internal/domain"
)

// errorKind is the retry-relevant classification of a failed attempt.
type errorKind int

const (
	kindOther errorKind = iota
	kindNotFound
	kindRateLimited
	kindUnavailable
)

func (k errorKind) String() string {
	switch k {
	case kindNotFound:
		return "not_found"
	case kindRateLimited:
		return "rate_limited"
	case kindUnavailable:
		return "unavailable"
	}
	return "other"
}

// StatusError is an upstream failure carrying the HTTP status and, when the
// service supplied one, the retry delay it asked for.
type StatusError struct {
	Code       int
	Status     string
	Message    string
	RetryDelay time.Duration
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("gemini status %d %s: %s", e.Code, e.Status, e.Message)
}

// Unwrap maps the status onto the domain sentinels.
func (e *StatusError) Unwrap() error {
	switch e.Code {
	case http.StatusNotFound:
		return domain.ErrModelNotFound
	case http.StatusTooManyRequests:
		return domain.ErrUpstreamRateLimit
	case http.StatusServiceUnavailable:
		return domain.ErrUpstreamUnavailable
	}
	return nil
}

// classify extracts the error kind and retry hint from a transport error.
func classify(err error) (errorKind, time.Duration) {
	var se *StatusError
	if !errors.As(err, &se) {
		return kindOther, 0
	}
	switch se.Code {
	case http.StatusNotFound:
		return kindNotFound, 0
	case http.StatusTooManyRequests:
		return kindRateLimited, se.RetryDelay
	case http.StatusServiceUnavailable:
		return kindUnavailable, se.RetryDelay
	}
	return kindOther, 0
}

// fromAPIError converts genai errors into *StatusError; other errors pass through.
func fromAPIError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return statusFromAPIError(apiErr)
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return statusFromAPIError(*apiErrPtr)
	}
	return err
}

func statusFromAPIError(e genai.APIError) *StatusError {
	return &StatusError{
		Code:       e.Code,
		Status:     e.Status,
		Message:    e.Message,
		RetryDelay: retryDelayFromDetails(e.Details),
	}
}

// retryDelayFromDetails reads google.rpc.RetryInfo.retryDelay (e.g. "27s")
// from an error's detail list. It returns 0 when absent or unparsable.
func retryDelayFromDetails(details []map[string]any) time.Duration {
	for _, d := range details {
		typ, _ := d["@type"].(string)
		if !strings.Contains(typ, "RetryInfo") {
			continue
		}
		raw, _ := d["retryDelay"].(string)
		if raw == "" {
			continue
		}
		delay, err := time.ParseDuration(raw)
		if err != nil || delay < 0 {
			return 0
		}
		return delay
	}
	return 0
}
