package config

import (
	"strings"
	"time"

	"github.com/fairyhunter13/ai-interview-engine/internal/domain"
)

// RetryConfig is the completion client's retry policy.
type RetryConfig struct {
	// MaxAttempts counts every call, model advances included.
	MaxAttempts int
	// DefaultRetryDelay is used for 429/503 when the error carries no hint.
	DefaultRetryDelay time.Duration
	// BackoffBase is multiplied by 2^attempt for other failures.
	BackoffBase time.Duration
}

// GetRetryConfig returns the retry configuration
func (c Config) GetRetryConfig() RetryConfig {
	rc := RetryConfig{
		MaxAttempts:       c.CompletionMaxAttempts,
		DefaultRetryDelay: c.CompletionDefaultRetryDelay,
		BackoffBase:       c.CompletionBackoffBase,
	}
	if rc.MaxAttempts <= 0 {
		rc.MaxAttempts = 3
	}
	return rc
}

// ModelsFor returns the ordered model list of a tier.
func (c Config) ModelsFor(tier domain.Tier) []string {
	var in []string
	switch tier {
	case domain.TierFast:
		in = c.FastModels
	case domain.TierDeep:
		in = c.DeepModels
	}
	out := make([]string, 0, len(in))
	for _, m := range in {
		if m = strings.TrimSpace(m); m != "" {
			out = append(out, m)
		}
	}
	return out
}
