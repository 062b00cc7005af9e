package config

import (
	"testing"
	"time"
)

func TestConfig_GetRetryConfig_MapsFields(t *testing.T) {
	cfg := Config{
		CompletionMaxAttempts:       5,
		CompletionDefaultRetryDelay: 3 * time.Second,
		CompletionBackoffBase:       250 * time.Millisecond,
	}

	rc := cfg.GetRetryConfig()

	if rc.MaxAttempts != 5 {
		t.Fatalf("MaxAttempts = %d, want 5", rc.MaxAttempts)
	}
	if rc.DefaultRetryDelay != 3*time.Second {
		t.Fatalf("DefaultRetryDelay = %v, want 3s", rc.DefaultRetryDelay)
	}
	if rc.BackoffBase != 250*time.Millisecond {
		t.Fatalf("BackoffBase = %v, want 250ms", rc.BackoffBase)
	}
}

func TestConfig_GetRetryConfig_NonPositiveAttempts(t *testing.T) {
	rc := Config{CompletionMaxAttempts: -1}.GetRetryConfig()
	if rc.MaxAttempts != 3 {
		t.Fatalf("MaxAttempts = %d, want 3", rc.MaxAttempts)
	}
}
