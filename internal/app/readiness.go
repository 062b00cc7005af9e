package app

import (
	"context"
	"errors"
	"fmt"
)

// TikaVersioner is the slice of the Tika client readiness needs.
type TikaVersioner interface {
	Version(ctx context.Context) (string, error)
}

// Pinger is anything that can prove a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// BuildReadinessChecks returns the tika and redis probes. The redis probe is
// nil when the cache lives in memory so readiness does not report it.
func BuildReadinessChecks(tika TikaVersioner, redis Pinger) (tikaCheck, redisCheck func(ctx context.Context) error) {
	tikaCheck = func(ctx context.Context) error {
		if tika == nil {
			return errors.New("tika not configured")
		}
		v, err := tika.Version(ctx)
		if err != nil {
			return fmt.Errorf("tika: %w", err)
		}
		if v == "" {
			return errors.New("tika: empty version")
		}
		return nil
	}
	if redis != nil {
		redisCheck = func(ctx context.Context) error {
			if err := redis.Ping(ctx); err != nil {
				return fmt.Errorf("redis: %w", err)
			}
			return nil
		}
	}
	return tikaCheck, redisCheck
}
