package ratelimiter

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/fairyhunter13/ai-interview-engine/internal/adapter/observability"
	"github.com/fairyhunter13/ai-interview-engine/internal/domain"
	obsctx "github.com/fairyhunter13/ai-interview-engine/internal/observability"
)

// minWait keeps a drained bucket from being polled in a tight loop.
const minWait = 50 * time.Millisecond

// CompletionClient takes one token from the tier's bucket before every
// completion call, waiting for a refill when the bucket is empty.
type CompletionClient struct {
	next    domain.CompletionClient
	limiter Limiter
	sleep   func(ctx context.Context, d time.Duration) error
}

var _ domain.CompletionClient = (*CompletionClient)(nil)

// NewCompletionClient wraps next. Each tier gets its own bucket of perMinute calls.
func NewCompletionClient(next domain.CompletionClient, l *RedisLuaLimiter, perMinute int) *CompletionClient {
	b := NewBucketConfigFromPerMinute(perMinute)
	l.SetBucketConfig(bucketKey(domain.TierFast), b)
	l.SetBucketConfig(bucketKey(domain.TierDeep), b)
	return &CompletionClient{next: next, limiter: l, sleep: sleepCtx}
}

func bucketKey(t domain.Tier) string { return "completion:" + string(t) }

// Configured reports whether the wrapped client reaches a real model.
func (c *CompletionClient) Configured() bool { return c.next.Configured() }

// Complete waits for a token and then delegates. Placeholder mode never
// consumes tokens.
func (c *CompletionClient) Complete(ctx domain.Context, prompt string, tier domain.Tier) (string, error) {
	if c.Configured() {
		if err := c.acquire(ctx, tier); err != nil {
			return "", fmt.Errorf("op=ratelimiter.Complete: %w", err)
		}
	}
	return c.next.Complete(ctx, prompt, tier)
}

func (c *CompletionClient) acquire(ctx context.Context, tier domain.Tier) error {
	for {
		ok, wait, err := c.limiter.Allow(ctx, bucketKey(tier), 1)
		if err != nil {
			obsctx.LoggerFromContext(ctx).Warn("shared rate limiter unavailable, continuing", slog.String("tier", string(tier)), slog.Any("error", err))
			return nil
		}
		if ok {
			return nil
		}
		wait = max(wait, minWait)
		obsctx.LoggerFromContext(ctx).Debug("completion budget exhausted, waiting", slog.String("tier", string(tier)), slog.Duration("wait", wait))
		observability.ObserveRetryWait(string(tier), "shared_limit", wait)
		if err := c.sleep(ctx, wait); err != nil {
			return err
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
