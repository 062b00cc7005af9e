// Package real provides the completion client backed by Gemini models.
package real

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/fairyhunter13/ai-interview-engine/internal/adapter/observability"
	"github.com/fairyhunter13/ai-interview-engine/internal/config"
	"github.com/fairyhunter13/ai-interview-engine/internal/domain"
	obsctx "github.com/fairyhunter13/ai-interview-engine/internal/observability"
)

// PlaceholderResponse is returned for every prompt when no API key is configured.
const PlaceholderResponse = "This is a placeholder AI response. Set GEMINI_API_KEY in your environment or .env file to enable real AI functionality."

// Transport performs a single generation call against one model.
type Transport interface {
	Generate(ctx context.Context, model, prompt string) (string, error)
}

type sleepFunc func(ctx context.Context, d time.Duration) error

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Client implements domain.CompletionClient with per-tier model fallback and
// the retry policy of retryMachine.
type Client struct {
	transport      Transport
	models         map[domain.Tier][]string
	policy         config.RetryConfig
	attemptTimeout time.Duration
	sleep          sleepFunc
}

var _ domain.CompletionClient = (*Client)(nil)

// New builds a client over transport. A nil transport yields an unconfigured
// client that answers every prompt with PlaceholderResponse.
func New(cfg config.Config, transport Transport) *Client {
	return &Client{
		transport: transport,
		models: map[domain.Tier][]string{
			domain.TierFast: cfg.ModelsFor(domain.TierFast),
			domain.TierDeep: cfg.ModelsFor(domain.TierDeep),
		},
		policy:         cfg.GetRetryConfig(),
		attemptTimeout: cfg.CompletionRequestTimeout,
		sleep:          sleepCtx,
	}
}

// NewFromConfig wires the Gemini transport when an API key is present.
func NewFromConfig(ctx context.Context, cfg config.Config) (*Client, error) {
	if !cfg.CompletionConfigured() {
		slog.Warn("GEMINI_API_KEY not set; completion client runs in placeholder mode")
		return New(cfg, nil), nil
	}
	t, err := NewGeminiTransport(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("op=ai.NewFromConfig: %w", err)
	}
	return New(cfg, t), nil
}

// Configured reports whether prompts reach a real model.
func (c *Client) Configured() bool { return c.transport != nil }

// Complete sends prompt to the tier's models following the retry policy.
func (c *Client) Complete(ctx domain.Context, prompt string, tier domain.Tier) (string, error) {
	if !c.Configured() {
		return PlaceholderResponse, nil
	}
	models := c.models[tier]
	if len(models) == 0 {
		return "", fmt.Errorf("op=ai.Complete: %w: no models for tier %q", domain.ErrInvalidArgument, tier)
	}

	ctx, span := observability.Tracer().Start(ctx, "ai.Complete")
	defer span.End()
	span.SetAttributes(attribute.String("ai.tier", string(tier)), attribute.Int("ai.prompt_chars", len(prompt)))

	lg := obsctx.LoggerFromContext(ctx).With(slog.String("provider", "gemini"), slog.String("tier", string(tier)))
	m := newRetryMachine(models, c.policy)
	for {
		switch m.state {
		case stateTrying:
			model := m.currentModel()
			lg.Debug("calling completion model", slog.String("model", model), slog.Int("attempt", m.attempt), slog.Int("max_attempts", m.policy.MaxAttempts))
			out, err := c.attempt(ctx, tier, model, prompt)
			if err == nil {
				m.succeed()
				span.SetAttributes(attribute.String("ai.model", model), attribute.Int("ai.attempts", m.attempt))
				lg.Info("completion succeeded", slog.String("model", model), slog.Int("attempt", m.attempt), slog.Int("response_chars", len(out)))
				return out, nil
			}
			if ctxErr := ctx.Err(); ctxErr != nil {
				span.RecordError(ctxErr)
				span.SetStatus(codes.Error, "context done")
				return "", fmt.Errorf("op=ai.Complete: %w", ctxErr)
			}
			kind, hint := classify(err)
			if advanced := m.fail(kind, hint, err); advanced {
				observability.ModelFallback(string(tier), model)
				lg.Warn("model not found, advancing to next model", slog.String("model", model), slog.String("next_model", m.currentModel()))
				continue
			}
			lg.Warn("completion attempt failed", slog.String("model", model), slog.Int("attempt", m.attempt), slog.String("kind", kind.String()), slog.Any("error", err))
		case stateWaiting:
			observability.ObserveRetryWait(string(tier), m.reason.String(), m.delay)
			lg.Info("waiting before completion retry", slog.Duration("delay", m.delay), slog.String("reason", m.reason.String()))
			if err := c.sleep(ctx, m.delay); err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, "context done")
				return "", fmt.Errorf("op=ai.Complete: %w", err)
			}
			m.resume()
		case stateFailed:
			err := &domain.CompletionUnavailableError{Tier: tier, Model: m.lastModel, Attempts: m.attempt, Last: m.last}
			span.RecordError(err)
			span.SetStatus(codes.Error, "attempts exhausted")
			lg.Error("completion failed after retries", slog.String("model", m.lastModel), slog.Int("attempts", m.attempt), slog.Any("error", m.last))
			return "", err
		default:
			return "", fmt.Errorf("op=ai.Complete: %w: unexpected retry state %s", domain.ErrInternal, m.state)
		}
	}
}

func (c *Client) attempt(ctx context.Context, tier domain.Tier, model, prompt string) (string, error) {
	callCtx := ctx
	if c.attemptTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, c.attemptTimeout)
		defer cancel()
	}
	start := time.Now()
	out, err := c.transport.Generate(callCtx, model, prompt)
	outcome := "ok"
	if err != nil {
		kind, _ := classify(err)
		outcome = kind.String()
		if errors.Is(err, context.DeadlineExceeded) {
			outcome = "timeout"
		}
	}
	observability.ObserveCompletion(string(tier), model, outcome, time.Since(start))
	return out, err
}
