package usecase

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/fairyhunter13/ai-interview-engine/internal/adapter/ai"
	obs "github.com/fairyhunter13/ai-interview-engine/internal/adapter/observability"
	"github.com/fairyhunter13/ai-interview-engine/internal/config"
	"github.com/fairyhunter13/ai-interview-engine/internal/domain"
	obsctx "github.com/fairyhunter13/ai-interview-engine/internal/observability"
)

// SummaryService writes the end-of-interview performance summary.
type SummaryService struct {
	AI      domain.CompletionClient
	Cache   domain.CacheStore
	Prompts Prompts
	Offline *OfflineContent
	Rand    *Random
}

// NewSummaryService wires a SummaryService from configuration.
func NewSummaryService(c domain.CompletionClient, cache domain.CacheStore, offline *OfflineContent, rnd *Random, cfg config.Config) SummaryService {
	return SummaryService{AI: c, Cache: cache, Prompts: NewPrompts(cfg.PromptMaxSourceTokens), Offline: offline, Rand: rnd}
}

// Summarize aggregates the scored answers into a PerformanceSummary, cached
// by the fingerprint of question and answer ids.
func (s SummaryService) Summarize(ctx domain.Context, qs domain.QuestionSet, answers []domain.ScoredAnswer) (domain.PerformanceSummary, error) {
	if len(qs) == 0 {
		return domain.PerformanceSummary{}, fmt.Errorf("%w: empty question set", domain.ErrInvalidArgument)
	}
	key := SummaryCacheKey(qs, answers)
	ctx, lg := obsctx.WithLogAttrs(ctx, slog.String("stage", stageSummary))

	var out domain.PerformanceSummary
	if cacheLoad(ctx, s.Cache, stageSummary, key, &out) {
		lg.Debug("summary served from cache")
		return out, nil
	}

	if s.AI == nil || !s.AI.Configured() {
		if s.Offline == nil {
			return domain.PerformanceSummary{}, fmt.Errorf("%w: no offline summary pools", domain.ErrInternal)
		}
		obs.RecordOfflineContent(stageSummary)
		out = s.Offline.Summary(randomOr(s.Rand))
	} else {
		var err error
		if out, err = s.complete(ctx, qs, answers); err != nil {
			return domain.PerformanceSummary{}, fmt.Errorf("op=summary.Summarize: %w", err)
		}
	}
	obs.ObserveSummaryScore(out.Score)
	cacheStore(ctx, s.Cache, stageSummary, key, out)
	lg.Info("summary ready", slog.Int("score", out.Score))
	return out, nil
}

func (s SummaryService) complete(ctx domain.Context, qs domain.QuestionSet, answers []domain.ScoredAnswer) (domain.PerformanceSummary, error) {
	prompt, err := s.Prompts.Summary(qs, answers)
	if err != nil {
		return domain.PerformanceSummary{}, err
	}
	raw, err := s.AI.Complete(ctx, prompt, domain.TierDeep)
	if err != nil {
		return domain.PerformanceSummary{}, err
	}
	var p summaryPayload
	if err := ai.DecodeInto(raw, &p); err != nil {
		return domain.PerformanceSummary{}, err
	}
	p.Summary = strings.TrimSpace(p.Summary)
	p.Strengths = strings.TrimSpace(p.Strengths)
	p.Improvements = strings.TrimSpace(p.Improvements)
	p.Recommendation = strings.TrimSpace(p.Recommendation)
	if err := validateStruct(p); err != nil {
		return domain.PerformanceSummary{}, err
	}
	score, err := percentScore(p.Score)
	if err != nil {
		return domain.PerformanceSummary{}, err
	}
	return domain.PerformanceSummary{
		Score:          score,
		Summary:        p.Summary,
		Strengths:      p.Strengths,
		Improvements:   p.Improvements,
		Recommendation: p.Recommendation,
	}, nil
}
