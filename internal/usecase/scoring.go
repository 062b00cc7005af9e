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

// noAnswerText stands in for a skipped or unresolvable answer.
const noAnswerText = "No answer provided"

// ScoringService grades individual answers.
type ScoringService struct {
	AI      domain.CompletionClient
	Cache   domain.CacheStore
	Prompts Prompts
	Offline *OfflineContent
	Rand    *Random
}

// NewScoringService wires a ScoringService from configuration.
func NewScoringService(c domain.CompletionClient, cache domain.CacheStore, offline *OfflineContent, rnd *Random, cfg config.Config) ScoringService {
	return ScoringService{AI: c, Cache: cache, Prompts: NewPrompts(cfg.PromptMaxSourceTokens), Offline: offline, Rand: rnd}
}

// Score grades answerText against q. Results, offline ones included, are
// cached per (question, answer text). Completion, decode and validation
// failures are returned, never replaced.
func (s ScoringService) Score(ctx domain.Context, q domain.Question, answerText string) (domain.AnswerScore, error) {
	answerText = strings.TrimSpace(answerText)
	if answerText == "" {
		answerText = noAnswerText
	}
	key := ScoreCacheKey(q, answerText)
	ctx, lg := obsctx.WithLogAttrs(ctx, slog.String("stage", stageScore), slog.Int("question_id", q.ID))

	var out domain.AnswerScore
	if cacheLoad(ctx, s.Cache, stageScore, key, &out) {
		lg.Debug("score served from cache")
		return out, nil
	}

	if s.AI == nil || !s.AI.Configured() {
		if s.Offline == nil {
			return domain.AnswerScore{}, fmt.Errorf("%w: no offline feedback pools", domain.ErrInternal)
		}
		obs.RecordOfflineContent(stageScore)
		out = s.Offline.Score(randomOr(s.Rand))
	} else {
		var err error
		if out, err = s.complete(ctx, q, answerText); err != nil {
			return domain.AnswerScore{}, fmt.Errorf("op=scoring.Score: %w", err)
		}
	}
	obs.ObserveAnswerScore(string(q.Difficulty), out.Score)
	cacheStore(ctx, s.Cache, stageScore, key, out)
	return out, nil
}

func (s ScoringService) complete(ctx domain.Context, q domain.Question, answerText string) (domain.AnswerScore, error) {
	raw, err := s.AI.Complete(ctx, s.Prompts.Score(q, answerText), domain.TierDeep)
	if err != nil {
		return domain.AnswerScore{}, err
	}
	var p scorePayload
	if err := ai.DecodeInto(raw, &p); err != nil {
		return domain.AnswerScore{}, err
	}
	p.Feedback = strings.TrimSpace(p.Feedback)
	if err := validateStruct(p); err != nil {
		return domain.AnswerScore{}, err
	}
	score, err := percentScore(p.Score)
	if err != nil {
		return domain.AnswerScore{}, err
	}
	return domain.AnswerScore{Score: score, Feedback: p.Feedback}, nil
}

// ScoreAnswer grades the option letter picked for q. An empty letter or
// SKIPPED is scored as "No answer provided"; any other letter must resolve
// to one of q's options. The question's explanation is carried onto the
// result.
func (s ScoringService) ScoreAnswer(ctx domain.Context, q domain.Question, letter string) (domain.ScoredAnswer, error) {
	selected := strings.ToUpper(strings.TrimSpace(letter))
	text := noAnswerText
	switch selected {
	case "", domain.SkippedOption:
		selected = domain.SkippedOption
	default:
		if text = q.OptionText(selected); text == "" {
			return domain.ScoredAnswer{}, fmt.Errorf("%w: option %q for question %d", domain.ErrInvalidArgument, letter, q.ID)
		}
	}
	sc, err := s.Score(ctx, q, text)
	if err != nil {
		return domain.ScoredAnswer{}, err
	}
	return domain.ScoredAnswer{
		QuestionID:     q.ID,
		SelectedOption: selected,
		Score:          sc.Score,
		Feedback:       sc.Feedback,
		Explanation:    q.Explanation,
	}, nil
}
