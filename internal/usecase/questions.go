package usecase

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/fairyhunter13/ai-interview-engine/internal/adapter/ai"
	obs "github.com/fairyhunter13/ai-interview-engine/internal/adapter/observability"
	"github.com/fairyhunter13/ai-interview-engine/internal/config"
	"github.com/fairyhunter13/ai-interview-engine/internal/domain"
	obsctx "github.com/fairyhunter13/ai-interview-engine/internal/observability"
)

// QuestionService generates the six-question interview for a candidate.
type QuestionService struct {
	AI      domain.CompletionClient
	Cache   domain.CacheStore
	Prompts Prompts
	Offline *OfflineContent
	Rand    *Random
	// CallDelay separates consecutive calls of the same difficulty.
	CallDelay time.Duration
	sleep     func(domain.Context, time.Duration) error
}

// NewQuestionService wires a QuestionService from configuration.
func NewQuestionService(c domain.CompletionClient, cache domain.CacheStore, offline *OfflineContent, rnd *Random, cfg config.Config) QuestionService {
	return QuestionService{
		AI:        c,
		Cache:     cache,
		Prompts:   NewPrompts(cfg.PromptMaxSourceTokens),
		Offline:   offline,
		Rand:      rnd,
		CallDelay: cfg.QuestionCallDelay,
	}
}

// Generate returns the candidate's question set: from the cache when
// present, from the offline pools when no completion service is configured,
// otherwise generated one question at a time. Any failed question fails the
// whole set.
func (s QuestionService) Generate(ctx domain.Context, profile domain.CandidateProfile) (domain.QuestionSet, error) {
	key := QuestionsCacheKey(profile)
	ctx, lg := obsctx.WithLogAttrs(ctx, slog.String("stage", stageQuestions))

	var cached domain.QuestionSet
	if cacheLoad(ctx, s.Cache, stageQuestions, key, &cached) {
		lg.Debug("question set served from cache")
		return cached, nil
	}

	if s.AI == nil || !s.AI.Configured() {
		if s.Offline == nil {
			return nil, fmt.Errorf("%w: no offline question pools", domain.ErrInternal)
		}
		obs.RecordOfflineContent(stageQuestions)
		lg.Info("completion service not configured, serving offline questions")
		return s.Offline.QuestionSet(s.random()), nil
	}

	qs := make(domain.QuestionSet, 0, domain.SetSize)
	for _, d := range domain.Difficulties {
		for i := 0; i < domain.QuestionsPerDifficulty; i++ {
			if i > 0 {
				if err := s.wait(ctx); err != nil {
					return nil, fmt.Errorf("op=questions.Generate: %w", err)
				}
			}
			q, err := s.generateOne(ctx, profile, d, len(qs)+1)
			if err != nil {
				return nil, fmt.Errorf("op=questions.Generate: question %d (%s): %w", len(qs)+1, d, err)
			}
			qs = append(qs, q)
		}
	}
	if err := validateSet(qs); err != nil {
		return nil, fmt.Errorf("op=questions.Generate: %w", err)
	}
	cacheStore(ctx, s.Cache, stageQuestions, key, qs)
	lg.Info("question set generated", slog.Int("count", len(qs)))
	return qs, nil
}

func (s QuestionService) generateOne(ctx domain.Context, profile domain.CandidateProfile, d domain.Difficulty, id int) (domain.Question, error) {
	raw, err := s.AI.Complete(ctx, s.Prompts.Question(ctx, profile, d), domain.TierFast)
	if err != nil {
		return domain.Question{}, err
	}
	var p questionPayload
	if err := ai.DecodeInto(raw, &p); err != nil {
		return domain.Question{}, err
	}
	p.normalize()
	if err := validateStruct(p); err != nil {
		return domain.Question{}, err
	}
	return ShuffleOptions(newQuestion(id, d, p), s.random()), nil
}

// ShuffleOptions returns q with its options permuted and CorrectOption
// remapped so it still names the same option text.
func ShuffleOptions(q domain.Question, rnd *Random) domain.Question {
	correct := domain.OptionIndex(q.CorrectOption)
	if correct < 0 || correct >= len(q.Options) {
		return q
	}
	perm := rnd.Perm(len(q.Options))
	shuffled := make([]string, len(q.Options))
	for to, from := range perm {
		shuffled[to] = q.Options[from]
		if from == correct {
			q.CorrectOption = domain.OptionLetter(to)
		}
	}
	q.Options = shuffled
	return q
}

func (s QuestionService) random() *Random { return randomOr(s.Rand) }

func (s QuestionService) wait(ctx domain.Context) error {
	if s.sleep != nil {
		return s.sleep(ctx, s.CallDelay)
	}
	return sleepCtx(ctx, s.CallDelay)
}
