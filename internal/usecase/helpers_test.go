package usecase_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/ai-interview-engine/internal/adapter/cache"
	"github.com/fairyhunter13/ai-interview-engine/internal/domain"
	"github.com/fairyhunter13/ai-interview-engine/internal/usecase"
)

type completionCall struct {
	prompt string
	tier   domain.Tier
}

// fakeCompletion replays scripted replies in order.
type fakeCompletion struct {
	mu         sync.Mutex
	configured bool
	replies    []string
	errs       []error
	calls      []completionCall
}

func newFakeCompletion(replies ...string) *fakeCompletion {
	return &fakeCompletion{configured: true, replies: replies}
}

func (f *fakeCompletion) Configured() bool { return f.configured }

func (f *fakeCompletion) Complete(_ context.Context, prompt string, tier domain.Tier) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, completionCall{prompt: prompt, tier: tier})
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		if err != nil {
			return "", err
		}
	}
	if len(f.replies) == 0 {
		return "", errors.New("no scripted reply")
	}
	r := f.replies[0]
	f.replies = f.replies[1:]
	return r, nil
}

func (f *fakeCompletion) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// failingCache errors on every operation.
type failingCache struct{}

func (failingCache) Get(context.Context, string) (string, bool, error) {
	return "", false, errors.New("cache down")
}
func (failingCache) Set(context.Context, string, string) error { return errors.New("cache down") }

func offlineContent(t *testing.T) *usecase.OfflineContent {
	t.Helper()
	c, err := usecase.DefaultOfflineContent()
	require.NoError(t, err)
	return c
}

func newMemoryCache() *cache.Memory { return cache.NewMemory(0) }

func questionReply(prompt, answer string, options ...string) string {
	quoted := make([]string, len(options))
	for i, o := range options {
		quoted[i] = `"` + o + `"`
	}
	return "```json\n{\"question\":\"" + prompt + "\",\"options\":[" + strings.Join(quoted, ",") + "],\"answer\":\"" + answer + "\",\"explanation\":\"because\"}\n```"
}

func sampleQuestion() domain.Question {
	return domain.Question{
		ID:               3,
		Type:             domain.QuestionMCQ,
		Prompt:           "Which hook manages state?",
		Options:          []string{"useEffect", "useContext", "useState", "useMemo"},
		CorrectOption:    "C",
		Explanation:      "useState stores state.",
		Difficulty:       domain.DifficultyMedium,
		TimeLimitSeconds: 60,
	}
}

func sampleSet() domain.QuestionSet {
	qs := make(domain.QuestionSet, 0, domain.SetSize)
	for i, d := range []domain.Difficulty{"easy", "easy", "medium", "medium", "hard", "hard"} {
		q := sampleQuestion()
		q.ID = i + 1
		q.Difficulty = d
		q.Type = d.QuestionType()
		q.TimeLimitSeconds = d.TimeLimitSeconds()
		qs = append(qs, q)
	}
	return qs
}
