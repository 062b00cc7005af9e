package usecase_test

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/ai-interview-engine/internal/domain"
	"github.com/fairyhunter13/ai-interview-engine/internal/usecase"
)

var profile = domain.CandidateProfile{Name: "Jane Doe", Email: "jane@example.com", SourceText: "React and Node.js developer"}

func sixReplies() []string {
	return []string{
		questionReply("E1?", "A", "e1-right", "e1-b", "e1-c", "e1-d"),
		questionReply("E2?", "B", "e2-a", "e2-right", "e2-c", "e2-d"),
		questionReply("M1?", "C", "m1-a", "m1-b", "m1-right", "m1-d"),
		questionReply("M2?", "D", "m2-a", "m2-b", "m2-c", "m2-right"),
		questionReply("H1?", "a", "h1-right", "h1-b", "h1-c", "h1-d"),
		"Sure! Here it is: " + strings.Trim(questionReply("H2?", "B", "h2-a", "h2-right", "h2-c", "h2-d"), "`json\n") + " Good luck.",
	}
}

func newQuestionService(ai domain.CompletionClient, c domain.CacheStore, t *testing.T) usecase.QuestionService {
	return usecase.QuestionService{
		AI:      ai,
		Cache:   c,
		Prompts: usecase.NewPrompts(1000),
		Offline: offlineContent(t),
		Rand:    usecase.NewSeededRandom(7),
	}
}

func TestGenerate_ProducesShuffledValidatedSet(t *testing.T) {
	t.Parallel()
	ai := newFakeCompletion(sixReplies()...)
	c := newMemoryCache()
	qs, err := newQuestionService(ai, c, t).Generate(context.Background(), profile)
	require.NoError(t, err)
	require.Len(t, qs, domain.SetSize)

	wantDifficulty := []domain.Difficulty{"easy", "easy", "medium", "medium", "hard", "hard"}
	for i, q := range qs {
		assert.Equal(t, i+1, q.ID)
		assert.Equal(t, wantDifficulty[i], q.Difficulty)
		assert.Equal(t, wantDifficulty[i].TimeLimitSeconds(), q.TimeLimitSeconds)
		assert.Equal(t, wantDifficulty[i].QuestionType(), q.Type)
		require.Len(t, q.Options, domain.OptionCount)
		assert.True(t, strings.HasSuffix(q.CorrectOptionText(), "-right"), "question %d: %q -> %q", q.ID, q.CorrectOption, q.CorrectOptionText())
		assert.Equal(t, "because", q.Explanation)
	}
	assert.Equal(t, domain.QuestionMCQWithCode, qs[5].Type)

	require.Equal(t, 6, ai.callCount())
	for _, call := range ai.calls {
		assert.Equal(t, domain.TierFast, call.tier)
		assert.Contains(t, call.prompt, "Name: Jane Doe")
		assert.Contains(t, call.prompt, "React and Node.js developer")
	}
	assert.Contains(t, ai.calls[0].prompt, "Difficulty: easy")
	assert.Contains(t, ai.calls[2].prompt, "Difficulty: medium")
	assert.Contains(t, ai.calls[4].prompt, "Difficulty: hard")

	raw, ok, err := c.Get(context.Background(), "interview_questions_Jane Doe_jane@example.com")
	require.NoError(t, err)
	require.True(t, ok)
	var cached domain.QuestionSet
	require.NoError(t, json.Unmarshal([]byte(raw), &cached))
	assert.Equal(t, qs, cached)
}

func TestGenerate_SecondCallIsServedFromCache(t *testing.T) {
	t.Parallel()
	ai := newFakeCompletion(sixReplies()...)
	svc := newQuestionService(ai, newMemoryCache(), t)

	first, err := svc.Generate(context.Background(), profile)
	require.NoError(t, err)
	second, err := svc.Generate(context.Background(), profile)
	require.NoError(t, err)

	a, _ := json.Marshal(first)
	b, _ := json.Marshal(second)
	assert.Equal(t, string(a), string(b))
	assert.Equal(t, 6, ai.callCount())
}

func TestGenerate_OfflineSet(t *testing.T) {
	t.Parallel()
	ai := &fakeCompletion{configured: false}
	c := newMemoryCache()
	qs, err := newQuestionService(ai, c, t).Generate(context.Background(), domain.CandidateProfile{})
	require.NoError(t, err)
	require.Len(t, qs, domain.SetSize)
	for i, q := range qs {
		assert.Equal(t, i+1, q.ID)
		assert.Equal(t, domain.Difficulties[i/2], q.Difficulty)
		assert.NotEmpty(t, q.CorrectOptionText())
	}
	assert.NotEqual(t, qs[0].Prompt, qs[1].Prompt)
	assert.NotEqual(t, qs[2].Prompt, qs[3].Prompt)
	assert.NotEqual(t, qs[4].Prompt, qs[5].Prompt)
	assert.Zero(t, ai.callCount())
	assert.Zero(t, c.Len(), "offline sets are not cached")
}

func TestGenerate_InvalidQuestionFailsWholeSet(t *testing.T) {
	t.Parallel()
	replies := sixReplies()
	replies[3] = questionReply("M2?", "E", "a", "b", "c", "d")
	ai := newFakeCompletion(replies...)
	c := newMemoryCache()

	qs, err := newQuestionService(ai, c, t).Generate(context.Background(), profile)
	require.Error(t, err)
	assert.Nil(t, qs)
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Contains(t, err.Error(), "question 4")
	assert.Equal(t, 4, ai.callCount())
	assert.Zero(t, c.Len())
}

func TestGenerate_WrongOptionCountFails(t *testing.T) {
	t.Parallel()
	ai := newFakeCompletion(questionReply("E1?", "A", "a", "b", "c"))
	_, err := newQuestionService(ai, newMemoryCache(), t).Generate(context.Background(), profile)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestGenerate_UndecodableReplyFails(t *testing.T) {
	t.Parallel()
	ai := newFakeCompletion("I cannot help with that.")
	_, err := newQuestionService(ai, newMemoryCache(), t).Generate(context.Background(), profile)
	assert.ErrorIs(t, err, domain.ErrDecode)
}

func TestGenerate_CompletionFailureSurfaces(t *testing.T) {
	t.Parallel()
	ai := newFakeCompletion()
	ai.errs = []error{&domain.CompletionUnavailableError{Tier: domain.TierFast, Attempts: 3, Last: &httpErr{code: http.StatusTooManyRequests}}}
	_, err := newQuestionService(ai, newMemoryCache(), t).Generate(context.Background(), profile)
	assert.ErrorIs(t, err, domain.ErrCompletionUnavailable)
}

func TestGenerate_CacheFailuresDoNotBreakGeneration(t *testing.T) {
	t.Parallel()
	ai := newFakeCompletion(sixReplies()...)
	qs, err := newQuestionService(ai, failingCache{}, t).Generate(context.Background(), profile)
	require.NoError(t, err)
	assert.Len(t, qs, domain.SetSize)
}

func TestGenerate_CancelledBetweenCalls(t *testing.T) {
	t.Parallel()
	ai := newFakeCompletion(sixReplies()...)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := newQuestionService(ai, newMemoryCache(), t).Generate(ctx, profile)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, ai.callCount())
}

func TestShuffleOptions_PreservesCorrectText(t *testing.T) {
	t.Parallel()
	rnd := usecase.NewSeededRandom(1)
	q := sampleQuestion()
	moved := false
	for i := 0; i < 50; i++ {
		s := usecase.ShuffleOptions(q, rnd)
		assert.Equal(t, "useState", s.CorrectOptionText())
		assert.ElementsMatch(t, q.Options, s.Options)
		if s.CorrectOption != q.CorrectOption {
			moved = true
		}
	}
	assert.True(t, moved, "50 shuffles never moved the answer")
	assert.Equal(t, []string{"useEffect", "useContext", "useState", "useMemo"}, q.Options, "input must not be mutated")
}

type httpErr struct{ code int }

func (e *httpErr) Error() string { return http.StatusText(e.code) }
