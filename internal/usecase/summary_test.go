package usecase_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/ai-interview-engine/internal/domain"
	"github.com/fairyhunter13/ai-interview-engine/internal/usecase"
)

const summaryReply = "```json\n{\"score\": 78, \"summary\": \"Solid fundamentals.\", \"strengths\": \"React\", \"improvements\": \"Algorithms\", \"recommendation\": \"Mid-level\"}\n```"

func newSummaryService(ai domain.CompletionClient, c domain.CacheStore, t *testing.T) usecase.SummaryService {
	return usecase.SummaryService{AI: ai, Cache: c, Prompts: usecase.NewPrompts(1000), Offline: offlineContent(t), Rand: usecase.NewSeededRandom(5)}
}

func scoredAnswers() []domain.ScoredAnswer {
	return []domain.ScoredAnswer{
		{QuestionID: 1, SelectedOption: "C", Score: 90, Feedback: "Great."},
		{QuestionID: 2, SelectedOption: domain.SkippedOption, Score: 0, Feedback: "Skipped."},
	}
}

func TestSummarize_BuildsTableAndCaches(t *testing.T) {
	t.Parallel()
	ai := newFakeCompletion(summaryReply)
	c := newMemoryCache()
	qs := sampleSet()
	answers := scoredAnswers()

	got, err := newSummaryService(ai, c, t).Summarize(context.Background(), qs, answers)
	require.NoError(t, err)
	assert.Equal(t, domain.PerformanceSummary{Score: 78, Summary: "Solid fundamentals.", Strengths: "React", Improvements: "Algorithms", Recommendation: "Mid-level"}, got)

	require.Equal(t, 1, ai.callCount())
	prompt := ai.calls[0].prompt
	assert.Equal(t, domain.TierDeep, ai.calls[0].tier)
	assert.Contains(t, prompt, `"candidateAnswer": "useState"`)
	assert.Contains(t, prompt, `"candidateAnswer": "No answer provided"`)
	assert.Contains(t, prompt, `"feedback": "No feedback provided"`)
	assert.Contains(t, prompt, `"difficulty": "hard"`)

	_, ok, _ := c.Get(context.Background(), usecase.SummaryCacheKey(qs, answers))
	assert.True(t, ok)

	again, err := newSummaryService(ai, c, t).Summarize(context.Background(), qs, answers)
	require.NoError(t, err)
	assert.Equal(t, got, again)
	assert.Equal(t, 1, ai.callCount())
}

func TestSummarize_Offline(t *testing.T) {
	t.Parallel()
	c := newMemoryCache()
	got, err := newSummaryService(&fakeCompletion{}, c, t).Summarize(context.Background(), sampleSet(), scoredAnswers())
	require.NoError(t, err)
	assert.GreaterOrEqual(t, got.Score, 70)
	assert.LessOrEqual(t, got.Score, 100)
	assert.NotEmpty(t, got.Summary)
	assert.NotEmpty(t, got.Strengths)
	assert.NotEmpty(t, got.Improvements)
	assert.NotEmpty(t, got.Recommendation)
	assert.Equal(t, 1, c.Len())
}

func TestSummarize_ValidationFailures(t *testing.T) {
	t.Parallel()
	for _, reply := range []string{
		`{"score": 101, "summary": "s", "strengths": "a", "improvements": "b", "recommendation": "c"}`,
		`{"score": 70, "summary": "s", "strengths": "a", "improvements": "b"}`,
		`{"summary": "s", "strengths": "a", "improvements": "b", "recommendation": "c"}`,
	} {
		_, err := newSummaryService(newFakeCompletion(reply), newMemoryCache(), t).Summarize(context.Background(), sampleSet(), scoredAnswers())
		assert.ErrorIs(t, err, domain.ErrValidation, reply)
	}
}

func TestSummarize_EmptySetRejected(t *testing.T) {
	t.Parallel()
	_, err := newSummaryService(newFakeCompletion(), newMemoryCache(), t).Summarize(context.Background(), nil, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestFingerprint(t *testing.T) {
	t.Parallel()
	qs := sampleSet()
	a := usecase.Fingerprint(qs, scoredAnswers())
	assert.Len(t, a, 16)
	assert.Equal(t, a, usecase.Fingerprint(qs, scoredAnswers()))
	assert.NotEqual(t, a, usecase.Fingerprint(qs, scoredAnswers()[:1]))
	assert.NotEqual(t, a, usecase.Fingerprint(qs[:5], scoredAnswers()))
	assert.Equal(t, "candidate_summary_"+a, usecase.SummaryCacheKey(qs, scoredAnswers()))

	wrong := scoredAnswers()
	wrong[0].SelectedOption, wrong[0].Score = "A", 10
	assert.NotEqual(t, a, usecase.Fingerprint(qs, wrong), "answers differ only in choice and score")

	reworded := sampleSet()
	reworded[2].Prompt = "Which hook runs after render?"
	assert.NotEqual(t, a, usecase.Fingerprint(reworded, scoredAnswers()), "same ids, different questions")
}

func TestSummarize_DifferentCandidatesDoNotShareCache(t *testing.T) {
	t.Parallel()
	ai := newFakeCompletion(
		`{"score": 92, "summary": "Hire Alice", "strengths": "React", "improvements": "None", "recommendation": "Senior"}`,
		`{"score": 35, "summary": "Needs work", "strengths": "Curiosity", "improvements": "Fundamentals", "recommendation": "Junior"}`,
	)
	svc := newSummaryService(ai, newMemoryCache(), t)

	aliceQs := sampleSet()
	aliceAnswers := make([]domain.ScoredAnswer, 0, len(aliceQs))
	for _, q := range aliceQs {
		aliceAnswers = append(aliceAnswers, domain.ScoredAnswer{QuestionID: q.ID, SelectedOption: q.CorrectOption, Score: 95, Feedback: "Right."})
	}
	bobQs := sampleSet()
	for i := range bobQs {
		bobQs[i].Prompt = "Which keyword declares a constant?"
		bobQs[i].Options = []string{"let", "var", "const", "static"}
	}
	bobAnswers := make([]domain.ScoredAnswer, 0, len(bobQs))
	for _, q := range bobQs {
		bobAnswers = append(bobAnswers, domain.ScoredAnswer{QuestionID: q.ID, SelectedOption: domain.SkippedOption, Score: 0, Feedback: "Skipped."})
	}

	alice, err := svc.Summarize(context.Background(), aliceQs, aliceAnswers)
	require.NoError(t, err)
	bob, err := svc.Summarize(context.Background(), bobQs, bobAnswers)
	require.NoError(t, err)

	assert.Equal(t, "Hire Alice", alice.Summary)
	assert.Equal(t, "Needs work", bob.Summary)
	assert.Equal(t, 2, ai.callCount())
}

func TestCacheKeys(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "interview_questions_unknown_unknown", usecase.QuestionsCacheKey(domain.CandidateProfile{}))
	assert.Equal(t, "interview_questions_Jane_unknown", usecase.QuestionsCacheKey(domain.CandidateProfile{Name: "Jane"}))
	q := sampleQuestion()
	q.ID = 4
	assert.Equal(t, "answer_score_4_"+usecase.QuestionDigest(q)+"_Cache-aside", usecase.ScoreCacheKey(q, "Cache-aside"))
	assert.Len(t, usecase.QuestionDigest(q), 12)

	other := q
	other.Prompt = "Which hook memoizes a value?"
	assert.NotEqual(t, usecase.QuestionDigest(q), usecase.QuestionDigest(other))
	other = q
	other.CorrectOption = "D"
	assert.NotEqual(t, usecase.QuestionDigest(q), usecase.QuestionDigest(other))
}
