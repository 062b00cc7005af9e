package usecase

import (
	_ "embed"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/fairyhunter13/ai-interview-engine/internal/domain"
)

var (
	//go:embed content/questions.yaml
	questionsYAML []byte
	//go:embed content/feedback.yaml
	feedbackYAML []byte
)

type questionPools struct {
	Easy   []questionPayload `yaml:"easy" validate:"min=2,dive"`
	Medium []questionPayload `yaml:"medium" validate:"min=2,dive"`
	Hard   []questionPayload `yaml:"hard" validate:"min=2,dive"`
}

func (p questionPools) pool(d domain.Difficulty) []questionPayload {
	switch d {
	case domain.DifficultyEasy:
		return p.Easy
	case domain.DifficultyMedium:
		return p.Medium
	case domain.DifficultyHard:
		return p.Hard
	}
	return nil
}

type scorePool struct {
	Min      int      `yaml:"min" validate:"min=0,max=100"`
	Max      int      `yaml:"max" validate:"gtefield=Min,max=100"`
	Feedback []string `yaml:"feedback" validate:"min=1,dive,required"`
}

type summaryPool struct {
	Min             int      `yaml:"min" validate:"min=0,max=100"`
	Max             int      `yaml:"max" validate:"gtefield=Min,max=100"`
	Summaries       []string `yaml:"summaries" validate:"min=1,dive,required"`
	Strengths       []string `yaml:"strengths" validate:"min=1,dive,required"`
	Improvements    []string `yaml:"improvements" validate:"min=1,dive,required"`
	Recommendations []string `yaml:"recommendations" validate:"min=1,dive,required"`
}

type feedbackPools struct {
	Score   scorePool   `yaml:"score"`
	Summary summaryPool `yaml:"summary"`
}

// OfflineContent is the curated material served when no completion service
// is configured: question pools plus score and summary phrasing.
type OfflineContent struct {
	questions questionPools
	feedback  feedbackPools
}

// ParseOfflineContent decodes and validates question and feedback pools.
func ParseOfflineContent(questions, feedback []byte) (*OfflineContent, error) {
	var c OfflineContent
	if err := yaml.Unmarshal(questions, &c.questions); err != nil {
		return nil, fmt.Errorf("op=usecase.ParseOfflineContent: questions: %w", err)
	}
	if err := yaml.Unmarshal(feedback, &c.feedback); err != nil {
		return nil, fmt.Errorf("op=usecase.ParseOfflineContent: feedback: %w", err)
	}
	for _, d := range domain.Difficulties {
		pool := c.questions.pool(d)
		for i := range pool {
			pool[i].normalize()
		}
	}
	if err := validateStruct(c.questions); err != nil {
		return nil, fmt.Errorf("op=usecase.ParseOfflineContent: questions: %w", err)
	}
	if err := validateStruct(c.feedback); err != nil {
		return nil, fmt.Errorf("op=usecase.ParseOfflineContent: feedback: %w", err)
	}
	return &c, nil
}

var (
	offlineOnce sync.Once
	offline     *OfflineContent
	offlineErr  error
)

// DefaultOfflineContent returns the embedded pools, parsed once.
func DefaultOfflineContent() (*OfflineContent, error) {
	offlineOnce.Do(func() { offline, offlineErr = ParseOfflineContent(questionsYAML, feedbackYAML) })
	return offline, offlineErr
}

// QuestionSet draws QuestionsPerDifficulty distinct questions per difficulty
// and numbers them 1..6.
func (c *OfflineContent) QuestionSet(rnd *Random) domain.QuestionSet {
	qs := make(domain.QuestionSet, 0, domain.SetSize)
	for _, d := range domain.Difficulties {
		pool := c.questions.pool(d)
		for _, idx := range rnd.Perm(len(pool))[:domain.QuestionsPerDifficulty] {
			qs = append(qs, newQuestion(len(qs)+1, d, pool[idx]))
		}
	}
	return qs
}

// Score returns a plausible score with pooled feedback.
func (c *OfflineContent) Score(rnd *Random) domain.AnswerScore {
	p := c.feedback.Score
	return domain.AnswerScore{Score: rnd.Between(p.Min, p.Max), Feedback: rnd.Pick(p.Feedback)}
}

// Summary returns a plausible aggregate built from the pools.
func (c *OfflineContent) Summary(rnd *Random) domain.PerformanceSummary {
	p := c.feedback.Summary
	return domain.PerformanceSummary{
		Score:          rnd.Between(p.Min, p.Max),
		Summary:        rnd.Pick(p.Summaries),
		Strengths:      rnd.Pick(p.Strengths),
		Improvements:   rnd.Pick(p.Improvements),
		Recommendation: rnd.Pick(p.Recommendations),
	}
}

// newQuestion builds a Question from a validated payload. Options are copied.
func newQuestion(id int, d domain.Difficulty, p questionPayload) domain.Question {
	return domain.Question{
		ID:               id,
		Type:             d.QuestionType(),
		Prompt:           p.Question,
		Options:          append([]string(nil), p.Options...),
		CorrectOption:    p.Answer,
		Explanation:      p.Explanation,
		Difficulty:       d,
		TimeLimitSeconds: d.TimeLimitSeconds(),
	}
}
