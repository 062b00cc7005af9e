package usecase

import (
	"encoding/json"
	"errors"
	"math"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/fairyhunter13/ai-interview-engine/internal/domain"
)

var (
	vldOnce sync.Once
	vld     *validator.Validate
)

func getValidator() *validator.Validate {
	vldOnce.Do(func() { vld = validator.New(validator.WithRequiredStructEnabled()) })
	return vld
}

// validateStruct runs the struct tags and turns failures into ErrValidation
// listing the offending fields.
func validateStruct(v any) error {
	err := getValidator().Struct(v)
	if err == nil {
		return nil
	}
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		fields := make([]string, 0, len(ve))
		for _, fe := range ve {
			fields = append(fields, fe.Namespace()+" "+fe.Tag())
		}
		return validationErr("%s", strings.Join(fields, "; "))
	}
	return validationErr("%v", err)
}

// questionPayload is a single generated question as the model returns it.
type questionPayload struct {
	Question    string   `json:"question" validate:"required"`
	Options     []string `json:"options" validate:"len=4,dive,required"`
	Answer      string   `json:"answer" validate:"oneof=A B C D"`
	Explanation string   `json:"explanation"`
}

func (p *questionPayload) normalize() {
	p.Question = strings.TrimSpace(p.Question)
	p.Answer = strings.ToUpper(strings.TrimSpace(p.Answer))
	for i, o := range p.Options {
		p.Options[i] = strings.TrimSpace(o)
	}
	p.Explanation = strings.TrimSpace(p.Explanation)
}

// scorePayload is the scorer's reply. Score stays a json.Number until it is
// checked to be integral.
type scorePayload struct {
	Score    json.Number `json:"score" validate:"required"`
	Feedback string      `json:"feedback" validate:"required"`
}

// summaryPayload is the summary generator's reply.
type summaryPayload struct {
	Score          json.Number `json:"score" validate:"required"`
	Summary        string      `json:"summary" validate:"required"`
	Strengths      string      `json:"strengths" validate:"required"`
	Improvements   string      `json:"improvements" validate:"required"`
	Recommendation string      `json:"recommendation" validate:"required"`
}

// percentScore parses an integral score in [0,100]. 85 and 85.0 are
// accepted, 85.5 is not.
func percentScore(n json.Number) (int, error) {
	f, err := n.Float64()
	if err != nil {
		return 0, validationErr("score %q is not a number", n.String())
	}
	if f != math.Trunc(f) {
		return 0, validationErr("score %s is not an integer", n.String())
	}
	if f < 0 || f > 100 {
		return 0, validationErr("score %s outside [0,100]", n.String())
	}
	return int(f), nil
}

// validateSet checks the structural invariants of a complete question set.
func validateSet(qs domain.QuestionSet) error {
	if len(qs) != domain.SetSize {
		return validationErr("question set has %d questions, want %d", len(qs), domain.SetSize)
	}
	for i, q := range qs {
		want := domain.Difficulties[i/domain.QuestionsPerDifficulty]
		switch {
		case q.ID != i+1:
			return validationErr("question %d has id %d", i+1, q.ID)
		case q.Difficulty != want:
			return validationErr("question %d has difficulty %s, want %s", q.ID, q.Difficulty, want)
		case len(q.Options) != domain.OptionCount:
			return validationErr("question %d has %d options", q.ID, len(q.Options))
		case q.CorrectOptionText() == "":
			return validationErr("question %d correct option %q does not resolve", q.ID, q.CorrectOption)
		}
	}
	return nil
}
