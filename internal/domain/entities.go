package domain

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Error taxonomy (sentinels)
var (
	ErrInvalidArgument       = errors.New("invalid argument")
	ErrUnsupportedFormat     = errors.New("unsupported file type")
	ErrCompletionUnavailable = errors.New("completion service unavailable")
	ErrDecode                = errors.New("response decode failed")
	ErrValidation            = errors.New("response validation failed")
	ErrModelNotFound         = errors.New("model not found")
	ErrUpstreamRateLimit     = errors.New("upstream rate limit")
	ErrUpstreamUnavailable   = errors.New("upstream unavailable")
	ErrInternal              = errors.New("internal error")
)

// UnsupportedFormatMessage is shown to uploaders when neither media type nor extension is recognized.
const UnsupportedFormatMessage = "Unsupported file type. Please upload a PDF or DOCX file."

// CompletionUnavailableError is returned once the retry policy has run out of
// attempts. It matches ErrCompletionUnavailable and unwraps to the last error.
type CompletionUnavailableError struct {
	Tier     Tier
	Model    string
	Attempts int
	Last     error
}

func (e *CompletionUnavailableError) Error() string {
	return fmt.Sprintf("%s: tier=%s model=%s attempts=%d: %v", ErrCompletionUnavailable, e.Tier, e.Model, e.Attempts, e.Last)
}

// Unwrap exposes both the sentinel and the last upstream error to errors.Is/As.
func (e *CompletionUnavailableError) Unwrap() []error {
	if e.Last == nil {
		return []error{ErrCompletionUnavailable}
	}
	return []error{ErrCompletionUnavailable, e.Last}
}

// Tier selects a model family by capability/cost.
type Tier string

const (
	TierFast Tier = "fast"
	TierDeep Tier = "deep"
)

// Difficulty of a generated question.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Difficulties lists the tiers in interview order.
var Difficulties = []Difficulty{DifficultyEasy, DifficultyMedium, DifficultyHard}

// TimeLimitSeconds returns the answer window for the difficulty.
func (d Difficulty) TimeLimitSeconds() int {
	switch d {
	case DifficultyEasy:
		return 20
	case DifficultyMedium:
		return 60
	case DifficultyHard:
		return 120
	}
	return 0
}

// QuestionType returns the question format used for the difficulty.
func (d Difficulty) QuestionType() QuestionType {
	if d == DifficultyHard {
		return QuestionMCQWithCode
	}
	return QuestionMCQ
}

// Valid reports whether d is one of the known difficulties.
func (d Difficulty) Valid() bool {
	return d == DifficultyEasy || d == DifficultyMedium || d == DifficultyHard
}

type QuestionType string

const (
	QuestionMCQ         QuestionType = "mcq"
	QuestionMCQWithCode QuestionType = "mcq-with-code"
)

// OptionCount is the number of answer options every question carries.
const OptionCount = 4

// SkippedOption marks an answer the candidate did not give.
const SkippedOption = "SKIPPED"

// OptionLetter maps an option index to its letter (0 -> "A").
func OptionLetter(i int) string {
	if i < 0 || i >= OptionCount {
		return ""
	}
	return string(rune('A' + i))
}

// OptionIndex maps a letter to an option index; it returns -1 for anything
// outside A..D.
func OptionIndex(letter string) int {
	l := strings.ToUpper(strings.TrimSpace(letter))
	if len(l) != 1 || l[0] < 'A' || l[0] >= 'A'+OptionCount {
		return -1
	}
	return int(l[0] - 'A')
}

// CandidateProfile is what the extraction pipeline knows about a candidate.
// Invariants: Name is non-empty; SourceText is non-empty.
type CandidateProfile struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	SourceText string `json:"text"`
}

// Question is a single multiple-choice interview question.
// Invariant: CorrectOption indexes a real element of Options.
type Question struct {
	ID               int          `json:"id"`
	Type             QuestionType `json:"type"`
	Prompt           string       `json:"question"`
	Options          []string     `json:"options"`
	CorrectOption    string       `json:"answer"`
	Explanation      string       `json:"explanation"`
	Difficulty       Difficulty   `json:"difficulty"`
	TimeLimitSeconds int          `json:"timeLimit"`
}

// CorrectOptionText returns the option the correct letter points at.
func (q Question) CorrectOptionText() string {
	i := OptionIndex(q.CorrectOption)
	if i < 0 || i >= len(q.Options) {
		return ""
	}
	return q.Options[i]
}

// OptionText returns the option text for letter, or "" when the letter is
// unknown or SKIPPED.
func (q Question) OptionText(letter string) string {
	i := OptionIndex(letter)
	if i < 0 || i >= len(q.Options) {
		return ""
	}
	return q.Options[i]
}

// QuestionSet is the ordered list of six questions of an interview.
type QuestionSet []Question

// QuestionsPerDifficulty is how many questions each difficulty contributes.
const QuestionsPerDifficulty = 2

// SetSize is the number of questions in a complete set.
const SetSize = QuestionsPerDifficulty * 3

// Answer is the candidate's choice for a question.
type Answer struct {
	QuestionID     int    `json:"questionId"`
	SelectedOption string `json:"selectedOption"`
}

// AnswerScore is the raw scorer output for one answer.
type AnswerScore struct {
	Score    int    `json:"score"`
	Feedback string `json:"feedback"`
}

// ScoredAnswer is an answer together with its evaluation.
type ScoredAnswer struct {
	QuestionID     int    `json:"questionId"`
	SelectedOption string `json:"selectedOption"`
	Score          int    `json:"score"`
	Feedback       string `json:"feedback"`
	Explanation    string `json:"explanation"`
}

// PerformanceSummary is the narrative end-of-interview evaluation.
type PerformanceSummary struct {
	Score          int    `json:"score"`
	Summary        string `json:"summary"`
	Strengths      string `json:"strengths"`
	Improvements   string `json:"improvements"`
	Recommendation string `json:"recommendation"`
}

// InterviewReport bundles every scored answer and the summary. Degraded is set
// when service-independent values were substituted after a failure.
type InterviewReport struct {
	Answers  []ScoredAnswer     `json:"answers"`
	Summary  PerformanceSummary `json:"summary"`
	Degraded bool               `json:"degraded"`
}

// Document is an uploaded résumé.
type Document struct {
	Filename  string
	MediaType string
	Data      []byte
}

// Ports

// CompletionClient sends a prompt to a generative model tier and returns its text.
type CompletionClient interface {
	Complete(ctx Context, prompt string, tier Tier) (string, error)
	Configured() bool
}

// CacheStore is the string key/value store shared by every pipeline stage.
// Implementations must be safe for concurrent use.
type CacheStore interface {
	Get(ctx Context, key string) (string, bool, error)
	Set(ctx Context, key, value string) error
}

// OCRMode selects how a document renderer treats scanned pages.
type OCRMode int

const (
	OCRDisabled OCRMode = iota
	OCROnly
)

// DocumentRenderer turns a document into per-page (PDF) or per-paragraph
// (DOCX) text blocks.
type DocumentRenderer interface {
	Render(ctx Context, data []byte, mediaType string, ocr OCRMode) (RenderedDocument, error)
}

// RenderedDocument is the structured text a renderer produced.
type RenderedDocument struct {
	Pages      []string
	Paragraphs []string
}

// Context is an alias to context.Context so domain ports stay stdlib-only.
type Context = context.Context
