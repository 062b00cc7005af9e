package usecase

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/fairyhunter13/ai-interview-engine/internal/config"
	"github.com/fairyhunter13/ai-interview-engine/internal/domain"
	obsctx "github.com/fairyhunter13/ai-interview-engine/internal/observability"
)

// InterviewService closes an interview: it scores every answer and then
// writes the summary.
type InterviewService struct {
	Scoring ScoringService
	Summary SummaryService
	// DegradeOnFailure substitutes offline scores and summaries when the
	// completion service fails, marking the report Degraded.
	DegradeOnFailure bool
}

// NewInterviewService constructs an InterviewService.
func NewInterviewService(sc ScoringService, su SummaryService, cfg config.Config) InterviewService {
	return InterviewService{Scoring: sc, Summary: su, DegradeOnFailure: cfg.InterviewDegradeOnFailure}
}

// Finalize scores answers in question order and summarizes them. Questions
// without an answer are scored as skipped; answers for unknown questions are
// rejected.
func (s InterviewService) Finalize(ctx domain.Context, qs domain.QuestionSet, answers []domain.Answer) (domain.InterviewReport, error) {
	if len(qs) == 0 {
		return domain.InterviewReport{}, fmt.Errorf("%w: empty question set", domain.ErrInvalidArgument)
	}
	picked := make(map[int]string, len(answers))
	for _, a := range answers {
		picked[a.QuestionID] = a.SelectedOption
	}
	for id := range picked {
		if !hasQuestion(qs, id) {
			return domain.InterviewReport{}, fmt.Errorf("%w: answer for unknown question %d", domain.ErrInvalidArgument, id)
		}
	}
	ctx, lg := obsctx.WithLogAttrs(ctx, slog.String("stage", "finalize"))

	var report domain.InterviewReport
	for _, q := range qs {
		sa, err := s.Scoring.ScoreAnswer(ctx, q, picked[q.ID])
		if err != nil {
			if !s.degradable(err) {
				return domain.InterviewReport{}, fmt.Errorf("op=interview.Finalize: %w", err)
			}
			lg.Warn("scoring failed, substituting offline score", slog.Int("question_id", q.ID), slog.Any("error", err))
			if sa, err = s.offlineScore(q, picked[q.ID]); err != nil {
				return domain.InterviewReport{}, fmt.Errorf("op=interview.Finalize: %w", err)
			}
			report.Degraded = true
		}
		report.Answers = append(report.Answers, sa)
	}

	sum, err := s.Summary.Summarize(ctx, qs, report.Answers)
	if err != nil {
		if !s.degradable(err) {
			return domain.InterviewReport{}, fmt.Errorf("op=interview.Finalize: %w", err)
		}
		lg.Warn("summary failed, substituting offline summary", slog.Any("error", err))
		if s.Summary.Offline == nil {
			return domain.InterviewReport{}, fmt.Errorf("op=interview.Finalize: %w", err)
		}
		sum = s.Summary.Offline.Summary(randomOr(s.Summary.Rand))
		report.Degraded = true
	}
	report.Summary = sum
	return report, nil
}

// degradable reports whether err is a completion-side failure that the
// opt-in fallback may cover. Caller mistakes are never covered.
func (s InterviewService) degradable(err error) bool {
	if !s.DegradeOnFailure || errors.Is(err, domain.ErrInvalidArgument) {
		return false
	}
	return errors.Is(err, domain.ErrCompletionUnavailable) || errors.Is(err, domain.ErrDecode) || errors.Is(err, domain.ErrValidation)
}

func (s InterviewService) offlineScore(q domain.Question, letter string) (domain.ScoredAnswer, error) {
	if s.Scoring.Offline == nil {
		return domain.ScoredAnswer{}, fmt.Errorf("%w: no offline feedback pools", domain.ErrInternal)
	}
	selected := domain.SkippedOption
	if q.OptionText(letter) != "" {
		selected = domain.OptionLetter(domain.OptionIndex(letter))
	}
	sc := s.Scoring.Offline.Score(randomOr(s.Scoring.Rand))
	return domain.ScoredAnswer{QuestionID: q.ID, SelectedOption: selected, Score: sc.Score, Feedback: sc.Feedback, Explanation: q.Explanation}, nil
}

func hasQuestion(qs domain.QuestionSet, id int) bool {
	for _, q := range qs {
		if q.ID == id {
			return true
		}
	}
	return false
}
