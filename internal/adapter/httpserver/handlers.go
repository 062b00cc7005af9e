package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/fairyhunter13/ai-interview-engine/internal/config"
	"github.com/fairyhunter13/ai-interview-engine/internal/domain"
	"github.com/fairyhunter13/ai-interview-engine/internal/usecase"
)

// maxJSONBody caps JSON request bodies; a full question set with answers
// fits comfortably.
const maxJSONBody = 1 << 20

// Server aggregates handler dependencies.
type Server struct {
	Cfg        config.Config
	Extract    usecase.ExtractService
	Questions  usecase.QuestionService
	Scoring    usecase.ScoringService
	Summary    usecase.SummaryService
	Interviews usecase.InterviewService
	TikaCheck  func(ctx context.Context) error
	RedisCheck func(ctx context.Context) error
}

// NewServer constructs an HTTP server with all handlers and checks wired.
func NewServer(cfg config.Config, extract usecase.ExtractService, questions usecase.QuestionService, scoring usecase.ScoringService, summary usecase.SummaryService, interviews usecase.InterviewService, tikaCheck, redisCheck func(context.Context) error) *Server {
	return &Server{
		Cfg:        cfg,
		Extract:    extract,
		Questions:  questions,
		Scoring:    scoring,
		Summary:    summary,
		Interviews: interviews,
		TikaCheck:  tikaCheck,
		RedisCheck: redisCheck,
	}
}

var (
	vldOnce sync.Once
	vld     *validator.Validate
)

// getValidator reports field errors by their JSON names.
func getValidator() *validator.Validate {
	vldOnce.Do(func() {
		vld = validator.New(validator.WithRequiredStructEnabled())
		vld.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return vld
}

type questionDTO struct {
	ID               int      `json:"id" validate:"gte=1"`
	Type             string   `json:"type"`
	Prompt           string   `json:"question" validate:"required"`
	Options          []string `json:"options" validate:"len=4,dive,required"`
	CorrectOption    string   `json:"answer" validate:"required,oneof=A B C D"`
	Explanation      string   `json:"explanation"`
	Difficulty       string   `json:"difficulty" validate:"required,oneof=easy medium hard"`
	TimeLimitSeconds int      `json:"timeLimit" validate:"gte=0"`
}

func (q questionDTO) toDomain() domain.Question {
	d := domain.Difficulty(q.Difficulty)
	qt := domain.QuestionType(q.Type)
	if qt == "" {
		qt = d.QuestionType()
	}
	limit := q.TimeLimitSeconds
	if limit == 0 {
		limit = d.TimeLimitSeconds()
	}
	return domain.Question{
		ID:               q.ID,
		Type:             qt,
		Prompt:           q.Prompt,
		Options:          append([]string(nil), q.Options...),
		CorrectOption:    q.CorrectOption,
		Explanation:      q.Explanation,
		Difficulty:       d,
		TimeLimitSeconds: limit,
	}
}

func toQuestionSet(in []questionDTO) domain.QuestionSet {
	qs := make(domain.QuestionSet, 0, len(in))
	for _, q := range in {
		qs = append(qs, q.toDomain())
	}
	return qs
}

type profileRequest struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	SourceText string `json:"text" validate:"required_without=Name"`
}

type scoreRequest struct {
	Question       questionDTO `json:"question" validate:"required"`
	SelectedOption string      `json:"selected_option"`
}

type scoredAnswerDTO struct {
	QuestionID     int    `json:"questionId" validate:"gte=1"`
	SelectedOption string `json:"selectedOption" validate:"required"`
	Score          int    `json:"score" validate:"gte=0,lte=100"`
	Feedback       string `json:"feedback"`
	Explanation    string `json:"explanation"`
}

type summaryRequest struct {
	Questions []questionDTO      `json:"questions" validate:"required,min=1,dive"`
	Answers   []scoredAnswerDTO `json:"answers" validate:"dive"`
}

type finalizeRequest struct {
	Questions []questionDTO `json:"questions" validate:"required,min=1,dive"`
	Answers   []struct {
		QuestionID     int    `json:"questionId" validate:"gte=1"`
		SelectedOption string `json:"selectedOption"`
	} `json:"answers" validate:"dive"`
}

// acceptsJSON writes 406 and returns false when the client refuses JSON.
func acceptsJSON(w http.ResponseWriter, r *http.Request) bool {
	a := r.Header.Get("Accept")
	if a == "" || strings.Contains(a, "*/*") || strings.Contains(a, "application/json") {
		return true
	}
	writeJSON(w, http.StatusNotAcceptable, errorEnvelope{Error: apiError{
		Code:    "NOT_ACCEPTABLE",
		Message: "only application/json responses are supported",
		Details: map[string]string{"accept": a},
	}})
	return false
}

// decodeBody reads a capped JSON body into dst and validates it. On failure
// it writes the error response and returns false.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorEnvelope{Error: apiError{
				Code:    "PAYLOAD_TOO_LARGE",
				Message: "payload too large",
				Details: map[string]int64{"max_bytes": tooLarge.Limit},
			}})
			return false
		}
		writeError(w, r, fmt.Errorf("%w: invalid json", domain.ErrInvalidArgument), nil)
		return false
	}
	if err := getValidator().Struct(dst); err != nil {
		details := map[string]string{}
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			for _, fe := range ve {
				ns := fe.Namespace()
				if _, rest, ok := strings.Cut(ns, "."); ok {
					ns = rest
				}
				details[ns] = fe.Tag()
			}
		}
		writeError(w, r, fmt.Errorf("%w: validation failed", domain.ErrInvalidArgument), details)
		return false
	}
	return true
}

// ProfileHandler extracts a candidate profile from a multipart "resume" upload.
func (s *Server) ProfileHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !acceptsJSON(w, r) {
			return
		}
		if !strings.Contains(r.Header.Get("Content-Type"), "multipart/form-data") {
			writeError(w, r, fmt.Errorf("%w: content-type must be multipart/form-data", domain.ErrInvalidArgument), nil)
			return
		}
		maxBytes := s.Cfg.MaxUploadBytes()
		// Multipart framing adds a little on top of the file itself.
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes+64<<10)
		if err := r.ParseMultipartForm(maxBytes); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) || strings.Contains(strings.ToLower(err.Error()), "too large") {
				s.writeTooLarge(w)
				return
			}
			writeError(w, r, fmt.Errorf("%w: %v", domain.ErrInvalidArgument, err), nil)
			return
		}
		file, hdr, err := r.FormFile("resume")
		if err != nil {
			writeError(w, r, fmt.Errorf("%w: resume file required", domain.ErrInvalidArgument), map[string]string{"field": "resume"})
			return
		}
		defer func() { _ = file.Close() }()
		if hdr.Size > maxBytes {
			s.writeTooLarge(w)
			return
		}
		data, err := io.ReadAll(file)
		if err != nil {
			writeError(w, r, fmt.Errorf("%w: resume read: %v", domain.ErrInvalidArgument, err), nil)
			return
		}
		profile, err := s.Extract.Extract(r.Context(), domain.Document{
			Filename:  hdr.Filename,
			MediaType: hdr.Header.Get("Content-Type"),
			Data:      data,
		})
		if err != nil {
			writeError(w, r, err, map[string]string{"filename": hdr.Filename})
			return
		}
		writeJSON(w, http.StatusOK, profile)
	}
}

func (s *Server) writeTooLarge(w http.ResponseWriter) {
	writeJSON(w, http.StatusRequestEntityTooLarge, errorEnvelope{Error: apiError{
		Code:    "PAYLOAD_TOO_LARGE",
		Message: "payload too large",
		Details: map[string]int64{"max_mb": s.Cfg.MaxUploadMB},
	}})
}

// QuestionsHandler generates the six-question set for a candidate profile.
func (s *Server) QuestionsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !acceptsJSON(w, r) {
			return
		}
		var req profileRequest
		if !decodeBody(w, r, &req) {
			return
		}
		profile := domain.CandidateProfile{Name: req.Name, Email: req.Email, Phone: req.Phone, SourceText: req.SourceText}
		qs, err := s.Questions.Generate(r.Context(), profile)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"questions": qs})
	}
}

// ScoreHandler grades one selected option.
func (s *Server) ScoreHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !acceptsJSON(w, r) {
			return
		}
		var req scoreRequest
		if !decodeBody(w, r, &req) {
			return
		}
		sa, err := s.Scoring.ScoreAnswer(r.Context(), req.Question.toDomain(), req.SelectedOption)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusOK, sa)
	}
}

// SummaryHandler writes the performance summary for already-scored answers.
func (s *Server) SummaryHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !acceptsJSON(w, r) {
			return
		}
		var req summaryRequest
		if !decodeBody(w, r, &req) {
			return
		}
		answers := make([]domain.ScoredAnswer, 0, len(req.Answers))
		for _, a := range req.Answers {
			answers = append(answers, domain.ScoredAnswer(a))
		}
		sum, err := s.Summary.Summarize(r.Context(), toQuestionSet(req.Questions), answers)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusOK, sum)
	}
}

// FinalizeHandler scores every answer of an interview and summarizes it.
func (s *Server) FinalizeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !acceptsJSON(w, r) {
			return
		}
		var req finalizeRequest
		if !decodeBody(w, r, &req) {
			return
		}
		answers := make([]domain.Answer, 0, len(req.Answers))
		for _, a := range req.Answers {
			answers = append(answers, domain.Answer{QuestionID: a.QuestionID, SelectedOption: a.SelectedOption})
		}
		report, err := s.Interviews.Finalize(r.Context(), toQuestionSet(req.Questions), answers)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusOK, report)
	}
}

// HealthzHandler reports liveness only.
func (s *Server) HealthzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

// ReadyzHandler probes Tika and, when configured, Redis.
func (s *Server) ReadyzHandler() http.HandlerFunc {
	type check struct {
		Name    string `json:"name"`
		OK      bool   `json:"ok"`
		Details string `json:"details,omitempty"`
	}
	probes := []struct {
		name string
		fn   func(context.Context) error
	}{
		{"tika", s.TikaCheck},
		{"redis", s.RedisCheck},
	}
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		checks := make([]check, 0, len(probes))
		ready := true
		for _, p := range probes {
			if p.fn == nil {
				continue
			}
			c := check{Name: p.name, OK: true}
			if err := p.fn(ctx); err != nil {
				c.OK, c.Details = false, err.Error()
				ready = false
			}
			checks = append(checks, c)
		}
		st := http.StatusOK
		if !ready {
			st = http.StatusServiceUnavailable
		}
		writeJSON(w, st, map[string]any{"ready": ready, "checks": checks})
	}
}
