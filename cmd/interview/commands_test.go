package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/ai-interview-engine/internal/adapter/cache"
	"github.com/fairyhunter13/ai-interview-engine/internal/app"
	"github.com/fairyhunter13/ai-interview-engine/internal/config"
	"github.com/fairyhunter13/ai-interview-engine/internal/domain"
	"github.com/fairyhunter13/ai-interview-engine/internal/usecase"
)

type paragraphRenderer []string

func (p paragraphRenderer) Render(context.Context, []byte, string, domain.OCRMode) (domain.RenderedDocument, error) {
	return domain.RenderedDocument{Paragraphs: p}, nil
}

type offlineCompletion struct{}

func (offlineCompletion) Configured() bool { return false }

func (offlineCompletion) Complete(context.Context, string, domain.Tier) (string, error) {
	return "", nil
}

func testCLI(t *testing.T) (*cli, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	c := &cli{
		out:        out,
		errOut:     errOut,
		loadConfig: func() (config.Config, error) { return config.Config{AppEnv: "test"}, nil },
		build: func(_ context.Context, cfg config.Config) (app.Services, func(), error) {
			offline, err := usecase.DefaultOfflineContent()
			if err != nil {
				return app.Services{}, func() {}, err
			}
			var ai offlineCompletion
			store := cache.NewMemory(0)
			rnd := usecase.NewSeededRandom(21)
			scoring := usecase.NewScoringService(ai, store, offline, rnd, cfg)
			summary := usecase.NewSummaryService(ai, store, offline, rnd, cfg)
			return app.Services{
				Extract:    usecase.ExtractService{Renderer: paragraphRenderer{"Ada Lovelace", "ada@example.com"}},
				Questions:  usecase.NewQuestionService(ai, store, offline, rnd, cfg),
				Scoring:    scoring,
				Summary:    summary,
				Interviews: usecase.NewInterviewService(scoring, summary, cfg),
			}, func() {}, nil
		},
	}
	return c, out, errOut
}

func resumeFile(t *testing.T, name string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte("PK\x03\x04"), 0o600))
	return p
}

func execute(c *cli, args ...string) error {
	root := newRootCmd(c)
	root.SetArgs(args)
	return root.Execute()
}

func TestExtractCommand(t *testing.T) {
	c, out, _ := testCLI(t)
	require.NoError(t, execute(c, "extract", resumeFile(t, "ada.docx")))

	var got domain.CandidateProfile
	require.NoError(t, json.Unmarshal(out.Bytes(), &got))
	assert.Equal(t, "Ada Lovelace", got.Name)
	assert.Equal(t, "ada@example.com", got.Email)
}

func TestQuestionsCommand(t *testing.T) {
	c, out, _ := testCLI(t)
	require.NoError(t, execute(c, "questions", resumeFile(t, "ada.docx")))

	var got struct {
		Profile   domain.CandidateProfile `json:"profile"`
		Questions domain.QuestionSet      `json:"questions"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &got))
	assert.Equal(t, "Ada Lovelace", got.Profile.Name)
	assert.Len(t, got.Questions, domain.SetSize)
}

func TestRunCommand(t *testing.T) {
	c, out, errOut := testCLI(t)
	require.NoError(t, execute(c, "run", resumeFile(t, "ada.docx"), "--answers", "a,B,,SKIPPED", "--verbose"))

	var got struct {
		Report domain.InterviewReport `json:"report"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &got))
	require.Len(t, got.Report.Answers, domain.SetSize)
	assert.Equal(t, "A", got.Report.Answers[0].SelectedOption)
	assert.Equal(t, "B", got.Report.Answers[1].SelectedOption)
	assert.Equal(t, domain.SkippedOption, got.Report.Answers[2].SelectedOption)
	assert.Equal(t, domain.SkippedOption, got.Report.Answers[5].SelectedOption)
	assert.NotEmpty(t, got.Report.Summary.Summary)
	assert.Contains(t, errOut.String(), "session_id")
}

func TestCommandErrors(t *testing.T) {
	c, _, _ := testCLI(t)
	assert.Error(t, execute(c, "extract"))

	err := execute(c, "extract", filepath.Join(t.TempDir(), "missing.pdf"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing.pdf")

	err = execute(c, "extract", resumeFile(t, "notes.txt"))
	assert.ErrorIs(t, err, domain.ErrUnsupportedFormat)

	err = execute(c, "run", resumeFile(t, "ada.docx"), "--answers", "A,B,C,D,A,B,C")
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)

	err = execute(c, "run", resumeFile(t, "ada.docx"), "--answers", "Q")
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestParseAnswers(t *testing.T) {
	qs := domain.QuestionSet{{ID: 1}, {ID: 2}, {ID: 3}}
	got, err := parseAnswers(" c , ,b", qs)
	require.NoError(t, err)
	assert.Equal(t, []domain.Answer{{QuestionID: 1, SelectedOption: "C"}, {QuestionID: 2, SelectedOption: domain.SkippedOption}, {QuestionID: 3, SelectedOption: "B"}}, got)

	got, err = parseAnswers("", qs)
	require.NoError(t, err)
	assert.Empty(t, got)
}
