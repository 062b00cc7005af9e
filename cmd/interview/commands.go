package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/fairyhunter13/ai-interview-engine/internal/app"
	"github.com/fairyhunter13/ai-interview-engine/internal/domain"
	obsctx "github.com/fairyhunter13/ai-interview-engine/internal/observability"
)

func setDefaultLogger(lg *slog.Logger) { slog.SetDefault(lg) }

func newExtractCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "extract <file>",
		Short: "Print the candidate profile extracted from a résumé",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.session(cmd.Context(), func(ctx context.Context, svcs app.Services) error {
				profile, err := c.extract(ctx, svcs, args[0])
				if err != nil {
					return err
				}
				return c.print(profile)
			})
		},
	}
}

func newQuestionsCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "questions <file>",
		Short: "Generate the interview question set for a résumé",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.session(cmd.Context(), func(ctx context.Context, svcs app.Services) error {
				profile, err := c.extract(ctx, svcs, args[0])
				if err != nil {
					return err
				}
				qs, err := svcs.Questions.Generate(ctx, profile)
				if err != nil {
					return err
				}
				return c.print(map[string]any{"profile": profile, "questions": qs})
			})
		},
	}
}

func newRunCmd(c *cli) *cobra.Command {
	var answers string
	cmd := &cobra.Command{
		Use:   "run <file>",
		Short: "Generate questions, grade the given answers and summarize",
		Long:  "run answers the generated questions in order with the letters passed to --answers. Empty entries and SKIPPED leave a question unanswered.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.session(cmd.Context(), func(ctx context.Context, svcs app.Services) error {
				profile, err := c.extract(ctx, svcs, args[0])
				if err != nil {
					return err
				}
				qs, err := svcs.Questions.Generate(ctx, profile)
				if err != nil {
					return err
				}
				picked, err := parseAnswers(answers, qs)
				if err != nil {
					return err
				}
				report, err := svcs.Interviews.Finalize(ctx, qs, picked)
				if err != nil {
					return err
				}
				return c.print(map[string]any{"profile": profile, "questions": qs, "report": report})
			})
		},
	}
	cmd.Flags().StringVarP(&answers, "answers", "a", "", "Comma-separated option letters in question order, e.g. A,C,,B")
	return cmd
}

// session wires the services and tags every log line with a fresh session id.
func (c *cli) session(ctx context.Context, fn func(context.Context, app.Services) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	sid := uuid.NewString()
	ctx = obsctx.ContextWithRequestID(ctx, sid)
	ctx, lg := obsctx.WithLogAttrs(ctx, slog.String("session_id", sid))

	svcs, closeFn, err := c.build(ctx, c.cfg)
	if err != nil {
		return err
	}
	defer closeFn()

	lg.Debug("session started", slog.Bool("completion_configured", c.cfg.CompletionConfigured()))
	if err := fn(ctx, svcs); err != nil {
		lg.Error("session failed", slog.Any("error", err))
		return err
	}
	return nil
}

func (c *cli) extract(ctx context.Context, svcs app.Services, path string) (domain.CandidateProfile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.CandidateProfile{}, fmt.Errorf("read %s: %w", path, err)
	}
	return svcs.Extract.Extract(ctx, domain.Document{Filename: filepath.Base(path), Data: data})
}

func (c *cli) print(v any) error {
	enc := json.NewEncoder(c.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// parseAnswers maps the i-th letter onto the i-th question.
func parseAnswers(s string, qs domain.QuestionSet) ([]domain.Answer, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	if len(parts) > len(qs) {
		return nil, fmt.Errorf("%w: %d answers for %d questions", domain.ErrInvalidArgument, len(parts), len(qs))
	}
	out := make([]domain.Answer, 0, len(parts))
	for i, p := range parts {
		letter := strings.ToUpper(strings.TrimSpace(p))
		if letter == "" {
			letter = domain.SkippedOption
		}
		out = append(out, domain.Answer{QuestionID: qs[i].ID, SelectedOption: letter})
	}
	return out, nil
}
