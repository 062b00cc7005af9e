// Command interview runs the interview pipeline against a local résumé file
// and prints JSON to stdout. Logs go to stderr.
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/fairyhunter13/ai-interview-engine/internal/adapter/observability"
	"github.com/fairyhunter13/ai-interview-engine/internal/app"
	"github.com/fairyhunter13/ai-interview-engine/internal/config"
)

// cli carries the state shared by every subcommand.
type cli struct {
	out     io.Writer
	errOut  io.Writer
	verbose bool

	loadConfig func() (config.Config, error)
	build      func(context.Context, config.Config) (app.Services, func(), error)

	cfg config.Config
}

func newCLI() *cli {
	return &cli{
		out:        os.Stdout,
		errOut:     os.Stderr,
		loadConfig: config.Load,
		build:      app.BuildServices,
	}
}

func newRootCmd(c *cli) *cobra.Command {
	root := &cobra.Command{
		Use:           "interview",
		Short:         "Generate and grade technical interviews from a résumé",
		Long:          "interview extracts a candidate profile from a PDF or DOCX résumé, generates a six-question multiple-choice interview and grades the answers. Without GEMINI_API_KEY it uses the built-in question pools.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			c.cfg = cfg
			setDefaultLogger(observability.SetupCLILogger(c.errOut, cfg, c.verbose))
			return nil
		},
	}
	root.SetOut(c.out)
	root.SetErr(c.errOut)
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "Debug logging on stderr")

	root.AddCommand(newExtractCmd(c), newQuestionsCmd(c), newRunCmd(c))
	return root
}

func main() {
	if err := newRootCmd(newCLI()).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
