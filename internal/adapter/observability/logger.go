package observability

import (
	"io"
	"log/slog"
	"os"

	"github.com/fairyhunter13/ai-interview-engine/internal/config"
)

// SetupLogger configures a JSON slog logger with environment fields.
func SetupLogger(cfg config.Config) *slog.Logger {
	return newLogger(os.Stdout, cfg)
}

// SetupCLILogger writes JSON logs to w (stderr for the CLI) so stdout stays
// reserved for command output. verbose forces debug level.
func SetupCLILogger(w io.Writer, cfg config.Config, verbose bool) *slog.Logger {
	if verbose {
		cfg.AppEnv = "dev"
	} else if cfg.IsDev() {
		cfg.AppEnv = "cli"
	}
	return newLogger(w, cfg)
}

func newLogger(w io.Writer, cfg config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{}
	// In dev, show debug level; elsewhere, default to info
	if cfg.IsDev() {
		opts.Level = slog.LevelDebug
	}
	h := slog.NewJSONHandler(w, opts)
	return slog.New(h).With(
		slog.String("service", cfg.OTELServiceName),
		slog.String("env", cfg.AppEnv),
		slog.Bool("completion_configured", cfg.CompletionConfigured()),
	)
}
