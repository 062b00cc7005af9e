package observability

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestContextWithLoggerAndLoggerFromContext(t *testing.T) {
	lg := slog.Default()
	baseCtx := context.Background()

	ctxWithLogger := ContextWithLogger(baseCtx, lg)
	if ctxWithLogger == baseCtx {
		t.Fatal("expected a derived context when attaching a logger")
	}
	if got := LoggerFromContext(ctxWithLogger); got != lg {
		t.Fatalf("LoggerFromContext did not return original logger, got %v", got)
	}
	if got := ContextWithLogger(baseCtx, nil); got != baseCtx {
		t.Fatal("expected original context when logger is nil")
	}
	if got := LoggerFromContext(context.Background()); got == nil {
		t.Fatal("expected default logger for empty context")
	}
}

func TestWithLogAttrs_Inherited(t *testing.T) {
	var buf bytes.Buffer
	base := slog.New(slog.NewJSONHandler(&buf, nil))
	ctx := ContextWithLogger(context.Background(), base)

	ctx, _ = WithLogAttrs(ctx, slog.String("stage", "questions"))
	LoggerFromContext(ctx).Info("generated")

	if !strings.Contains(buf.String(), `"stage":"questions"`) {
		t.Fatalf("expected stage attribute in %q", buf.String())
	}
}

func TestContextWithRequestID(t *testing.T) {
	ctx := context.Background()
	if got := ContextWithRequestID(ctx, ""); got != ctx {
		t.Fatal("expected original context when request ID is empty")
	}

	ctxWithID := ContextWithRequestID(ctx, "req-123")
	if got := RequestIDFromContext(ctxWithID); got != "req-123" {
		t.Fatalf("RequestIDFromContext() = %q, want %q", got, "req-123")
	}
	if got := RequestIDFromContext(context.Background()); got != "" {
		t.Fatalf("expected empty string when no request ID present, got %q", got)
	}
}
