package observability

import (
	"context"
	"log/slog"
)

// LogContext holds structured logging context for one render invocation.
type LogContext struct {
	RenderID string
	Template string
	Stage    string
}

type logContextKeyType string

const logContextKey logContextKeyType = "log-context"

// WithRenderID adds a render invocation ID to the context.
func WithRenderID(ctx context.Context, renderID string) context.Context {
	lc := extractLogContext(ctx)
	lc.RenderID = renderID
	return context.WithValue(ctx, logContextKey, lc)
}

// WithTemplate adds the name of the template being rendered to the context.
func WithTemplate(ctx context.Context, name string) context.Context {
	lc := extractLogContext(ctx)
	lc.Template = name
	return context.WithValue(ctx, logContextKey, lc)
}

// WithStage adds a pipeline stage name to the context.
func WithStage(ctx context.Context, stage string) context.Context {
	lc := extractLogContext(ctx)
	lc.Stage = stage
	return context.WithValue(ctx, logContextKey, lc)
}

func extractLogContext(ctx context.Context) LogContext {
	if lc, ok := ctx.Value(logContextKey).(LogContext); ok {
		return lc
	}
	return LogContext{}
}

func getLogAttrs(ctx context.Context) []slog.Attr {
	lc := extractLogContext(ctx)
	attrs := []slog.Attr{}

	if lc.RenderID != "" {
		attrs = append(attrs, slog.String("render.id", lc.RenderID))
	}
	if lc.Template != "" {
		attrs = append(attrs, slog.String("template", lc.Template))
	}
	if lc.Stage != "" {
		attrs = append(attrs, slog.String("stage", lc.Stage))
	}
	return attrs
}

// GetContext returns the structured log context from the provided context.
func GetContext(ctx context.Context) LogContext {
	return extractLogContext(ctx)
}

// Logger returns base (or slog.Default) enriched with the context's attributes.
func Logger(ctx context.Context, base *slog.Logger) *slog.Logger {
	if base == nil {
		base = slog.Default()
	}
	attrs := getLogAttrs(ctx)
	if len(attrs) == 0 {
		return base
	}
	args := make([]any, 0, len(attrs))
	for _, a := range attrs {
		args = append(args, a)
	}
	return base.With(args...)
}

// DebugContext logs a debug message with context information.
func DebugContext(ctx context.Context, base *slog.Logger, msg string, attrs ...slog.Attr) {
	Logger(ctx, base).LogAttrs(ctx, slog.LevelDebug, msg, attrs...)
}

// InfoContext logs an info message with context information.
func InfoContext(ctx context.Context, base *slog.Logger, msg string, attrs ...slog.Attr) {
	Logger(ctx, base).LogAttrs(ctx, slog.LevelInfo, msg, attrs...)
}

// WarnContext logs a warning with context information.
func WarnContext(ctx context.Context, base *slog.Logger, msg string, attrs ...slog.Attr) {
	Logger(ctx, base).LogAttrs(ctx, slog.LevelWarn, msg, attrs...)
}

// ErrorContext logs an error message with context information.
func ErrorContext(ctx context.Context, base *slog.Logger, msg string, attrs ...slog.Attr) {
	Logger(ctx, base).LogAttrs(ctx, slog.LevelError, msg, attrs...)
}
