// Package observability provides structured, context-carried logging for a
// pipeline run.
package observability

import (
	"context"
	"log/slog"
)

// LogContext holds structured logging context information for a pipeline run.
type LogContext struct {
	RunID   string
	StepID  string
	Task    string
	TraceID string
}

type logContextKeyType string

const logContextKey logContextKeyType = "log-context"

// WithRunID adds a run ID to the context.
func WithRunID(ctx context.Context, runID string) context.Context {
	lc := extractLogContext(ctx)
	lc.RunID = runID
	return context.WithValue(ctx, logContextKey, lc)
}

// WithStepID adds a step ID to the context.
func WithStepID(ctx context.Context, stepID string) context.Context {
	lc := extractLogContext(ctx)
	lc.StepID = stepID
	return context.WithValue(ctx, logContextKey, lc)
}

// WithTask adds a task kind to the context.
func WithTask(ctx context.Context, task string) context.Context {
	lc := extractLogContext(ctx)
	lc.Task = task
	return context.WithValue(ctx, logContextKey, lc)
}

// WithTraceID adds a trace ID to the context.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	lc := extractLogContext(ctx)
	lc.TraceID = traceID
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

	if lc.RunID != "" {
		attrs = append(attrs, slog.String("run.id", lc.RunID))
	}
	if lc.StepID != "" {
		attrs = append(attrs, slog.String("step.id", lc.StepID))
	}
	if lc.Task != "" {
		attrs = append(attrs, slog.String("task", lc.Task))
	}
	if lc.TraceID != "" {
		attrs = append(attrs, slog.String("trace.id", lc.TraceID))
	}

	return attrs
}

// InfoContext logs an info message with context information.
func InfoContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	allAttrs := append(getLogAttrs(ctx), attrs...)
	slog.LogAttrs(ctx, slog.LevelInfo, msg, allAttrs...)
}

// WarnContext logs a warning message with context information.
func WarnContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	allAttrs := append(getLogAttrs(ctx), attrs...)
	slog.LogAttrs(ctx, slog.LevelWarn, msg, allAttrs...)
}

// ErrorContext logs an error message with context information.
func ErrorContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	allAttrs := append(getLogAttrs(ctx), attrs...)
	slog.LogAttrs(ctx, slog.LevelError, msg, allAttrs...)
}

// DebugContext logs a debug message with context information.
func DebugContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	allAttrs := append(getLogAttrs(ctx), attrs...)
	slog.LogAttrs(ctx, slog.LevelDebug, msg, allAttrs...)
}

// LogBuilder accumulates attributes for a single log line.
type LogBuilder struct {
	ctx   context.Context
	attrs []slog.Attr
}

// NewLogBuilder creates a new log builder seeded with the context's attrs.
func NewLogBuilder(ctx context.Context) *LogBuilder {
	return &LogBuilder{ctx: ctx, attrs: getLogAttrs(ctx)}
}

// With adds an attribute to the log builder.
func (lb *LogBuilder) With(key string, value interface{}) *LogBuilder {
	switch v := value.(type) {
	case string:
		lb.attrs = append(lb.attrs, slog.String(key, v))
	case int:
		lb.attrs = append(lb.attrs, slog.Int(key, v))
	case int64:
		lb.attrs = append(lb.attrs, slog.Int64(key, v))
	case float64:
		lb.attrs = append(lb.attrs, slog.Float64(key, v))
	case bool:
		lb.attrs = append(lb.attrs, slog.Bool(key, v))
	default:
		lb.attrs = append(lb.attrs, slog.Any(key, v))
	}
	return lb
}

func (lb *LogBuilder) Info(msg string)  { slog.LogAttrs(lb.ctx, slog.LevelInfo, msg, lb.attrs...) }
func (lb *LogBuilder) Warn(msg string)  { slog.LogAttrs(lb.ctx, slog.LevelWarn, msg, lb.attrs...) }
func (lb *LogBuilder) Error(msg string) { slog.LogAttrs(lb.ctx, slog.LevelError, msg, lb.attrs...) }
func (lb *LogBuilder) Debug(msg string) { slog.LogAttrs(lb.ctx, slog.LevelDebug, msg, lb.attrs...) }

// GetContext returns the structured log context carried by ctx.
func GetContext(ctx context.Context) LogContext {
	return extractLogContext(ctx)
}

// HasContextValue checks if a specific context field is set.
func HasContextValue(ctx context.Context, field string) bool {
	lc := extractLogContext(ctx)
	switch field {
	case "run.id":
		return lc.RunID != ""
	case "step.id":
		return lc.StepID != ""
	case "task":
		return lc.Task != ""
	case "trace.id":
		return lc.TraceID != ""
	default:
		return false
	}
}
