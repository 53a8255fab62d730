package rankgo

import (
	"context"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with rankgo-specific context.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
// level sets the minimum log level (e.g., slog.LevelDebug, slog.LevelInfo).
func NewJSONLogger(level slog.Level) *Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NoopLogger creates a Logger that discards all log output.
// Use this to disable logging entirely.
func NoopLogger() *Logger {
	return &Logger{
		Logger: slog.New(slog.DiscardHandler),
	}
}

// WithTopic adds a topic field to the logger.
func (l *Logger) WithTopic(topic string) *Logger {
	return &Logger{
		Logger: l.Logger.With("topic", topic),
	}
}

// WithRunID adds a run_id field to the logger.
func (l *Logger) WithRunID(runID string) *Logger {
	return &Logger{
		Logger: l.Logger.With("run_id", runID),
	}
}

// LogInit logs a graph initialization.
func (l *Logger) LogInit(ctx context.Context, nodes int, edges int64, dangling int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "init failed",
			"nodes", nodes,
			"edges", edges,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "init completed",
			"nodes", nodes,
			"edges", edges,
			"dangling", dangling,
		)
	}
}

// LogIteration logs one distribute+commit step.
func (l *Logger) LogIteration(ctx context.Context, iteration int, change float64, err error) {
	if err != nil {
		l.ErrorContext(ctx, "iteration failed",
			"iteration", iteration,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "iteration completed",
			"iteration", iteration,
			"total_rank_change", change,
		)
	}
}

// LogSpill logs the move of edge data to disk.
func (l *Logger) LogSpill(ctx context.Context, path string, edges int64, err error) {
	if err != nil {
		l.ErrorContext(ctx, "edge spill failed",
			"edges", edges,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "edge data spilled to disk",
			"path", path,
			"edges", edges,
		)
	}
}

// LogConverged logs the end of an iteration run.
func (l *Logger) LogConverged(ctx context.Context, iterations int, change float64, converged bool) {
	if converged {
		l.InfoContext(ctx, "ranks converged",
			"iterations", iterations,
			"total_rank_change", change,
		)
	} else {
		l.WarnContext(ctx, "iteration limit reached before convergence",
			"iterations", iterations,
			"total_rank_change", change,
		)
	}
}

// LogTopic logs the outcome of one topic run.
func (l *Logger) LogTopic(ctx context.Context, topic string, nodes int, iterations int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "topic failed",
			"topic", topic,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "topic ranked",
			"topic", topic,
			"nodes", nodes,
			"iterations", iterations,
		)
	}
}
