package embedviz

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"
)

// Logger wraps slog.Logger with embedviz-specific helpers.
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
	return NewJSONLoggerTo(os.Stderr, level)
}

// NewJSONLoggerTo is NewJSONLogger writing to w.
func NewJSONLoggerTo(w io.Writer, level slog.Level) *Logger {
	return NewLogger(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	return NewLogger(slog.DiscardHandler)
}

// WithRequestID adds a request_id field to the logger.
func (l *Logger) WithRequestID(id string) *Logger {
	return &Logger{
		Logger: l.Logger.With("request_id", id),
	}
}

// WithMethod adds a method field to the logger.
func (l *Logger) WithMethod(method string) *Logger {
	return &Logger{
		Logger: l.Logger.With("method", method),
	}
}

// LogEmbed logs an embedding call.
func (l *Logger) LogEmbed(ctx context.Context, model string, texts int, duration time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "embedding failed",
			"model", model,
			"texts", texts,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "embedding completed",
			"model", model,
			"texts", texts,
			"duration", duration,
		)
	}
}

// LogProjection logs a projection.
func (l *Logger) LogProjection(ctx context.Context, method string, points, dims int, p *Projection, duration time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "projection failed",
			"method", method,
			"points", points,
			"dimensions", dims,
			"error", err,
		)
		return
	}
	l.DebugContext(ctx, "projection completed",
		"method", method,
		"points", points,
		"dimensions", dims,
		"iterations", p.Iterations,
		"cost", p.Cost,
		"early_stopped", p.EarlyStopped,
		"duration", duration,
	)
	if p.Unconverged == nil {
		return
	}
	if n := p.Unconverged.GetCardinality(); n > 0 {
		l.WarnContext(ctx, "bandwidth search did not converge",
			"method", method,
			"points", n,
		)
	}
}

// LogArchive logs an archive write.
func (l *Logger) LogArchive(ctx context.Context, id string, err error) {
	if err != nil {
		l.ErrorContext(ctx, "archiving run failed",
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "run archived",
			"id", id,
		)
	}
}
