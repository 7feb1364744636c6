package mathfind

import (
	"context"
	"io"
	"log/slog"
	"time"
)

// Logger is the structured logger shared by the pipeline, the server and
// the command. Pages and requests are tagged with WithPage and WithRequest.
type Logger struct {
	*slog.Logger
}

// NewLogger wraps handler. A nil handler discards everything.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		return NoopLogger()
	}
	return &Logger{Logger: slog.New(handler)}
}

// NewJSONLogger logs JSON lines at level and above to w.
func NewJSONLogger(w io.Writer, level slog.Leveler) *Logger {
	return NewLogger(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}

// NewTextLogger logs key=value lines at level and above to w.
func NewTextLogger(w io.Writer, level slog.Leveler) *Logger {
	return NewLogger(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// NoopLogger discards all output.
func NoopLogger() *Logger {
	return &Logger{Logger: slog.New(slog.DiscardHandler)}
}

// WithPage adds a page field to the logger.
func (l *Logger) WithPage(name string) *Logger {
	return &Logger{
		Logger: l.Logger.With("page", name),
	}
}

// WithRequest adds a request ID field to the logger.
func (l *Logger) WithRequest(id string) *Logger {
	return &Logger{
		Logger: l.Logger.With("request_id", id),
	}
}

// LogPass logs the completion of one analysis pass over a page.
func (l *Logger) LogPass(ctx context.Context, pass string, blobs int, elapsed time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "pass failed",
			"pass", pass,
			"blobs", blobs,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "pass completed",
			"pass", pass,
			"blobs", blobs,
			"elapsed", elapsed,
		)
	}
}

// LogPage logs the result of analyzing a page.
func (l *Logger) LogPage(ctx context.Context, blobs, regions int, elapsed time.Duration) {
	l.InfoContext(ctx, "page analyzed",
		"blobs", blobs,
		"regions", regions,
		"elapsed", elapsed,
	)
}
