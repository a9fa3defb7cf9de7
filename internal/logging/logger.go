package logging

import (
	"log/slog"
	"os"

	"github.com/samber/oops"
)

// Logger wraps slog.Logger with the field helpers used by handlers.
type Logger struct {
	*slog.Logger
}

// NewLogger returns a text logger at debug level in development and a JSON
// logger at info level otherwise.
func NewLogger(isDevelopment bool) *Logger {
	var handler slog.Handler
	if isDevelopment {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
	} else {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	}
	return &Logger{Logger: slog.New(handler)}
}

// New wraps an existing slog.Logger.
func New(l *slog.Logger) *Logger {
	return &Logger{Logger: l}
}

// WithFields returns a child logger that always includes the given fields.
func (l *Logger) WithFields(fields map[string]any) *Logger {
	args := make([]any, 0, len(fields)*2)
	for k, v := range fields {
		args = append(args, k, v)
	}
	return &Logger{Logger: l.Logger.With(args...)}
}

// LogError logs err at error level. For oops errors the code and context are
// logged as separate attributes.
func (l *Logger) LogError(msg string, err error) {
	if oopsErr, ok := oops.AsOops(err); ok {
		attrs := []any{"error", oopsErr.Error()}
		if code := oopsErr.Code(); code != nil {
			attrs = append(attrs, "code", code)
		}
		if ctx := oopsErr.Context(); len(ctx) > 0 {
			attrs = append(attrs, "context", ctx)
		}
		l.Error(msg, attrs...)
		return
	}
	l.Error(msg, "error", err)
}
