package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// New creates a zerolog logger writing to stdout.
// level: trace|debug|info|warn|error; format: json|console.
func New(level, format string) zerolog.Logger {
	return NewWithWriter(os.Stdout, level, format)
}

func NewWithWriter(w io.Writer, level, format string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}

	if strings.ToLower(format) == "console" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	return zerolog.New(w).Level(lvl).With().Timestamp().Logger()
}

// WithTrace returns a child logger tagged with a fresh trace_id and the
// redacted user, for everything logged while handling one inbound message.
func WithTrace(base zerolog.Logger, userID string) zerolog.Logger {
	return base.With().
		Str("trace_id", uuid.NewString()).
		Str("user", Redact(userID)).
		Logger()
}

// Redact hides most of a phone number; keep a short prefix/suffix for correlation.
func Redact(s string) string {
	if len(s) <= 8 {
		return "***"
	}
	return s[:4] + "..." + s[len(s)-2:]
}
