package cli

import (
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// newLogger builds the process logger from the configured level and format.
func newLogger(w io.Writer, level, format string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	if format == "console" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	return zerolog.New(w).Level(lvl).With().Timestamp().Logger()
}

// requestLogLevel maps the process level onto the per-request access log level.
func requestLogLevel(level string) string {
	switch strings.ToLower(level) {
	case "debug", "trace":
		return "debug"
	case "warn", "warning", "error", "fatal", "panic":
		return "error"
	case "disabled", "off":
		return "off"
	default:
		return "info"
	}
}
