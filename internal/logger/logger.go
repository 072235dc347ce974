// internal/logger/logger.go
package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Init configures the global zerolog logger. format is "console" or "json".
func Init(level, format string) {
	var out io.Writer = os.Stderr
	if format != "json" {
		// Use ConsoleWriter for human-readable, colorized output in development
		out = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	}
	log.Logger = zerolog.New(out).With().Timestamp().Logger()

	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)

	// Add a hook to include the caller's file and line number
	log.Logger = log.With().Caller().Logger()
}
