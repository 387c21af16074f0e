package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Init configures the global zerolog logger and returns it for injection.
// In dev the output is a colorized console writer; any other environment
// gets one JSON object per line.  An unknown level falls back to info.
func Init(level, env string) zerolog.Logger {
	return initTo(os.Stderr, level, env)
}

func initTo(w io.Writer, level, env string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
	zerolog.TimeFieldFormat = time.RFC3339

	out := w
	if env == "" || strings.EqualFold(env, "dev") {
		out = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}

	// Add the caller's file and line number
	log.Logger = zerolog.New(out).With().Timestamp().Caller().Logger()
	return log.Logger
}
