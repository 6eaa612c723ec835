package logger

import (
	"os"

	"github.com/rs/zerolog"
)

// New builds the process-wide zerolog logger. Development gets the
// human-readable console writer; production logs structured JSON.
func New(env string) zerolog.Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	if env == "production" {
		return zerolog.New(os.Stdout).With().Timestamp().Str("service", "vendora-api").Logger()
	}

	out := zerolog.ConsoleWriter{Out: os.Stdout}
	return zerolog.New(out).With().Timestamp().Logger().Level(zerolog.DebugLevel)
}
