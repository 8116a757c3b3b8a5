package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Setup configures the global zerolog logger. Development gets pretty
// console output; every other environment logs JSON to stdout.
func Setup(appEnv, level string) zerolog.Level {
	return SetupWriter(os.Stdout, appEnv, level)
}

// SetupWriter is Setup with an explicit destination
func SetupWriter(out io.Writer, appEnv, level string) zerolog.Level {
	zerolog.TimeFieldFormat = time.RFC3339

	// Pretty console logging in development
	if appEnv == "development" {
		log.Logger = zerolog.New(zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: time.RFC3339,
		}).With().Timestamp().Logger()
	} else {
		log.Logger = zerolog.New(out).With().Timestamp().Logger()
	}

	// Set log level
	parsed := zerolog.InfoLevel
	if level != "" {
		if lvl, err := zerolog.ParseLevel(level); err == nil {
			parsed = lvl
		}
	}
	zerolog.SetGlobalLevel(parsed)

	log.Debug().
		Str("level", parsed.String()).
		Str("env", appEnv).
		Msg("Logger initialized")

	return parsed
}
