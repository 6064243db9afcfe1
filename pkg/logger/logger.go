package logger

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Log is the process-wide logger. Init must run before the first request.
var Log zerolog.Logger

// Init configures the global logger for the given environment: readable
// console output while developing, JSON lines everywhere else.
func Init(env string) {
	zerolog.TimeFieldFormat = time.RFC3339

	if env == "development" {
		out := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: "15:04:05.000"}
		Log = zerolog.New(out).With().Timestamp().Caller().Logger()
		return
	}

	Log = zerolog.New(os.Stdout).With().Timestamp().Logger()
}

// Level helpers so call sites read logger.Info() rather than logger.Log.Info().

func Info() *zerolog.Event  { return Log.Info() }
func Warn() *zerolog.Event  { return Log.Warn() }
func Error() *zerolog.Event { return Log.Error() }
func Debug() *zerolog.Event { return Log.Debug() }
func Fatal() *zerolog.Event { return Log.Fatal() }
