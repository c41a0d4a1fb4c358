// Package shared holds helpers common to the housie subcommands.
package shared

import (
	"os"

	charmlog "github.com/charmbracelet/log"
	"github.com/rs/zerolog"
)

// SetupLogger configures the application logger.
func SetupLogger(debug bool) *charmlog.Logger {
	level := charmlog.InfoLevel
	if debug {
		level = charmlog.DebugLevel
	}

	return charmlog.NewWithOptions(os.Stderr, charmlog.Options{
		ReportTimestamp: true,
		Level:           level,
	})
}

// SetupHistoryLogger configures the logger used by the session archive,
// which logs through zerolog.
func SetupHistoryLogger(debug bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}

	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).
		With().
		Timestamp().
		Logger()
}
