// Package util holds small helpers shared across the engine binaries.
package util

import (
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// NewLogger builds the process logger at the given level. Unknown levels
// fall back to info so a config typo never silences the logs.
func NewLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(os.Stdout).With().Timestamp().Logger().Level(lvl)
}

// NewConsoleLogger is NewLogger with human-readable output for local runs.
func NewConsoleLogger(level string) zerolog.Logger {
	return NewLogger(level).Output(zerolog.ConsoleWriter{Out: os.Stderr})
}
