// Package logging builds the process logger.
package logging

import (
	"log/slog"
	"os"
)

// New returns a text logger on stderr. Verbose lowers the level to debug.
func New(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
