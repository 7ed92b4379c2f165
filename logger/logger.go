// Package logger configures the shared console logger.
package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// New returns a console logger writing to stderr, so command output on
// stdout stays machine-readable. Verbose enables debug-level messages.
func New(verbose bool) zerolog.Logger {
	return NewWriter(os.Stderr, verbose)
}

// NewWriter is New with an explicit destination, for tests.
func NewWriter(w io.Writer, verbose bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}

	out := zerolog.ConsoleWriter{Out: w, TimeFormat: time.TimeOnly}
	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}
