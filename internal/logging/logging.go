// Package logging builds the zerolog loggers shared by wealthtax commands and services.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
)

// New returns a logger writing to w. Terminals get the human-readable
// console format; anything else gets one JSON object per line.
func New(w io.Writer, verbose bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}

	out := w
	if f, ok := w.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
		out = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	}

	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}

// Quiet returns a logger that only reports errors.
func Quiet(w io.Writer) zerolog.Logger {
	return New(w, false).Level(zerolog.ErrorLevel)
}
