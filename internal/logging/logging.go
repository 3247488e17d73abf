// Package logging builds the diagnostics logger. Diagnostics always go to
// stderr so they never interleave with the device transcript on stdout.
package logging

import (
	"io"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
)

const timeFormat = "15:04:05"

// New returns a human-readable logger writing to w. Info and above are
// shown unless verbose enables debug records.
func New(w io.Writer, verbose bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}

	out := zerolog.ConsoleWriter{Out: w, TimeFormat: timeFormat, NoColor: !isTerminal(w)}
	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}

type fder interface {
	Fd() uintptr
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(fder)
	return ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()))
}
