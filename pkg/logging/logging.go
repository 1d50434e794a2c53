// Package logging builds the zerolog logger used for diagnostics.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
)

// Options controls the diagnostic logger.
type Options struct {
	// Debug lowers the level from Info to Debug.
	Debug bool
	// JSON writes one JSON object per event instead of console text.
	JSON bool
}

// New returns a logger writing to w.
// Console output is colored only when w is a terminal.
func New(w io.Writer, opts Options) zerolog.Logger {
	level := zerolog.InfoLevel
	if opts.Debug {
		level = zerolog.DebugLevel
	}

	var output zerolog.LevelWriter
	if opts.JSON {
		output = zerolog.LevelWriterAdapter{Writer: w}
	} else {
		output = zerolog.LevelWriterAdapter{Writer: zerolog.ConsoleWriter{
			Out:        w,
			TimeFormat: time.RFC3339,
			NoColor:    !isTerminal(w),
		}}
	}

	return zerolog.New(output).Level(level).With().Timestamp().Logger()
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
