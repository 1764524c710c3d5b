package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

type Options struct {
	Format  string
	Verbose bool
	Quiet   bool
	NoColor bool
}

// New builds the diagnostics logger and installs it as the global zerolog
// logger used by the rest of the program.
func New(w io.Writer, opts Options) zerolog.Logger {
	level := zerolog.InfoLevel
	switch {
	case opts.Verbose:
		level = zerolog.DebugLevel
	case opts.Quiet:
		level = zerolog.WarnLevel
	}

	var sink io.Writer = w
	if !strings.EqualFold(strings.TrimSpace(opts.Format), FormatJSON) {
		sink = zerolog.ConsoleWriter{
			Out:        w,
			NoColor:    opts.NoColor || !isTerminal(w),
			TimeFormat: time.TimeOnly,
		}
	}

	logger := zerolog.New(sink).Level(level).With().Timestamp().Logger()
	log.Logger = logger
	zerolog.SetGlobalLevel(level)
	return logger
}

func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
