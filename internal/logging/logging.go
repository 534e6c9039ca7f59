// Package logging configures the zerolog logger used by the command line
// tools. Library packages do not log.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Init points the global logger at w with a console format and sets the
// global level. Colour is used only when w is a terminal.
func Init(w io.Writer, level zerolog.Level) {
	log.Logger = New(w)
	zerolog.SetGlobalLevel(level)
}

// New returns a console logger writing to w.
func New(w io.Writer) zerolog.Logger {
	out := zerolog.ConsoleWriter{
		Out:        w,
		NoColor:    !IsTerminal(w),
		TimeFormat: time.TimeOnly,
	}
	return zerolog.New(out).With().Timestamp().Logger()
}

// IsTerminal reports whether w is a terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// ParseLevel parses a level name such as "debug" or "warn". The empty
// string means info.
func ParseLevel(s string) (zerolog.Level, error) {
	if s == "" {
		return zerolog.InfoLevel, nil
	}
	level, err := zerolog.ParseLevel(strings.ToLower(s))
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("logging: unknown level %q", s)
	}
	return level, nil
}

// NewRunID returns an identifier for tagging the log lines of one run.
func NewRunID() string {
	return uuid.NewString()
}

// Debug starts a debug level message on the global logger.
func Debug() *zerolog.Event {
	return log.Debug()
}

// Info starts an info level message on the global logger.
func Info() *zerolog.Event {
	return log.Info()
}

// Warn starts a warning on the global logger.
func Warn() *zerolog.Event {
	return log.Warn()
}

// Error starts an error level message on the global logger.
func Error() *zerolog.Event {
	return log.Error()
}

// With returns a context for deriving a child of the global logger.
func With() zerolog.Context {
	return log.With()
}
