// Package logging builds the zerolog loggers used by the commands and
// the runtime.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
)

// Config says how to log.
type Config struct {
	// Level is a zerolog level name ("debug", "info", ...).  The
	// empty string means "info".
	Level string `json:"level" yaml:"level" toml:"level"`

	// Format is "console", "json", or "" (console when stderr is
	// a terminal, JSON otherwise).
	Format string `json:"format" yaml:"format" toml:"format"`

	// Verbose forces debug level.
	Verbose bool `json:"verbose" yaml:"verbose" toml:"verbose"`
}

// New makes a logger writing to stderr.
func New(cfg Config) zerolog.Logger {
	return NewWriter(cfg, os.Stderr)
}

// NewWriter makes a logger writing to the given writer.
func NewWriter(cfg Config, w io.Writer) zerolog.Logger {
	if console(cfg.Format, w) {
		w = zerolog.ConsoleWriter{
			Out:        w,
			TimeFormat: time.RFC3339,
		}
	}
	return zerolog.New(w).
		Level(ParseLevel(cfg)).
		With().
		Timestamp().
		Logger()
}

// ParseLevel gives the level for the configuration.  Unknown level
// names mean info.
func ParseLevel(cfg Config) zerolog.Level {
	if cfg.Verbose {
		return zerolog.DebugLevel
	}
	if cfg.Level == "" {
		return zerolog.InfoLevel
	}
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		return zerolog.InfoLevel
	}
	return level
}

func console(format string, w io.Writer) bool {
	switch format {
	case "console":
		return true
	case "json":
		return false
	}
	f, is := w.(*os.File)
	if !is {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Nop is a logger that discards everything.
func Nop() zerolog.Logger {
	return zerolog.Nop()
}
