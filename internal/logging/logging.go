// Package logging configures structured logging for the harness. It is
// a thin layer over charmbracelet/log: components get a prefixed logger
// and the minimum level comes from the environment, so a failing CI run
// can be re-executed with LATTICE_E2E_LOG_LEVEL=debug and nothing else.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

// EnvLogLevel overrides the minimum log level (debug, info, warn, error).
const EnvLogLevel = "LATTICE_E2E_LOG_LEVEL"

// Options configures a logger.
type Options struct {
	// Level is the minimum log level. Defaults to info.
	Level string

	// Output is the destination writer. Defaults to os.Stderr.
	Output io.Writer

	// Prefix is the component name shown on each line.
	Prefix string
}

// ParseLevel converts a level name to a log.Level, defaulting to info.
func ParseLevel(level string) log.Level {
	switch strings.ToLower(level) {
	case "debug":
		return log.DebugLevel
	case "info":
		return log.InfoLevel
	case "warn", "warning":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}

// NewWithOptions creates a logger from explicit options.
func NewWithOptions(opts Options) *log.Logger {
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}
	return log.NewWithOptions(out, log.Options{
		Level:           ParseLevel(opts.Level),
		Prefix:          opts.Prefix,
		TimeFormat:      time.RFC3339,
		ReportTimestamp: true,
	})
}

// New creates a logger for the named component, honoring the
// LATTICE_E2E_LOG_LEVEL environment override.
func New(component string) *log.Logger {
	return NewWithOptions(Options{
		Level:  os.Getenv(EnvLogLevel),
		Prefix: component,
	})
}

// Discard returns a logger that writes nowhere, for quiet tests.
func Discard() *log.Logger {
	l := log.New(io.Discard)
	return l
}
