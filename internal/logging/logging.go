// ABOUTME: Configures the process-wide charmbracelet logger
// ABOUTME: Maps config and CLI verbosity onto a level and output format
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/harper/ragdoc/internal/models"
)

// Options control the default logger
type Options struct {
	Level string
	JSON  bool
}

// Setup configures the default logger to write to w (stderr when nil).
// stdout is left alone so the MCP transport and CLI output stay clean.
func Setup(opts Options, w io.Writer) error {
	if w == nil {
		w = os.Stderr
	}

	level, err := ParseLevel(opts.Level)
	if err != nil {
		return err
	}

	log.SetOutput(w)
	log.SetLevel(level)
	log.SetPrefix("ragdoc")
	log.SetReportTimestamp(true)
	log.SetTimeFormat(time.Kitchen)
	if opts.JSON {
		log.SetFormatter(log.JSONFormatter)
		log.SetTimeFormat(time.RFC3339)
	} else {
		log.SetFormatter(log.TextFormatter)
	}
	return nil
}

// ParseLevel accepts debug, info, warn, error, and fatal; empty means info
func ParseLevel(s string) (log.Level, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return log.InfoLevel, nil
	}
	if s == "warning" {
		s = "warn"
	}
	level, err := log.ParseLevel(s)
	if err != nil {
		return log.InfoLevel, fmt.Errorf("%w: unknown log level %q", models.ErrInvalidConfiguration, s)
	}
	return level, nil
}

// LevelForFlags resolves --verbose and --quiet against the configured level
func LevelForFlags(configured string, verbose, quiet bool) string {
	switch {
	case verbose:
		return "debug"
	case quiet:
		return "error"
	default:
		return configured
	}
}
