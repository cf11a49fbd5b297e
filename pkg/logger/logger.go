// Package logger provides the structured logger shared by every storefront
// component. It wraps logrus so callers can chain WithField/WithError the
// same way across services.
package logger

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// LoggingConfig controls logger construction.
type LoggingConfig struct {
	Level  string // debug, info, warn, error
	Format string // text or json
	Output string // stdout, stderr, or a file path
}

// Logger is a component-scoped logrus entry.
type Logger struct {
	*logrus.Entry
}

// New builds a logger from configuration. Unknown levels fall back to info,
// and an unopenable output file falls back to stderr.
func New(cfg LoggingConfig) *Logger {
	base := logrus.New()

	level, err := logrus.ParseLevel(strings.TrimSpace(cfg.Level))
	if err != nil {
		level = logrus.InfoLevel
	}
	base.SetLevel(level)

	switch strings.ToLower(strings.TrimSpace(cfg.Format)) {
	case "json":
		base.SetFormatter(&logrus.JSONFormatter{})
	default:
		base.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	base.SetOutput(openOutput(cfg.Output))

	return &Logger{Entry: logrus.NewEntry(base)}
}

// NewDefault returns an info-level text logger on stderr tagged with the
// component name.
func NewDefault(component string) *Logger {
	return New(LoggingConfig{Level: "info"}).Component(component)
}

// NewDiscard returns a logger that drops everything. Used by tests that do
// not assert on log output.
func NewDiscard() *Logger {
	base := logrus.New()
	base.SetOutput(io.Discard)
	return &Logger{Entry: logrus.NewEntry(base)}
}

// Component derives a child logger tagged with the given component name.
func (l *Logger) Component(name string) *Logger {
	if l == nil {
		return NewDefault(name)
	}
	return &Logger{Entry: l.Entry.WithField("component", name)}
}

// SetOutput redirects the underlying logger.
func (l *Logger) SetOutput(w io.Writer) {
	l.Entry.Logger.SetOutput(w)
}

func openOutput(output string) io.Writer {
	switch strings.ToLower(strings.TrimSpace(output)) {
	case "", "stderr":
		return os.Stderr
	case "stdout":
		return os.Stdout
	}
	f, err := os.OpenFile(output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return os.Stderr
	}
	return f
}
