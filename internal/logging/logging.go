// Package logging configures the shared logrus logger used throughout the
// core, handing callers a *logrus.Entry instead of reaching for the
// package-global logger.
package logging

import (
	"os"

	"github.com/sirupsen/logrus"
)

// Config controls the shared logger's level and format (spec.md §6 "log"
// section of the controller config, left opaque to Config itself but
// interpreted here).
type Config struct {
	Level  string `json:"level,omitempty"`
	Format string `json:"format,omitempty"`
}

// New builds the process-wide *logrus.Logger from Config, defaulting to
// info level and text formatting when Config is zero-valued.
func New(cfg Config) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if cfg.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	return logger
}

// For returns a component-scoped entry, the way every package in this core
// takes a *logrus.Entry rather than calling the global logger.
func For(logger *logrus.Logger, component string) *logrus.Entry {
	return logger.WithField("component", component)
}
