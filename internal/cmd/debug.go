package cmd

import (
	"github.com/sirupsen/logrus"
)

// DebugConfig is the shared --debug/--log-level flag pair every subcommand
// embeds; it drives this core's logrus-based internal/logging configuration.
type DebugConfig struct {
	Debug    bool   `usage:"Turn on debug logging"`
	LogLevel string `usage:"Log level (panic, fatal, error, warn, info, debug, trace)" default:"info"`
}

// SetupDebug applies --debug/--log-level to the global logrus logger before
// any subcommand starts doing real work.
func (c *DebugConfig) SetupDebug() error {
	level := c.LogLevel
	if c.Debug {
		level = "debug"
	}
	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		return err
	}
	logrus.SetLevel(parsed)
	return nil
}
