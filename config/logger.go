package config

import (
	"fmt"
	"strings"

	"github.com/pokt-network/poktroll/pkg/polylog"
	"github.com/pokt-network/poktroll/pkg/polylog/polyzero"
)

/* --------------------------------- Logger Config Defaults -------------------------------- */

const defaultLogLevel = "info"

/* --------------------------------- Logger Config Struct -------------------------------- */

// LoggerConfig contains logger configuration settings.
type LoggerConfig struct {
	// Level sets the minimum log level: "debug", "info", "warn" or "error".
	// Per-call traces are only emitted at "debug".
	Level string `yaml:"level"`
}

// NewLogger returns a zerolog-backed logger at the configured level.
func (c LoggerConfig) NewLogger() polylog.Logger {
	return polyzero.NewLogger(polyzero.WithLevel(polyzero.ParseLevel(c.Level)))
}

/* --------------------------------- Logger Config Private Helpers -------------------------------- */

func (c *LoggerConfig) hydrateLoggerDefaults() {
	if c.Level == "" {
		c.Level = defaultLogLevel
	}
	c.Level = strings.ToLower(c.Level)
}

func (c LoggerConfig) validate() error {
	switch c.Level {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("invalid log level: %s", c.Level)
	}
}
