package config

import (
	"fmt"
	"slices"
	"strings"
)

var logLevels = []string{"", "debug", "info", "warn", "error"}

// LogConfig selects the minimum level of the structured logger. Empty means info.
type LogConfig struct {
	Level string `koanf:"level"`
}

// String returns a string representation of the log configuration.
func (c *LogConfig) String() string {
	var b strings.Builder
	b.WriteString("\n--- Log ---\n")
	fmt.Fprintf(&b, "  level: %s\n", c.Level)
	return b.String()
}

func (c *LogConfig) Validate() error {
	if !slices.Contains(logLevels, strings.ToLower(c.Level)) {
		return fmt.Errorf("unknown log level %q, expected one of debug, info, warn, error", c.Level)
	}
	return nil
}
