package config

import (
	"fmt"
	"strings"
	"time"
)

// NATSConfig describes the JetStream connection used for inventory events.
// When Enabled is false every other field is ignored.
type NATSConfig struct {
	Enabled bool          `koanf:"enabled"`
	Url     string        `koanf:"url"`
	Name    string        `koanf:"name"`
	Stream  string        `koanf:"stream"`
	Timeout time.Duration `koanf:"timeout"`
}

// String returns a string representation of the NATS configuration.
func (c *NATSConfig) String() string {
	var b strings.Builder
	b.WriteString("\n--- NATS ---\n")
	fmt.Fprintf(&b, "  enabled: %t\n", c.Enabled)
	fmt.Fprintf(&b, "  url: %s\n", c.Url)
	fmt.Fprintf(&b, "  name: %s\n", c.Name)
	fmt.Fprintf(&b, "  stream: %s\n", c.Stream)
	fmt.Fprintf(&b, "  timeout: %s\n", c.Timeout)
	return b.String()
}

func (c *NATSConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.Url == "" {
		return fmt.Errorf("NATS URL is not configured")
	}
	if !strings.HasPrefix(c.Url, "nats://") && !strings.HasPrefix(c.Url, "tls://") {
		return fmt.Errorf("NATS URL must start with 'nats://' or 'tls://': %s", c.Url)
	}
	if c.Stream == "" {
		return fmt.Errorf("NATS stream is not configured")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("nats dial timeout is not configured")
	}
	return nil
}
