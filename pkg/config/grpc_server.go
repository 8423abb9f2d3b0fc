package config

import (
	"fmt"
	"strconv"
	"strings"
)

// GrpcServerConfig configures the gRPC listener that serves health checks.
type GrpcServerConfig struct {
	Enabled           bool   `koanf:"enabled"`
	Port              string `koanf:"port"`
	ReflectionEnabled bool   `koanf:"reflection"`
}

// String returns a string representation of the gRPC server configuration.
func (c *GrpcServerConfig) String() string {
	var b strings.Builder
	b.WriteString("\n--- gRPC Server ---\n")
	fmt.Fprintf(&b, "  enabled: %t\n", c.Enabled)
	fmt.Fprintf(&b, "  port: %s\n", c.Port)
	fmt.Fprintf(&b, "  reflection: %t\n", c.ReflectionEnabled)
	return b.String()
}

func (c *GrpcServerConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.Port == "" {
		return fmt.Errorf("gRPC port is not configured")
	}
	if port, err := strconv.Atoi(c.Port); err != nil || port <= 0 || port > 65535 {
		return fmt.Errorf("invalid gRPC port: %s", c.Port)
	}
	return nil
}
