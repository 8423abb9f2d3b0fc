package config

import (
	"fmt"
	"strings"
	"time"
)

type TelemetryConfig struct {
	Traces  TracesConfig  `koanf:"traces"`
	Metrics MetricsConfig `koanf:"metrics"`
}

// TracesConfig controls span export. Disabled tracing still propagates trace context.
type TracesConfig struct {
	Enabled  bool           `koanf:"enabled"`
	OtlpHttp OtlpHttpConfig `koanf:"otlphttp"`
}

type OtlpHttpConfig struct {
	Endpoint string        `koanf:"endpoint"`
	Insecure bool          `koanf:"insecure"`
	Timeout  time.Duration `koanf:"timeout"`
}

// MetricsConfig controls the Prometheus scrape endpoint.
type MetricsConfig struct {
	Enabled bool   `koanf:"enabled"`
	Path    string `koanf:"path"`
}

// String returns a string representation of the TelemetryConfig.
func (c *TelemetryConfig) String() string {
	var b strings.Builder
	b.WriteString("\n--- Telemetry ---\n")
	fmt.Fprintf(&b, "  traces.enabled: %t\n", c.Traces.Enabled)
	fmt.Fprintf(&b, "  traces.otlphttp.endpoint: %s\n", c.Traces.OtlpHttp.Endpoint)
	fmt.Fprintf(&b, "  traces.otlphttp.insecure: %v\n", c.Traces.OtlpHttp.Insecure)
	fmt.Fprintf(&b, "  traces.otlphttp.timeout: %v\n", c.Traces.OtlpHttp.Timeout)
	fmt.Fprintf(&b, "  metrics.enabled: %t\n", c.Metrics.Enabled)
	fmt.Fprintf(&b, "  metrics.path: %s\n", c.Metrics.Path)
	return b.String()
}

func (c *TelemetryConfig) Validate() error {
	if c.Traces.Enabled {
		if c.Traces.OtlpHttp.Endpoint == "" {
			return fmt.Errorf("OTel endpoint is not configured")
		}
		if c.Traces.OtlpHttp.Timeout <= 0 {
			return fmt.Errorf("telemetry timeout must be greater than 0")
		}
	}
	if c.Metrics.Enabled {
		if c.Metrics.Path == "" {
			c.Metrics.Path = "/metrics"
		}
		if !strings.HasPrefix(c.Metrics.Path, "/") {
			return fmt.Errorf("metrics path must start with '/': %s", c.Metrics.Path)
		}
		if strings.HasPrefix(c.Metrics.Path, "/api/") {
			return fmt.Errorf("metrics path must not live under /api/: %s", c.Metrics.Path)
		}
	}
	return nil
}
