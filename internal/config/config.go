// Package config holds the configuration of the inventory binaries.
package config

import (
	"errors"
	"strings"

	"github.com/abgdnv/inventory/pkg/config"
	"github.com/abgdnv/inventory/pkg/config/configloader"
)

var (
	_ configloader.Validator = (*Config)(nil)
	_ configloader.Validator = (*AuditConfig)(nil)
)

// Config is the configuration of the inventory HTTP service.
type Config struct {
	HTTPServer config.HTTPConfig       `koanf:"server"`
	GRPC       config.GrpcServerConfig `koanf:"grpc"`
	Nats       config.NATSConfig       `koanf:"nats"`
	Telemetry  config.TelemetryConfig  `koanf:"telemetry"`
	Log        config.LogConfig        `koanf:"log"`
	PProf      config.PProfConfig      `koanf:"pprof"`
	Shutdown   config.ShutdownConfig   `koanf:"shutdown"`
}

func (c *Config) String() string {
	var b strings.Builder
	b.WriteString(c.HTTPServer.String())
	b.WriteString(c.GRPC.String())
	b.WriteString(c.Nats.String())
	b.WriteString(c.Telemetry.String())
	b.WriteString(c.Log.String())
	b.WriteString(c.PProf.String())
	b.WriteString(c.Shutdown.String())
	return b.String()
}

// Validate checks if the configuration values are valid
func (c *Config) Validate() error {
	return validateAll(
		&c.HTTPServer,
		&c.GRPC,
		&c.Nats,
		&c.Telemetry,
		&c.Log,
		&c.PProf,
		&c.Shutdown,
	)
}

// AuditConfig is the configuration of the inventory event audit consumer.
type AuditConfig struct {
	Log          config.LogConfig        `koanf:"log"`
	PProf        config.PProfConfig      `koanf:"pprof"`
	Nats         config.NATSConfig       `koanf:"nats"`
	Subscriber   config.SubscriberConfig `koanf:"subscriber"`
	Telemetry    config.TelemetryConfig  `koanf:"telemetry"`
	ProbesConfig config.ProbesConfig     `koanf:"probes"`
	Shutdown     config.ShutdownConfig   `koanf:"shutdown"`
}

func (c *AuditConfig) String() string {
	var b strings.Builder
	b.WriteString(c.Nats.String())
	b.WriteString(c.Subscriber.String())
	b.WriteString(c.Telemetry.String())
	b.WriteString(c.Log.String())
	b.WriteString(c.PProf.String())
	b.WriteString(c.ProbesConfig.String())
	b.WriteString(c.Shutdown.String())
	return b.String()
}

// Validate checks if the configuration values are valid. The consumer cannot run without NATS.
func (c *AuditConfig) Validate() error {
	if !c.Nats.Enabled {
		return errors.New("audit consumer requires nats.enabled=true")
	}
	return validateAll(
		&c.Log,
		&c.PProf,
		&c.Nats,
		&c.Subscriber,
		&c.Telemetry,
		&c.ProbesConfig,
		&c.Shutdown,
	)
}

// validateAll returns the first failing section.
func validateAll(sections ...configloader.Validator) error {
	for _, s := range sections {
		if err := s.Validate(); err != nil {
			return err
		}
	}
	return nil
}
