package config

import (
	"fmt"
	"strings"
	"time"
)

// SubscriberConfig describes a durable JetStream pull consumer.
type SubscriberConfig struct {
	Stream   string        `koanf:"stream"`
	Subject  string        `koanf:"subject"`
	Consumer string        `koanf:"consumer"`
	Batch    int           `koanf:"batch"`
	Timeout  time.Duration `koanf:"timeout"`
	Interval time.Duration `koanf:"interval"`
	Workers  int           `koanf:"workers"`
}

// String returns a string representation of the NATS Subscriber configuration.
func (c *SubscriberConfig) String() string {
	var b strings.Builder
	b.WriteString("\n--- NATS Subscriber ---\n")
	fmt.Fprintf(&b, "  stream: %s\n", c.Stream)
	fmt.Fprintf(&b, "  subject: %s\n", c.Subject)
	fmt.Fprintf(&b, "  consumer: %s\n", c.Consumer)
	fmt.Fprintf(&b, "  batch: %d\n", c.Batch)
	fmt.Fprintf(&b, "  timeout: %s\n", c.Timeout)
	fmt.Fprintf(&b, "  interval: %s\n", c.Interval)
	fmt.Fprintf(&b, "  workers: %d\n", c.Workers)
	return b.String()
}

func (c *SubscriberConfig) Validate() error {
	if c.Stream == "" {
		return fmt.Errorf("SubscriberConfig: stream is not configured")
	}
	if c.Subject == "" {
		return fmt.Errorf("SubscriberConfig: subject is not configured")
	}
	if c.Consumer == "" {
		return fmt.Errorf("SubscriberConfig: consumer is not configured")
	}
	if strings.ContainsAny(c.Consumer, ". *>") {
		return fmt.Errorf("SubscriberConfig: consumer name %q must not contain '.', '*', '>' or spaces", c.Consumer)
	}
	if c.Batch <= 0 {
		return fmt.Errorf("SubscriberConfig: batch must be greater than zero")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("SubscriberConfig: timeout must be greater than zero")
	}
	if c.Interval <= 0 {
		return fmt.Errorf("SubscriberConfig: interval must be greater than zero")
	}
	if c.Workers <= 0 {
		return fmt.Errorf("SubscriberConfig: workers must be greater than zero")
	}
	return nil
}
