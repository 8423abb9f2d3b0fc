package config

import (
	"fmt"
	"log"
	"strings"
	"time"
)

// ProbesConfig points at the files a container orchestrator checks for readiness and liveness.
type ProbesConfig struct {
	ReadinessFileName string        `koanf:"readinessfilename"`
	LivenessFileName  string        `koanf:"livenessfilename"`
	LivenessInterval  time.Duration `koanf:"livenessinterval"`
}

const (
	defaultReadinessFileName = "/tmp/inventory-audit-ready"
	defaultLivenessFileName  = "/tmp/inventory-audit-live"
	defaultLivenessInterval  = 20 * time.Second
)

// String returns a string representation of the ProbesConfig.
func (c *ProbesConfig) String() string {
	var b strings.Builder
	b.WriteString("\n--- Probes ---\n")
	fmt.Fprintf(&b, "  readinessfilename: %s\n", c.ReadinessFileName)
	fmt.Fprintf(&b, "  livenessfilename: %s\n", c.LivenessFileName)
	fmt.Fprintf(&b, "  livenessinterval: %s\n", c.LivenessInterval)
	return b.String()
}

// Validate fills in defaults for missing values. It never fails.
func (c *ProbesConfig) Validate() error {
	if c.ReadinessFileName == "" {
		log.Println("Using default value for readinessfilename")
		c.ReadinessFileName = defaultReadinessFileName
	}
	if c.LivenessFileName == "" {
		log.Println("Using default value for livenessfilename")
		c.LivenessFileName = defaultLivenessFileName
	}
	if c.LivenessInterval <= 0 {
		log.Println("Using default value for livenessinterval")
		c.LivenessInterval = defaultLivenessInterval
	}
	return nil
}
