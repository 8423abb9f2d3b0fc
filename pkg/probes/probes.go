// Package probes signals readiness and liveness to a container orchestrator through files.
package probes

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/abgdnv/inventory/pkg/config"
)

// Probes owns the readiness and liveness files described by a ProbesConfig.
type Probes struct {
	cfg    config.ProbesConfig
	logger *slog.Logger
}

func New(cfg config.ProbesConfig, logger *slog.Logger) *Probes {
	return &Probes{cfg: cfg, logger: logger}
}

// MarkReady creates the readiness file.
func (p *Probes) MarkReady() error {
	if err := touch(p.cfg.ReadinessFileName); err != nil {
		return fmt.Errorf("failed to create readiness file: %w", err)
	}
	p.logger.Info("Service is ready", slog.String("file", p.cfg.ReadinessFileName))
	return nil
}

// RunLiveness touches the liveness file every LivenessInterval until ctx is done.
// Both probe files are removed on return.
func (p *Probes) RunLiveness(ctx context.Context) error {
	defer p.cleanup()

	if err := touch(p.cfg.LivenessFileName); err != nil {
		return fmt.Errorf("failed to create liveness file: %w", err)
	}
	ticker := time.NewTicker(p.cfg.LivenessInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := touch(p.cfg.LivenessFileName); err != nil {
				p.logger.Error("failed to touch liveness file", "error", err)
			}
		}
	}
}

func (p *Probes) cleanup() {
	for _, name := range []string{p.cfg.ReadinessFileName, p.cfg.LivenessFileName} {
		if err := os.Remove(name); err != nil && !os.IsNotExist(err) {
			p.logger.Warn("failed to remove probe file", "file", name, "error", err)
		}
	}
}

// touch creates name or refreshes its modification time.
func touch(name string) error {
	now := time.Now()
	if err := os.Chtimes(name, now, now); err == nil {
		return nil
	}
	f, err := os.Create(name)
	if err != nil {
		return err
	}
	return f.Close()
}
