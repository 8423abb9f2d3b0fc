// Package main runs the consumer that writes inventory events to the audit log.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	_ "net/http/pprof"

	"github.com/abgdnv/inventory/internal/config"
	"github.com/abgdnv/inventory/internal/subscriber"
	"github.com/abgdnv/inventory/pkg/bootstrap"
	"github.com/abgdnv/inventory/pkg/config/configloader"
	"github.com/abgdnv/inventory/pkg/messaging"
	"github.com/abgdnv/inventory/pkg/nats"
	"github.com/abgdnv/inventory/pkg/probes"
	"github.com/abgdnv/inventory/pkg/telemetry"
	"golang.org/x/sync/errgroup"
)

const serviceName = "inventory_audit"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		log.Printf("application run failed: %v", err)
		os.Exit(1)
	}
	log.Println("application stopped gracefully")
}

// run initializes the application, starts the NATS subscriber and the probes, and optionally the pprof server.
func run(ctx context.Context) error {
	cfg, cfgErr := configloader.Load[*config.AuditConfig](serviceName)
	if cfgErr != nil {
		return fmt.Errorf("failed to load configuration: %w", cfgErr)
	}
	log.Printf("Configuration loaded: %v", cfg)

	logger := bootstrap.NewLogger(cfg.Log.Level)
	slog.SetDefault(logger)

	shutdownTracer, err := telemetry.NewTracerProvider(ctx, serviceName, cfg.Telemetry)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Shutdown.Timeout)
		defer cancel()
		if err := shutdownTracer(shutdownCtx); err != nil {
			logger.Error("failed to shut down tracer provider", "error", err)
		}
	}()

	natsConn, err := nats.NewClient(cfg.Nats.Url, cfg.Nats.Name, cfg.Nats.Timeout)
	if err != nil {
		return fmt.Errorf("failed to create NATS connection: %w", err)
	}
	defer natsConn.Close()
	js, err := nats.NewJetStreamContext(natsConn)
	if err != nil {
		return fmt.Errorf("failed to get JetStream context: %w", err)
	}
	if _, err := nats.EnsureStream(ctx, js, cfg.Nats.Stream, messaging.InventorySubjects); err != nil {
		return err
	}

	p := probes.New(cfg.ProbesConfig, logger)
	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("NATS subscriber starting")
		err := subscriber.Start(gCtx, js, cfg.Subscriber, logger, func() {
			if err := p.MarkReady(); err != nil {
				logger.Error("failed to mark service ready", "error", err)
			}
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("subscriber failed", "error", err)
			return err
		}
		logger.Info("subscriber stopped gracefully.")
		return nil
	})

	g.Go(func() error {
		return p.RunLiveness(gCtx)
	})

	if cfg.PProf.Enabled {
		pprofServer := &http.Server{
			Addr: cfg.PProf.Addr,
		}
		g.Go(func() error {
			logger.Info("Pprof server listening", slog.String("addr", pprofServer.Addr))
			if err := pprofServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("pprof server failed: %w", err)
			}
			return nil
		})
		// gracefully shutdown pprof server on context cancellation
		g.Go(func() error {
			<-gCtx.Done()
			logger.Info("Shutting down pprof server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Shutdown.Timeout)
			defer cancel()
			return pprofServer.Shutdown(shutdownCtx)
		})
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("errgroup encountered an error: %w", err)
	}
	return nil
}
