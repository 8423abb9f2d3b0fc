// Package main runs the inventory HTTP service.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	_ "net/http/pprof"

	"github.com/abgdnv/inventory/internal/app"
	"github.com/abgdnv/inventory/internal/config"
	"github.com/abgdnv/inventory/internal/store"
	"github.com/abgdnv/inventory/pkg/bootstrap"
	"github.com/abgdnv/inventory/pkg/config/configloader"
	"github.com/abgdnv/inventory/pkg/telemetry"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

const serviceName = "inventory"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		log.Printf("application run failed: %v", err)
		os.Exit(1)
	}
	log.Println("application stopped gracefully")
}

// run loads the configuration, wires the service and serves HTTP, gRPC health and pprof until ctx is done.
func run(ctx context.Context) error {
	cfg, cfgErr := configloader.Load[*config.Config](serviceName)
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
	metricsHandler, shutdownMeter, err := telemetry.NewMeterProvider(serviceName, cfg.Telemetry)
	if err != nil {
		return err
	}

	publisher, closePublisher, err := app.SetupPublisher(ctx, cfg.Nats, logger)
	if err != nil {
		return fmt.Errorf("failed to set up event publisher: %w", err)
	}
	defer closePublisher()

	deps := app.SetupDependencies(store.NewInMemoryStore(), publisher, logger)
	deps.MetricsHandler = metricsHandler
	deps.MetricsPath = cfg.Telemetry.Metrics.Path
	httpServer := app.SetupHttpServer(deps, cfg, serviceName)

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("HTTP server listening", slog.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	})
	// gracefully shutdown HTTP server on context cancellation
	g.Go(func() error {
		<-gCtx.Done()
		logger.Info("Shutting down HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Shutdown.Timeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if cfg.GRPC.Enabled {
		hs := health.NewServer()
		grpcServer := app.SetupGrpcServer(hs, cfg.GRPC.ReflectionEnabled)
		g.Go(func() error {
			lis, err := net.Listen("tcp", ":"+cfg.GRPC.Port)
			if err != nil {
				return fmt.Errorf("failed to listen on grpc port %s: %w", cfg.GRPC.Port, err)
			}
			hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
			logger.Info("gRPC server listening", slog.String("addr", lis.Addr().String()))
			if err := grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
				return fmt.Errorf("grpc server failed: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gCtx.Done()
			logger.Info("Shutting down gRPC server...")
			hs.Shutdown()
			grpcServer.GracefulStop()
			return nil
		})
	}

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
			logger.Info("Shutting down pprof server...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Shutdown.Timeout)
			defer cancel()
			return pprofServer.Shutdown(shutdownCtx)
		})
	}

	groupErr := g.Wait()

	// every server has drained, so spans of in-flight requests are already ended
	flushCtx, cancel := context.WithTimeout(context.Background(), cfg.Shutdown.Timeout)
	defer cancel()
	if err := errors.Join(shutdownTracer(flushCtx), shutdownMeter(flushCtx)); err != nil {
		logger.Error("Failed to flush telemetry", "error", err)
	}

	if groupErr != nil && !errors.Is(groupErr, context.Canceled) {
		return fmt.Errorf("errgroup encountered an error: %w", groupErr)
	}
	return nil
}
