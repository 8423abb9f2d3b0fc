// Package app wires the inventory service together.
package app

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/abgdnv/inventory/internal/config"
	"github.com/abgdnv/inventory/internal/service"
	"github.com/abgdnv/inventory/internal/store"
	"github.com/abgdnv/inventory/internal/transport/rest"
	pconfig "github.com/abgdnv/inventory/pkg/config"
	"github.com/abgdnv/inventory/pkg/messaging"
	pnats "github.com/abgdnv/inventory/pkg/nats"
	"github.com/abgdnv/inventory/pkg/server"
	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
)

type Dependencies struct {
	ProductService service.ProductService
	Logger         *slog.Logger
	// MetricsHandler serves the Prometheus scrape endpoint at MetricsPath. Nil disables it.
	MetricsHandler http.Handler
	MetricsPath    string
}

func SetupDependencies(productStore store.ProductStore, publisher messaging.Publisher, logger *slog.Logger) *Dependencies {
	return &Dependencies{
		ProductService: service.NewService(productStore, publisher, logger),
		Logger:         logger,
	}
}

// SetupPublisher connects to NATS and makes sure the inventory stream exists.
// With NATS disabled it returns a publisher that drops events. The returned func releases the connection.
func SetupPublisher(ctx context.Context, cfg pconfig.NATSConfig, logger *slog.Logger) (messaging.Publisher, func(), error) {
	if !cfg.Enabled {
		logger.Info("NATS is disabled, inventory events will not be published")
		return messaging.NoopPublisher{}, func() {}, nil
	}
	nc, err := pnats.NewClient(cfg.Url, cfg.Name, cfg.Timeout)
	if err != nil {
		return nil, nil, err
	}
	js, err := pnats.NewJetStreamContext(nc)
	if err != nil {
		return nil, nil, err
	}
	if _, err := pnats.EnsureStream(ctx, js, cfg.Stream, messaging.InventorySubjects); err != nil {
		nc.Close()
		return nil, nil, err
	}
	logger.Info("Publishing inventory events", slog.String("stream", cfg.Stream), slog.String("url", cfg.Url))
	return pnats.NewNatsPublisher(js), func() {
		if err := nc.Drain(); err != nil {
			logger.Error("Failed to drain NATS connection", "error", err)
		}
	}, nil
}

// SetupHttpHandler builds the router with all routes of the inventory service.
// Used by E2E tests to set up the HTTP server with the necessary routes and middleware.
func SetupHttpHandler(deps *Dependencies) http.Handler {
	mux := server.NewChiRouter(deps.Logger)
	wireRoutes(mux, deps)
	return mux
}

// wireRoutes sets up the HTTP routes for the inventory service.
func wireRoutes(mux *chi.Mux, deps *Dependencies) {
	productHandler := rest.NewHandler(deps.ProductService, deps.Logger)
	productHandler.RegisterRoutes(mux)
	if deps.MetricsHandler != nil {
		mux.Method(http.MethodGet, deps.MetricsPath, deps.MetricsHandler)
	}
}

// SetupHttpServer creates the HTTP server. Every request except health checks is traced.
func SetupHttpServer(deps *Dependencies, cfg *config.Config, serviceName string) *http.Server {
	handler := otelhttp.NewHandler(SetupHttpHandler(deps), serviceName,
		otelhttp.WithFilter(func(r *http.Request) bool {
			return r.URL.Path != "/healthz" && r.URL.Path != deps.MetricsPath
		}),
		// the route is unknown until chi matches it; web.SpanRouteNamer renames the span then
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method
		}),
	)
	return server.NewHTTPServer(cfg.HTTPServer, handler)
}

// SetupGrpcServer creates the gRPC server that reports the service health.
func SetupGrpcServer(hs *health.Server, reflectionEnabled bool) *grpc.Server {
	opts := []grpc.ServerOption{
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
	}
	return server.NewGRPCServer(opts, reflectionEnabled, server.WithHealth(hs))
}
