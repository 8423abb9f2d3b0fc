package server

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/abgdnv/inventory/pkg/config"
	"github.com/abgdnv/inventory/pkg/web"
	"github.com/go-chi/chi/v5"
)

// NewHTTPServer creates and configures a new HTTP server instance.
func NewHTTPServer(cfg config.HTTPConfig, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           handler,
		ReadTimeout:       cfg.Timeout.Read,
		WriteTimeout:      cfg.Timeout.Write,
		IdleTimeout:       cfg.Timeout.Idle,
		ReadHeaderTimeout: cfg.Timeout.ReadHeader,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}
}

// NewChiRouter creates a new Chi router with middleware for request ID injection,
// structured logging, span naming by route and recovery.
func NewChiRouter(logger *slog.Logger) *chi.Mux {
	mux := chi.NewRouter()
	mux.Use(web.RequestIDInjector)
	mux.Use(web.StructuredLogger(logger))
	mux.Use(web.SpanRouteNamer)
	mux.Use(web.Recoverer(logger))
	mux.NotFound(func(w http.ResponseWriter, r *http.Request) {
		web.RespondError(w, logger, http.StatusNotFound, "Resource not found: "+r.URL.Path)
	})
	mux.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		web.RespondError(w, logger, http.StatusMethodNotAllowed, "Method "+r.Method+" is not allowed on "+r.URL.Path)
	})
	return mux
}
