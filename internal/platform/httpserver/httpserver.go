// Package httpserver generalizes composition-root container
// (internal/pkg/components/components.go) into a reusable Run helper: start
// serving, wait for SIGINT/SIGTERM, then call back into the service's own
// cleanup before exiting. Each service's cmd/*/main.go builds its own
// config/logger/db/bus/router and hands the resulting *http.Server to Run.
package httpserver

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fandangolas/core-banking-platform/internal/platform/logging"
)

// New builds an *http.Server with timeout defaults.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:           addr,
		Handler:        handler,
		ReadTimeout:    15 * time.Second,
		WriteTimeout:   15 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}
}

// Cleanup is invoked once the HTTP listener has stopped accepting new
// connections, for closing DB pools, event producers/consumers, caches.
type Cleanup func(ctx context.Context) error

// Run starts server in a goroutine, blocks until SIGINT/SIGTERM, then drains
// in-flight requests within shutdownTimeout before running cleanup.
func Run(server *http.Server, log *logging.Logger, shutdownTimeout time.Duration, cleanup Cleanup) error {
	log.Info("starting HTTP server", logging.Fields{"address": server.Addr})

	serveErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serveErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serveErr:
		return err
	case <-quit:
	}

	log.Info("shutting down HTTP server", nil)
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error("server forced to shutdown", err, nil)
	}

	if cleanup != nil {
		if err := cleanup(ctx); err != nil {
			log.Error("cleanup failed during shutdown", err, nil)
		}
	}

	log.Info("server shutdown complete", nil)
	return nil
}
