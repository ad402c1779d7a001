// Command lispiritod is the HTTP/websocket server entry point: the
// optional networked collaborator around the same core the REPL drives,
// grounded on the teacher's cmd/ares/main.go wiring order (config, db,
// observability, then the gin engine) and cmd/main.go's graceful-shutdown
// signal handling.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lispirito/internal/api"
	"lispirito/internal/config"
	"lispirito/internal/logger"
	"lispirito/internal/observability"
)

func main() {
	cfg := config.Load()
	log := logger.New(cfg.LogLevel)

	otelShutdown, err := observability.Setup(context.Background(), cfg.OTelServiceName)
	if err != nil {
		log.Error("otel setup failed", err)
		os.Exit(1)
	}
	defer func() { _ = otelShutdown(context.Background()) }()

	server := api.NewServer(cfg, log)
	defer server.Shutdown(context.Background())

	httpServer := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: server.Engine(),
	}

	go func() {
		log.Info("listening", "addr", cfg.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("listen failed", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		log.Error("graceful shutdown failed", err)
	}
}
