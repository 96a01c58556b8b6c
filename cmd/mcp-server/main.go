// cmd/mcp-server/main.go: Standalone HTTP MCP server for symbind
//
// Exposes the symbind tool surface as an HTTP endpoint for agent frameworks.
//
// Usage:
//
//	go run ./cmd/mcp-server -config symbind.yaml -addr :8080
//
// Tool call endpoint: POST /tool
// Schema endpoint:    GET  /schema
// Health endpoint:    GET  /health
// Metrics endpoint:   GET  /metrics
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/njchilds90/symbind"
	"github.com/njchilds90/symbind/internal/config"
	"github.com/njchilds90/symbind/internal/metrics"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "mcp-server:", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "Path to YAML config file")
	addr := flag.String("addr", "", "Listen address (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}

	logger, err := cfg.Logger("mcp-server")
	if err != nil {
		return err
	}
	scope, err := cfg.BuildScope(logger)
	if err != nil {
		return fmt.Errorf("build scope: %w", err)
	}

	gin.SetMode(gin.ReleaseMode)
	handler := symbind.NewToolHandler(scope,
		symbind.WithToolLogger(logger),
		symbind.WithBatchLimit(cfg.Server.BatchLimit),
		symbind.WithObserver(metrics.ObserveTool))

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           newRouter(handler, logger, cfg.Server.MaxBodyBytes),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 1)
	go func() {
		logger.Info("symbind MCP server listening", "addr", cfg.Server.Addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
