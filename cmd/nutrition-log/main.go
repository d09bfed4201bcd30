// cmd/nutrition-log/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"mcp-nutrition-log/internal/logger"
	"mcp-nutrition-log/internal/server"
)

var (
	port    = flag.Int("port", 8012, "Port for HTTP transport")
	host    = flag.String("host", "0.0.0.0", "Host address")
	dbPath  = flag.String("db-path", "/data/nutrition-log.db", "Database path")
	version = flag.Bool("version", false, "Show version")
)

func main() {
	flag.Parse()

	if *version {
		fmt.Println("mcp-nutrition-log version 1.0.0")
		os.Exit(0)
	}

	// No .env is fine, plain environment variables still apply.
	_ = godotenv.Load()
	logger.Init(os.Getenv("APP_ENV") != "production")

	config := &server.Config{
		Host:        *host,
		Port:        *port,
		DBPath:      *dbPath,
		USDAAPIKey:  os.Getenv("USDA_API_KEY"),
		USDABaseURL: os.Getenv("USDA_BASE_URL"),
	}

	srv, err := server.NewNutritionLogServer(config)
	if err != nil {
		slog.Error("failed to create server", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(ctx); err != nil {
			errCh <- err
		}
	}()

	select {
	case <-sigCh:
		slog.Info("received shutdown signal")
	case err := <-errCh:
		slog.Error("server error", "error", err)
	}

	slog.Info("shutting down")
	cancel()
	if err := srv.Stop(); err != nil {
		slog.Error("error during shutdown", "error", err)
	}
}
