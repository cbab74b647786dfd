// ABOUTME: Main entry point for the standalone ragdoc HTTP server
// ABOUTME: Loads configuration from .env and the environment, then serves the API
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"

	"github.com/harper/ragdoc/internal/app"
	"github.com/harper/ragdoc/internal/config"
	"github.com/harper/ragdoc/internal/httpapi"
	"github.com/harper/ragdoc/internal/logging"
)

func main() {
	// .env is optional
	_ = godotenv.Load()

	if err := run(); err != nil {
		log.Error("server stopped", "err", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load("")
	if err != nil {
		return err
	}
	if err := logging.Setup(logging.Options{Level: cfg.LogLevel, JSON: cfg.LogJSON}, nil); err != nil {
		return err
	}

	a, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			log.Warn("closing app", "err", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return httpapi.NewServer(a).Run(ctx, cfg.ListenAddr)
}
