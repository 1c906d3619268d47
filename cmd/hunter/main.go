package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/diegogliarte/web-hunter/internal/app"
	"github.com/diegogliarte/web-hunter/internal/config"
	"github.com/diegogliarte/web-hunter/internal/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "hunter start failed: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logger.Init(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync(log)

	log.InfoObj("hunter starting", "config", cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	hunter, err := app.NewHunter(ctx, cfg, log)
	if err != nil {
		log.ErrorObj("failed to initialize hunter", "error", err)
		return err
	}

	if err := hunter.Run(ctx); err != nil {
		return fmt.Errorf("hunter run: %w", err)
	}

	return nil
}
