package main

import (
	"context"
	"fmt"
	"log"

	"marketplace-gateway/internal/config"
	"marketplace-gateway/internal/logging"
	"marketplace-gateway/internal/seed"
	"marketplace-gateway/internal/storage"

	"go.uber.org/zap"
)

func main() {
	cfg := config.FromEnv()
	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	logger = logger.Named("seed")

	if err := run(context.Background(), cfg, logger); err != nil {
		logger.Fatal("seed failed", zap.Error(err))
	}
	logger.Info("seed applied")
	_ = logger.Sync()
}

func run(ctx context.Context, cfg config.Config, logger *zap.Logger) error {
	backend, err := storage.Open(ctx, cfg, true, logger)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer backend.Close()

	if err := seed.Apply(ctx, backend.Accounts); err != nil {
		return fmt.Errorf("seed apply: %w", err)
	}
	return nil
}
