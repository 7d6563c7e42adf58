package main

import (
	"context"
	"fmt"
	"log"

	"marketplace-gateway/internal/config"
	"marketplace-gateway/internal/db"
	"marketplace-gateway/internal/logging"
	"marketplace-gateway/internal/migrate"

	"go.uber.org/zap"
)

func main() {
	cfg := config.FromEnv()
	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	logger = logger.Named("migrate")

	if err := run(context.Background(), cfg, logger); err != nil {
		logger.Fatal("migrate failed", zap.Error(err))
	}
	_ = logger.Sync()
}

func run(ctx context.Context, cfg config.Config, logger *zap.Logger) error {
	if cfg.StoreDriver != config.DriverPostgres {
		logger.Info("nothing to migrate", zap.String("driver", cfg.StoreDriver))
		return nil
	}

	pool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		return fmt.Errorf("connect db: %w", err)
	}
	defer pool.Close()

	version, err := migrate.ApplyVersion(ctx, pool)
	if err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}

	logger.Info("migrations applied", zap.Uint("version", version))
	return nil
}
