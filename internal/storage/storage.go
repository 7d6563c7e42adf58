// Package storage opens the cart and account repositories for the configured driver.
package storage

import (
	"context"
	"errors"
	"fmt"

	"marketplace-gateway/internal/config"
	"marketplace-gateway/internal/db"
	"marketplace-gateway/internal/migrate"
	accountrepo "marketplace-gateway/internal/repository/account"
	cartrepo "marketplace-gateway/internal/repository/cart"

	bolt "github.com/boltdb/bolt"
	"go.uber.org/zap"
)

// Backend is an opened storage driver.
type Backend struct {
	Carts    cartrepo.Repository
	Accounts accountrepo.Repository
	Ping     func(ctx context.Context) error
	close    func() error
}

// Close releases the driver's connections or file lock.
func (b *Backend) Close() error {
	if b.close == nil {
		return nil
	}
	return b.close()
}

// Open connects to the backend named by cfg.StoreDriver. Postgres migrations
// run when migrateUp is set.
func Open(ctx context.Context, cfg config.Config, migrateUp bool, logger *zap.Logger) (*Backend, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("driver", cfg.StoreDriver))

	switch cfg.StoreDriver {
	case config.DriverPostgres:
		pool, err := db.Connect(ctx, cfg.DBConnString)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		if migrateUp {
			if err := migrate.Apply(ctx, pool); err != nil {
				pool.Close()
				return nil, err
			}
		}
		logger.Info("storage opened")
		return &Backend{
			Carts:    cartrepo.NewPostgres(pool),
			Accounts: accountrepo.NewPostgres(pool, logger),
			Ping:     pool.Ping,
			close: func() error {
				pool.Close()
				return nil
			},
		}, nil

	case config.DriverBolt:
		boltDB, err := cartrepo.OpenBolt(cfg.BoltPath)
		if err != nil {
			return nil, err
		}
		carts, err := cartrepo.NewBolt(boltDB)
		if err != nil {
			boltDB.Close()
			return nil, err
		}
		accounts, err := accountrepo.NewBolt(boltDB)
		if err != nil {
			boltDB.Close()
			return nil, err
		}
		logger.Info("storage opened", zap.String("path", cfg.BoltPath))
		return &Backend{
			Carts:    carts,
			Accounts: accounts,
			Ping: func(context.Context) error {
				return boltDB.View(func(*bolt.Tx) error { return nil })
			},
			close: boltDB.Close,
		}, nil

	case config.DriverMongo:
		database, err := db.ConnectMongo(ctx, cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return nil, err
		}
		carts := cartrepo.NewMongo(database)
		if err := carts.CreateIndexes(ctx); err != nil {
			_ = database.Client().Disconnect(ctx)
			return nil, err
		}
		logger.Info("storage opened", zap.String("database", cfg.MongoDB))
		return &Backend{
			Carts:    carts,
			Accounts: accountrepo.NewMongo(database),
			Ping: func(ctx context.Context) error {
				return database.Client().Ping(ctx, nil)
			},
			close: func() error {
				return database.Client().Disconnect(context.Background())
			},
		}, nil

	case config.DriverMemory:
		logger.Warn("using in-memory storage; carts are lost on restart")
		return &Backend{
			Carts:    cartrepo.NewMemory(),
			Accounts: accountrepo.NewMemory(),
			Ping:     func(context.Context) error { return nil },
		}, nil
	}

	return nil, errors.New("unknown store driver " + cfg.StoreDriver)
}
