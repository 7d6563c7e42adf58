// Package testsupport starts throwaway databases for integration tests.
package testsupport

import (
	"context"
	"os"
	"testing"
	"time"

	"marketplace-gateway/internal/db"
	"marketplace-gateway/internal/migrate"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/mongodb"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.mongodb.org/mongo-driver/mongo"
)

// Postgres returns a migrated pool with empty tables. TEST_DB_DSN points it at
// an existing database; otherwise a container is started. Skipped with -short.
func Postgres(t *testing.T) *pgxpool.Pool {
	t.Helper()
	if testing.Short() {
		t.Skip("postgres integration test skipped in short mode")
	}
	ctx := context.Background()

	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		pgContainer, err := postgres.Run(ctx,
			"postgres:16-alpine",
			postgres.WithDatabase("marketplace_test"),
			postgres.WithUsername("marketplace"),
			postgres.WithPassword("marketplace"),
			testcontainers.WithWaitStrategy(
				wait.ForLog("database system is ready to accept connections").
					WithOccurrence(2).
					WithStartupTimeout(30*time.Second),
			),
		)
		require.NoError(t, err)
		t.Cleanup(func() {
			if err := pgContainer.Terminate(ctx); err != nil {
				t.Logf("failed to terminate container: %s", err)
			}
		})

		dsn, err = pgContainer.ConnectionString(ctx, "sslmode=disable")
		require.NoError(t, err)
	}

	pool, err := db.Connect(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, migrate.Apply(ctx, pool))
	_, err = pool.Exec(ctx, `TRUNCATE cart_items, carts, accounts RESTART IDENTITY CASCADE`)
	require.NoError(t, err)

	return pool
}

// InsertAccount adds an account row and returns its id.
func InsertAccount(t *testing.T, pool *pgxpool.Pool, email string) int64 {
	t.Helper()
	var id int64
	err := pool.QueryRow(context.Background(),
		`INSERT INTO accounts (email) VALUES ($1) RETURNING id`, email).Scan(&id)
	require.NoError(t, err)
	return id
}

// Mongo returns a fresh database in a mongo container. Skipped with -short.
func Mongo(t *testing.T) *mongo.Database {
	t.Helper()
	if testing.Short() {
		t.Skip("mongo integration test skipped in short mode")
	}
	ctx := context.Background()

	mongoContainer, err := mongodb.Run(ctx, "mongo:7")
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := mongoContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	})

	uri, err := mongoContainer.ConnectionString(ctx)
	require.NoError(t, err)

	database, err := db.ConnectMongo(ctx, uri, "marketplace_test")
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Client().Disconnect(ctx) })

	return database
}
