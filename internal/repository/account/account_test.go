package account

import (
	"context"
	"path/filepath"
	"testing"

	"marketplace-gateway/internal/domain"
	"marketplace-gateway/internal/testsupport"

	bolt "github.com/boltdb/bolt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runAccountContract(t *testing.T, repo Repository) {
	ctx := context.Background()

	ok, err := repo.Exists(ctx, 41)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, repo.Save(ctx, domain.Account{ID: 41, Email: "Buyer@Example.com", DisplayName: "Buyer"}))
	ok, err = repo.Exists(ctx, 41)
	require.NoError(t, err)
	assert.True(t, ok)

	// saving twice is an update
	require.NoError(t, repo.Save(ctx, domain.Account{ID: 41, Email: "buyer@example.com", DisplayName: "Renamed"}))
	ok, err = repo.Exists(ctx, 41)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMemory(t *testing.T) {
	runAccountContract(t, NewMemory())

	repo := NewMemory(1, 2)
	ok, err := repo.Exists(context.Background(), 2)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestBolt(t *testing.T) {
	db, err := bolt.Open(filepath.Join(t.TempDir(), "accounts.db"), 0600, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	repo, err := NewBolt(db)
	require.NoError(t, err)
	runAccountContract(t, repo)
}

func TestPostgres(t *testing.T) {
	pool := testsupport.Postgres(t)
	runAccountContract(t, NewPostgres(pool, nil))

	// the sequence moved past the explicit id
	id := testsupport.InsertAccount(t, pool, "next@example.com")
	assert.Greater(t, id, int64(41))
}

func TestMongo(t *testing.T) {
	runAccountContract(t, NewMongo(testsupport.Mongo(t)))
}
