package account

import (
	"context"
	"strings"

	"marketplace-gateway/internal/domain"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewPostgres returns a Repository backed by the accounts table.
func NewPostgres(pool *pgxpool.Pool, logger *zap.Logger) Repository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &postgresRepo{pool: pool, logger: logger}
}

func (r *postgresRepo) Exists(ctx context.Context, id int64) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM accounts WHERE id = $1)`
	var ok bool
	if err := r.pool.QueryRow(ctx, q, id).Scan(&ok); err != nil {
		return false, domain.StorageFailure("check account", err)
	}
	return ok, nil
}

// Save inserts or updates the account with its explicit id and moves the id
// sequence past it.
func (r *postgresRepo) Save(ctx context.Context, a domain.Account) error {
	const q = `
INSERT INTO accounts (id, email, display_name)
VALUES ($1, $2, $3)
ON CONFLICT (id) DO UPDATE
SET email = EXCLUDED.email,
    display_name = EXCLUDED.display_name
`
	if _, err := r.pool.Exec(ctx, q, a.ID, strings.ToLower(a.Email), a.DisplayName); err != nil {
		return domain.StorageFailure("save account", err)
	}

	const bump = `SELECT setval(pg_get_serial_sequence('accounts', 'id'), GREATEST((SELECT MAX(id) FROM accounts), 1))`
	if _, err := r.pool.Exec(ctx, bump); err != nil {
		r.logger.Warn("bump accounts sequence", zap.Error(err))
	}
	return nil
}
