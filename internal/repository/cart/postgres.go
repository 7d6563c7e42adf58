package cart

import (
	"context"
	"errors"
	"fmt"

	"marketplace-gateway/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const foreignKeyViolation = "23503"

type postgresRepo struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) Repository {
	return &postgresRepo{pool: pool}
}

type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func (r *postgresRepo) Create(ctx context.Context, in CreateCartInput) (*domain.Cart, error) {
	const q = `
INSERT INTO carts (key, account_id, currency, created_at, modified_at)
VALUES ($1::uuid, $2, $3, $4, $4)
RETURNING id
`
	cart := domain.Cart{
		Key:        uuid.New(),
		AccountID:  in.AccountID,
		Currency:   in.Currency,
		CreatedAt:  in.CreatedAt,
		ModifiedAt: in.CreatedAt,
		Items:      []domain.CartItem{},
	}
	if err := r.pool.QueryRow(ctx, q, cart.Key.String(), in.AccountID, in.Currency, in.CreatedAt).Scan(&cart.ID); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation && in.AccountID != nil {
			return nil, fmt.Errorf("account %d: %w", *in.AccountID, domain.ErrNotFound)
		}
		return nil, domain.StorageFailure("insert cart", err)
	}
	return &cart, nil
}

func (r *postgresRepo) GetByKey(ctx context.Context, key uuid.UUID) (*domain.Cart, error) {
	const q = `
SELECT id, key::text, account_id, currency, created_at, modified_at
FROM carts
WHERE key = $1::uuid
`
	cart, err := fetchCart(ctx, r.pool, q, key)
	if err != nil {
		return nil, err
	}
	return cart, nil
}

// Update locks the cart row for the duration of the transaction, so concurrent
// writers of the same key queue up behind each other.
func (r *postgresRepo) Update(ctx context.Context, key uuid.UUID, fn MutateFunc) (*domain.Cart, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, domain.StorageFailure("begin tx", err)
	}
	defer tx.Rollback(ctx)

	const q = `
SELECT id, key::text, account_id, currency, created_at, modified_at
FROM carts
WHERE key = $1::uuid
FOR UPDATE
`
	cart, err := fetchCart(ctx, tx, q, key)
	if err != nil {
		return nil, err
	}

	if err := fn(cart); err != nil {
		return nil, err
	}

	if _, err := tx.Exec(ctx, `
UPDATE carts
SET account_id = $1, modified_at = $2
WHERE id = $3
`, cart.AccountID, cart.ModifiedAt, cart.ID); err != nil {
		return nil, domain.StorageFailure("update cart", err)
	}

	// Existing rows first: a removal must land before a re-add of the same
	// product or the active-item unique index rejects the insert.
	for _, item := range cart.Items {
		if item.ID == 0 {
			continue
		}
		if _, err := tx.Exec(ctx, `
UPDATE cart_items
SET pricing_model_id = $1::uuid, removed_at = $2
WHERE id = $3 AND cart_id = $4
`, item.PricingModelID.String(), item.RemovedAt, item.ID, cart.ID); err != nil {
			return nil, domain.StorageFailure("update cart item", err)
		}
	}
	for i := range cart.Items {
		item := &cart.Items[i]
		if item.ID != 0 {
			continue
		}
		if err := tx.QueryRow(ctx, `
INSERT INTO cart_items (cart_id, key, product_id, pricing_model_id, added_at, removed_at)
VALUES ($1, $2::uuid, $3, $4::uuid, $5, $6)
RETURNING id
`, cart.ID, item.Key.String(), item.ProductID, item.PricingModelID.String(), item.AddedAt, item.RemovedAt).Scan(&item.ID); err != nil {
			return nil, domain.StorageFailure("insert cart item", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, domain.StorageFailure("commit cart", err)
	}
	return cart, nil
}

func fetchCart(ctx context.Context, db querier, cartQuery string, key uuid.UUID) (*domain.Cart, error) {
	var cart domain.Cart
	var rawKey string
	err := db.QueryRow(ctx, cartQuery, key.String()).Scan(
		&cart.ID,
		&rawKey,
		&cart.AccountID,
		&cart.Currency,
		&cart.CreatedAt,
		&cart.ModifiedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFound(key)
		}
		return nil, domain.StorageFailure("load cart", err)
	}
	if cart.Key, err = uuid.Parse(rawKey); err != nil {
		return nil, domain.StorageFailure("parse cart key", err)
	}

	const itemsQuery = `
SELECT id, key::text, product_id, pricing_model_id::text, added_at, removed_at
FROM cart_items
WHERE cart_id = $1
ORDER BY id ASC
`
	rows, err := db.Query(ctx, itemsQuery, cart.ID)
	if err != nil {
		return nil, domain.StorageFailure("load cart items", err)
	}
	defer rows.Close()

	cart.Items = []domain.CartItem{}
	for rows.Next() {
		var item domain.CartItem
		var itemKey, pricingModelID string
		if err := rows.Scan(
			&item.ID,
			&itemKey,
			&item.ProductID,
			&pricingModelID,
			&item.AddedAt,
			&item.RemovedAt,
		); err != nil {
			return nil, domain.StorageFailure("scan cart item", err)
		}
		if item.Key, err = uuid.Parse(itemKey); err != nil {
			return nil, domain.StorageFailure("parse item key", err)
		}
		if item.PricingModelID, err = uuid.Parse(pricingModelID); err != nil {
			return nil, domain.StorageFailure("parse pricing model id", err)
		}
		cart.Items = append(cart.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.StorageFailure("iterate cart items", err)
	}

	return &cart, nil
}
