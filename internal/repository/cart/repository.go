package cart

import (
	"context"
	"fmt"
	"time"

	"marketplace-gateway/internal/domain"

	"github.com/google/uuid"
)

// CreateCartInput describes a new cart. The key is generated by the repository.
type CreateCartInput struct {
	AccountID *int64
	Currency  string
	CreatedAt time.Time
}

// MutateFunc changes a loaded cart in memory. Returning an error aborts the update
// and nothing is persisted.
type MutateFunc func(cart *domain.Cart) error

// Repository persists cart aggregates by opaque key.
//
// Update loads the aggregate, applies fn and persists the whole cart with all of
// its items atomically. Implementations serialise concurrent updates of the
// same key or fail with domain.ErrConcurrentUpdate; they never lose a write.
type Repository interface {
	Create(ctx context.Context, in CreateCartInput) (*domain.Cart, error)
	GetByKey(ctx context.Context, key uuid.UUID) (*domain.Cart, error)
	Update(ctx context.Context, key uuid.UUID, fn MutateFunc) (*domain.Cart, error)
}

func notFound(key uuid.UUID) error {
	return fmt.Errorf("cart %s: %w", key, domain.ErrNotFound)
}
