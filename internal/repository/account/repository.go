package account

import (
	"context"

	"marketplace-gateway/internal/domain"
)

// Repository answers whether an account exists and lets seeding tools store accounts.
type Repository interface {
	Exists(ctx context.Context, id int64) (bool, error)
	Save(ctx context.Context, a domain.Account) error
}
