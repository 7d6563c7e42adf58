package seed

import (
	"context"
	"fmt"

	"marketplace-gateway/internal/domain"
)

type accountSaver interface {
	Save(ctx context.Context, a domain.Account) error
}

var demoAccounts = []domain.Account{
	{ID: 1, Email: "buyer@example.com", DisplayName: "Demo Buyer"},
	{ID: 2, Email: "publisher@example.com", DisplayName: "Demo Publisher"},
}

// Apply stores demo accounts for manual testing. It is idempotent: existing
// accounts are updated in place.
func Apply(ctx context.Context, accounts accountSaver) error {
	for _, a := range demoAccounts {
		if err := accounts.Save(ctx, a); err != nil {
			return fmt.Errorf("save account %s: %w", a.Email, err)
		}
	}
	return nil
}
