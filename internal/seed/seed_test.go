package seed

import (
	"context"
	"errors"
	"testing"

	"marketplace-gateway/internal/domain"
	accountrepo "marketplace-gateway/internal/repository/account"
)

type failingSaver struct{}

func (failingSaver) Save(context.Context, domain.Account) error {
	return errors.New("read-only")
}

func TestApply_IsIdempotent(t *testing.T) {
	ctx := context.Background()
	repo := accountrepo.NewMemory()

	for i := 0; i < 2; i++ {
		if err := Apply(ctx, repo); err != nil {
			t.Fatalf("Apply run %d: %v", i+1, err)
		}
	}
	for _, a := range demoAccounts {
		ok, err := repo.Exists(ctx, a.ID)
		if err != nil || !ok {
			t.Fatalf("expected account %d to exist, ok=%v err=%v", a.ID, ok, err)
		}
	}
}

func TestApply_ReportsFailures(t *testing.T) {
	if err := Apply(context.Background(), failingSaver{}); err == nil {
		t.Fatalf("expected error")
	}
}
