package cart

import (
	"context"
	"errors"

	"marketplace-gateway/internal/domain"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Service is the caller-facing cart API. A nil key means the caller has no cart
// yet; an anonymous one is created first.
type Service struct {
	store  cartStore
	logger *zap.Logger
}

type cartStore interface {
	Create(ctx context.Context, accountID *int64) (*domain.Cart, error)
	GetCart(ctx context.Context, key uuid.UUID) (*domain.Cart, error)
	AddItem(ctx context.Context, key uuid.UUID, productID string, pricingModelID uuid.UUID) (*domain.Cart, error)
	RemoveItem(ctx context.Context, key, itemKey uuid.UUID) (*domain.Cart, error)
	Clear(ctx context.Context, key uuid.UUID) (*domain.Cart, error)
	SetAccount(ctx context.Context, key uuid.UUID, accountID int64) (*domain.Cart, error)
}

func New(store cartStore, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, logger: logger}
}

func (s *Service) GetCart(ctx context.Context, key *uuid.UUID) (*domain.Cart, error) {
	if key == nil {
		return s.store.Create(ctx, nil)
	}
	return s.store.GetCart(ctx, *key)
}

func (s *Service) AddItem(ctx context.Context, key *uuid.UUID, productID string, pricingModelID uuid.UUID) (*domain.Cart, error) {
	k, err := s.ensureCart(ctx, key)
	if err != nil {
		return nil, err
	}
	return s.store.AddItem(ctx, k, productID, pricingModelID)
}

// RemoveItem is idempotent from the caller's point of view: a missing item
// yields the current cart instead of an error.
func (s *Service) RemoveItem(ctx context.Context, key *uuid.UUID, itemKey uuid.UUID) (*domain.Cart, error) {
	k, err := s.ensureCart(ctx, key)
	if err != nil {
		return nil, err
	}
	cart, err := s.store.RemoveItem(ctx, k, itemKey)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	s.logger.Debug("remove of unknown cart item ignored",
		zap.String("cart", k.String()),
		zap.String("item", itemKey.String()))
	return s.store.GetCart(ctx, k)
}

func (s *Service) Clear(ctx context.Context, key *uuid.UUID) (*domain.Cart, error) {
	k, err := s.ensureCart(ctx, key)
	if err != nil {
		return nil, err
	}
	return s.store.Clear(ctx, k)
}

func (s *Service) SetAccount(ctx context.Context, key *uuid.UUID, accountID int64) (*domain.Cart, error) {
	k, err := s.ensureCart(ctx, key)
	if err != nil {
		return nil, err
	}
	return s.store.SetAccount(ctx, k, accountID)
}

func (s *Service) ensureCart(ctx context.Context, key *uuid.UUID) (uuid.UUID, error) {
	if key != nil {
		return *key, nil
	}
	cart, err := s.store.Create(ctx, nil)
	if err != nil {
		return uuid.Nil, err
	}
	return cart.Key, nil
}
