// Package cartstore runs cart use cases against a repository: every mutation is
// one load-mutate-persist unit of work on the cart aggregate.
package cartstore

import (
	"context"
	"fmt"
	"strings"
	"time"

	"marketplace-gateway/internal/domain"
	"marketplace-gateway/internal/pricing"
	cartrepo "marketplace-gateway/internal/repository/cart"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Store struct {
	carts    cartRepo
	accounts accountRepo
	pricer   pricer
	currency string
	now      func() time.Time
	logger   *zap.Logger
}

type cartRepo interface {
	Create(ctx context.Context, in cartrepo.CreateCartInput) (*domain.Cart, error)
	GetByKey(ctx context.Context, key uuid.UUID) (*domain.Cart, error)
	Update(ctx context.Context, key uuid.UUID, fn cartrepo.MutateFunc) (*domain.Cart, error)
}

type accountRepo interface {
	Exists(ctx context.Context, id int64) (bool, error)
}

type pricer interface {
	Quote(ctx context.Context, productID string, pricingModelID uuid.UUID) (pricing.Model, error)
	Price(ctx context.Context, cart *domain.Cart)
}

// Option customises a Store.
type Option func(*Store)

// WithPricer makes the store check pricing models on AddItem and price every returned cart.
func WithPricer(p pricer) Option {
	return func(s *Store) { s.pricer = p }
}

// WithClock replaces the wall clock.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func New(carts cartRepo, accounts accountRepo, currency string, opts ...Option) *Store {
	s := &Store{
		carts:    carts,
		accounts: accounts,
		currency: currency,
		now:      func() time.Time { return time.Now().UTC().Truncate(time.Microsecond) },
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create starts an empty cart in the default currency, optionally linked to an
// existing account.
func (s *Store) Create(ctx context.Context, accountID *int64) (*domain.Cart, error) {
	if accountID != nil {
		if err := s.requireAccount(ctx, *accountID); err != nil {
			return nil, err
		}
	}
	cart, err := s.carts.Create(ctx, cartrepo.CreateCartInput{
		AccountID: accountID,
		Currency:  s.currency,
		CreatedAt: s.now(),
	})
	if err != nil {
		return nil, err
	}
	s.logger.Debug("cart created", zap.String("cart", cart.Key.String()))
	return cart, nil
}

func (s *Store) GetCart(ctx context.Context, key uuid.UUID) (*domain.Cart, error) {
	cart, err := s.carts.GetByKey(ctx, key)
	if err != nil {
		return nil, err
	}
	return s.priced(ctx, cart), nil
}

// AddItem selects pricingModelID for productID. The model must be offered by the
// catalogue for that product; an active item for the product is updated in place.
func (s *Store) AddItem(ctx context.Context, key uuid.UUID, productID string, pricingModelID uuid.UUID) (*domain.Cart, error) {
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return nil, fmt.Errorf("%w: product id required", domain.ErrValidation)
	}
	if pricingModelID == uuid.Nil {
		return nil, fmt.Errorf("%w: pricing model id required", domain.ErrValidation)
	}
	if s.pricer != nil {
		if _, err := s.pricer.Quote(ctx, productID, pricingModelID); err != nil {
			return nil, err
		}
	}

	cart, err := s.carts.Update(ctx, key, func(c *domain.Cart) error {
		c.AddOrUpdateItem(productID, pricingModelID, s.now())
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.priced(ctx, cart), nil
}

// RemoveItem soft-deletes the item with itemKey.
func (s *Store) RemoveItem(ctx context.Context, key, itemKey uuid.UUID) (*domain.Cart, error) {
	cart, err := s.carts.Update(ctx, key, func(c *domain.Cart) error {
		return c.RemoveItem(itemKey, s.now())
	})
	if err != nil {
		return nil, err
	}
	return s.priced(ctx, cart), nil
}

// Clear soft-deletes every active item with one shared timestamp.
func (s *Store) Clear(ctx context.Context, key uuid.UUID) (*domain.Cart, error) {
	cart, err := s.carts.Update(ctx, key, func(c *domain.Cart) error {
		c.Clear(s.now())
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.priced(ctx, cart), nil
}

// SetAccount links the cart to an existing account. Linking the same account
// again is a no-op; a different account fails with domain.ErrAlreadyLinked.
func (s *Store) SetAccount(ctx context.Context, key uuid.UUID, accountID int64) (*domain.Cart, error) {
	if err := s.requireAccount(ctx, accountID); err != nil {
		return nil, err
	}
	cart, err := s.carts.Update(ctx, key, func(c *domain.Cart) error {
		return c.LinkAccount(accountID)
	})
	if err != nil {
		return nil, err
	}
	return s.priced(ctx, cart), nil
}

func (s *Store) requireAccount(ctx context.Context, id int64) error {
	ok, err := s.accounts.Exists(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("account %d: %w", id, domain.ErrNotFound)
	}
	return nil
}

func (s *Store) priced(ctx context.Context, cart *domain.Cart) *domain.Cart {
	if s.pricer != nil {
		s.pricer.Price(ctx, cart)
	}
	return cart
}
