package cart

import (
	"context"
	"sync"

	"marketplace-gateway/internal/domain"

	"github.com/google/uuid"
)

// Memory keeps carts in process. Update runs under the store lock, so writers
// of the same key are serialised.
type Memory struct {
	mu       sync.Mutex
	carts    map[uuid.UUID]*domain.Cart
	cartSeq  int64
	itemSeq  int64
	failWith error
}

func NewMemory() *Memory {
	return &Memory{carts: make(map[uuid.UUID]*domain.Cart)}
}

func (m *Memory) Create(_ context.Context, in CreateCartInput) (*domain.Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	m.cartSeq++
	c := &domain.Cart{
		ID:         m.cartSeq,
		Key:        uuid.New(),
		AccountID:  in.AccountID,
		Currency:   in.Currency,
		CreatedAt:  in.CreatedAt,
		ModifiedAt: in.CreatedAt,
		Items:      []domain.CartItem{},
	}
	m.carts[c.Key] = c.Clone()
	return c, nil
}

func (m *Memory) GetByKey(_ context.Context, key uuid.UUID) (*domain.Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	c, ok := m.carts[key]
	if !ok {
		return nil, notFound(key)
	}
	return c.Clone(), nil
}

func (m *Memory) Update(_ context.Context, key uuid.UUID, fn MutateFunc) (*domain.Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	stored, ok := m.carts[key]
	if !ok {
		return nil, notFound(key)
	}
	working := stored.Clone()
	if err := fn(working); err != nil {
		return nil, err
	}
	for i := range working.Items {
		if working.Items[i].ID == 0 {
			m.itemSeq++
			working.Items[i].ID = m.itemSeq
		}
		working.Items[i].PricingModel = nil
	}
	m.carts[key] = working.Clone()
	return working, nil
}

// FailWith makes every subsequent call return err. Passing nil restores normal operation.
func (m *Memory) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failWith = err
}
