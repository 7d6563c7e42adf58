package account

import (
	"context"
	"sync"

	"marketplace-gateway/internal/domain"
)

// Memory is an in-process account set.
type Memory struct {
	mu       sync.RWMutex
	accounts map[int64]domain.Account
}

// NewMemory returns a set holding the given account ids.
func NewMemory(ids ...int64) *Memory {
	m := &Memory{accounts: make(map[int64]domain.Account, len(ids))}
	for _, id := range ids {
		m.accounts[id] = domain.Account{ID: id}
	}
	return m
}

func (m *Memory) Exists(_ context.Context, id int64) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.accounts[id]
	return ok, nil
}

func (m *Memory) Save(_ context.Context, a domain.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts[a.ID] = a
	return nil
}
