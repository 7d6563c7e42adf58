package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates the requested entity was not found.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyLinked is returned when a cart is already owned by another account.
	ErrAlreadyLinked = errors.New("cart already linked to an account")
	// ErrValidation marks input rejected before any state change.
	ErrValidation = errors.New("validation failed")
	// ErrStorage wraps failures at the persistence boundary.
	ErrStorage = errors.New("storage failure")
	// ErrConcurrentUpdate is a storage failure raised when another writer won the race.
	ErrConcurrentUpdate = fmt.Errorf("%w: concurrent update", ErrStorage)
)

// StorageFailure tags err as a storage failure while keeping it in the chain.
func StorageFailure(op string, err error) error {
	if err == nil || errors.Is(err, ErrStorage) || errors.Is(err, ErrNotFound) {
		return err
	}
	return fmt.Errorf("%s: %w: %w", op, ErrStorage, err)
}
