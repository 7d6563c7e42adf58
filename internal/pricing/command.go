package pricing

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ErrInvalidCommand marks a malformed pricing model definition.
var ErrInvalidCommand = errors.New("invalid pricing model")

// Command is the raw pricing model definition published by the catalogue.
// Only the fields relevant to Type are meaningful.
type Command struct {
	Key  uuid.UUID `json:"key"`
	Type Kind      `json:"type"`

	// FIXED
	TotalPriceExcludingTax decimal.Decimal `json:"totalPriceExcludingTax"`
	IncludesUpdates        bool            `json:"includesUpdates,omitempty"`
	YearsOfUpdates         int             `json:"yearsOfUpdates,omitempty"`

	// SUBSCRIPTION
	Duration     int             `json:"duration,omitempty"`
	MonthlyPrice decimal.Decimal `json:"monthlyPrice"`
}

// Validate rejects definitions the compute functions cannot handle.
// Unknown kinds are not an error here; the resolver skips them.
func (c Command) Validate() error {
	if c.Key == uuid.Nil && c.Type.Known() {
		return fmt.Errorf("%w: key required", ErrInvalidCommand)
	}
	switch c.Type {
	case KindFixed:
		if c.TotalPriceExcludingTax.IsNegative() {
			return fmt.Errorf("%w: %s: negative price", ErrInvalidCommand, c.Key)
		}
		if c.YearsOfUpdates < 0 {
			return fmt.Errorf("%w: %s: negative years of updates", ErrInvalidCommand, c.Key)
		}
	case KindSubscription:
		if c.Duration < 0 {
			return fmt.Errorf("%w: %s: negative duration", ErrInvalidCommand, c.Key)
		}
		if c.MonthlyPrice.IsNegative() {
			return fmt.Errorf("%w: %s: negative monthly price", ErrInvalidCommand, c.Key)
		}
	}
	return nil
}
