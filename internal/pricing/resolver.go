package pricing

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// TaxPolicy decides the tax percentage applied to a catalogue item's pricing models.
type TaxPolicy interface {
	TaxPercent(itemID string) decimal.Decimal
}

// FlatTax applies one process-wide percentage to every item.
type FlatTax struct {
	Percent decimal.Decimal
}

func (f FlatTax) TaxPercent(string) decimal.Decimal {
	return f.Percent
}

// Resolve computes the effective pricing models of one catalogue item, keeping input order.
// Every command is validated before any model is computed; unknown kinds are skipped.
func Resolve(itemID string, cmds []Command, taxPercent decimal.Decimal, currency string) ([]Model, error) {
	for _, c := range cmds {
		if err := c.Validate(); err != nil {
			return nil, fmt.Errorf("item %s: %w", itemID, err)
		}
	}
	out := make([]Model, 0, len(cmds))
	for _, c := range cmds {
		if m, ok := Compute(c, taxPercent, currency); ok {
			out = append(out, m)
		}
	}
	return out, nil
}

// Resolver binds Resolve to the configured tax policy and currency.
type Resolver struct {
	tax      TaxPolicy
	currency string
	logger   *zap.Logger
}

func NewResolver(tax TaxPolicy, currency string, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{tax: tax, currency: currency, logger: logger}
}

func (r *Resolver) Resolve(itemID string, cmds []Command) ([]Model, error) {
	models, err := Resolve(itemID, cmds, r.tax.TaxPercent(itemID), r.currency)
	if err != nil {
		return nil, err
	}
	if skipped := len(cmds) - len(models); skipped > 0 {
		r.logger.Debug("skipped unsupported pricing models",
			zap.String("item", itemID),
			zap.Int("skipped", skipped))
	}
	return models, nil
}

// Currency is the currency every resolved model is quoted in.
func (r *Resolver) Currency() string {
	return r.currency
}

// Find returns the model with the given key, if present.
func Find(models []Model, key uuid.UUID) (Model, bool) {
	for _, m := range models {
		if m.Quote().Key == key {
			return m, true
		}
	}
	return nil, false
}
