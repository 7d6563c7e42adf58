package pricing

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Monetary amounts are rounded half-up to this many decimal places.
const moneyScale = 2

var hundred = decimal.NewFromInt(100)

// ComputeFree builds a free model. Totals are always zero regardless of tax.
func ComputeFree(key uuid.UUID, taxPercent decimal.Decimal, currency string) Free {
	return Free{Quotation: Quotation{
		Key:                    key,
		Type:                   KindFree,
		Currency:               currency,
		TaxPercent:             taxPercent,
		TotalPriceExcludingTax: decimal.Zero,
		Tax:                    decimal.Zero,
		TotalPrice:             decimal.Zero,
	}}
}

// ComputeFixed expects a validated FIXED command.
func ComputeFixed(cmd Command, taxPercent decimal.Decimal, currency string) Fixed {
	return Fixed{
		Quotation:       quote(cmd.Key, KindFixed, cmd.TotalPriceExcludingTax, taxPercent, currency),
		IncludesUpdates: cmd.IncludesUpdates,
		YearsOfUpdates:  cmd.YearsOfUpdates,
	}
}

// ComputeSubscription expects a validated SUBSCRIPTION command.
func ComputeSubscription(cmd Command, taxPercent decimal.Decimal, currency string) Subscription {
	excl := cmd.MonthlyPrice.Mul(decimal.NewFromInt(int64(cmd.Duration)))
	return Subscription{
		Quotation:    quote(cmd.Key, KindSubscription, excl, taxPercent, currency),
		Duration:     cmd.Duration,
		MonthlyPrice: cmd.MonthlyPrice,
	}
}

// Compute dispatches on the command kind. ok is false for kinds the gateway does not know.
func Compute(cmd Command, taxPercent decimal.Decimal, currency string) (m Model, ok bool) {
	switch cmd.Type {
	case KindFree:
		return ComputeFree(cmd.Key, taxPercent, currency), true
	case KindFixed:
		return ComputeFixed(cmd, taxPercent, currency), true
	case KindSubscription:
		return ComputeSubscription(cmd, taxPercent, currency), true
	default:
		return nil, false
	}
}

// TaxOf returns excl * pct / 100 rounded half-up to cents.
func TaxOf(excl, taxPercent decimal.Decimal) decimal.Decimal {
	return excl.Mul(taxPercent).Div(hundred).Round(moneyScale)
}

func quote(key uuid.UUID, kind Kind, excl, taxPercent decimal.Decimal, currency string) Quotation {
	tax := TaxOf(excl, taxPercent)
	return Quotation{
		Key:                    key,
		Type:                   kind,
		Currency:               currency,
		TaxPercent:             taxPercent,
		TotalPriceExcludingTax: excl,
		Tax:                    tax,
		TotalPrice:             excl.Add(tax).Round(moneyScale),
	}
}
