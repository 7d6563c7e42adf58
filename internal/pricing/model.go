package pricing

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Quotation holds the computed, tax-inclusive totals every pricing model shares.
type Quotation struct {
	Key                    uuid.UUID       `json:"id"`
	Type                   Kind            `json:"type"`
	Currency               string          `json:"currency"`
	TaxPercent             decimal.Decimal `json:"taxPercent"`
	TotalPriceExcludingTax decimal.Decimal `json:"totalPriceExcludingTax"`
	Tax                    decimal.Decimal `json:"tax"`
	TotalPrice             decimal.Decimal `json:"totalPrice"`
}

// Quote returns the common totals; embedding types inherit it.
func (q Quotation) Quote() Quotation { return q }

// Model is an effective pricing model: Free, Fixed or Subscription.
type Model interface {
	Quote() Quotation
}

// Free costs nothing; all totals are zero.
type Free struct {
	Quotation
}

// Fixed is a one-off price, optionally bundling years of updates.
type Fixed struct {
	Quotation
	IncludesUpdates bool `json:"includesUpdates"`
	YearsOfUpdates  int  `json:"yearsOfUpdates"`
}

// Subscription charges MonthlyPrice for Duration months.
type Subscription struct {
	Quotation
	Duration     int             `json:"duration"`
	MonthlyPrice decimal.Decimal `json:"monthlyPrice"`
}

var (
	_ Model = Free{}
	_ Model = Fixed{}
	_ Model = Subscription{}
)
