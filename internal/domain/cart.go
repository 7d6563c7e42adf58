package domain

import (
	"fmt"
	"time"

	"marketplace-gateway/internal/pricing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Cart is the aggregate root of a shopping cart. Items holds the full history,
// including soft-deleted rows; totals are always derived from the active ones.
type Cart struct {
	ID         int64      `json:"id"`
	Key        uuid.UUID  `json:"key"`
	AccountID  *int64     `json:"accountId,omitempty"`
	Currency   string     `json:"currency"`
	CreatedAt  time.Time  `json:"createdAt"`
	ModifiedAt time.Time  `json:"modifiedAt"`
	Items      []CartItem `json:"items"`
}

// CartItem is one selected catalogue product. There is no quantity: a product
// is either in the cart once or not at all.
type CartItem struct {
	ID             int64      `json:"id"`
	Key            uuid.UUID  `json:"key"`
	ProductID      string     `json:"productId"`
	PricingModelID uuid.UUID  `json:"pricingModelId"`
	AddedAt        time.Time  `json:"addedAt"`
	RemovedAt      *time.Time `json:"removedAt,omitempty"`

	// PricingModel is the resolved effective model; it is never persisted.
	PricingModel pricing.Model `json:"-"`
}

// Active reports whether the item has not been removed.
func (i CartItem) Active() bool {
	return i.RemovedAt == nil
}

// AddOrUpdateItem selects pricingModelID for productID. An active item for the
// product is updated in place; otherwise a new item is appended.
func (c *Cart) AddOrUpdateItem(productID string, pricingModelID uuid.UUID, now time.Time) *CartItem {
	for i := range c.Items {
		item := &c.Items[i]
		if item.ProductID == productID && item.Active() {
			if item.PricingModelID != pricingModelID {
				item.PricingModelID = pricingModelID
				item.PricingModel = nil
			}
			c.ModifiedAt = now
			return item
		}
	}
	c.Items = append(c.Items, CartItem{
		Key:            uuid.New(),
		ProductID:      productID,
		PricingModelID: pricingModelID,
		AddedAt:        now,
	})
	c.ModifiedAt = now
	return &c.Items[len(c.Items)-1]
}

// RemoveItem soft-deletes the item with itemKey. Removing an already removed
// item is a no-op; an unknown key yields ErrNotFound.
func (c *Cart) RemoveItem(itemKey uuid.UUID, now time.Time) error {
	for i := range c.Items {
		item := &c.Items[i]
		if item.Key != itemKey {
			continue
		}
		if item.Active() {
			removedAt := now
			item.RemovedAt = &removedAt
			c.ModifiedAt = now
		}
		return nil
	}
	return fmt.Errorf("cart item %s: %w", itemKey, ErrNotFound)
}

// Clear removes every active item with one shared timestamp.
func (c *Cart) Clear(now time.Time) {
	removedAt := now
	for i := range c.Items {
		if c.Items[i].Active() {
			c.Items[i].RemovedAt = &removedAt
		}
	}
	c.ModifiedAt = now
}

// LinkAccount attaches the cart to accountID once. Linking the same account
// again is a no-op.
func (c *Cart) LinkAccount(accountID int64) error {
	if c.AccountID != nil {
		if *c.AccountID == accountID {
			return nil
		}
		return fmt.Errorf("cart %s: %w", c.Key, ErrAlreadyLinked)
	}
	id := accountID
	c.AccountID = &id
	return nil
}

// ActiveItems returns copies of the items that have not been removed.
func (c *Cart) ActiveItems() []CartItem {
	out := make([]CartItem, 0, len(c.Items))
	for _, item := range c.Items {
		if item.Active() {
			out = append(out, item)
		}
	}
	return out
}

func (c *Cart) ItemCount() int {
	n := 0
	for _, item := range c.Items {
		if item.Active() {
			n++
		}
	}
	return n
}

func (c *Cart) TotalPrice() decimal.Decimal {
	return c.sum(func(q pricing.Quotation) decimal.Decimal { return q.TotalPrice })
}

func (c *Cart) TotalPriceExcludingTax() decimal.Decimal {
	return c.sum(func(q pricing.Quotation) decimal.Decimal { return q.TotalPriceExcludingTax })
}

func (c *Cart) TotalTax() decimal.Decimal {
	return c.sum(func(q pricing.Quotation) decimal.Decimal { return q.Tax })
}

// Items without a resolved pricing model contribute zero.
func (c *Cart) sum(field func(pricing.Quotation) decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, item := range c.Items {
		if !item.Active() || item.PricingModel == nil {
			continue
		}
		total = total.Add(field(item.PricingModel.Quote()))
	}
	return total
}

// Clone returns a deep copy suitable for handing out of a store.
func (c *Cart) Clone() *Cart {
	out := *c
	if c.AccountID != nil {
		id := *c.AccountID
		out.AccountID = &id
	}
	out.Items = make([]CartItem, len(c.Items))
	for i, item := range c.Items {
		if item.RemovedAt != nil {
			at := *item.RemovedAt
			item.RemovedAt = &at
		}
		out.Items[i] = item
	}
	return &out
}
