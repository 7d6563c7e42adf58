// Package catalogue reads published items and their pricing model definitions
// from the catalogue service.
package catalogue

import (
	"context"
	"errors"

	"marketplace-gateway/internal/pricing"
)

// ErrUnavailable marks a catalogue that could not answer: transport failure,
// non-success response or an open circuit.
var ErrUnavailable = errors.New("catalogue unavailable")

// Item is a published catalogue item. Items that are not published are never returned.
type Item struct {
	ID            string            `json:"id"`
	Title         string            `json:"title"`
	PricingModels []pricing.Command `json:"pricingModels"`
}

// Finder looks up published items by id. Unknown ids are silently absent from
// the result.
type Finder interface {
	FindAllByID(ctx context.Context, ids []string) ([]Item, error)
}

type response struct {
	Success  bool      `json:"success"`
	Result   []Item    `json:"result"`
	Messages []message `json:"messages,omitempty"`
}

type message struct {
	Code        string `json:"code,omitempty"`
	Level       string `json:"level,omitempty"`
	Description string `json:"description,omitempty"`
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
