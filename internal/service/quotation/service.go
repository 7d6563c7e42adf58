package quotation

import (
	"context"
	"fmt"

	"marketplace-gateway/internal/catalogue"
	"marketplace-gateway/internal/domain"
	"marketplace-gateway/internal/pricing"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Service turns catalogue pricing model definitions into effective, tax-inclusive models.
type Service struct {
	catalogue catalogueFinder
	resolver  modelResolver
	logger    *zap.Logger
}

type catalogueFinder interface {
	FindAllByID(ctx context.Context, ids []string) ([]catalogue.Item, error)
}

type modelResolver interface {
	Resolve(itemID string, cmds []pricing.Command) ([]pricing.Model, error)
}

func New(finder catalogueFinder, resolver modelResolver, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{catalogue: finder, resolver: resolver, logger: logger}
}

// PricingModels returns the effective models a published item offers.
func (s *Service) PricingModels(ctx context.Context, itemID string) ([]pricing.Model, error) {
	items, err := s.catalogue.FindAllByID(ctx, []string{itemID})
	if err != nil {
		return nil, err
	}
	for _, item := range items {
		if item.ID == itemID {
			return s.resolver.Resolve(item.ID, item.PricingModels)
		}
	}
	return nil, fmt.Errorf("catalogue item %s: %w", itemID, domain.ErrNotFound)
}

// Quote returns the effective model pricingModelID of productID.
func (s *Service) Quote(ctx context.Context, productID string, pricingModelID uuid.UUID) (pricing.Model, error) {
	models, err := s.PricingModels(ctx, productID)
	if err != nil {
		return nil, err
	}
	m, ok := pricing.Find(models, pricingModelID)
	if !ok {
		return nil, fmt.Errorf("pricing model %s of item %s: %w", pricingModelID, productID, domain.ErrNotFound)
	}
	return m, nil
}

// Price attaches the effective pricing model to every active item of cart with
// one catalogue lookup. Items whose product or model cannot be resolved keep a
// nil model and count as zero; a failing catalogue leaves the whole cart unpriced.
func (s *Service) Price(ctx context.Context, cart *domain.Cart) {
	if cart == nil {
		return
	}
	active := cart.ActiveItems()
	if len(active) == 0 {
		return
	}

	ids := make([]string, 0, len(active))
	for _, item := range active {
		ids = append(ids, item.ProductID)
	}

	items, err := s.catalogue.FindAllByID(ctx, ids)
	if err != nil {
		s.logger.Warn("cart priced without catalogue",
			zap.String("cart", cart.Key.String()),
			zap.Error(err))
		return
	}

	models := make(map[string][]pricing.Model, len(items))
	for _, item := range items {
		resolved, err := s.resolver.Resolve(item.ID, item.PricingModels)
		if err != nil {
			s.logger.Warn("skipping item with invalid pricing models",
				zap.String("item", item.ID),
				zap.Error(err))
			continue
		}
		models[item.ID] = resolved
	}

	for i := range cart.Items {
		item := &cart.Items[i]
		if !item.Active() {
			continue
		}
		m, ok := pricing.Find(models[item.ProductID], item.PricingModelID)
		if !ok {
			s.logger.Info("cart item has no offered pricing model",
				zap.String("cart", cart.Key.String()),
				zap.String("product", item.ProductID),
				zap.String("pricingModel", item.PricingModelID.String()))
			continue
		}
		item.PricingModel = m
	}
}
