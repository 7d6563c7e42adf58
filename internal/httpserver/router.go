package httpserver

import (
	"context"
	"errors"
	"time"

	"marketplace-gateway/internal/domain"
	"marketplace-gateway/internal/pricing"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Deps groups the services the handlers call.
type Deps struct {
	CartSvc  CartService
	QuoteSvc QuoteService
}

// Options controls the HTTP surface.
type Options struct {
	CartCookie  string
	CORSOrigins []string
	// CookieMaxAge bounds how long the browser keeps the cart cookie.
	CookieMaxAge time.Duration
}

type CartService interface {
	GetCart(ctx context.Context, key *uuid.UUID) (*domain.Cart, error)
	AddItem(ctx context.Context, key *uuid.UUID, productID string, pricingModelID uuid.UUID) (*domain.Cart, error)
	RemoveItem(ctx context.Context, key *uuid.UUID, itemKey uuid.UUID) (*domain.Cart, error)
	Clear(ctx context.Context, key *uuid.UUID) (*domain.Cart, error)
	SetAccount(ctx context.Context, key *uuid.UUID, accountID int64) (*domain.Cart, error)
}

type QuoteService interface {
	PricingModels(ctx context.Context, itemID string) ([]pricing.Model, error)
	Quote(ctx context.Context, productID string, pricingModelID uuid.UUID) (pricing.Model, error)
}

// buildRouter wires routes for the API.
func buildRouter(logger *zap.Logger, storage Pinger, deps Deps, opts Options) (*gin.Engine, error) {
	if deps.CartSvc == nil || deps.QuoteSvc == nil {
		return nil, errors.New("cart and quotation services are required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.CartCookie == "" {
		opts.CartCookie = "cart"
	}
	if opts.CookieMaxAge <= 0 {
		opts.CookieMaxAge = 30 * 24 * time.Hour
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.LoggerWithWriter(zap.NewStdLog(logger).Writer()), gin.Recovery())
	if len(opts.CORSOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     opts.CORSOrigins,
			AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", accountHeader},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(storage))

	carts := &cartHandler{svc: deps.CartSvc, logger: logger, cookie: opts.CartCookie, maxAge: opts.CookieMaxAge}
	quotes := &quoteHandler{svc: deps.QuoteSvc, logger: logger}

	action := router.Group("/action")
	action.GET("/cart", carts.get)
	action.POST("/cart", carts.add)
	action.DELETE("/cart/:itemKey", carts.remove)
	action.DELETE("/cart", carts.clear)
	action.GET("/catalogue/:id/pricing-models", quotes.pricingModels)
	action.POST("/quotation", quotes.quote)

	return router, nil
}
