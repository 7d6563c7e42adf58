package httpserver

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"marketplace-gateway/internal/domain"
	"marketplace-gateway/internal/pricing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// accountHeader carries the authenticated account id set by the upstream gateway.
const accountHeader = "X-Account-Id"

type cartResponse struct {
	Key                    uuid.UUID          `json:"key"`
	Items                  []cartItemResponse `json:"items"`
	AppliedCoupons         []string           `json:"appliedCoupons"`
	TotalPrice             decimal.Decimal    `json:"totalPrice"`
	TotalPriceExcludingTax decimal.Decimal    `json:"totalPriceExcludingTax"`
	TaxTotal               decimal.Decimal    `json:"taxTotal"`
	Currency               string             `json:"currency"`
	TotalItems             int                `json:"totalItems"`
	CreatedAt              time.Time          `json:"createdAt"`
	ModifiedAt             time.Time          `json:"modifiedAt"`
}

type cartItemResponse struct {
	Key          uuid.UUID     `json:"id"`
	Product      productRef    `json:"product"`
	AddedAt      time.Time     `json:"addedAt"`
	PricingModel pricing.Model `json:"pricingModel"`
}

type productRef struct {
	ID string `json:"id"`
}

func toCartResponse(cart *domain.Cart) cartResponse {
	active := cart.ActiveItems()
	items := make([]cartItemResponse, 0, len(active))
	for _, item := range active {
		items = append(items, cartItemResponse{
			Key:          item.Key,
			Product:      productRef{ID: item.ProductID},
			AddedAt:      item.AddedAt,
			PricingModel: item.PricingModel,
		})
	}
	return cartResponse{
		Key:                    cart.Key,
		Items:                  items,
		AppliedCoupons:         []string{},
		TotalPrice:             cart.TotalPrice().Round(2),
		TotalPriceExcludingTax: cart.TotalPriceExcludingTax().Round(2),
		TaxTotal:               cart.TotalTax().Round(2),
		Currency:               cart.Currency,
		TotalItems:             len(items),
		CreatedAt:              cart.CreatedAt,
		ModifiedAt:             cart.ModifiedAt,
	}
}

type cartHandler struct {
	svc    CartService
	logger *zap.Logger
	cookie string
	maxAge time.Duration
}

type addItemRequest struct {
	ProductID      string    `json:"productId"`
	PricingModelID uuid.UUID `json:"pricingModelId"`
}

func (h *cartHandler) get(c *gin.Context) {
	key := h.cartKey(c)
	cart, err := h.svc.GetCart(c.Request.Context(), key)
	if key != nil && errors.Is(err, domain.ErrNotFound) {
		// stale cookie: start over
		cart, err = h.svc.GetCart(c.Request.Context(), nil)
	}
	h.finish(c, cart, err)
}

func (h *cartHandler) add(c *gin.Context) {
	var req addItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "ValidationFailure", "invalid request body")
		return
	}
	cart, err := h.svc.AddItem(c.Request.Context(), h.cartKey(c), req.ProductID, req.PricingModelID)
	h.finish(c, cart, err)
}

func (h *cartHandler) remove(c *gin.Context) {
	itemKey, err := uuid.Parse(c.Param("itemKey"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "ValidationFailure", "invalid item key")
		return
	}
	cart, err := h.svc.RemoveItem(c.Request.Context(), h.cartKey(c), itemKey)
	h.finish(c, cart, err)
}

func (h *cartHandler) clear(c *gin.Context) {
	cart, err := h.svc.Clear(c.Request.Context(), h.cartKey(c))
	h.finish(c, cart, err)
}

// finish stores the cart key in the cookie, links an anonymous cart to the
// caller's account and writes the response. A failed link must not lose a cart
// committed by this request, so the cookie is written first.
func (h *cartHandler) finish(c *gin.Context, cart *domain.Cart, err error) {
	if err != nil {
		respondFailure(c, h.logger, err)
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookie, cart.Key.String(), int(h.maxAge/time.Second), "/", "", false, true)

	if raw := strings.TrimSpace(c.GetHeader(accountHeader)); raw != "" && cart.AccountID == nil {
		accountID, perr := strconv.ParseInt(raw, 10, 64)
		if perr != nil || accountID <= 0 {
			respondError(c, http.StatusBadRequest, "ValidationFailure", "invalid account id")
			return
		}
		key := cart.Key
		linked, err := h.svc.SetAccount(c.Request.Context(), &key, accountID)
		if err != nil {
			respondFailure(c, h.logger, err)
			return
		}
		cart = linked
	}

	respondOK(c, toCartResponse(cart))
}

func (h *cartHandler) cartKey(c *gin.Context) *uuid.UUID {
	raw, err := c.Cookie(h.cookie)
	if err != nil || raw == "" {
		return nil
	}
	key, err := uuid.Parse(raw)
	if err != nil {
		h.logger.Debug("ignoring malformed cart cookie", zap.String("value", raw))
		return nil
	}
	return &key
}
