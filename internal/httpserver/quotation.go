package httpserver

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type quoteHandler struct {
	svc    QuoteService
	logger *zap.Logger
}

type quotationRequest struct {
	AssetID         string    `json:"assetId"`
	PricingModelKey uuid.UUID `json:"pricingModelKey"`
}

func (h *quoteHandler) pricingModels(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	models, err := h.svc.PricingModels(c.Request.Context(), id)
	if err != nil {
		respondFailure(c, h.logger, err)
		return
	}
	respondOK(c, models)
}

func (h *quoteHandler) quote(c *gin.Context) {
	var req quotationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "ValidationFailure", "invalid request body")
		return
	}
	if strings.TrimSpace(req.AssetID) == "" || req.PricingModelKey == uuid.Nil {
		respondError(c, http.StatusBadRequest, "ValidationFailure", "assetId and pricingModelKey are required")
		return
	}
	model, err := h.svc.Quote(c.Request.Context(), req.AssetID, req.PricingModelKey)
	if err != nil {
		respondFailure(c, h.logger, err)
		return
	}
	respondOK(c, model)
}
