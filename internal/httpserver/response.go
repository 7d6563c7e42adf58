package httpserver

import (
	"errors"
	"net/http"

	"marketplace-gateway/internal/catalogue"
	"marketplace-gateway/internal/domain"
	"marketplace-gateway/internal/pricing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type envelope struct {
	Success  bool        `json:"success"`
	Result   interface{} `json:"result"`
	Messages []message   `json:"messages"`
}

type message struct {
	Code        string `json:"code"`
	Level       string `json:"level"`
	Description string `json:"description,omitempty"`
}

func respondOK(c *gin.Context, result interface{}) {
	c.JSON(http.StatusOK, envelope{Success: true, Result: result, Messages: []message{}})
}

func respondError(c *gin.Context, status int, code, description string) {
	c.AbortWithStatusJSON(status, envelope{
		Success:  false,
		Messages: []message{{Code: code, Level: "ERROR", Description: description}},
	})
}

// respondFailure maps a service error to its HTTP status.
func respondFailure(c *gin.Context, logger *zap.Logger, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		respondError(c, http.StatusNotFound, "NotFound", err.Error())
	case errors.Is(err, domain.ErrAlreadyLinked):
		respondError(c, http.StatusConflict, "AlreadyLinked", err.Error())
	case errors.Is(err, domain.ErrValidation), errors.Is(err, pricing.ErrInvalidCommand):
		respondError(c, http.StatusBadRequest, "ValidationFailure", err.Error())
	case errors.Is(err, catalogue.ErrUnavailable):
		logger.Warn("catalogue unavailable", zap.String("path", c.FullPath()), zap.Error(err))
		respondError(c, http.StatusBadGateway, "CatalogueUnavailable", "catalogue service is unavailable")
	default:
		logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		respondError(c, http.StatusInternalServerError, "InternalError", "internal server error")
	}
}
