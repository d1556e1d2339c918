package reports

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apperrors "github.com/uggybe/storage-buddy-bot/pkg/errors"
)

type Handler struct {
	service *Service
	log     *zap.Logger
}

func NewHandler(service *Service, log *zap.Logger) *Handler {
	return &Handler{service: service, log: log}
}

func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/reports/transactions", h.ExportTransactions)
}

func (h *Handler) ExportTransactions(c *gin.Context) {
	var req ExportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload"})
		return
	}

	result, err := h.service.Export(c.Request.Context(), req)
	if err != nil {
		var validation *apperrors.ValidationError
		var upstream *apperrors.UpstreamError
		switch {
		case errors.As(err, &validation):
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.As(err, &upstream):
			c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		default:
			h.log.Error("report export failed", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Export failed"})
		}
		return
	}

	c.JSON(http.StatusOK, result)
}
