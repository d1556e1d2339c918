package items

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/uggybe/storage-buddy-bot/internal/repository"
	apperrors "github.com/uggybe/storage-buddy-bot/pkg/errors"
	"github.com/uggybe/storage-buddy-bot/pkg/models"
	"github.com/uggybe/storage-buddy-bot/pkg/security"
)

type ItemHandler struct {
	service *ItemService
	log     *zap.Logger
}

func NewItemHandler(r *repository.Repository, audit Recorder, blobs BlobRemover, log *zap.Logger) *ItemHandler {
	service := NewItemService(NewRepository(r), audit, blobs, log)
	return &ItemHandler{service: service, log: log}
}

func NewItemHandlerWithService(service *ItemService, log *zap.Logger) *ItemHandler {
	return &ItemHandler{service: service, log: log}
}

func (h *ItemHandler) Service() *ItemService {
	return h.service
}

func (h *ItemHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/items", h.ListItems)
	router.POST("/items", h.CreateItem)
	router.GET("/items/:id", h.GetItem)
	router.PUT("/items/:id", h.EditItem)
	router.DELETE("/items/:id", h.DeleteItem)
	router.POST("/items/:id/take", h.TakeItem)
	router.POST("/items/:id/return", h.ReturnItem)
	router.POST("/items/:id/replenish", h.ReplenishItem)
}

func (h *ItemHandler) ListItems(c *gin.Context) {
	filter := ListFilter{
		Category:  c.Query("category"),
		Warehouse: c.Query("warehouse"),
		Kind:      c.Query("type"),
		Search:    c.Query("q"),
	}

	items, err := h.service.List(filter)
	if err != nil {
		h.log.Error("failed to list items", zap.Error(err))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch items"})
		return
	}

	c.JSON(http.StatusOK, items)
}

func (h *ItemHandler) GetItem(c *gin.Context) {
	id, ok := h.itemID(c)
	if !ok {
		return
	}

	item, err := h.service.Get(id)
	if err != nil {
		h.abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, item)
}

func (h *ItemHandler) CreateItem(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	var req CreateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload"})
		return
	}

	item, err := h.service.Create(actor, req)
	if err != nil {
		h.abortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, item)
}

func (h *ItemHandler) EditItem(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.itemID(c)
	if !ok {
		return
	}

	var req EditItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload"})
		return
	}

	item, err := h.service.Edit(actor, id, req)
	if err != nil {
		h.abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, item)
}

func (h *ItemHandler) TakeItem(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.itemID(c)
	if !ok {
		return
	}

	var req TakeItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload"})
		return
	}

	item, err := h.service.Take(actor, id, req)
	if err != nil {
		h.abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, item)
}

func (h *ItemHandler) ReturnItem(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.itemID(c)
	if !ok {
		return
	}

	var req ReturnItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload"})
		return
	}

	item, err := h.service.Return(actor, id, req)
	if err != nil {
		h.abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, item)
}

func (h *ItemHandler) ReplenishItem(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.itemID(c)
	if !ok {
		return
	}

	var req ReplenishItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload"})
		return
	}

	item, err := h.service.Replenish(actor, id, req)
	if err != nil {
		h.abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, item)
}

func (h *ItemHandler) DeleteItem(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.itemID(c)
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), actor, id); err != nil {
		h.abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": id})
}

func (h *ItemHandler) itemID(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid item id"})
		return 0, false
	}
	return id, true
}

func (h *ItemHandler) actor(c *gin.Context) (models.Actor, bool) {
	actor, err := security.CurrentActor(c)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return models.Actor{}, false
	}
	return actor, true
}

// abortWithError maps the engine's error taxonomy to HTTP statuses.
func (h *ItemHandler) abortWithError(c *gin.Context, err error) {
	var (
		validation   *apperrors.ValidationError
		notFound     *apperrors.NotFoundError
		insufficient *apperrors.InsufficientStockError
		held         *apperrors.AlreadyHeldError
	)

	switch {
	case errors.As(err, &validation):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.As(err, &notFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.As(err, &insufficient):
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.As(err, &held):
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		h.log.Error("item operation failed", zap.Error(err))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Operation failed"})
	}
}
