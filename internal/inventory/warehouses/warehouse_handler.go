package warehouses

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/uggybe/storage-buddy-bot/internal/repository"
	apperrors "github.com/uggybe/storage-buddy-bot/pkg/errors"
	"github.com/uggybe/storage-buddy-bot/pkg/models"
	"github.com/uggybe/storage-buddy-bot/pkg/security"
)

type Recorder interface {
	Append(entry models.Transaction) error
}

type Handler struct {
	repository *WarehouseRepository
	audit      Recorder
	log        *zap.Logger
}

func NewHandler(r *repository.Repository, audit Recorder, log *zap.Logger) *Handler {
	return &Handler{repository: NewRepository(r), audit: audit, log: log}
}

func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/warehouses", h.ListWarehouses)
	router.POST("/warehouses", h.CreateWarehouse)
	router.PUT("/warehouses/:id", h.UpdateWarehouse)
	router.DELETE("/warehouses/:id", h.DeleteWarehouse)
}

type warehouseRequest struct {
	Name string `json:"name" binding:"required"`
}

func (h *Handler) ListWarehouses(c *gin.Context) {
	warehouses, err := h.repository.GetWarehouses()
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch warehouses"})
		return
	}

	c.JSON(http.StatusOK, warehouses)
}

func (h *Handler) CreateWarehouse(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	var req warehouseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload"})
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload"})
		return
	}

	warehouse, err := h.repository.PersistWarehouse(name)
	if err != nil {
		h.abortWithError(c, err)
		return
	}

	h.record(models.Transaction{
		UserID:   &actor.ID,
		UserName: actor.Name,
		Action:   models.ActionWarehouseCreated,
		Details:  map[string]interface{}{"warehouse": warehouse.Name},
	})

	c.JSON(http.StatusCreated, warehouse)
}

func (h *Handler) UpdateWarehouse(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.warehouseID(c)
	if !ok {
		return
	}

	var req warehouseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload"})
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload"})
		return
	}

	previous, err := h.repository.GetWarehouse(id)
	if err != nil {
		h.abortWithError(c, err)
		return
	}

	affected, err := h.repository.UpdateWarehouse(id, name)
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	if affected == 0 {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Warehouse not found"})
		return
	}

	h.record(models.Transaction{
		UserID:   &actor.ID,
		UserName: actor.Name,
		Action:   models.ActionWarehouseEdited,
		Details: map[string]interface{}{
			"old_name": previous.Name,
			"new_name": name,
		},
	})

	c.JSON(http.StatusOK, models.Warehouse{ID: id, Name: name})
}

func (h *Handler) DeleteWarehouse(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.warehouseID(c)
	if !ok {
		return
	}

	warehouse, err := h.repository.GetWarehouse(id)
	if err != nil {
		h.abortWithError(c, err)
		return
	}

	affected, err := h.repository.DeleteWarehouse(id)
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	if affected == 0 {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Warehouse not found"})
		return
	}

	h.record(models.Transaction{
		UserID:   &actor.ID,
		UserName: actor.Name,
		Action:   models.ActionWarehouseDeleted,
		Details:  map[string]interface{}{"warehouse": warehouse.Name},
	})

	c.JSON(http.StatusOK, gin.H{"deleted": id})
}

func (h *Handler) warehouseID(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid warehouse id"})
		return 0, false
	}
	return id, true
}

func (h *Handler) actor(c *gin.Context) (models.Actor, bool) {
	actor, err := security.CurrentActor(c)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return models.Actor{}, false
	}
	return actor, true
}

func (h *Handler) record(entry models.Transaction) {
	if err := h.audit.Append(entry); err != nil {
		h.log.Error("failed to append transaction",
			zap.String("action", entry.Action), zap.Error(err))
	}
}

func (h *Handler) abortWithError(c *gin.Context, err error) {
	var (
		notFound *apperrors.NotFoundError
		unique   *apperrors.UniqueViolationError
	)

	switch {
	case errors.As(err, &notFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.As(err, &unique):
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		h.log.Error("warehouse operation failed", zap.Error(err))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Operation failed"})
	}
}
