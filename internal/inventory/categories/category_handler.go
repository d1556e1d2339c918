package categories

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
	repository *CategoryRepository
	audit      Recorder
	log        *zap.Logger
}

func NewHandler(r *repository.Repository, audit Recorder, log *zap.Logger) *Handler {
	return &Handler{repository: NewRepository(r), audit: audit, log: log}
}

func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/categories", h.ListCategories)
	router.POST("/categories", h.CreateCategory)
	router.PUT("/categories/:id", h.UpdateCategory)
	router.DELETE("/categories/:id", h.DeleteCategory)
}

type categoryRequest struct {
	Name             string `json:"name" binding:"required"`
	CriticalQuantity int    `json:"critical_quantity"`
}

func (h *Handler) ListCategories(c *gin.Context) {
	categories, err := h.repository.GetCategories()
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch categories"})
		return
	}

	c.JSON(http.StatusOK, categories)
}

func (h *Handler) CreateCategory(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	var req categoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload"})
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" || req.CriticalQuantity < 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload"})
		return
	}

	category, err := h.repository.PersistCategory(name, req.CriticalQuantity)
	if err != nil {
		h.abortWithError(c, err)
		return
	}

	h.record(models.Transaction{
		UserID:       &actor.ID,
		UserName:     actor.Name,
		Action:       models.ActionCategoryCreated,
		CategoryName: category.Name,
		Details:      map[string]interface{}{"critical_quantity": category.CriticalQuantity},
	})

	c.JSON(http.StatusCreated, category)
}

func (h *Handler) UpdateCategory(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.categoryID(c)
	if !ok {
		return
	}

	var req categoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload"})
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" || req.CriticalQuantity < 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload"})
		return
	}

	previous, err := h.repository.GetCategory(id)
	if err != nil {
		h.abortWithError(c, err)
		return
	}

	affected, err := h.repository.UpdateCategory(id, name, req.CriticalQuantity)
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	if affected == 0 {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Category not found"})
		return
	}

	h.record(models.Transaction{
		UserID:       &actor.ID,
		UserName:     actor.Name,
		Action:       models.ActionCategoryEdited,
		CategoryName: name,
		Details: map[string]interface{}{
			"old_name":              previous.Name,
			"new_name":              name,
			"old_critical_quantity": previous.CriticalQuantity,
			"new_critical_quantity": req.CriticalQuantity,
		},
	})

	c.JSON(http.StatusOK, models.Category{ID: id, Name: name, CriticalQuantity: req.CriticalQuantity})
}

func (h *Handler) DeleteCategory(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.categoryID(c)
	if !ok {
		return
	}

	category, err := h.repository.GetCategory(id)
	if err != nil {
		h.abortWithError(c, err)
		return
	}

	affected, err := h.repository.DeleteCategory(id)
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	if affected == 0 {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Category not found"})
		return
	}

	h.record(models.Transaction{
		UserID:       &actor.ID,
		UserName:     actor.Name,
		Action:       models.ActionCategoryDeleted,
		CategoryName: category.Name,
	})

	c.JSON(http.StatusOK, gin.H{"deleted": id})
}

func (h *Handler) categoryID(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid category id"})
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
		h.log.Error("category operation failed", zap.Error(err))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Operation failed"})
	}
}
