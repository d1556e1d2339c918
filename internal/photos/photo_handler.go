package photos

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apperrors "github.com/uggybe/storage-buddy-bot/pkg/errors"
)

type Handler struct {
	service *PhotoService
	log     *zap.Logger
}

func NewHandler(service *PhotoService, log *zap.Logger) *Handler {
	return &Handler{service: service, log: log}
}

func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/items/:id/photos", h.AttachPhotos)
	router.DELETE("/items/:id/photos", h.DetachPhoto)
}

func (h *Handler) AttachPhotos(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid item id"})
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid multipart payload"})
		return
	}

	result, err := h.service.Attach(c.Request.Context(), id, form.File["photos"])
	if err != nil {
		h.abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *Handler) DetachPhoto(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid item id"})
		return
	}

	var req struct {
		Photo string `json:"photo" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload"})
		return
	}

	remaining, err := h.service.Detach(c.Request.Context(), id, req.Photo)
	if err != nil {
		h.abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"photos": remaining})
}

func (h *Handler) abortWithError(c *gin.Context, err error) {
	var (
		validation *apperrors.ValidationError
		notFound   *apperrors.NotFoundError
	)

	switch {
	case errors.As(err, &validation):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.As(err, &notFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		h.log.Error("photo operation failed", zap.Error(err))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Operation failed"})
	}
}
