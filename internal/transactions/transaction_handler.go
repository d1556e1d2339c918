package transactions

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/uggybe/storage-buddy-bot/internal/repository"
)

type Handler struct {
	repository *Repository
}

func NewHandler(r *repository.Repository) *Handler {
	return &Handler{repository: NewRepository(r)}
}

func (h *Handler) Repository() *Repository {
	return h.repository
}

func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/transactions", h.listTransactions)
}

func (h *Handler) listTransactions(c *gin.Context) {
	filter, err := filterFromQuery(c)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	entries, err := h.repository.List(filter)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch transactions"})
		return
	}

	c.JSON(http.StatusOK, entries)
}

func filterFromQuery(c *gin.Context) (Filter, error) {
	filter := Filter{
		Action:   c.Query("action"),
		ItemName: c.Query("item"),
		Limit:    100,
	}

	if raw := c.Query("user_id"); raw != "" {
		userID, err := strconv.Atoi(raw)
		if err != nil {
			return filter, err
		}
		filter.UserID = &userID
	}
	if raw := c.Query("from"); raw != "" {
		from, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return filter, err
		}
		filter.From = &from
	}
	if raw := c.Query("to"); raw != "" {
		to, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return filter, err
		}
		filter.To = &to
	}
	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			return filter, err
		}
		filter.Limit = limit
	}
	if raw := c.Query("offset"); raw != "" {
		offset, err := strconv.Atoi(raw)
		if err != nil {
			return filter, err
		}
		filter.Offset = offset
	}

	return filter, nil
}
