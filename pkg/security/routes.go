package security

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/uggybe/storage-buddy-bot/internal/rate_limiter"
	apperrors "github.com/uggybe/storage-buddy-bot/pkg/errors"
)

type LoginHandler struct {
	gate        *Gate
	rateLimiter *rate_limiter.RateLimiter
}

func NewLoginHandler(gate *Gate) *LoginHandler {
	return &LoginHandler{
		gate:        gate,
		rateLimiter: rate_limiter.NewRateLimiter(10, 5*time.Minute), // 10 attempts per 5 minutes
	}
}

func (l *LoginHandler) RegisterRoutes(router *gin.Engine) {
	router.POST("/auth", l.Login)
}

// externalID accepts both a JSON string and a JSON number, since
// Telegram clients send the chat/user id either way.
type externalID string

func (e *externalID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*e = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*e = externalID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*e = externalID(n.String())
	return nil
}

type loginRequest struct {
	TelegramID  externalID `json:"telegram_id"`
	DisplayName string     `json:"display_name"`
}

func (l *LoginHandler) Login(c *gin.Context) {
	clientIP := c.ClientIP()
	if !l.rateLimiter.IsAllowed(clientIP) {
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "Too many sign-in attempts, try again later"})
		return
	}

	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload"})
		return
	}

	user, err := l.gate.Authenticate(c.Request.Context(), TelegramLogin{
		ExternalID:  strings.TrimSpace(string(req.TelegramID)),
		DisplayName: req.DisplayName,
	})
	if err != nil {
		var denied *apperrors.AccessDeniedError
		var invalid *apperrors.ValidationError
		switch {
		case errors.As(err, &denied):
			c.JSON(http.StatusForbidden, gin.H{"error": "Access denied"})
		case errors.As(err, &invalid):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Sign-in failed"})
		}
		return
	}

	token, err := GenerateJWT(user.ID, user.Name)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token, "user": user})
}
