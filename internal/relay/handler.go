package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// fileCaption is the fixed caption attached to every relayed report.
const fileCaption = "📊 Журнал событий"

type Sender interface {
	SendDocument(ctx context.Context, chatID, fileName string, content []byte, caption string) (*APIResult, error)
	SendMessage(ctx context.Context, chatID, text, parseMode string) (*APIResult, error)
}

type Handler struct {
	sender Sender
	log    *zap.Logger
}

func NewHandler(sender Sender, log *zap.Logger) *Handler {
	return &Handler{sender: sender, log: log}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.POST("/send-file", h.SendFile)
	router.POST("/send-message", h.SendMessage)
	router.GET("/health", h.Health)
}

// chatID accepts both a JSON string and a JSON number.
type chatID string

func (c *chatID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*c = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*c = chatID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*c = chatID(n.String())
	return nil
}

type sendFileRequest struct {
	ChatID   chatID `json:"chatId"`
	CSVData  string `json:"csvData"`
	FileName string `json:"fileName"`
}

type sendMessageRequest struct {
	ChatID    chatID `json:"chatId"`
	Text      string `json:"text"`
	ParseMode string `json:"parseMode"`
}

func (h *Handler) SendFile(c *gin.Context) {
	var req sendFileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Invalid request payload",
		})
		return
	}

	if req.ChatID == "" || req.CSVData == "" || req.FileName == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Missing required parameters: chatId, csvData, or fileName",
		})
		return
	}

	h.log.Info("relaying file", zap.String("file", req.FileName), zap.String("chat", string(req.ChatID)))

	result, err := h.sender.SendDocument(c.Request.Context(), string(req.ChatID), req.FileName, []byte(req.CSVData), fileCaption)
	if err != nil {
		h.log.Error("failed to relay file", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   err.Error(),
		})
		return
	}

	if !result.OK {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   upstreamError(result),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":        true,
		"message":        "File sent successfully",
		"telegramResult": result.Raw,
	})
}

func (h *Handler) SendMessage(c *gin.Context) {
	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Invalid request payload",
		})
		return
	}

	if req.ChatID == "" || req.Text == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Missing required parameters: chatId or text",
		})
		return
	}

	parseMode := req.ParseMode
	if parseMode == "" {
		parseMode = "HTML"
	}

	result, err := h.sender.SendMessage(c.Request.Context(), string(req.ChatID), req.Text, parseMode)
	if err != nil {
		h.log.Error("failed to relay message", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   err.Error(),
		})
		return
	}

	if !result.OK {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   upstreamError(result),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":        true,
		"message":        "Message sent successfully",
		"telegramResult": result.Raw,
	})
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"service":   "telegram-api",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func upstreamError(result *APIResult) string {
	description := result.Description
	if description == "" {
		description = "Unknown error"
	}
	return "Telegram API error: " + description
}
