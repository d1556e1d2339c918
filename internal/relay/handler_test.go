package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

type MockSender struct {
	mock.Mock
}

func (m *MockSender) SendDocument(ctx context.Context, chatID, fileName string, content []byte, caption string) (*APIResult, error) {
	args := m.Called(ctx, chatID, fileName, content, caption)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*APIResult), args.Error(1)
}

func (m *MockSender) SendMessage(ctx context.Context, chatID, text, parseMode string) (*APIResult, error) {
	args := m.Called(ctx, chatID, text, parseMode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*APIResult), args.Error(1)
}

func performJSON(t *testing.T, handler gin.HandlerFunc, method, path string, payload string) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)

	recorder := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(recorder)
	c.Request = httptest.NewRequest(method, path, bytes.NewBufferString(payload))
	c.Request.Header.Set("Content-Type", "application/json")

	handler(c)
	return recorder
}

func okResult(raw string) *APIResult {
	return &APIResult{OK: true, Raw: json.RawMessage(raw)}
}

func TestSendFile(t *testing.T) {
	sender := new(MockSender)
	handler := NewHandler(sender, zap.NewNop())

	sender.On("SendDocument", mock.Anything, "12345", "report.csv", []byte("a,b\n1,2\n"), fileCaption).
		Return(okResult(`{"ok":true,"result":{"message_id":7}}`), nil).Once()

	recorder := performJSON(t, handler.SendFile, http.MethodPost, "/send-file",
		`{"chatId":"12345","csvData":"a,b\n1,2\n","fileName":"report.csv"}`)

	assert.Equal(t, http.StatusOK, recorder.Code)

	var response map[string]interface{}
	assert.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &response))
	assert.Equal(t, true, response["success"])
	assert.Equal(t, "File sent successfully", response["message"])
	assert.NotNil(t, response["telegramResult"])
	sender.AssertExpectations(t)
}

func TestSendFileAcceptsNumericChatID(t *testing.T) {
	sender := new(MockSender)
	handler := NewHandler(sender, zap.NewNop())

	sender.On("SendDocument", mock.Anything, "-100987", "report.csv", mock.Anything, fileCaption).
		Return(okResult(`{"ok":true}`), nil).Once()

	recorder := performJSON(t, handler.SendFile, http.MethodPost, "/send-file",
		`{"chatId":-100987,"csvData":"a,b\n","fileName":"report.csv"}`)

	assert.Equal(t, http.StatusOK, recorder.Code)
	sender.AssertExpectations(t)
}

func TestSendFileMissingParameters(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{"missing chatId", `{"csvData":"a,b\n","fileName":"report.csv"}`},
		{"missing csvData", `{"chatId":"12345","fileName":"report.csv"}`},
		{"missing fileName", `{"chatId":"12345","csvData":"a,b\n"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sender := new(MockSender)
			handler := NewHandler(sender, zap.NewNop())

			recorder := performJSON(t, handler.SendFile, http.MethodPost, "/send-file", tt.payload)

			assert.Equal(t, http.StatusBadRequest, recorder.Code)

			var response map[string]interface{}
			assert.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &response))
			assert.Equal(t, false, response["success"])
			assert.Equal(t, "Missing required parameters: chatId, csvData, or fileName", response["error"])
			sender.AssertNotCalled(t, "SendDocument",
				mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestSendFileUpstreamRejection(t *testing.T) {
	sender := new(MockSender)
	handler := NewHandler(sender, zap.NewNop())

	sender.On("SendDocument", mock.Anything, "12345", "report.csv", mock.Anything, fileCaption).
		Return(&APIResult{OK: false, Description: "chat not found"}, nil).Once()

	recorder := performJSON(t, handler.SendFile, http.MethodPost, "/send-file",
		`{"chatId":"12345","csvData":"a,b\n","fileName":"report.csv"}`)

	assert.Equal(t, http.StatusInternalServerError, recorder.Code)

	var response map[string]interface{}
	assert.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &response))
	assert.Equal(t, false, response["success"])
	assert.Equal(t, "Telegram API error: chat not found", response["error"])
}

func TestSendMessageDefaultsToHTMLParseMode(t *testing.T) {
	sender := new(MockSender)
	handler := NewHandler(sender, zap.NewNop())

	sender.On("SendMessage", mock.Anything, "12345", "stock is low", "HTML").
		Return(okResult(`{"ok":true}`), nil).Once()

	recorder := performJSON(t, handler.SendMessage, http.MethodPost, "/send-message",
		`{"chatId":"12345","text":"stock is low"}`)

	assert.Equal(t, http.StatusOK, recorder.Code)
	sender.AssertExpectations(t)
}

func TestSendMessageMissingText(t *testing.T) {
	sender := new(MockSender)
	handler := NewHandler(sender, zap.NewNop())

	recorder := performJSON(t, handler.SendMessage, http.MethodPost, "/send-message",
		`{"chatId":"12345"}`)

	assert.Equal(t, http.StatusBadRequest, recorder.Code)

	var response map[string]interface{}
	assert.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &response))
	assert.Equal(t, "Missing required parameters: chatId or text", response["error"])
}

func TestHealth(t *testing.T) {
	handler := NewHandler(new(MockSender), zap.NewNop())

	recorder := performJSON(t, handler.Health, http.MethodGet, "/health", "")

	assert.Equal(t, http.StatusOK, recorder.Code)

	var response map[string]interface{}
	assert.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &response))
	assert.Equal(t, "healthy", response["status"])
	assert.Equal(t, "telegram-api", response["service"])
	assert.NotEmpty(t, response["timestamp"])
}
