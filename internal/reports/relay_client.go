package reports

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	apperrors "github.com/uggybe/storage-buddy-bot/pkg/errors"
)

// RelayClient hands a rendered report to the relay service for
// Telegram delivery.
type RelayClient struct {
	baseURL string
	http    *http.Client
}

func NewRelayClient(baseURL string) *RelayClient {
	return &RelayClient{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

type relayResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func (c *RelayClient) SendFile(ctx context.Context, chatID, fileName string, content []byte) error {
	payload, err := json.Marshal(map[string]string{
		"chatId":   chatID,
		"csvData":  string(content),
		"fileName": fileName,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/send-file", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("relay request failed: %w", err)
	}
	defer resp.Body.Close()

	var body relayResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return fmt.Errorf("failed to decode relay response: %w", err)
	}

	if !body.Success {
		return &apperrors.UpstreamError{Service: "relay", Description: body.Error}
	}

	return nil
}
