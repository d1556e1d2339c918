package reports

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strconv"
	"time"

	"github.com/uggybe/storage-buddy-bot/pkg/models"
)

var csvHeader = []string{"date", "user", "action", "item", "category", "quantity", "details"}

// RenderCSV builds the transaction-log report that gets relayed to
// Telegram or appended to a sheet.
func RenderCSV(entries []models.Transaction) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(csvHeader); err != nil {
		return nil, err
	}

	for _, entry := range entries {
		if err := w.Write(csvRow(entry)); err != nil {
			return nil, err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func csvRow(entry models.Transaction) []string {
	details := ""
	if len(entry.Details) > 0 {
		if raw, err := json.Marshal(entry.Details); err == nil {
			details = string(raw)
		}
	}

	return []string{
		entry.CreatedAt.UTC().Format(time.RFC3339),
		entry.UserName,
		entry.Action,
		entry.ItemName,
		entry.CategoryName,
		strconv.Itoa(entry.Quantity),
		details,
	}
}
