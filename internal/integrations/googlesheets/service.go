package googlesheets

import (
	"context"
	"fmt"
	"os"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/sheets/v4"

	"github.com/uggybe/storage-buddy-bot/pkg/models"
)

// ExportService appends transaction-log rows to a spreadsheet, an
// alternative report sink to the Telegram relay.
type ExportService struct {
	sheetsService *sheets.Service
}

func NewExportService(ctx context.Context) (*ExportService, error) {
	credentialsJSON := os.Getenv("GOOGLE_SHEETS_CREDENTIALS_JSON")
	var credentials *google.Credentials
	var err error

	if credentialsJSON != "" {
		credentials, err = google.CredentialsFromJSON(ctx, []byte(credentialsJSON), sheets.SpreadsheetsScope)
	} else {
		credentialsFile := os.Getenv("GOOGLE_SHEETS_CREDENTIALS_FILE")
		if credentialsFile == "" {
			credentialsFile = "configs/google-credentials.json"
		}
		var b []byte
		b, err = os.ReadFile(credentialsFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read Google credentials file: %w", err)
		}
		credentials, err = google.CredentialsFromJSON(ctx, b, sheets.SpreadsheetsScope)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load Google credentials: %w", err)
	}

	client := oauth2.NewClient(ctx, credentials.TokenSource)
	sheetsService, err := sheets.New(client)
	if err != nil {
		return nil, fmt.Errorf("failed to create Google Sheets client: %w", err)
	}

	return &ExportService{sheetsService: sheetsService}, nil
}

func (s *ExportService) AppendTransactions(spreadsheetID string, entries []models.Transaction) error {
	values := make([][]interface{}, 0, len(entries))
	for _, entry := range entries {
		values = append(values, []interface{}{
			entry.CreatedAt.UTC().Format(time.RFC3339),
			entry.UserName,
			entry.Action,
			entry.ItemName,
			entry.CategoryName,
			entry.Quantity,
		})
	}

	valueRange := &sheets.ValueRange{Values: values}
	_, err := s.sheetsService.Spreadsheets.Values.
		Append(spreadsheetID, "A1", valueRange).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Do()
	if err != nil {
		return fmt.Errorf("failed to append rows to spreadsheet: %w", err)
	}

	return nil
}
