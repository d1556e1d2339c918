package reports

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/uggybe/storage-buddy-bot/internal/transactions"
	apperrors "github.com/uggybe/storage-buddy-bot/pkg/errors"
	"github.com/uggybe/storage-buddy-bot/pkg/models"
)

type TransactionSource interface {
	List(filter transactions.Filter) ([]models.Transaction, error)
}

type FileDispatcher interface {
	SendFile(ctx context.Context, chatID, fileName string, content []byte) error
}

type SheetAppender interface {
	AppendTransactions(spreadsheetID string, entries []models.Transaction) error
}

type Service struct {
	source TransactionSource
	relay  FileDispatcher
	sheets SheetAppender // nil when the sheets sink is not configured
	log    *zap.Logger
}

func NewService(source TransactionSource, relay FileDispatcher, sheets SheetAppender, log *zap.Logger) *Service {
	return &Service{source: source, relay: relay, sheets: sheets, log: log}
}

type ExportRequest struct {
	Target        string `json:"target" binding:"required"`
	ChatID        string `json:"chat_id"`
	SpreadsheetID string `json:"spreadsheet_id"`
	Action        string `json:"action"`
	ItemName      string `json:"item"`
}

type ExportResult struct {
	Target   string `json:"target"`
	Entries  int    `json:"entries"`
	FileName string `json:"file_name,omitempty"`
}

func (s *Service) Export(ctx context.Context, req ExportRequest) (*ExportResult, error) {
	entries, err := s.source.List(transactions.Filter{
		Action:   req.Action,
		ItemName: req.ItemName,
	})
	if err != nil {
		return nil, err
	}

	switch req.Target {
	case "telegram":
		if req.ChatID == "" {
			return nil, apperrors.NewValidationError("chat_id", "required for telegram export")
		}

		content, err := RenderCSV(entries)
		if err != nil {
			return nil, fmt.Errorf("failed to render report: %w", err)
		}

		fileName := fmt.Sprintf("transactions-%s.csv", time.Now().UTC().Format("2006-01-02"))
		if err := s.relay.SendFile(ctx, req.ChatID, fileName, content); err != nil {
			return nil, err
		}

		s.log.Info("exported transaction log", zap.String("target", "telegram"), zap.Int("entries", len(entries)))
		return &ExportResult{Target: "telegram", Entries: len(entries), FileName: fileName}, nil

	case "sheet":
		if s.sheets == nil {
			return nil, apperrors.NewValidationError("target", "sheet export is not configured")
		}
		if req.SpreadsheetID == "" {
			return nil, apperrors.NewValidationError("spreadsheet_id", "required for sheet export")
		}

		if err := s.sheets.AppendTransactions(req.SpreadsheetID, entries); err != nil {
			return nil, err
		}

		s.log.Info("exported transaction log", zap.String("target", "sheet"), zap.Int("entries", len(entries)))
		return &ExportResult{Target: "sheet", Entries: len(entries)}, nil

	default:
		return nil, apperrors.NewValidationError("target", "must be telegram or sheet")
	}
}
