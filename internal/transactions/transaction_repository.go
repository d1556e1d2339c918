package transactions

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"

	"github.com/uggybe/storage-buddy-bot/internal/repository"
	apperrors "github.com/uggybe/storage-buddy-bot/pkg/errors"
	"github.com/uggybe/storage-buddy-bot/pkg/models"

	"github.com/lib/pq"
)

// Repository is append-only: entries are never updated or deleted once
// written. The item and category names are stored as snapshots so the
// log stays meaningful after the referenced rows are renamed or gone.
type Repository struct {
	repository *repository.Repository
}

func NewRepository(r *repository.Repository) *Repository {
	return &Repository{repository: r}
}

func (r *Repository) Append(entry models.Transaction) error {
	detailsJSON, err := json.Marshal(entry.Details)
	if err != nil {
		return fmt.Errorf("failed to marshal transaction details: %w", err)
	}

	query := r.repository.GoquDBWrapper.Insert("transactions").
		Rows(goqu.Record{
			"user_id":       entry.UserID,
			"user_name":     entry.UserName,
			"action":        entry.Action,
			"quantity":      entry.Quantity,
			"item_name":     entry.ItemName,
			"category_name": entry.CategoryName,
			"details":       string(detailsJSON),
		})

	if _, err := query.Executor().Exec(); err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			return apperrors.WrapDBError("transaction insert failed", string(pqErr.Code))
		}
		return fmt.Errorf("failed to insert transaction: %w", err)
	}

	return nil
}

type Filter struct {
	Action   string
	ItemName string
	UserID   *int
	From     *time.Time
	To       *time.Time
	Limit    int
	Offset   int
}

func (r *Repository) List(filter Filter) ([]models.Transaction, error) {
	query := r.repository.GoquDBWrapper.
		Select("id", "user_id", "user_name", "action", "quantity", "item_name", "category_name", "details", "created_at").
		From("transactions").
		Order(goqu.I("created_at").Desc())

	if filter.Action != "" {
		query = query.Where(goqu.Ex{"action": filter.Action})
	}
	if filter.ItemName != "" {
		query = query.Where(goqu.Ex{"item_name": filter.ItemName})
	}
	if filter.UserID != nil {
		query = query.Where(goqu.Ex{"user_id": *filter.UserID})
	}
	if filter.From != nil {
		query = query.Where(goqu.C("created_at").Gte(*filter.From))
	}
	if filter.To != nil {
		query = query.Where(goqu.C("created_at").Lt(*filter.To))
	}
	if filter.Limit > 0 {
		query = query.Limit(uint(filter.Limit))
	}
	if filter.Offset > 0 {
		query = query.Offset(uint(filter.Offset))
	}

	var entries []models.Transaction
	if err := query.Executor().ScanStructs(&entries); err != nil {
		return nil, fmt.Errorf("error executing SQL statement for transactions: %w", err)
	}

	for i := range entries {
		entries[i].LoadFromDB()
	}

	return entries, nil
}
