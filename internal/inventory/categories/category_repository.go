package categories

import (
	"fmt"

	"github.com/doug-martin/goqu/v9"
	"github.com/lib/pq"

	"github.com/uggybe/storage-buddy-bot/internal/repository"
	apperrors "github.com/uggybe/storage-buddy-bot/pkg/errors"
	"github.com/uggybe/storage-buddy-bot/pkg/models"
)

type CategoryRepository struct {
	repository *repository.Repository
}

func NewRepository(r *repository.Repository) *CategoryRepository {
	return &CategoryRepository{repository: r}
}

func (r *CategoryRepository) GetCategories() ([]models.Category, error) {
	var categories []models.Category
	query := r.repository.GoquDBWrapper.
		Select("id", "name", "critical_quantity").
		From("categories").
		Order(goqu.I("name").Asc())

	if err := query.Executor().ScanStructs(&categories); err != nil {
		return nil, fmt.Errorf("error executing SQL statement for categories: %w", err)
	}

	return categories, nil
}

func (r *CategoryRepository) GetCategory(id int) (*models.Category, error) {
	var category models.Category
	query := r.repository.GoquDBWrapper.
		Select("id", "name", "critical_quantity").
		From("categories").
		Where(goqu.Ex{"id": id})

	found, err := query.Executor().ScanStruct(&category)
	if err != nil {
		return nil, fmt.Errorf("failed to get category: %w", err)
	}
	if !found {
		return nil, &apperrors.NotFoundError{Resource: "category", ID: id}
	}

	return &category, nil
}

func (r *CategoryRepository) PersistCategory(name string, criticalQuantity int) (*models.Category, error) {
	query := r.repository.GoquDBWrapper.Insert("categories").
		Rows(goqu.Record{
			"name":              name,
			"critical_quantity": criticalQuantity,
		}).
		Returning("id")

	category := models.Category{Name: name, CriticalQuantity: criticalQuantity}
	if _, err := query.Executor().ScanVal(&category.ID); err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			return nil, apperrors.WrapDBError("Duplicate category name", string(pqErr.Code))
		}
		return nil, fmt.Errorf("failed to insert category record: %w", err)
	}

	return &category, nil
}

func (r *CategoryRepository) UpdateCategory(id int, name string, criticalQuantity int) (int64, error) {
	query := r.repository.GoquDBWrapper.
		Update("categories").
		Set(goqu.Record{
			"name":              name,
			"critical_quantity": criticalQuantity,
		}).
		Where(goqu.Ex{"id": id})

	result, err := query.Executor().Exec()
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			return 0, apperrors.WrapDBError("Duplicate category name", string(pqErr.Code))
		}
		return 0, fmt.Errorf("failed to update category: %w", err)
	}

	return result.RowsAffected()
}

// DeleteCategory removes the row only. Items keep the category name they
// reference; reassignment is a manual follow-up.
func (r *CategoryRepository) DeleteCategory(id int) (int64, error) {
	query := r.repository.GoquDBWrapper.
		Delete("categories").
		Where(goqu.Ex{"id": id})

	result, err := query.Executor().Exec()
	if err != nil {
		return 0, fmt.Errorf("failed to delete category: %w", err)
	}

	return result.RowsAffected()
}
