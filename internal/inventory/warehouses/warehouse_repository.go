package warehouses

import (
	"fmt"

	"github.com/doug-martin/goqu/v9"
	"github.com/lib/pq"

	"github.com/uggybe/storage-buddy-bot/internal/repository"
	apperrors "github.com/uggybe/storage-buddy-bot/pkg/errors"
	"github.com/uggybe/storage-buddy-bot/pkg/models"
)

type WarehouseRepository struct {
	repository *repository.Repository
}

func NewRepository(r *repository.Repository) *WarehouseRepository {
	return &WarehouseRepository{repository: r}
}

func (r *WarehouseRepository) GetWarehouses() ([]models.Warehouse, error) {
	var warehouses []models.Warehouse
	query := r.repository.GoquDBWrapper.
		Select("id", "name").
		From("warehouses").
		Order(goqu.I("name").Asc())

	if err := query.Executor().ScanStructs(&warehouses); err != nil {
		return nil, fmt.Errorf("error executing SQL statement for warehouses: %w", err)
	}

	return warehouses, nil
}

func (r *WarehouseRepository) GetWarehouse(id int) (*models.Warehouse, error) {
	var warehouse models.Warehouse
	query := r.repository.GoquDBWrapper.
		Select("id", "name").
		From("warehouses").
		Where(goqu.Ex{"id": id})

	found, err := query.Executor().ScanStruct(&warehouse)
	if err != nil {
		return nil, fmt.Errorf("failed to get warehouse: %w", err)
	}
	if !found {
		return nil, &apperrors.NotFoundError{Resource: "warehouse", ID: id}
	}

	return &warehouse, nil
}

func (r *WarehouseRepository) PersistWarehouse(name string) (*models.Warehouse, error) {
	query := r.repository.GoquDBWrapper.Insert("warehouses").
		Rows(goqu.Record{"name": name}).
		Returning("id")

	warehouse := models.Warehouse{Name: name}
	if _, err := query.Executor().ScanVal(&warehouse.ID); err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			return nil, apperrors.WrapDBError("Duplicate warehouse name", string(pqErr.Code))
		}
		return nil, fmt.Errorf("failed to insert warehouse record: %w", err)
	}

	return &warehouse, nil
}

func (r *WarehouseRepository) UpdateWarehouse(id int, name string) (int64, error) {
	query := r.repository.GoquDBWrapper.
		Update("warehouses").
		Set(goqu.Record{"name": name}).
		Where(goqu.Ex{"id": id})

	result, err := query.Executor().Exec()
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			return 0, apperrors.WrapDBError("Duplicate warehouse name", string(pqErr.Code))
		}
		return 0, fmt.Errorf("failed to update warehouse: %w", err)
	}

	return result.RowsAffected()
}

// DeleteWarehouse removes the row only; items keep the stale name.
func (r *WarehouseRepository) DeleteWarehouse(id int) (int64, error) {
	query := r.repository.GoquDBWrapper.
		Delete("warehouses").
		Where(goqu.Ex{"id": id})

	result, err := query.Executor().Exec()
	if err != nil {
		return 0, fmt.Errorf("failed to delete warehouse: %w", err)
	}

	return result.RowsAffected()
}
