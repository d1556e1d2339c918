package items

import (
	"fmt"

	"github.com/doug-martin/goqu/v9"
	"github.com/lib/pq"

	"github.com/uggybe/storage-buddy-bot/internal/repository"
	apperrors "github.com/uggybe/storage-buddy-bot/pkg/errors"
	"github.com/uggybe/storage-buddy-bot/pkg/models"
)

type ItemRepository struct {
	repository *repository.Repository
}

func NewRepository(r *repository.Repository) *ItemRepository {
	return &ItemRepository{repository: r}
}

func (r *ItemRepository) baseSelect() *goqu.SelectDataset {
	return r.repository.GoquDBWrapper.
		Select(
			goqu.I("i.id").As("id"),
			goqu.I("i.name").As("name"),
			goqu.I("i.manufacturer").As("manufacturer"),
			goqu.I("i.model").As("model"),
			goqu.I("i.category").As("category"),
			goqu.I("i.warehouse").As("warehouse"),
			goqu.I("i.kind").As("kind"),
			goqu.I("i.quantity").As("quantity"),
			goqu.I("i.holder_id").As("holder_id"),
			goqu.I("u.name").As("holder_name"),
			goqu.I("i.location").As("location"),
			goqu.I("i.notes").As("notes"),
			goqu.I("i.photos").As("photos"),
			goqu.I("c.critical_quantity").As("critical_quantity"),
		).
		From(goqu.T("items").As("i")).
		LeftJoin(
			goqu.T("categories").As("c"),
			goqu.On(goqu.Ex{"c.name": goqu.I("i.category")}),
		).
		LeftJoin(
			goqu.T("app_users").As("u"),
			goqu.On(goqu.Ex{"u.id": goqu.I("i.holder_id")}),
		)
}

func (r *ItemRepository) GetItem(id int) (*models.Item, error) {
	var flat models.FlatItemRecord
	query := r.baseSelect().Where(goqu.Ex{"i.id": id})

	found, err := query.Executor().ScanStruct(&flat)
	if err != nil {
		return nil, fmt.Errorf("error executing SQL statement for item: %w", err)
	}
	if !found {
		return nil, &apperrors.NotFoundError{Resource: "item", ID: id}
	}

	item := flat.TransformToItem()
	return &item, nil
}

type ListFilter struct {
	Category  string
	Warehouse string
	Kind      string
	Search    string
}

func (r *ItemRepository) GetItemsBy(filter ListFilter) ([]models.Item, error) {
	query := r.baseSelect().Order(goqu.I("i.name").Asc())

	if filter.Category != "" {
		query = query.Where(goqu.Ex{"i.category": filter.Category})
	}
	if filter.Warehouse != "" {
		query = query.Where(goqu.Ex{"i.warehouse": filter.Warehouse})
	}
	if filter.Kind != "" {
		query = query.Where(goqu.Ex{"i.kind": filter.Kind})
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		query = query.Where(goqu.Or(
			goqu.I("i.name").ILike(pattern),
			goqu.I("i.manufacturer").ILike(pattern),
			goqu.I("i.model").ILike(pattern),
		))
	}

	var flatItems []models.FlatItemRecord
	if err := query.Executor().ScanStructs(&flatItems); err != nil {
		return nil, fmt.Errorf("error executing SQL statement for items: %w", err)
	}

	items := make([]models.Item, 0, len(flatItems))
	for i := range flatItems {
		items = append(items, flatItems[i].TransformToItem())
	}

	return items, nil
}

func (r *ItemRepository) InsertItem(item *models.Item) (int, error) {
	query := r.repository.GoquDBWrapper.Insert("items").
		Rows(goqu.Record{
			"name":         item.Name,
			"manufacturer": item.Manufacturer,
			"model":        item.Model,
			"category":     item.Category,
			"warehouse":    item.Warehouse,
			"kind":         string(item.Kind),
			"quantity":     item.Quantity,
			"location":     item.Location,
			"notes":        item.Notes,
			"photos":       pq.StringArray{},
		}).
		Returning("id")

	var id int
	if _, err := query.Executor().ScanVal(&id); err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			return 0, apperrors.WrapDBError("item insert failed", string(pqErr.Code))
		}
		return 0, fmt.Errorf("failed to insert item record: %w", err)
	}

	return id, nil
}

func (r *ItemRepository) UpdateItem(id int, changes goqu.Record) (int64, error) {
	query := r.repository.GoquDBWrapper.
		Update("items").
		Set(changes).
		Where(goqu.Ex{"id": id})

	result, err := query.Executor().Exec()
	if err != nil {
		return 0, fmt.Errorf("failed to update item: %w", err)
	}

	return result.RowsAffected()
}

// TakeStock decrements a multiple item's quantity only when enough is
// available. The condition runs inside the UPDATE so concurrent takes
// cannot drive the quantity negative.
func (r *ItemRepository) TakeStock(id int, quantity int) (int64, error) {
	query := r.repository.GoquDBWrapper.
		Update("items").
		Set(goqu.Record{"quantity": goqu.L("quantity - ?", quantity)}).
		Where(goqu.Ex{"id": id, "kind": string(models.KindMultiple)}).
		Where(goqu.C("quantity").Gte(quantity))

	result, err := query.Executor().Exec()
	if err != nil {
		return 0, fmt.Errorf("failed to decrease quantity for item %d: %w", id, err)
	}

	return result.RowsAffected()
}

// AssignHolder sets the holder of a unit item only when it is unheld, a
// compare-and-set against a second taker.
func (r *ItemRepository) AssignHolder(id int, userID int) (int64, error) {
	query := r.repository.GoquDBWrapper.
		Update("items").
		Set(goqu.Record{"holder_id": userID}).
		Where(goqu.Ex{"id": id, "kind": string(models.KindUnit)}).
		Where(goqu.C("holder_id").IsNull())

	result, err := query.Executor().Exec()
	if err != nil {
		return 0, fmt.Errorf("failed to assign holder for item %d: %w", id, err)
	}

	return result.RowsAffected()
}

func (r *ItemRepository) ReturnStock(id int, quantity int, warehouse, location string) (int64, error) {
	query := r.repository.GoquDBWrapper.
		Update("items").
		Set(goqu.Record{
			"quantity":  goqu.L("quantity + ?", quantity),
			"warehouse": warehouse,
			"location":  location,
		}).
		Where(goqu.Ex{"id": id, "kind": string(models.KindMultiple)})

	result, err := query.Executor().Exec()
	if err != nil {
		return 0, fmt.Errorf("failed to increase quantity for item %d: %w", id, err)
	}

	return result.RowsAffected()
}

func (r *ItemRepository) ClearHolder(id int, warehouse, location string) (int64, error) {
	query := r.repository.GoquDBWrapper.
		Update("items").
		Set(goqu.Record{
			"holder_id": nil,
			"warehouse": warehouse,
			"location":  location,
		}).
		Where(goqu.Ex{"id": id, "kind": string(models.KindUnit)})

	result, err := query.Executor().Exec()
	if err != nil {
		return 0, fmt.Errorf("failed to clear holder for item %d: %w", id, err)
	}

	return result.RowsAffected()
}

func (r *ItemRepository) AddStock(id int, quantity int, location *string) (int64, error) {
	changes := goqu.Record{"quantity": goqu.L("quantity + ?", quantity)}
	if location != nil {
		changes["location"] = *location
	}

	query := r.repository.GoquDBWrapper.
		Update("items").
		Set(changes).
		Where(goqu.Ex{"id": id, "kind": string(models.KindMultiple)})

	result, err := query.Executor().Exec()
	if err != nil {
		return 0, fmt.Errorf("failed to replenish item %d: %w", id, err)
	}

	return result.RowsAffected()
}

// AppendPhotos extends the photo list in a single statement so
// concurrent attaches cannot overwrite each other's keys.
func (r *ItemRepository) AppendPhotos(id int, keys []string) (int64, error) {
	query := r.repository.GoquDBWrapper.
		Update("items").
		Set(goqu.Record{"photos": goqu.L("photos || ?", pq.StringArray(keys))}).
		Where(goqu.Ex{"id": id})

	result, err := query.Executor().Exec()
	if err != nil {
		return 0, fmt.Errorf("failed to append photos for item %d: %w", id, err)
	}

	return result.RowsAffected()
}

// RemovePhoto drops one key from the photo list. Zero rows means the
// key was not on the item (or the item is gone).
func (r *ItemRepository) RemovePhoto(id int, key string) (int64, error) {
	query := r.repository.GoquDBWrapper.
		Update("items").
		Set(goqu.Record{"photos": goqu.L("array_remove(photos, ?)", key)}).
		Where(goqu.Ex{"id": id}).
		Where(goqu.L("? = ANY(photos)", key))

	result, err := query.Executor().Exec()
	if err != nil {
		return 0, fmt.Errorf("failed to remove photo for item %d: %w", id, err)
	}

	return result.RowsAffected()
}

func (r *ItemRepository) DeleteItem(id int) (int64, error) {
	query := r.repository.GoquDBWrapper.
		Delete("items").
		Where(goqu.Ex{"id": id})

	result, err := query.Executor().Exec()
	if err != nil {
		return 0, fmt.Errorf("failed to delete item %d: %w", id, err)
	}

	return result.RowsAffected()
}
