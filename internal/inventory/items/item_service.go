package items

import (
	"context"
	"strings"

	"github.com/doug-martin/goqu/v9"
	"go.uber.org/zap"

	apperrors "github.com/uggybe/storage-buddy-bot/pkg/errors"
	"github.com/uggybe/storage-buddy-bot/pkg/models"
)

type ItemStore interface {
	GetItem(id int) (*models.Item, error)
	GetItemsBy(filter ListFilter) ([]models.Item, error)
	InsertItem(item *models.Item) (int, error)
	UpdateItem(id int, changes goqu.Record) (int64, error)
	TakeStock(id int, quantity int) (int64, error)
	AssignHolder(id int, userID int) (int64, error)
	ReturnStock(id int, quantity int, warehouse, location string) (int64, error)
	ClearHolder(id int, warehouse, location string) (int64, error)
	AddStock(id int, quantity int, location *string) (int64, error)
	DeleteItem(id int) (int64, error)
}

type Recorder interface {
	Append(entry models.Transaction) error
}

type BlobRemover interface {
	Delete(ctx context.Context, key string) error
}

// ItemService enforces the legal transitions on items. Every mutation
// orders the item write before the audit append; a failed append is
// logged and does not undo the mutation.
type ItemService struct {
	store ItemStore
	audit Recorder
	blobs BlobRemover
	log   *zap.Logger
}

func NewItemService(store ItemStore, audit Recorder, blobs BlobRemover, log *zap.Logger) *ItemService {
	return &ItemService{store: store, audit: audit, blobs: blobs, log: log}
}

func (s *ItemService) Get(id int) (*models.Item, error) {
	item, err := s.store.GetItem(id)
	if err != nil {
		return nil, err
	}
	item.Status = DeriveStatus(item)
	return item, nil
}

func (s *ItemService) List(filter ListFilter) ([]models.Item, error) {
	items, err := s.store.GetItemsBy(filter)
	if err != nil {
		return nil, err
	}
	for i := range items {
		items[i].Status = DeriveStatus(&items[i])
	}
	return items, nil
}

func (s *ItemService) Create(actor models.Actor, req CreateItemRequest) (*models.Item, error) {
	item, err := itemFromRequest(req.Name, req.Manufacturer, req.Model, req.Category,
		req.Warehouse, req.ItemType, req.Quantity, req.Location, req.Notes)
	if err != nil {
		return nil, err
	}

	id, err := s.store.InsertItem(item)
	if err != nil {
		return nil, err
	}
	item.ID = id

	s.record(models.Transaction{
		UserID:       &actor.ID,
		UserName:     actor.Name,
		Action:       models.ActionCreated,
		Quantity:     item.Quantity,
		ItemName:     item.Name,
		CategoryName: item.Category,
		Details: map[string]interface{}{
			"warehouse": item.Warehouse,
			"location":  item.Location,
		},
	})

	item.Status = DeriveStatus(item)
	return item, nil
}

func (s *ItemService) Edit(actor models.Actor, id int, req EditItemRequest) (*models.Item, error) {
	current, err := s.store.GetItem(id)
	if err != nil {
		return nil, err
	}

	next, err := itemFromRequest(req.Name, req.Manufacturer, req.Model, req.Category,
		req.Warehouse, req.ItemType, req.Quantity, req.Location, req.Notes)
	if err != nil {
		return nil, err
	}

	// A held unit item cannot change kind: the holder reference only
	// makes sense for unit items.
	if current.Kind == models.KindUnit && next.Kind != models.KindUnit && current.HolderID != nil {
		return nil, apperrors.NewValidationError("item_type", "cannot change the kind of a held item")
	}

	diff, changes := fieldDiff(current, next)

	if len(changes) > 0 {
		affected, err := s.store.UpdateItem(id, changes)
		if err != nil {
			return nil, err
		}
		if affected == 0 {
			return nil, &apperrors.NotFoundError{Resource: "item", ID: id}
		}
	}

	// The diff payload carries only fields that actually changed; an
	// edit that changes nothing still leaves an audit entry.
	s.record(models.Transaction{
		UserID:       &actor.ID,
		UserName:     actor.Name,
		Action:       models.ActionEdited,
		Quantity:     0,
		ItemName:     next.Name,
		CategoryName: next.Category,
		Details:      diff,
	})

	return s.Get(id)
}

func (s *ItemService) Take(actor models.Actor, id int, req TakeItemRequest) (*models.Item, error) {
	purpose := strings.TrimSpace(req.Purpose)
	if purpose == "" {
		return nil, apperrors.NewValidationError("purpose", "must not be blank")
	}

	item, err := s.store.GetItem(id)
	if err != nil {
		return nil, err
	}

	switch item.Kind {
	case models.KindUnit:
		if item.HolderID != nil {
			holder := ""
			if item.HolderName != nil {
				holder = *item.HolderName
			}
			return nil, &apperrors.AlreadyHeldError{Holder: holder}
		}

		affected, err := s.store.AssignHolder(id, actor.ID)
		if err != nil {
			return nil, err
		}
		if affected == 0 {
			// Lost the compare-and-set to a concurrent taker.
			return nil, &apperrors.AlreadyHeldError{}
		}

		s.record(models.Transaction{
			UserID:       &actor.ID,
			UserName:     actor.Name,
			Action:       models.ActionTaken,
			Quantity:     1,
			ItemName:     item.Name,
			CategoryName: item.Category,
			Details:      map[string]interface{}{"purpose": purpose},
		})

	case models.KindMultiple:
		quantity := req.Quantity
		if quantity == 0 {
			quantity = 1
		}
		if quantity < 1 {
			return nil, apperrors.NewValidationError("quantity", "must be at least 1")
		}
		if quantity > item.Quantity {
			return nil, &apperrors.InsufficientStockError{Requested: quantity, Available: item.Quantity}
		}

		affected, err := s.store.TakeStock(id, quantity)
		if err != nil {
			return nil, err
		}
		if affected == 0 {
			// A concurrent take drained the stock between read and
			// update; report the fresh availability.
			fresh, err := s.store.GetItem(id)
			if err != nil {
				return nil, err
			}
			return nil, &apperrors.InsufficientStockError{Requested: quantity, Available: fresh.Quantity}
		}

		s.record(models.Transaction{
			UserID:       &actor.ID,
			UserName:     actor.Name,
			Action:       models.ActionTaken,
			Quantity:     quantity,
			ItemName:     item.Name,
			CategoryName: item.Category,
			Details:      map[string]interface{}{"purpose": purpose},
		})
	}

	return s.Get(id)
}

// Return clears a unit item's holder without verifying the actor is the
// holder: any teammate may return on the holder's behalf.
func (s *ItemService) Return(actor models.Actor, id int, req ReturnItemRequest) (*models.Item, error) {
	warehouse := strings.TrimSpace(req.Warehouse)
	location := strings.TrimSpace(req.LocationDetails)
	if warehouse == "" {
		return nil, apperrors.NewValidationError("warehouse", "must not be blank")
	}
	if location == "" {
		return nil, apperrors.NewValidationError("location_details", "must not be blank")
	}

	item, err := s.store.GetItem(id)
	if err != nil {
		return nil, err
	}

	effective := 1
	switch item.Kind {
	case models.KindUnit:
		affected, err := s.store.ClearHolder(id, warehouse, location)
		if err != nil {
			return nil, err
		}
		if affected == 0 {
			return nil, &apperrors.NotFoundError{Resource: "item", ID: id}
		}

	case models.KindMultiple:
		if req.Quantity > 0 {
			effective = req.Quantity
		}
		affected, err := s.store.ReturnStock(id, effective, warehouse, location)
		if err != nil {
			return nil, err
		}
		if affected == 0 {
			return nil, &apperrors.NotFoundError{Resource: "item", ID: id}
		}
	}

	s.record(models.Transaction{
		UserID:       &actor.ID,
		UserName:     actor.Name,
		Action:       models.ActionReturned,
		Quantity:     effective,
		ItemName:     item.Name,
		CategoryName: item.Category,
		Details: map[string]interface{}{
			"warehouse":        warehouse,
			"location_details": location,
		},
	})

	return s.Get(id)
}

func (s *ItemService) Replenish(actor models.Actor, id int, req ReplenishItemRequest) (*models.Item, error) {
	if req.Quantity <= 0 {
		return nil, apperrors.NewValidationError("quantity", "must be greater than zero")
	}

	item, err := s.store.GetItem(id)
	if err != nil {
		return nil, err
	}
	if item.Kind == models.KindUnit {
		// A unit item's quantity is pinned to 1.
		return nil, apperrors.NewValidationError("item_type", "unit items cannot be replenished")
	}

	affected, err := s.store.AddStock(id, req.Quantity, req.Location)
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, &apperrors.NotFoundError{Resource: "item", ID: id}
	}

	details := map[string]interface{}{
		"before": item.Quantity,
		"after":  item.Quantity + req.Quantity,
	}
	if req.Location != nil {
		details["location"] = *req.Location
	}

	s.record(models.Transaction{
		UserID:       &actor.ID,
		UserName:     actor.Name,
		Action:       models.ActionReplenished,
		Quantity:     req.Quantity,
		ItemName:     item.Name,
		CategoryName: item.Category,
		Details:      details,
	})

	return s.Get(id)
}

// Delete snapshots the item into the audit log before removing the row,
// then cleans up photo blobs best-effort. A blob that fails to delete is
// logged and never blocks the row deletion.
func (s *ItemService) Delete(ctx context.Context, actor models.Actor, id int) error {
	item, err := s.store.GetItem(id)
	if err != nil {
		return err
	}

	s.record(models.Transaction{
		UserID:       &actor.ID,
		UserName:     actor.Name,
		Action:       models.ActionDeleted,
		Quantity:     item.Quantity,
		ItemName:     item.Name,
		CategoryName: item.Category,
		Details: map[string]interface{}{
			"model":        item.Model,
			"manufacturer": item.Manufacturer,
			"warehouse":    item.Warehouse,
			"item_type":    string(item.Kind),
			"location":     item.Location,
		},
	})

	affected, err := s.store.DeleteItem(id)
	if err != nil {
		return err
	}
	if affected == 0 {
		return &apperrors.NotFoundError{Resource: "item", ID: id}
	}

	for _, key := range item.Photos {
		if err := s.blobs.Delete(ctx, key); err != nil {
			s.log.Warn("failed to delete photo blob",
				zap.Int("item_id", id), zap.String("key", key), zap.Error(err))
		}
	}

	return nil
}

func (s *ItemService) record(entry models.Transaction) {
	if err := s.audit.Append(entry); err != nil {
		s.log.Error("failed to append transaction",
			zap.String("action", entry.Action), zap.String("item", entry.ItemName), zap.Error(err))
	}
}

func itemFromRequest(name, manufacturer, model, category, warehouse, itemType string, quantity int, location, notes string) (*models.Item, error) {
	fields := map[string]string{
		"name":         strings.TrimSpace(name),
		"manufacturer": strings.TrimSpace(manufacturer),
		"model":        strings.TrimSpace(model),
		"category":     strings.TrimSpace(category),
		"warehouse":    strings.TrimSpace(warehouse),
		"location":     strings.TrimSpace(location),
	}
	for _, field := range []string{"name", "manufacturer", "model", "category", "warehouse", "location"} {
		if fields[field] == "" {
			return nil, apperrors.NewValidationError(field, "must not be blank")
		}
	}

	kind := models.ItemKind(itemType)
	if itemType == "" {
		kind = models.KindMultiple
	}
	if kind != models.KindUnit && kind != models.KindMultiple {
		return nil, apperrors.NewValidationError("item_type", "must be unit or multiple")
	}

	if kind == models.KindUnit {
		quantity = 1
	} else if quantity < 0 {
		return nil, apperrors.NewValidationError("quantity", "must not be negative")
	}

	return &models.Item{
		Name:         fields["name"],
		Manufacturer: fields["manufacturer"],
		Model:        fields["model"],
		Category:     fields["category"],
		Warehouse:    fields["warehouse"],
		Kind:         kind,
		Quantity:     quantity,
		Location:     fields["location"],
		Notes:        strings.TrimSpace(notes),
	}, nil
}

// fieldDiff returns the audit diff payload (old/new per changed field)
// and the column changes to persist. Unchanged fields appear in neither.
func fieldDiff(current, next *models.Item) (map[string]interface{}, goqu.Record) {
	diff := map[string]interface{}{}
	changes := goqu.Record{}

	compare := func(field, column string, oldVal, newVal interface{}) {
		if oldVal == newVal {
			return
		}
		diff[field] = map[string]interface{}{"old": oldVal, "new": newVal}
		changes[column] = newVal
	}

	compare("name", "name", current.Name, next.Name)
	compare("manufacturer", "manufacturer", current.Manufacturer, next.Manufacturer)
	compare("model", "model", current.Model, next.Model)
	compare("category", "category", current.Category, next.Category)
	compare("warehouse", "warehouse", current.Warehouse, next.Warehouse)
	compare("item_type", "kind", string(current.Kind), string(next.Kind))
	compare("quantity", "quantity", current.Quantity, next.Quantity)
	compare("location", "location", current.Location, next.Location)
	compare("notes", "notes", current.Notes, next.Notes)

	return diff, changes
}
