package items

import (
	"context"
	"errors"
	"testing"

	"github.com/doug-martin/goqu/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	apperrors "github.com/uggybe/storage-buddy-bot/pkg/errors"
	"github.com/uggybe/storage-buddy-bot/pkg/models"
)

type MockItemStore struct {
	mock.Mock
}

func (m *MockItemStore) GetItem(id int) (*models.Item, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Item), args.Error(1)
}

func (m *MockItemStore) GetItemsBy(filter ListFilter) ([]models.Item, error) {
	args := m.Called(filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Item), args.Error(1)
}

func (m *MockItemStore) InsertItem(item *models.Item) (int, error) {
	args := m.Called(item)
	return args.Int(0), args.Error(1)
}

func (m *MockItemStore) UpdateItem(id int, changes goqu.Record) (int64, error) {
	args := m.Called(id, changes)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockItemStore) TakeStock(id int, quantity int) (int64, error) {
	args := m.Called(id, quantity)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockItemStore) AssignHolder(id int, userID int) (int64, error) {
	args := m.Called(id, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockItemStore) ReturnStock(id int, quantity int, warehouse, location string) (int64, error) {
	args := m.Called(id, quantity, warehouse, location)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockItemStore) ClearHolder(id int, warehouse, location string) (int64, error) {
	args := m.Called(id, warehouse, location)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockItemStore) AddStock(id int, quantity int, location *string) (int64, error) {
	args := m.Called(id, quantity, location)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockItemStore) DeleteItem(id int) (int64, error) {
	args := m.Called(id)
	return args.Get(0).(int64), args.Error(1)
}

type MockRecorder struct {
	mock.Mock
}

func (m *MockRecorder) Append(entry models.Transaction) error {
	args := m.Called(entry)
	return args.Error(0)
}

type MockBlobRemover struct {
	mock.Mock
}

func (m *MockBlobRemover) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func newTestService() (*ItemService, *MockItemStore, *MockRecorder, *MockBlobRemover) {
	store := new(MockItemStore)
	audit := new(MockRecorder)
	blobs := new(MockBlobRemover)
	service := NewItemService(store, audit, blobs, zap.NewNop())
	return service, store, audit, blobs
}

func drillItem() *models.Item {
	return &models.Item{
		ID:           1,
		Name:         "Drill",
		Manufacturer: "Bosch",
		Model:        "GSB13",
		Category:     "Tools",
		Warehouse:    "Cold",
		Kind:         models.KindMultiple,
		Quantity:     10,
		Location:     "Shelf 3",
	}
}

func actionMatcher(action string, quantity int) interface{} {
	return mock.MatchedBy(func(entry models.Transaction) bool {
		return entry.Action == action && entry.Quantity == quantity
	})
}

var actor = models.Actor{ID: 7, Name: "Anna"}

func TestTakeMultipleItem(t *testing.T) {
	service, store, audit, _ := newTestService()

	store.On("GetItem", 1).Return(drillItem(), nil)
	store.On("TakeStock", 1, 3).Return(int64(1), nil).Once()
	audit.On("Append", actionMatcher(models.ActionTaken, 3)).Return(nil).Once()

	_, err := service.Take(actor, 1, TakeItemRequest{Quantity: 3, Purpose: "repair"})

	assert.NoError(t, err)
	store.AssertExpectations(t)
	audit.AssertExpectations(t)
}

func TestTakeMoreThanAvailable(t *testing.T) {
	service, store, audit, _ := newTestService()

	store.On("GetItem", 1).Return(drillItem(), nil)

	_, err := service.Take(actor, 1, TakeItemRequest{Quantity: 11, Purpose: "repair"})

	var insufficient *apperrors.InsufficientStockError
	assert.ErrorAs(t, err, &insufficient)
	assert.Equal(t, 11, insufficient.Requested)
	assert.Equal(t, 10, insufficient.Available)
	audit.AssertNotCalled(t, "Append", mock.Anything)
	store.AssertNotCalled(t, "TakeStock", mock.Anything, mock.Anything)
}

func TestTakeLosesRaceToConcurrentTaker(t *testing.T) {
	service, store, audit, _ := newTestService()

	item := drillItem()
	item.Quantity = 3
	drained := drillItem()
	drained.Quantity = 1

	store.On("GetItem", 1).Return(item, nil).Once()
	store.On("TakeStock", 1, 3).Return(int64(0), nil).Once()
	store.On("GetItem", 1).Return(drained, nil).Once()

	_, err := service.Take(actor, 1, TakeItemRequest{Quantity: 3, Purpose: "repair"})

	var insufficient *apperrors.InsufficientStockError
	assert.ErrorAs(t, err, &insufficient)
	assert.Equal(t, 1, insufficient.Available)
	audit.AssertNotCalled(t, "Append", mock.Anything)
}

func TestTakeRequiresPurpose(t *testing.T) {
	service, store, audit, _ := newTestService()

	_, err := service.Take(actor, 1, TakeItemRequest{Quantity: 1, Purpose: "   "})

	var validation *apperrors.ValidationError
	assert.ErrorAs(t, err, &validation)
	store.AssertNotCalled(t, "GetItem", mock.Anything)
	audit.AssertNotCalled(t, "Append", mock.Anything)
}

func TestTakeUnitItem(t *testing.T) {
	service, store, audit, _ := newTestService()

	item := drillItem()
	item.Kind = models.KindUnit
	item.Quantity = 1

	store.On("GetItem", 1).Return(item, nil)
	store.On("AssignHolder", 1, actor.ID).Return(int64(1), nil).Once()
	audit.On("Append", actionMatcher(models.ActionTaken, 1)).Return(nil).Once()

	_, err := service.Take(actor, 1, TakeItemRequest{Purpose: "survey"})

	assert.NoError(t, err)
	store.AssertExpectations(t)
	audit.AssertExpectations(t)
}

func TestTakeHeldUnitItem(t *testing.T) {
	service, store, audit, _ := newTestService()

	holderID := 3
	holderName := "Boris"
	item := drillItem()
	item.Kind = models.KindUnit
	item.Quantity = 1
	item.HolderID = &holderID
	item.HolderName = &holderName

	store.On("GetItem", 1).Return(item, nil)

	_, err := service.Take(actor, 1, TakeItemRequest{Purpose: "survey"})

	var held *apperrors.AlreadyHeldError
	assert.ErrorAs(t, err, &held)
	assert.Equal(t, "Boris", held.Holder)
	store.AssertNotCalled(t, "AssignHolder", mock.Anything, mock.Anything)
	audit.AssertNotCalled(t, "Append", mock.Anything)
}

func TestTakeUnitItemLosesRace(t *testing.T) {
	service, store, audit, _ := newTestService()

	item := drillItem()
	item.Kind = models.KindUnit
	item.Quantity = 1

	store.On("GetItem", 1).Return(item, nil)
	store.On("AssignHolder", 1, actor.ID).Return(int64(0), nil).Once()

	_, err := service.Take(actor, 1, TakeItemRequest{Purpose: "survey"})

	var held *apperrors.AlreadyHeldError
	assert.ErrorAs(t, err, &held)
	audit.AssertNotCalled(t, "Append", mock.Anything)
}

func TestReturnMultipleItemOverwritesPlacement(t *testing.T) {
	service, store, audit, _ := newTestService()

	store.On("GetItem", 1).Return(drillItem(), nil)
	store.On("ReturnStock", 1, 2, "Warm", "Rack 5").Return(int64(1), nil).Once()
	audit.On("Append", actionMatcher(models.ActionReturned, 2)).Return(nil).Once()

	_, err := service.Return(actor, 1, ReturnItemRequest{
		Quantity:        2,
		Warehouse:       "Warm",
		LocationDetails: "Rack 5",
	})

	assert.NoError(t, err)
	store.AssertExpectations(t)
	audit.AssertExpectations(t)
}

func TestReturnUnitItemClearsHolder(t *testing.T) {
	service, store, audit, _ := newTestService()

	holderID := 3
	item := drillItem()
	item.Kind = models.KindUnit
	item.Quantity = 1
	item.HolderID = &holderID

	store.On("GetItem", 1).Return(item, nil)
	store.On("ClearHolder", 1, "Cold", "Shelf 3").Return(int64(1), nil).Once()
	audit.On("Append", actionMatcher(models.ActionReturned, 1)).Return(nil).Once()

	_, err := service.Return(actor, 1, ReturnItemRequest{
		Warehouse:       "Cold",
		LocationDetails: "Shelf 3",
	})

	assert.NoError(t, err)
	store.AssertExpectations(t)
}

func TestReturnRequiresLocationDetails(t *testing.T) {
	service, store, _, _ := newTestService()

	_, err := service.Return(actor, 1, ReturnItemRequest{Warehouse: "Cold"})

	var validation *apperrors.ValidationError
	assert.ErrorAs(t, err, &validation)
	store.AssertNotCalled(t, "GetItem", mock.Anything)
}

func TestReplenishAddsStock(t *testing.T) {
	service, store, audit, _ := newTestService()

	store.On("GetItem", 1).Return(drillItem(), nil)
	store.On("AddStock", 1, 5, (*string)(nil)).Return(int64(1), nil).Once()
	audit.On("Append", mock.MatchedBy(func(entry models.Transaction) bool {
		return entry.Action == models.ActionReplenished &&
			entry.Quantity == 5 &&
			entry.Details["before"] == 10 &&
			entry.Details["after"] == 15
	})).Return(nil).Once()

	_, err := service.Replenish(actor, 1, ReplenishItemRequest{Quantity: 5})

	assert.NoError(t, err)
	store.AssertExpectations(t)
	audit.AssertExpectations(t)
}

func TestReplenishRejectsUnitItem(t *testing.T) {
	service, store, audit, _ := newTestService()

	item := drillItem()
	item.Kind = models.KindUnit
	item.Quantity = 1

	store.On("GetItem", 1).Return(item, nil)

	_, err := service.Replenish(actor, 1, ReplenishItemRequest{Quantity: 5})

	var validation *apperrors.ValidationError
	assert.ErrorAs(t, err, &validation)
	store.AssertNotCalled(t, "AddStock", mock.Anything, mock.Anything, mock.Anything)
	audit.AssertNotCalled(t, "Append", mock.Anything)
}

func TestReplenishRejectsNonPositiveQuantity(t *testing.T) {
	service, store, _, _ := newTestService()

	_, err := service.Replenish(actor, 1, ReplenishItemRequest{Quantity: 0})

	var validation *apperrors.ValidationError
	assert.ErrorAs(t, err, &validation)
	store.AssertNotCalled(t, "GetItem", mock.Anything)
}

func TestCreateItem(t *testing.T) {
	service, store, audit, _ := newTestService()

	store.On("InsertItem", mock.MatchedBy(func(item *models.Item) bool {
		return item.Name == "Drill" && item.Kind == models.KindMultiple && item.Quantity == 10
	})).Return(1, nil).Once()
	audit.On("Append", actionMatcher(models.ActionCreated, 10)).Return(nil).Once()

	item, err := service.Create(actor, CreateItemRequest{
		Name:         "Drill",
		Manufacturer: "Bosch",
		Model:        "GSB13",
		Category:     "Tools",
		Warehouse:    "Cold",
		ItemType:     "multiple",
		Quantity:     10,
		Location:     "Shelf 3",
	})

	assert.NoError(t, err)
	assert.Equal(t, 1, item.ID)
	store.AssertExpectations(t)
	audit.AssertExpectations(t)
}

func TestCreateForcesUnitQuantityToOne(t *testing.T) {
	service, store, audit, _ := newTestService()

	store.On("InsertItem", mock.MatchedBy(func(item *models.Item) bool {
		return item.Kind == models.KindUnit && item.Quantity == 1
	})).Return(2, nil).Once()
	audit.On("Append", actionMatcher(models.ActionCreated, 1)).Return(nil).Once()

	item, err := service.Create(actor, CreateItemRequest{
		Name:         "Ladder",
		Manufacturer: "Krause",
		Model:        "Corda",
		Category:     "Tools",
		Warehouse:    "Warm",
		ItemType:     "unit",
		Quantity:     9,
		Location:     "Wall hook",
	})

	assert.NoError(t, err)
	assert.Equal(t, 1, item.Quantity)
}

func TestCreateRejectsBlankRequiredField(t *testing.T) {
	service, store, _, _ := newTestService()

	_, err := service.Create(actor, CreateItemRequest{
		Name:         "Drill",
		Manufacturer: "  ",
		Model:        "GSB13",
		Category:     "Tools",
		Warehouse:    "Cold",
		Location:     "Shelf 3",
	})

	var validation *apperrors.ValidationError
	assert.ErrorAs(t, err, &validation)
	assert.Equal(t, "manufacturer", validation.Field)
	store.AssertNotCalled(t, "InsertItem", mock.Anything)
}

func TestEditWithSameFieldsRecordsEmptyDiff(t *testing.T) {
	service, store, audit, _ := newTestService()

	store.On("GetItem", 1).Return(drillItem(), nil)
	audit.On("Append", mock.MatchedBy(func(entry models.Transaction) bool {
		return entry.Action == models.ActionEdited && entry.Quantity == 0 && len(entry.Details) == 0
	})).Return(nil).Once()

	_, err := service.Edit(actor, 1, EditItemRequest{
		Name:         "Drill",
		Manufacturer: "Bosch",
		Model:        "GSB13",
		Category:     "Tools",
		Warehouse:    "Cold",
		ItemType:     "multiple",
		Quantity:     10,
		Location:     "Shelf 3",
	})

	assert.NoError(t, err)
	store.AssertNotCalled(t, "UpdateItem", mock.Anything, mock.Anything)
	audit.AssertExpectations(t)
}

func TestEditRecordsOnlyChangedFields(t *testing.T) {
	service, store, audit, _ := newTestService()

	store.On("GetItem", 1).Return(drillItem(), nil)
	store.On("UpdateItem", 1, mock.MatchedBy(func(changes goqu.Record) bool {
		_, hasWarehouse := changes["warehouse"]
		return len(changes) == 1 && hasWarehouse
	})).Return(int64(1), nil).Once()
	audit.On("Append", mock.MatchedBy(func(entry models.Transaction) bool {
		if entry.Action != models.ActionEdited || len(entry.Details) != 1 {
			return false
		}
		change, ok := entry.Details["warehouse"].(map[string]interface{})
		return ok && change["old"] == "Cold" && change["new"] == "Warm"
	})).Return(nil).Once()

	_, err := service.Edit(actor, 1, EditItemRequest{
		Name:         "Drill",
		Manufacturer: "Bosch",
		Model:        "GSB13",
		Category:     "Tools",
		Warehouse:    "Warm",
		ItemType:     "multiple",
		Quantity:     10,
		Location:     "Shelf 3",
	})

	assert.NoError(t, err)
	store.AssertExpectations(t)
	audit.AssertExpectations(t)
}

func TestEditRejectsKindChangeWhileHeld(t *testing.T) {
	service, store, audit, _ := newTestService()

	holderID := 3
	item := drillItem()
	item.Kind = models.KindUnit
	item.Quantity = 1
	item.HolderID = &holderID

	store.On("GetItem", 1).Return(item, nil)

	_, err := service.Edit(actor, 1, EditItemRequest{
		Name:         "Drill",
		Manufacturer: "Bosch",
		Model:        "GSB13",
		Category:     "Tools",
		Warehouse:    "Cold",
		ItemType:     "multiple",
		Quantity:     10,
		Location:     "Shelf 3",
	})

	var validation *apperrors.ValidationError
	assert.ErrorAs(t, err, &validation)
	assert.Equal(t, "item_type", validation.Field)
	store.AssertNotCalled(t, "UpdateItem", mock.Anything, mock.Anything)
	audit.AssertNotCalled(t, "Append", mock.Anything)
}

func TestEditAllowsKindChangeWhenUnheld(t *testing.T) {
	service, store, audit, _ := newTestService()

	item := drillItem()
	item.Kind = models.KindUnit
	item.Quantity = 1

	store.On("GetItem", 1).Return(item, nil)
	store.On("UpdateItem", 1, mock.MatchedBy(func(changes goqu.Record) bool {
		return changes["kind"] == "multiple" && changes["quantity"] == 10
	})).Return(int64(1), nil).Once()
	audit.On("Append", mock.Anything).Return(nil).Once()

	_, err := service.Edit(actor, 1, EditItemRequest{
		Name:         "Drill",
		Manufacturer: "Bosch",
		Model:        "GSB13",
		Category:     "Tools",
		Warehouse:    "Cold",
		ItemType:     "multiple",
		Quantity:     10,
		Location:     "Shelf 3",
	})

	assert.NoError(t, err)
	store.AssertExpectations(t)
}

func TestEditMissingItem(t *testing.T) {
	service, store, _, _ := newTestService()

	store.On("GetItem", 42).Return(nil, &apperrors.NotFoundError{Resource: "item", ID: 42})

	_, err := service.Edit(actor, 42, EditItemRequest{
		Name:         "Drill",
		Manufacturer: "Bosch",
		Model:        "GSB13",
		Category:     "Tools",
		Warehouse:    "Cold",
		Location:     "Shelf 3",
	})

	var notFound *apperrors.NotFoundError
	assert.ErrorAs(t, err, &notFound)
}

func TestDeleteSnapshotsItemAndCleansPhotos(t *testing.T) {
	service, store, audit, blobs := newTestService()

	item := drillItem()
	item.Photos = []string{"1/a.jpg", "1/b.jpg"}

	store.On("GetItem", 1).Return(item, nil)
	audit.On("Append", mock.MatchedBy(func(entry models.Transaction) bool {
		return entry.Action == models.ActionDeleted &&
			entry.Quantity == 10 &&
			entry.Details["model"] == "GSB13" &&
			entry.Details["item_type"] == "multiple"
	})).Return(nil).Once()
	store.On("DeleteItem", 1).Return(int64(1), nil).Once()
	blobs.On("Delete", mock.Anything, "1/a.jpg").Return(nil).Once()
	blobs.On("Delete", mock.Anything, "1/b.jpg").Return(errors.New("blob gone")).Once()

	err := service.Delete(context.Background(), actor, 1)

	// A failed blob delete is logged, never fatal.
	assert.NoError(t, err)
	store.AssertExpectations(t)
	audit.AssertExpectations(t)
	blobs.AssertExpectations(t)
}

func TestDeleteMissingItem(t *testing.T) {
	service, store, audit, _ := newTestService()

	store.On("GetItem", 42).Return(nil, &apperrors.NotFoundError{Resource: "item", ID: 42})

	err := service.Delete(context.Background(), actor, 42)

	var notFound *apperrors.NotFoundError
	assert.ErrorAs(t, err, &notFound)
	audit.AssertNotCalled(t, "Append", mock.Anything)
}

func TestAuditFailureDoesNotFailOperation(t *testing.T) {
	service, store, audit, _ := newTestService()

	store.On("GetItem", 1).Return(drillItem(), nil)
	store.On("TakeStock", 1, 1).Return(int64(1), nil).Once()
	audit.On("Append", mock.Anything).Return(errors.New("log insert failed")).Once()

	_, err := service.Take(actor, 1, TakeItemRequest{Quantity: 1, Purpose: "check"})

	assert.NoError(t, err)
}
