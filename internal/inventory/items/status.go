package items

import "github.com/uggybe/storage-buddy-bot/pkg/models"

const (
	StatusAvailable  = "available"
	StatusOutOfStock = "out of stock"
	StatusLowStock   = "low stock"
	StatusSufficient = "sufficient"
)

// DeriveStatus is a pure function of the current item and category
// state. It is recomputed on every read and never persisted.
func DeriveStatus(item *models.Item) string {
	if item.Kind == models.KindUnit {
		if item.HolderID == nil {
			return StatusAvailable
		}
		if item.HolderName != nil {
			return "held by " + *item.HolderName
		}
		return "held"
	}

	switch {
	case item.Quantity == 0:
		return StatusOutOfStock
	case item.CriticalQuantity > 0 && item.Quantity <= item.CriticalQuantity:
		return StatusLowStock
	default:
		return StatusSufficient
	}
}
