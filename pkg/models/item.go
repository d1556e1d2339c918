package models

import (
	"github.com/lib/pq"
)

type ItemKind string

const (
	KindUnit     ItemKind = "unit"
	KindMultiple ItemKind = "multiple"
)

type Item struct {
	ID           int            `json:"id" db:"id"`
	Name         string         `json:"name" db:"name"`
	Manufacturer string         `json:"manufacturer" db:"manufacturer"`
	Model        string         `json:"model" db:"model"`
	Category     string         `json:"category" db:"category"`
	Warehouse    string         `json:"warehouse" db:"warehouse"`
	Kind         ItemKind       `json:"item_type" db:"kind"`
	Quantity     int            `json:"quantity" db:"quantity"`
	HolderID     *int           `json:"holder_id,omitempty" db:"holder_id"`
	HolderName   *string        `json:"holder_name,omitempty" db:"-"`
	Location     string         `json:"location" db:"location"`
	Notes        string         `json:"notes" db:"notes"`
	Photos       pq.StringArray `json:"photos" db:"photos"`

	// CriticalQuantity is the owning category's threshold, joined on read.
	// Zero means no low-stock warning.
	CriticalQuantity int    `json:"critical_quantity" db:"-"`
	Status           string `json:"status,omitempty" db:"-"`
}

// FlatItemRecord is the scan target for item selects joined with
// categories and app_users.
type FlatItemRecord struct {
	ID               int            `db:"id"`
	Name             string         `db:"name"`
	Manufacturer     string         `db:"manufacturer"`
	Model            string         `db:"model"`
	Category         string         `db:"category"`
	Warehouse        string         `db:"warehouse"`
	Kind             string         `db:"kind"`
	Quantity         int            `db:"quantity"`
	HolderID         *int           `db:"holder_id"`
	HolderName       *string        `db:"holder_name"`
	Location         string         `db:"location"`
	Notes            string         `db:"notes"`
	Photos           pq.StringArray `db:"photos"`
	CriticalQuantity *int           `db:"critical_quantity"`
}

func (f *FlatItemRecord) TransformToItem() Item {
	item := Item{
		ID:           f.ID,
		Name:         f.Name,
		Manufacturer: f.Manufacturer,
		Model:        f.Model,
		Category:     f.Category,
		Warehouse:    f.Warehouse,
		Kind:         ItemKind(f.Kind),
		Quantity:     f.Quantity,
		HolderID:     f.HolderID,
		HolderName:   f.HolderName,
		Location:     f.Location,
		Notes:        f.Notes,
		Photos:       f.Photos,
	}
	if f.CriticalQuantity != nil {
		item.CriticalQuantity = *f.CriticalQuantity
	}
	return item
}
