package models

import (
	"encoding/json"
	"time"
)

// Action vocabulary for the audit log. Entries are append-only and never
// mutated; item and category names are snapshotted at write time so the
// log survives later renames and deletes.
const (
	ActionCreated     = "created"
	ActionEdited      = "edited"
	ActionDeleted     = "deleted"
	ActionTaken       = "taken"
	ActionReturned    = "returned"
	ActionReplenished = "replenished"

	ActionCategoryCreated = "category created"
	ActionCategoryEdited  = "category edited"
	ActionCategoryDeleted = "category deleted"

	ActionWarehouseCreated = "warehouse created"
	ActionWarehouseEdited  = "warehouse edited"
	ActionWarehouseDeleted = "warehouse deleted"

	ActionNameChanged = "name changed"
)

type Transaction struct {
	ID           int                    `json:"id" db:"id"`
	UserID       *int                   `json:"user_id,omitempty" db:"user_id"`
	UserName     string                 `json:"user_name" db:"user_name"`
	Action       string                 `json:"action" db:"action"`
	Quantity     int                    `json:"quantity" db:"quantity"`
	ItemName     string                 `json:"item_name" db:"item_name"`
	CategoryName string                 `json:"category_name" db:"category_name"`
	DetailsRaw   string                 `json:"-" db:"details"`
	Details      map[string]interface{} `json:"details" db:"-"`
	CreatedAt    time.Time              `json:"created_at" db:"created_at"`
}

func (t *Transaction) LoadFromDB() {
	if t.DetailsRaw != "" {
		_ = json.Unmarshal([]byte(t.DetailsRaw), &t.Details)
	}
}
