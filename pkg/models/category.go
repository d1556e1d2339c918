package models

type Category struct {
	ID   int    `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
	// CriticalQuantity of zero means no low-stock warning for items in
	// this category.
	CriticalQuantity int `json:"critical_quantity" db:"critical_quantity"`
}

type Warehouse struct {
	ID   int    `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
}
