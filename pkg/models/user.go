package models

import "time"

// AppUser is the application identity, distinct from the raw Telegram
// identity it is derived from.
type AppUser struct {
	ID             int       `json:"id" db:"id"`
	ExternalID     string    `json:"external_id" db:"external_id"`
	Name           string    `json:"name" db:"name"`
	CredentialHash string    `json:"-" db:"credential_hash"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}

// Actor identifies the user performing an inventory operation. It is
// resolved from the JWT claims, never from ambient state.
type Actor struct {
	ID   int
	Name string
}
