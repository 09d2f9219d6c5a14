package models

import "time"

// Model is a record kept in the local SQLite store: a cached [PersistedBanner] or a [ConfigSave].
type Model interface {
	ID() string
	CreatedAt() time.Time
	UpdatedAt() time.Time
	Validate() error
}

// Repository is the CRUD surface shared by the local stores.
//
// List criteria are store specific; every store accepts "limit".
// Get and Delete on a missing id wrap the store's not-found error.
type Repository[T Model] interface {
	Create(model T) error
	Get(id string) (T, error)
	Update(model T) error
	Delete(id string) error
	List(criteria map[string]any) ([]T, error)
}
