package domain

import "time"

// DefaultThreshold is the low-stock threshold used when the settings
// table has no persisted value yet.
const DefaultThreshold = 10

// Item is a single stock record. Name is the identity key: it is unique,
// non-empty, and immutable after creation (a rename is a delete plus a
// create).
type Item struct {
	Name      string
	Quantity  int
	Price     float64
	CreatedAt time.Time
	UpdatedAt time.Time
}
