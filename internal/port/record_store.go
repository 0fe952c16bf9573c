package port

import (
	"context"
	"errors"
	"time"

	"stockroom/internal/core/domain"
)

var (
	// ErrDuplicateKey is returned by Insert when an item with the same
	// name already exists.
	ErrDuplicateKey = errors.New("duplicate key")

	// ErrNotFound is returned by Get, Update and Delete when no item
	// with the given name exists.
	ErrNotFound = errors.New("not found")
)

// RecordStore is the durable, authoritative source for items and the
// low-stock threshold setting. Mutations must be durable before they
// return: the index layer reads back from (or trusts) the store
// immediately after every write.
type RecordStore interface {
	// ListAll returns every item in the store.
	ListAll(ctx context.Context) ([]domain.Item, error)

	// Get retrieves a single item by name.
	Get(ctx context.Context, name string) (*domain.Item, error)

	// Insert persists a new item.
	Insert(ctx context.Context, item domain.Item) error

	// Update overwrites quantity, price and updated_at of an existing
	// item. The caller supplies the timestamp so the stored row and any
	// cached copy of it carry the same value.
	Update(ctx context.Context, name string, quantity int, price float64, updatedAt time.Time) error

	// Delete removes an item by name.
	Delete(ctx context.Context, name string) error

	// GetThreshold returns the persisted low-stock threshold.
	GetThreshold(ctx context.Context) (int, error)

	// SetThreshold persists a new low-stock threshold.
	SetThreshold(ctx context.Context, value int) error

	Close() error
}
