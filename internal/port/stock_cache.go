package port

import (
	"context"

	"stockroom/internal/core/domain"
)

// StockCache mirrors current stock levels into a fast external store and
// fans out low-stock alerts. The cache is advisory: the record store and
// the in-memory indexes stay authoritative, and a cache failure never
// fails the triggering mutation.
type StockCache interface {
	// SetStock mirrors the current quantity for an item.
	SetStock(ctx context.Context, name string, quantity int) error

	// DeleteStock drops the mirrored quantity for a removed item.
	DeleteStock(ctx context.Context, name string) error

	// PublishLowStockAlert notifies subscribers that an item fell below
	// the threshold.
	PublishLowStockAlert(ctx context.Context, alert domain.LowStockAlert) error
}
