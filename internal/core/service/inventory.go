package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"stockroom/internal/core/domain"
	"stockroom/internal/core/index"
	"stockroom/internal/logging"
	"stockroom/internal/port"
)

// Inventory orchestrates item mutations: it validates input, persists to
// the record store, and folds the result into the index manager so the
// cached views never lag a completed write. Mutations are serialized by a
// single mutex; reads go straight to the index under its read lock.
type Inventory struct {
	store port.RecordStore
	index *index.Manager
	cache port.StockCache // optional, nil disables mirroring
	log   *slog.Logger

	mu sync.Mutex
}

// UpdateParams carries the fields of a partial update. A nil pointer
// leaves the current value in place.
type UpdateParams struct {
	Quantity *int
	Price    *float64
}

func NewInventory(store port.RecordStore, idx *index.Manager, cache port.StockCache, logger *slog.Logger) *Inventory {
	return &Inventory{
		store: store,
		index: idx,
		cache: cache,
		log:   logging.Default(logger).With("component", "inventory"),
	}
}

// Initialize performs the first resync and seeds the stock mirror. Call
// once at process start before serving requests.
func (s *Inventory) Initialize(ctx context.Context) error {
	if err := s.index.Resync(ctx); err != nil {
		return storeErr("initial resync", err)
	}
	if s.cache != nil {
		for _, it := range s.index.All() {
			if err := s.cache.SetStock(ctx, it.Name, it.Quantity); err != nil {
				s.log.Warn("stock mirror seed failed", "item", it.Name, "error", err)
			}
		}
	}
	s.log.Info("inventory initialized", "items", s.index.Len(), "threshold", s.index.Threshold())
	return nil
}

// Create adds a new item. It fails with ErrDuplicateName if the name is
// taken and performs no mutation in that case.
func (s *Inventory) Create(ctx context.Context, name string, quantity int, price float64) (*domain.Item, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}
	if err := validateQuantity(quantity); err != nil {
		return nil, err
	}
	if err := validatePrice(price); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.index.Lookup(name); ok {
		return nil, ErrDuplicateName
	}

	now := stamp()
	item := domain.Item{
		Name:      name,
		Quantity:  quantity,
		Price:     price,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.store.Insert(ctx, item); err != nil {
		if errors.Is(err, port.ErrDuplicateKey) {
			return nil, ErrDuplicateName
		}
		return nil, storeErr("insert item", err)
	}

	s.index.ApplyUpsert(item)
	s.mirror(ctx, item)
	s.log.Info("item created", "item", item.Name, "quantity", item.Quantity)
	return &item, nil
}

// Update changes quantity and/or price of an existing item.
func (s *Inventory) Update(ctx context.Context, name string, params UpdateParams) (*domain.Item, error) {
	if params.Quantity != nil {
		if err := validateQuantity(*params.Quantity); err != nil {
			return nil, err
		}
	}
	if params.Price != nil {
		if err := validatePrice(*params.Price); err != nil {
			return nil, err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.index.Lookup(name)
	if !ok {
		return nil, ErrNotFound
	}

	if params.Quantity != nil {
		item.Quantity = *params.Quantity
	}
	if params.Price != nil {
		item.Price = *params.Price
	}
	item.UpdatedAt = stamp()

	if err := s.store.Update(ctx, name, item.Quantity, item.Price, item.UpdatedAt); err != nil {
		if errors.Is(err, port.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, storeErr("update item", err)
	}

	s.index.ApplyUpsert(item)
	s.mirror(ctx, item)
	s.log.Info("item updated", "item", item.Name, "quantity", item.Quantity)
	return &item, nil
}

// Delete removes an item by name.
func (s *Inventory) Delete(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.index.Lookup(name); !ok {
		return ErrNotFound
	}

	if err := s.store.Delete(ctx, name); err != nil {
		if errors.Is(err, port.ErrNotFound) {
			return ErrNotFound
		}
		return storeErr("delete item", err)
	}

	s.index.ApplyDelete(name)
	if s.cache != nil {
		if err := s.cache.DeleteStock(ctx, name); err != nil {
			s.log.Warn("stock mirror delete failed", "item", name, "error", err)
		}
	}
	s.log.Info("item deleted", "item", name)
	return nil
}

// ListAll returns every item, name ascending.
func (s *Inventory) ListAll(ctx context.Context) []domain.Item {
	return s.index.All()
}

// Search returns items whose name contains query, case-insensitive, name
// ascending. An empty query returns all items.
func (s *Inventory) Search(ctx context.Context, query string) []domain.Item {
	return s.index.Search(query)
}

// LowStock returns items below the threshold, quantity ascending with
// name as tie-break.
func (s *Inventory) LowStock(ctx context.Context) []domain.Item {
	return s.index.LowStock()
}

// GetThreshold returns the current low-stock threshold.
func (s *Inventory) GetThreshold(ctx context.Context) int {
	return s.index.Threshold()
}

// SetThreshold persists a new threshold and rebuilds the low-stock view,
// since membership depends on the new value. If the rebuild fails after
// the threshold persisted, the index keeps serving views computed from
// the old value; the caller should retry SetThreshold (or any resync)
// to converge.
func (s *Inventory) SetThreshold(ctx context.Context, value int) error {
	if value < 1 {
		return &ValidationError{Field: "threshold", Message: "must be at least 1"}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.SetThreshold(ctx, value); err != nil {
		return storeErr("set threshold", err)
	}
	if err := s.index.Resync(ctx); err != nil {
		return storeErr("rebuild after threshold change", err)
	}
	s.log.Info("threshold updated", "threshold", value)
	return nil
}

// mirror pushes the item's quantity to the stock cache and publishes a
// low-stock alert when it sits below the threshold. Cache failures are
// logged, never surfaced: the mutation already committed.
func (s *Inventory) mirror(ctx context.Context, item domain.Item) {
	if s.cache == nil {
		return
	}
	if err := s.cache.SetStock(ctx, item.Name, item.Quantity); err != nil {
		s.log.Warn("stock mirror failed", "item", item.Name, "error", err)
	}
	threshold := s.index.Threshold()
	if item.Quantity >= threshold {
		return
	}
	alert := domain.LowStockAlert{
		ID:        uuid.New().String(),
		Name:      item.Name,
		Quantity:  item.Quantity,
		Threshold: threshold,
		At:        time.Now().UTC(),
	}
	if err := s.cache.PublishLowStockAlert(ctx, alert); err != nil {
		s.log.Warn("low stock alert failed", "item", item.Name, "error", err)
	}
}

// stamp returns the current time at the precision every record store
// backend preserves. DATETIME columns hold whole seconds; keeping the
// in-memory copy to the same precision means a later resync reads back
// exactly the value the index already holds.
func stamp() time.Time {
	return time.Now().UTC().Truncate(time.Second)
}

func validateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return &ValidationError{Field: "name", Message: "name is required"}
	}
	return nil
}

func validateQuantity(quantity int) error {
	if quantity < 0 {
		return &ValidationError{Field: "quantity", Message: "must not be negative"}
	}
	return nil
}

func validatePrice(price float64) error {
	if price < 0 {
		return &ValidationError{Field: "price", Message: "must not be negative"}
	}
	return nil
}
