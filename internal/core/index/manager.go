// Package index maintains the in-memory views derived from the record
// store: a name-keyed lookup table and a low-stock priority structure.
// Both are caches — the record store stays authoritative and either view
// can always be rebuilt from it with Resync.
package index

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"stockroom/internal/core/domain"
	"stockroom/internal/logging"
	"stockroom/internal/port"
)

// Manager owns the lookup table and the low-stock heap. A single RWMutex
// guards both: readers take the read lock, Resync and the Apply* methods
// take the write lock, so no caller ever observes a half-rebuilt view.
type Manager struct {
	store port.RecordStore
	log   *slog.Logger

	mu        sync.RWMutex
	items     map[string]domain.Item
	low       *lowHeap
	threshold int
}

func NewManager(store port.RecordStore, logger *slog.Logger) *Manager {
	return &Manager{
		store:     store,
		log:       logging.Default(logger).With("component", "index"),
		items:     make(map[string]domain.Item),
		low:       newLowHeap(),
		threshold: domain.DefaultThreshold,
	}
}

// Resync rebuilds both views wholesale from the record store. The rebuild
// is fail-atomic: replacement structures are built aside and swapped in
// only after every store read has succeeded, so a store failure leaves
// the prior consistent state untouched. Calling Resync twice with no
// intervening mutation yields identical contents.
func (m *Manager) Resync(ctx context.Context) error {
	items, err := m.store.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("list items: %w", err)
	}
	threshold, err := m.store.GetThreshold(ctx)
	if err != nil {
		return fmt.Errorf("read threshold: %w", err)
	}

	lookup := make(map[string]domain.Item, len(items))
	low := newLowHeap()
	for _, it := range items {
		lookup[it.Name] = it
		if it.Quantity < threshold {
			low.upsert(it.Name, it.Quantity)
		}
	}

	m.mu.Lock()
	m.items = lookup
	m.low = low
	m.threshold = threshold
	m.mu.Unlock()

	m.log.Debug("resynced",
		"items", len(lookup),
		"low_stock", low.Len(),
		"threshold", threshold)
	return nil
}

// ApplyUpsert folds a just-persisted create or update into both views.
func (m *Manager) ApplyUpsert(item domain.Item) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.items[item.Name] = item
	if item.Quantity < m.threshold {
		m.low.upsert(item.Name, item.Quantity)
	} else {
		m.low.remove(item.Name)
	}
}

// ApplyDelete folds a just-persisted removal into both views.
func (m *Manager) ApplyDelete(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.items, name)
	m.low.remove(name)
}

// Lookup returns the cached item by name. It never touches the store.
func (m *Manager) Lookup(name string) (domain.Item, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	it, ok := m.items[name]
	return it, ok
}

// LowStock returns every cached item with quantity below the threshold,
// ordered by quantity ascending, name as tie-break.
func (m *Manager) LowStock() []domain.Item {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entries := m.low.sorted()
	out := make([]domain.Item, 0, len(entries))
	for _, e := range entries {
		out = append(out, m.items[e.name])
	}
	return out
}

// All returns every cached item ordered by name ascending.
func (m *Manager) All() []domain.Item {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.collect(func(string) bool { return true })
}

// Search returns cached items whose name contains query, case-insensitive,
// ordered by name ascending. An empty query matches everything.
func (m *Manager) Search(query string) []domain.Item {
	q := strings.ToLower(query)

	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.collect(func(name string) bool {
		return strings.Contains(strings.ToLower(name), q)
	})
}

// Threshold returns the cached low-stock threshold.
func (m *Manager) Threshold() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.threshold
}

// Len returns the number of cached items.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.items)
}

// collect gathers matching items in name order. Callers hold at least the
// read lock.
func (m *Manager) collect(match func(name string) bool) []domain.Item {
	names := make([]string, 0, len(m.items))
	for name := range m.items {
		if match(name) {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	out := make([]domain.Item, 0, len(names))
	for _, name := range names {
		out = append(out, m.items[name])
	}
	return out
}
