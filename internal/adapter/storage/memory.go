package storage

import (
	"context"
	"sync"
	"time"

	"stockroom/internal/core/domain"
	"stockroom/internal/port"
)

// MemoryStore is a map-backed RecordStore. It backs tests and the
// `--store memory` demo mode; nothing survives a restart.
type MemoryStore struct {
	mu        sync.RWMutex
	items     map[string]domain.Item
	threshold int
}

var _ port.RecordStore = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		items:     make(map[string]domain.Item),
		threshold: domain.DefaultThreshold,
	}
}

func (m *MemoryStore) ListAll(ctx context.Context) ([]domain.Item, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]domain.Item, 0, len(m.items))
	for _, it := range m.items {
		out = append(out, it)
	}
	return out, nil
}

func (m *MemoryStore) Get(ctx context.Context, name string) (*domain.Item, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	it, ok := m.items[name]
	if !ok {
		return nil, port.ErrNotFound
	}
	return &it, nil
}

func (m *MemoryStore) Insert(ctx context.Context, item domain.Item) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.items[item.Name]; ok {
		return port.ErrDuplicateKey
	}
	m.items[item.Name] = item
	return nil
}

func (m *MemoryStore) Update(ctx context.Context, name string, quantity int, price float64, updatedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	it, ok := m.items[name]
	if !ok {
		return port.ErrNotFound
	}
	it.Quantity = quantity
	it.Price = price
	it.UpdatedAt = updatedAt
	m.items[name] = it
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.items[name]; !ok {
		return port.ErrNotFound
	}
	delete(m.items, name)
	return nil
}

func (m *MemoryStore) GetThreshold(ctx context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.threshold, nil
}

func (m *MemoryStore) SetThreshold(ctx context.Context, value int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.threshold = value
	return nil
}

func (m *MemoryStore) Close() error { return nil }
