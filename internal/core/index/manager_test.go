package index

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"stockroom/internal/core/domain"
	"stockroom/internal/port"
)

var errStoreDown = errors.New("store down")

// fakeStore is an in-memory RecordStore with switchable failure modes.
type fakeStore struct {
	mu        sync.Mutex
	items     map[string]domain.Item
	threshold int
	failList  bool
}

func newFakeStore(threshold int, items ...domain.Item) *fakeStore {
	s := &fakeStore{
		items:     make(map[string]domain.Item),
		threshold: threshold,
	}
	for _, it := range items {
		s.items[it.Name] = it
	}
	return s
}

func item(name string, quantity int, price float64) domain.Item {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	return domain.Item{Name: name, Quantity: quantity, Price: price, CreatedAt: now, UpdatedAt: now}
}

func (s *fakeStore) ListAll(ctx context.Context) ([]domain.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failList {
		return nil, errStoreDown
	}
	out := make([]domain.Item, 0, len(s.items))
	for _, it := range s.items {
		out = append(out, it)
	}
	return out, nil
}

func (s *fakeStore) Get(ctx context.Context, name string) (*domain.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	it, ok := s.items[name]
	if !ok {
		return nil, port.ErrNotFound
	}
	return &it, nil
}

func (s *fakeStore) Insert(ctx context.Context, it domain.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[it.Name]; ok {
		return port.ErrDuplicateKey
	}
	s.items[it.Name] = it
	return nil
}

func (s *fakeStore) Update(ctx context.Context, name string, quantity int, price float64, updatedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	it, ok := s.items[name]
	if !ok {
		return port.ErrNotFound
	}
	it.Quantity = quantity
	it.Price = price
	it.UpdatedAt = updatedAt
	s.items[name] = it
	return nil
}

func (s *fakeStore) Delete(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[name]; !ok {
		return port.ErrNotFound
	}
	delete(s.items, name)
	return nil
}

func (s *fakeStore) GetThreshold(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failList {
		return 0, errStoreDown
	}
	return s.threshold, nil
}

func (s *fakeStore) SetThreshold(ctx context.Context, value int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.threshold = value
	return nil
}

func (s *fakeStore) Close() error { return nil }

func names(items []domain.Item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Name
	}
	return out
}

func expectNames(t *testing.T, items []domain.Item, want ...string) {
	t.Helper()
	got := names(items)
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

func TestResync_BuildsBothViews(t *testing.T) {
	store := newFakeStore(10, item("A", 5, 1), item("B", 15, 2), item("C", 8, 3))
	m := NewManager(store, nil)

	if err := m.Resync(context.Background()); err != nil {
		t.Fatalf("resync failed: %v", err)
	}

	if m.Len() != 3 {
		t.Errorf("expected 3 items, got %d", m.Len())
	}
	if m.Threshold() != 10 {
		t.Errorf("expected threshold 10, got %d", m.Threshold())
	}

	it, ok := m.Lookup("B")
	if !ok || it.Quantity != 15 || it.Price != 2 {
		t.Errorf("unexpected lookup result: %+v ok=%v", it, ok)
	}

	expectNames(t, m.LowStock(), "A", "C")
	expectNames(t, m.All(), "A", "B", "C")
}

func TestResync_ThresholdChangeRebuildsMembership(t *testing.T) {
	store := newFakeStore(10, item("A", 5, 1), item("B", 15, 2), item("C", 8, 3))
	m := NewManager(store, nil)
	ctx := context.Background()

	if err := m.Resync(ctx); err != nil {
		t.Fatalf("resync failed: %v", err)
	}
	expectNames(t, m.LowStock(), "A", "C")

	store.SetThreshold(ctx, 20)
	if err := m.Resync(ctx); err != nil {
		t.Fatalf("resync failed: %v", err)
	}
	expectNames(t, m.LowStock(), "A", "C", "B")
}

func TestResync_Idempotent(t *testing.T) {
	store := newFakeStore(10, item("A", 5, 1), item("B", 15, 2))
	m := NewManager(store, nil)
	ctx := context.Background()

	if err := m.Resync(ctx); err != nil {
		t.Fatalf("resync failed: %v", err)
	}
	firstAll := names(m.All())
	firstLow := names(m.LowStock())

	if err := m.Resync(ctx); err != nil {
		t.Fatalf("second resync failed: %v", err)
	}

	expectNames(t, m.All(), firstAll...)
	expectNames(t, m.LowStock(), firstLow...)
}

func TestResync_FailureRetainsPriorState(t *testing.T) {
	store := newFakeStore(10, item("A", 5, 1))
	m := NewManager(store, nil)
	ctx := context.Background()

	if err := m.Resync(ctx); err != nil {
		t.Fatalf("resync failed: %v", err)
	}

	store.mu.Lock()
	store.items["B"] = item("B", 2, 1)
	store.failList = true
	store.mu.Unlock()

	if err := m.Resync(ctx); !errors.Is(err, errStoreDown) {
		t.Fatalf("expected store error, got: %v", err)
	}

	// Prior consistent state must survive the failed rebuild.
	expectNames(t, m.All(), "A")
	expectNames(t, m.LowStock(), "A")
	if _, ok := m.Lookup("B"); ok {
		t.Error("item from failed resync is visible")
	}
}

func TestApply_MatchesFullResync(t *testing.T) {
	store := newFakeStore(10)
	m := NewManager(store, nil)
	ctx := context.Background()
	if err := m.Resync(ctx); err != nil {
		t.Fatalf("resync failed: %v", err)
	}

	type step struct {
		del  bool
		item domain.Item
	}
	steps := []step{
		{item: item("widget", 3, 9.99)},
		{item: item("gadget", 20, 5)},
		{item: item("cog", 8, 1.25)},
		{item: item("widget", 12, 9.99)}, // crosses above threshold
		{item: item("gadget", 2, 5)},     // crosses below threshold
		{del: true, item: item("cog", 0, 0)},
	}

	for _, s := range steps {
		if s.del {
			store.Delete(ctx, s.item.Name)
			m.ApplyDelete(s.item.Name)
		} else {
			if err := store.Insert(ctx, s.item); errors.Is(err, port.ErrDuplicateKey) {
				store.Update(ctx, s.item.Name, s.item.Quantity, s.item.Price, s.item.UpdatedAt)
			}
			m.ApplyUpsert(s.item)
		}

		// After every step the incrementally maintained views must
		// equal a wholesale rebuild.
		fresh := NewManager(store, nil)
		if err := fresh.Resync(ctx); err != nil {
			t.Fatalf("resync failed: %v", err)
		}
		expectNames(t, m.All(), names(fresh.All())...)
		expectNames(t, m.LowStock(), names(fresh.LowStock())...)
	}

	expectNames(t, m.LowStock(), "gadget")
	expectNames(t, m.All(), "gadget", "widget")
}

func TestSearch(t *testing.T) {
	store := newFakeStore(10, item("Widget", 3, 1), item("Gadget", 4, 1), item("Widgetron", 5, 1))
	m := NewManager(store, nil)
	if err := m.Resync(context.Background()); err != nil {
		t.Fatalf("resync failed: %v", err)
	}

	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{name: "case insensitive", query: "widget", want: []string{"Widget", "Widgetron"}},
		{name: "upper case query", query: "WIDGET", want: []string{"Widget", "Widgetron"}},
		{name: "substring", query: "dget", want: []string{"Gadget", "Widget", "Widgetron"}},
		{name: "empty query returns all", query: "", want: []string{"Gadget", "Widget", "Widgetron"}},
		{name: "no match", query: "sprocket", want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expectNames(t, m.Search(tt.query), tt.want...)
		})
	}
}

func TestLookup_MissingItem(t *testing.T) {
	store := newFakeStore(10)
	m := NewManager(store, nil)
	if err := m.Resync(context.Background()); err != nil {
		t.Fatalf("resync failed: %v", err)
	}

	if _, ok := m.Lookup("ghost"); ok {
		t.Error("expected lookup miss")
	}
}

func TestConcurrentReadsDuringApplies(t *testing.T) {
	store := newFakeStore(10, item("seed", 1, 1))
	m := NewManager(store, nil)
	ctx := context.Background()
	if err := m.Resync(ctx); err != nil {
		t.Fatalf("resync failed: %v", err)
	}

	var wg sync.WaitGroup
	stop := make(chan struct{})

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			m.ApplyUpsert(item("seed", i%20, 1))
		}
		close(stop)
	}()

	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				m.Lookup("seed")
				m.LowStock()
				m.All()
			}
		}()
	}

	wg.Wait()
}
