package index

import (
	"container/heap"
	"slices"
)

// lowEntry is one (quantity, name) pair in the low-stock heap.
type lowEntry struct {
	name     string
	quantity int
}

// lowHeap is a binary min-heap of low-stock candidates ordered by quantity
// ascending with name as tie-break. slots maps item name to its current
// heap position so arbitrary entries can be removed or re-keyed in
// O(log n) instead of rebuilding the whole structure per write.
type lowHeap struct {
	entries []lowEntry
	slots   map[string]int
}

func newLowHeap() *lowHeap {
	return &lowHeap{slots: make(map[string]int)}
}

func (h *lowHeap) Len() int { return len(h.entries) }

func (h *lowHeap) Less(i, j int) bool {
	a, b := h.entries[i], h.entries[j]
	if a.quantity != b.quantity {
		return a.quantity < b.quantity
	}
	return a.name < b.name
}

func (h *lowHeap) Swap(i, j int) {
	h.entries[i], h.entries[j] = h.entries[j], h.entries[i]
	h.slots[h.entries[i].name] = i
	h.slots[h.entries[j].name] = j
}

func (h *lowHeap) Push(x any) {
	e := x.(lowEntry)
	h.slots[e.name] = len(h.entries)
	h.entries = append(h.entries, e)
}

func (h *lowHeap) Pop() any {
	n := len(h.entries) - 1
	e := h.entries[n]
	h.entries = h.entries[:n]
	delete(h.slots, e.name)
	return e
}

// upsert inserts name with the given quantity, or re-keys it in place if
// already present.
func (h *lowHeap) upsert(name string, quantity int) {
	if i, ok := h.slots[name]; ok {
		h.entries[i].quantity = quantity
		heap.Fix(h, i)
		return
	}
	heap.Push(h, lowEntry{name: name, quantity: quantity})
}

// remove drops name from the heap if present.
func (h *lowHeap) remove(name string) {
	if i, ok := h.slots[name]; ok {
		heap.Remove(h, i)
	}
}

// sorted returns every entry in (quantity, name) ascending order without
// disturbing the heap.
func (h *lowHeap) sorted() []lowEntry {
	out := make([]lowEntry, len(h.entries))
	copy(out, h.entries)
	slices.SortFunc(out, func(a, b lowEntry) int {
		if a.quantity != b.quantity {
			return a.quantity - b.quantity
		}
		if a.name < b.name {
			return -1
		}
		if a.name > b.name {
			return 1
		}
		return 0
	})
	return out
}
