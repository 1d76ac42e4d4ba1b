package poffin

import (
	"cmp"
	"slices"
)

type topEntry[T any] struct {
	item  T
	score int
	seq   uint64
}

// TopK keeps the highest-scoring items seen, up to a fixed capacity. Once
// full, an item only gets in by strictly beating the current minimum, so
// among equal scores the earlier insert survives. TopK is not safe for
// concurrent use; give each worker its own and merge.
type TopK[T any] struct {
	capacity int
	entries  []topEntry[T]
	minIdx   int
	seq      uint64
}

// NewTopK returns a collector holding at most capacity items. A capacity
// below 1 holds nothing.
func NewTopK[T any](capacity int) *TopK[T] {
	capacity = max(0, capacity)
	return &TopK[T]{
		capacity: capacity,
		entries:  make([]topEntry[T], 0, min(capacity, 1024)),
	}
}

// Cap returns the capacity.
func (t *TopK[T]) Cap() int { return t.capacity }

// Len returns the number of held items.
func (t *TopK[T]) Len() int { return len(t.entries) }

// Accepts reports whether TryAdd would keep an item with this score.
func (t *TopK[T]) Accepts(score int) bool {
	if len(t.entries) < t.capacity {
		return true
	}
	return t.capacity > 0 && score > t.entries[t.minIdx].score
}

// Min returns the lowest held score.
func (t *TopK[T]) Min() (int, bool) {
	if len(t.entries) == 0 {
		return 0, false
	}
	return t.entries[t.minIdx].score, true
}

// TryAdd offers item with score and reports whether it was kept.
func (t *TopK[T]) TryAdd(item T, score int) bool {
	if !t.Accepts(score) {
		return false
	}
	t.seq++
	e := topEntry[T]{item: item, score: score, seq: t.seq}
	if len(t.entries) < t.capacity {
		t.entries = append(t.entries, e)
		last := len(t.entries) - 1
		if last == 0 || t.evictsBefore(last, t.minIdx) {
			t.minIdx = last
		}
		return true
	}
	t.entries[t.minIdx] = e
	t.rescanMin()
	return true
}

// MergeFrom offers every item of other, in other's insertion order.
func (t *TopK[T]) MergeFrom(other *TopK[T]) {
	if other == nil {
		return
	}
	ordered := slices.Clone(other.entries)
	slices.SortFunc(ordered, func(a, b topEntry[T]) int { return cmp.Compare(a.seq, b.seq) })
	for _, e := range ordered {
		t.TryAdd(e.item, e.score)
	}
}

// Sorted returns the held items, best score first. Equal scores are ordered
// by tie when it is non-nil and decisive, then by insertion order.
func (t *TopK[T]) Sorted(tie func(a, b T) int) []T {
	ordered := slices.Clone(t.entries)
	slices.SortFunc(ordered, func(a, b topEntry[T]) int {
		if c := cmp.Compare(b.score, a.score); c != 0 {
			return c
		}
		if tie != nil {
			if c := tie(a.item, b.item); c != 0 {
				return c
			}
		}
		return cmp.Compare(a.seq, b.seq)
	})
	out := make([]T, len(ordered))
	for i := range ordered {
		out[i] = ordered[i].item
	}
	return out
}

// evictsBefore reports whether entry i should be evicted before entry j:
// a lower score goes first, and among equal scores the later insert.
func (t *TopK[T]) evictsBefore(i, j int) bool {
	a, b := &t.entries[i], &t.entries[j]
	if a.score != b.score {
		return a.score < b.score
	}
	return a.seq > b.seq
}

func (t *TopK[T]) rescanMin() {
	t.minIdx = 0
	for i := 1; i < len(t.entries); i++ {
		if t.evictsBefore(i, t.minIdx) {
			t.minIdx = i
		}
	}
}
