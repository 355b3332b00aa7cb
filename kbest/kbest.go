// Package kbest provides a bounded collection that keeps the K highest scoring items
// it has been offered.
package kbest

import (
	"container/heap"
	"math"
	"sort"
)

// Scored pairs an item with its score.
type Scored[T any] struct {
	Score float64
	Item  T
}

type entry[T any] struct {
	Scored[T]
	seq uint64
}

// List holds at most K items. Ties are broken by insertion order: among equal scores
// the earlier insertion ranks higher, an item whose score merely equals the current
// minimum of a full list is discarded, and when several held items share the minimum
// the most recent of them is evicted first. The resulting order is deterministic for
// a fixed sequence of Add calls.
type List[T any] struct {
	k    int
	heap minHeap[T]
	seq  uint64
}

// New returns an empty list with capacity k. It panics if k < 1.
func New[T any](k int) *List[T] {
	if k < 1 {
		panic("kbest: capacity must be at least 1")
	}
	return &List[T]{k: k, heap: make(minHeap[T], 0, k)}
}

// Add offers item with score and reports whether it was kept. NaN scores are rejected.
func (l *List[T]) Add(score float64, item T) bool {
	if math.IsNaN(score) {
		return false
	}
	e := entry[T]{Scored: Scored[T]{Score: score, Item: item}, seq: l.seq}
	l.seq++

	if len(l.heap) < l.k {
		heap.Push(&l.heap, e)
		return true
	}
	if score <= l.heap[0].Score {
		return false
	}
	l.heap[0] = e
	heap.Fix(&l.heap, 0)
	return true
}

// Sorted returns a snapshot of the held items, best first.
func (l *List[T]) Sorted() []Scored[T] {
	entries := make([]entry[T], len(l.heap))
	copy(entries, l.heap)
	sort.Slice(entries, func(i, j int) bool {
		return better(entries[i], entries[j])
	})
	out := make([]Scored[T], len(entries))
	for i, e := range entries {
		out[i] = e.Scored
	}
	return out
}

// WorstScore is the minimum held score once the list is full, and -Inf before that.
func (l *List[T]) WorstScore() float64 {
	if len(l.heap) < l.k {
		return math.Inf(-1)
	}
	return l.heap[0].Score
}

// Best returns the highest scoring item.
func (l *List[T]) Best() (Scored[T], bool) {
	if len(l.heap) == 0 {
		return Scored[T]{}, false
	}
	best := l.heap[0]
	for _, e := range l.heap[1:] {
		if better(e, best) {
			best = e
		}
	}
	return best.Scored, true
}

func (l *List[T]) Len() int {
	return len(l.heap)
}

func (l *List[T]) Cap() int {
	return l.k
}

func (l *List[T]) Full() bool {
	return len(l.heap) >= l.k
}

func better[T any](a, b entry[T]) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	return a.seq < b.seq
}

// minHeap keeps the worst entry at index 0.
type minHeap[T any] []entry[T]

func (h minHeap[T]) Len() int           { return len(h) }
func (h minHeap[T]) Less(i, j int) bool { return better(h[j], h[i]) }
func (h minHeap[T]) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *minHeap[T]) Push(x any) {
	*h = append(*h, x.(entry[T]))
}

func (h *minHeap[T]) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	*h = old[:n-1]
	return e
}
