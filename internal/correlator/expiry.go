package correlator

import "time"

type expiryEntry struct {
	key        counterKey
	expiresAt  time.Time
	generation uint64
}

// expiryHeap is a min-heap on expiresAt, used through container/heap.
type expiryHeap []expiryEntry

func (h expiryHeap) Len() int           { return len(h) }
func (h expiryHeap) Less(i, j int) bool { return h[i].expiresAt.Before(h[j].expiresAt) }
func (h expiryHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *expiryHeap) Push(x interface{}) {
	*h = append(*h, x.(expiryEntry))
}

func (h *expiryHeap) Pop() interface{} {
	old := *h
	n := len(old)
	entry := old[n-1]
	*h = old[:n-1]
	return entry
}
