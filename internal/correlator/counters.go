package correlator

import (
	"container/heap"
	"sync"
	"time"
)

type counterKey struct {
	scope string
	kind  string
}

// Counter is the live state of one (scope, kind) pair.
type Counter[P any] struct {
	Count     int
	ExpiresAt time.Time
	Payload   P
	// generation changes whenever the expiry moves, so stale heap entries can be told apart
	generation uint64
}

// Observation is the result of Observe.
type Observation[P any] struct {
	Count   int
	Fired   bool
	Payload P
}

type Option func(*options)

type options struct {
	now func() time.Time
}

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

// Registry holds time-windowed violation counters keyed by (scope, kind).
// At most one live counter exists per key; expired counters are swept lazily
// by every operation and never continued.
type Registry[P any] struct {
	mu       sync.Mutex
	counters map[counterKey]*Counter[P]
	expiry   expiryHeap
	nextGen  uint64
	now      func() time.Time
}

func NewRegistry[P any](opts ...Option) *Registry[P] {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}

	return &Registry[P]{
		counters: make(map[counterKey]*Counter[P]),
		now:      o.now,
	}
}

// Record counts one observation and returns the resulting count. A live counter
// is incremented and its expiry moved to now+window; otherwise a fresh counter starts at 1.
func (r *Registry[P]) Record(scope, kind string, window time.Duration) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	r.sweepLocked(now)
	return r.recordLocked(counterKey{scope, kind}, window, now).Count
}

// Payload returns the payload attached to a live counter.
func (r *Registry[P]) Payload(scope, kind string) (P, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sweepLocked(r.now())
	c, ok := r.counters[counterKey{scope, kind}]
	if !ok {
		var zero P
		return zero, false
	}
	return c.Payload, true
}

// SetPayload attaches payload to a live counter. It never resurrects a cleared or expired one.
func (r *Registry[P]) SetPayload(scope, kind string, payload P) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sweepLocked(r.now())
	if c, ok := r.counters[counterKey{scope, kind}]; ok {
		c.Payload = payload
	}
}

// Clear removes the counter immediately. Clearing an absent key is a no-op.
func (r *Registry[P]) Clear(scope, kind string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sweepLocked(r.now())
	delete(r.counters, counterKey{scope, kind})
}

// Observe records one observation, lets mutate update the payload, and when the
// count exceeds trigger returns the payload snapshot and clears the counter, all
// under one lock so a burst can fire only once.
func (r *Registry[P]) Observe(scope, kind string, window time.Duration, trigger int, mutate func(*P)) Observation[P] {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	r.sweepLocked(now)

	key := counterKey{scope, kind}
	c := r.recordLocked(key, window, now)
	if mutate != nil {
		mutate(&c.Payload)
	}

	obs := Observation[P]{Count: c.Count, Payload: c.Payload}
	if c.Count > trigger {
		obs.Fired = true
		delete(r.counters, key)
	}
	return obs
}

// Sweep drops expired counters and returns how many were removed.
func (r *Registry[P]) Sweep() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sweepLocked(r.now())
}

// Len is the number of live counters.
func (r *Registry[P]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sweepLocked(r.now())
	return len(r.counters)
}

func (r *Registry[P]) recordLocked(key counterKey, window time.Duration, now time.Time) *Counter[P] {
	r.nextGen++
	expiresAt := now.Add(window)

	c, ok := r.counters[key]
	if ok {
		c.Count++
	} else {
		c = &Counter[P]{Count: 1}
		r.counters[key] = c
	}
	c.ExpiresAt = expiresAt
	c.generation = r.nextGen

	heap.Push(&r.expiry, expiryEntry{
		key:        key,
		expiresAt:  expiresAt,
		generation: r.nextGen,
	})
	return c
}

func (r *Registry[P]) sweepLocked(now time.Time) int {
	removed := 0
	for r.expiry.Len() > 0 {
		top := r.expiry[0]
		if now.Before(top.expiresAt) {
			break
		}
		heap.Pop(&r.expiry)

		c, ok := r.counters[top.key]
		if !ok || c.generation != top.generation {
			// counter was cleared or extended after this entry was pushed
			continue
		}
		delete(r.counters, top.key)
		removed++
	}
	return removed
}
