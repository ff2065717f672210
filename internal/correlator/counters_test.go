package correlator

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func TestRecordIncrementsWithinWindow(t *testing.T) {
	clock := newFakeClock()
	r := NewRegistry[struct{}](WithClock(clock.Now))

	assert.Equal(t, 1, r.Record("G1", "role-create", 3*time.Second))
	clock.Advance(time.Second)
	assert.Equal(t, 2, r.Record("G1", "role-create", 3*time.Second))
	clock.Advance(2 * time.Second)
	// each record extends the expiry to now+window
	assert.Equal(t, 3, r.Record("G1", "role-create", 3*time.Second))
}

func TestRecordAfterExpiryStartsFresh(t *testing.T) {
	clock := newFakeClock()
	r := NewRegistry[struct{}](WithClock(clock.Now))

	r.Record("G1", "role-create", 3*time.Second)
	r.Record("G1", "role-create", 3*time.Second)
	clock.Advance(3 * time.Second)

	assert.Equal(t, 1, r.Record("G1", "role-create", 3*time.Second))
}

func TestScopesAndKindsAreIndependent(t *testing.T) {
	r := NewRegistry[struct{}]()

	r.Record("G1", "role-create", time.Minute)
	r.Record("G1", "role-create", time.Minute)

	assert.Equal(t, 1, r.Record("G2", "role-create", time.Minute))
	assert.Equal(t, 1, r.Record("G1", "role-delete", time.Minute))
	assert.Equal(t, 3, r.Len())
}

func TestClearIsIdempotent(t *testing.T) {
	r := NewRegistry[struct{}]()

	assert.NotPanics(t, func() { r.Clear("G1", "missing") })

	r.Record("G1", "role-create", time.Minute)
	r.Record("G1", "role-create", time.Minute)
	r.Clear("G1", "role-create")
	r.Clear("G1", "role-create")

	assert.Equal(t, 1, r.Record("G1", "role-create", time.Minute))
}

func TestClearOnlyTouchesItsOwnKey(t *testing.T) {
	r := NewRegistry[struct{}]()

	r.Record("G1", "message-flood:A", time.Minute)
	r.Record("G1", "message-flood:B", time.Minute)
	r.Record("G2", "message-flood:A", time.Minute)

	r.Clear("G1", "message-flood:A")

	assert.Equal(t, 2, r.Record("G1", "message-flood:B", time.Minute))
	assert.Equal(t, 2, r.Record("G2", "message-flood:A", time.Minute))
}

func TestPayloadLifecycle(t *testing.T) {
	clock := newFakeClock()
	r := NewRegistry[[]string](WithClock(clock.Now))

	_, ok := r.Payload("G1", "flood")
	assert.False(t, ok)

	// never resurrects an absent counter
	r.SetPayload("G1", "flood", []string{"m0"})
	_, ok = r.Payload("G1", "flood")
	assert.False(t, ok)

	r.Record("G1", "flood", time.Second)
	r.SetPayload("G1", "flood", []string{"m1"})
	p, ok := r.Payload("G1", "flood")
	require.True(t, ok)
	assert.Equal(t, []string{"m1"}, p)

	clock.Advance(time.Second)
	_, ok = r.Payload("G1", "flood")
	assert.False(t, ok, "payload of an expired counter is gone")

	r.SetPayload("G1", "flood", []string{"m2"})
	assert.Equal(t, 0, r.Len())
}

func TestObserveFiresOnceAndClears(t *testing.T) {
	r := NewRegistry[[]string]()
	appendID := func(id string) func(*[]string) {
		return func(p *[]string) { *p = append(*p, id) }
	}

	for i, id := range []string{"a", "b", "c", "d"} {
		obs := r.Observe("G1", "flood", 3*time.Second, 4, appendID(id))
		assert.False(t, obs.Fired)
		assert.Equal(t, i+1, obs.Count)
	}

	obs := r.Observe("G1", "flood", 3*time.Second, 4, appendID("e"))
	require.True(t, obs.Fired)
	assert.Equal(t, 5, obs.Count)
	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, obs.Payload)

	_, ok := r.Payload("G1", "flood")
	assert.False(t, ok)

	obs = r.Observe("G1", "flood", 3*time.Second, 4, appendID("f"))
	assert.False(t, obs.Fired)
	assert.Equal(t, 1, obs.Count)
	assert.Equal(t, []string{"f"}, obs.Payload)
}

func TestObserveConcurrentBurstFiresExactlyOnce(t *testing.T) {
	r := NewRegistry[struct{}]()

	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		fires int
	)
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if r.Observe("G1", "role-create:burst", time.Minute, 2, nil).Fired {
				mu.Lock()
				fires++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, fires)
	assert.Equal(t, 0, r.Len())
}

func TestSweepDropsOnlyExpired(t *testing.T) {
	clock := newFakeClock()
	r := NewRegistry[struct{}](WithClock(clock.Now))

	r.Record("G1", "short", time.Second)
	r.Record("G1", "long", time.Minute)
	clock.Advance(500 * time.Millisecond)
	// extension pushes a second heap entry; the stale one must not evict the counter
	r.Record("G1", "short", time.Second)
	clock.Advance(700 * time.Millisecond)

	assert.Equal(t, 0, r.Sweep())
	assert.Equal(t, 2, r.Len())

	clock.Advance(time.Second)
	assert.Equal(t, 1, r.Sweep())
	assert.Equal(t, 1, r.Len())
}
