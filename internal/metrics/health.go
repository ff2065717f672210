package metrics

import (
	"sync/atomic"
	"time"
)

// SweepHealth tracks the registry sweeper loop for /healthz.
type SweepHealth struct {
	iterations   uint64
	lastLoopTime int64
	interval     int64
}

func NewSweepHealth(interval time.Duration) *SweepHealth {
	return &SweepHealth{interval: int64(interval)}
}

func (h *SweepHealth) RecordIteration() {
	atomic.AddUint64(&h.iterations, 1)
	atomic.StoreInt64(&h.lastLoopTime, time.Now().UnixNano())
}

func (h *SweepHealth) Iterations() uint64 {
	return atomic.LoadUint64(&h.iterations)
}

func (h *SweepHealth) LastIteration() time.Time {
	last := atomic.LoadInt64(&h.lastLoopTime)
	if last == 0 {
		return time.Time{}
	}
	return time.Unix(0, last)
}

// IsHealthy is false once the sweeper has missed three intervals.
func (h *SweepHealth) IsHealthy() bool {
	last := atomic.LoadInt64(&h.lastLoopTime)
	if last == 0 {
		return true
	}
	return time.Now().UnixNano()-last < 3*atomic.LoadInt64(&h.interval)
}
