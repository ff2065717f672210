package watchdog

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"go-raidguard/internal/metrics"
)

// Sweepable is a counter store whose expired entries can be dropped in bulk.
type Sweepable interface {
	Sweep() int
	Len() int
}

// Watchdog periodically sweeps every registered counter registry so idle
// counters do not pile up between events, and reports sweeper liveness.
type Watchdog struct {
	mu            sync.Mutex
	registries    map[string]Sweepable
	checkInterval time.Duration
	health        *metrics.SweepHealth
	logger        *zap.Logger
}

func NewWatchdog(checkInterval time.Duration, health *metrics.SweepHealth, logger *zap.Logger) *Watchdog {
	return &Watchdog{
		registries:    make(map[string]Sweepable),
		checkInterval: checkInterval,
		health:        health,
		logger:        logger,
	}
}

func (w *Watchdog) Register(name string, r Sweepable) {
	w.mu.Lock()
	w.registries[name] = r
	w.mu.Unlock()
}

// Run sweeps on every tick until ctx is done.
func (w *Watchdog) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			w.SweepAll()
		}
	}
}

// SweepAll sweeps each registry once and returns the number of counters removed.
func (w *Watchdog) SweepAll() int {
	w.mu.Lock()
	names := make([]string, 0, len(w.registries))
	for name := range w.registries {
		names = append(names, name)
	}
	w.mu.Unlock()
	sort.Strings(names)

	total := 0
	for _, name := range names {
		w.mu.Lock()
		r := w.registries[name]
		w.mu.Unlock()

		swept := r.Sweep()
		live := r.Len()
		total += swept

		metrics.SweptCounters.WithLabelValues(name).Add(float64(swept))
		metrics.LiveCounters.WithLabelValues(name).Set(float64(live))
		if swept > 0 {
			w.logger.Debug("swept expired counters",
				zap.String("registry", name),
				zap.Int("swept", swept),
				zap.Int("live", live))
		}
	}

	if w.health != nil {
		w.health.RecordIteration()
	}
	return total
}

// GetStatus returns the live counter count per registry.
func (w *Watchdog) GetStatus() map[string]int {
	w.mu.Lock()
	defer w.mu.Unlock()

	status := make(map[string]int, len(w.registries))
	for name, r := range w.registries {
		status[name] = r.Len()
	}
	return status
}
