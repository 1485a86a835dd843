package database

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	coreport "github.com/amirhossein-jamali/client-portal/internal/domain/port/core"
)

// PoolSnapshot is one sample of the connection pool.
// Payment mutators hold a connection for as long as they hold a row lock, so
// NewWaits growing between samples usually means webhooks are queueing on the
// same ledgers.
type PoolSnapshot struct {
	SampledAt    time.Time     `json:"sampled_at"`
	Open         int           `json:"open"`
	Idle         int           `json:"idle"`
	InUse        int           `json:"in_use"`
	MaxOpen      int           `json:"max_open"`
	Waits        int64         `json:"waits"`
	NewWaits     int64         `json:"new_waits"`
	WaitDuration time.Duration `json:"wait_duration"`
}

// Saturation is the share of the pool in use, 0 when the pool is unbounded
func (s PoolSnapshot) Saturation() float64 {
	if s.MaxOpen <= 0 {
		return 0
	}
	return float64(s.InUse) / float64(s.MaxOpen)
}

// PoolWatcher samples pool statistics on an interval
type PoolWatcher struct {
	stats     func() (sql.DBStats, error)
	logger    coreport.Logger
	clock     coreport.TimeProvider
	threshold float64

	mu   sync.RWMutex
	last *PoolSnapshot

	stopOnce sync.Once
	stop     chan struct{}
}

// NewPoolWatcher creates a watcher that warns once saturation passes threshold
func NewPoolWatcher(stats func() (sql.DBStats, error), logger coreport.Logger, clock coreport.TimeProvider, threshold float64) *PoolWatcher {
	if threshold <= 0 || threshold > 1 {
		threshold = 0.8
	}
	return &PoolWatcher{
		stats:     stats,
		logger:    logger.With(map[string]any{"component": "db_pool"}),
		clock:     clock,
		threshold: threshold,
		stop:      make(chan struct{}),
	}
}

// Start takes a first sample and keeps sampling until Stop
func (w *PoolWatcher) Start(interval time.Duration) error {
	if _, err := w.Sample(); err != nil {
		return err
	}

	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if _, err := w.Sample(); err != nil {
					w.logger.Error("Failed to sample connection pool", map[string]any{"error": err.Error()})
				}
			case <-w.stop:
				return
			}
		}
	}()
	return nil
}

// Stop ends sampling; safe to call more than once
func (w *PoolWatcher) Stop() {
	w.stopOnce.Do(func() { close(w.stop) })
}

// Last returns the most recent sample
func (w *PoolWatcher) Last() (PoolSnapshot, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.last == nil {
		return PoolSnapshot{}, false
	}
	return *w.last, true
}

// Sample reads the pool statistics now and stores the result
func (w *PoolWatcher) Sample() (PoolSnapshot, error) {
	stats, err := w.stats()
	if err != nil {
		return PoolSnapshot{}, fmt.Errorf("failed to read pool stats: %w", err)
	}

	snapshot := PoolSnapshot{
		SampledAt:    w.clock.Now(),
		Open:         stats.OpenConnections,
		Idle:         stats.Idle,
		InUse:        stats.InUse,
		MaxOpen:      stats.MaxOpenConnections,
		Waits:        stats.WaitCount,
		WaitDuration: stats.WaitDuration,
	}

	w.mu.Lock()
	if w.last != nil && stats.WaitCount >= w.last.Waits {
		snapshot.NewWaits = stats.WaitCount - w.last.Waits
	}
	w.last = &snapshot
	w.mu.Unlock()

	if snapshot.Saturation() >= w.threshold {
		w.logger.Warn("Database connection pool nearly exhausted", map[string]any{
			"in_use":    snapshot.InUse,
			"max_open":  snapshot.MaxOpen,
			"new_waits": snapshot.NewWaits,
			"wait_time": snapshot.WaitDuration.String(),
		})
	}
	return snapshot, nil
}
