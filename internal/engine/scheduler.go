package engine

import (
	"context"
	"sync"
	"time"

	"github.com/j-veylop/codex-switch-tui/internal/logger"
)

// Scheduler drives the two periodic refresh loops: process status and
// aggregate usage. It owns both tickers and guarantees at most one active
// timer per loop; Start is idempotent and Stop tears both down as a unit.
type Scheduler struct {
	processInterval time.Duration
	usageInterval   time.Duration

	// pollProcess and refreshUsage are the loop bodies, supplied by the
	// engine. Failures are theirs to report; the loops never die.
	pollProcess  func(ctx context.Context)
	refreshUsage func(ctx context.Context)

	mu       sync.Mutex
	started  bool
	stopOnce sync.Once
	stopChan chan struct{}
}

// NewScheduler creates a stopped scheduler.
func NewScheduler(processInterval, usageInterval time.Duration,
	pollProcess, refreshUsage func(ctx context.Context)) *Scheduler {
	return &Scheduler{
		processInterval: processInterval,
		usageInterval:   usageInterval,
		pollProcess:     pollProcess,
		refreshUsage:    refreshUsage,
		stopChan:        make(chan struct{}),
	}
}

// Start launches both loops. Calling Start again is a no-op, so an effect
// re-run cannot create duplicate timers.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		logger.Debug("scheduler already started")
		return
	}
	s.started = true

	go s.loop(s.processInterval, s.pollProcess)
	go s.loop(s.usageInterval, s.refreshUsage)
}

// loop fires fn immediately and then on every tick until Stop.
func (s *Scheduler) loop(interval time.Duration, fn func(ctx context.Context)) {
	ctx := context.Background()
	fn(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			fn(ctx)
		case <-s.stopChan:
			return
		}
	}
}

// Stop cancels both loops. Safe to call more than once.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopChan)
	})
}
