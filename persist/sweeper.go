package persist

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/strataflow/catalog/observability"
)

// Sweeper periodically runs the store's staleness sweep on a shared cron
// scheduler. Each run applies the ModeDefault policy to every indexed
// replica and refreshes the ones the policy selects.
type Sweeper struct {
	store    *FileStore
	interval time.Duration

	mu        sync.Mutex
	scheduler gocron.Scheduler
	running   bool
}

// NewSweeper creates a Sweeper that sweeps the store every interval.
func NewSweeper(store *FileStore, interval time.Duration) *Sweeper {
	return &Sweeper{
		store:    store,
		interval: interval,
	}
}

// Start schedules the sweep job and starts the scheduler.
// Returns ErrSweeperRunning if the sweeper is already started.
func (s *Sweeper) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return ErrSweeperRunning
	}

	sched, err := gocron.NewScheduler()
	if err != nil {
		return fmt.Errorf("create sweep scheduler: %w", err)
	}

	_, err = sched.NewJob(
		gocron.DurationJob(s.interval),
		gocron.NewTask(func() {
			// A failed sweep retries on the next tick.
			if _, err := s.store.Sweep(context.Background()); err != nil {
				s.store.emit(context.Background(), EventSweepError,
					observability.LevelWarning, map[string]any{"error": err.Error()})
			}
		}),
		gocron.WithName("persist-sweep"),
	)
	if err != nil {
		return fmt.Errorf("create sweep job: %w", err)
	}

	sched.Start()
	s.scheduler = sched
	s.running = true
	return nil
}

// Close stops the scheduler. Safe to call when not started.
func (s *Sweeper) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}
	s.running = false
	return s.scheduler.Shutdown()
}
