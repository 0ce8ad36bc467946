package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// IntervalScheduler runs sync passes on a fixed ticker
type IntervalScheduler struct {
	interval time.Duration
	runner   Runner

	mu          sync.RWMutex
	running     bool
	stopped     bool
	stopOnce    sync.Once
	closeOnce   sync.Once
	stopChan    chan struct{}
	stoppedChan chan struct{}

	stats struct {
		lastRunTime    time.Time
		nextRunTime    time.Time
		totalPasses    int
		successfulRuns int
		failedRuns     int
		lastError      string
	}
}

// NewIntervalScheduler creates an interval-based scheduler
func NewIntervalScheduler(interval time.Duration, runner Runner) (*IntervalScheduler, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("interval must be positive, got %v", interval)
	}
	if runner == nil {
		return nil, fmt.Errorf("runner cannot be nil")
	}

	return &IntervalScheduler{
		interval:    interval,
		runner:      runner,
		stopChan:    make(chan struct{}),
		stoppedChan: make(chan struct{}),
	}, nil
}

// Start begins the scheduling loop in a background goroutine
func (s *IntervalScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("scheduler is already running")
	}
	if s.stopped {
		return fmt.Errorf("scheduler cannot be restarted after stop")
	}

	s.running = true
	s.stats.nextRunTime = time.Now().Add(s.interval)

	go s.run(ctx)
	return nil
}

// run is the scheduling loop
func (s *IntervalScheduler) run(ctx context.Context) {
	defer s.closeOnce.Do(func() {
		s.mu.Lock()
		s.stopped = true
		s.running = false
		s.mu.Unlock()
		close(s.stoppedChan)
	})

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.executePass(ctx)
		}
	}
}

// executePass runs one sync pass and records its outcome
func (s *IntervalScheduler) executePass(ctx context.Context) {
	s.mu.Lock()
	s.stats.lastRunTime = time.Now()
	s.stats.totalPasses++
	s.stats.nextRunTime = time.Now().Add(s.interval)
	s.mu.Unlock()

	err := s.runner.RunAll(ctx)

	s.mu.Lock()
	if err != nil {
		s.stats.failedRuns++
		s.stats.lastError = err.Error()
	} else {
		s.stats.successfulRuns++
		s.stats.lastError = ""
	}
	s.mu.Unlock()
}

// Stop gracefully stops the scheduler and waits for the loop to exit.
// Stopping a scheduler whose loop already ended (context cancellation,
// an earlier Stop) is a no-op, not an error; only Stop before Start
// fails.
func (s *IntervalScheduler) Stop() error {
	s.mu.RLock()
	running, stopped := s.running, s.stopped
	s.mu.RUnlock()

	if stopped {
		return nil
	}
	if !running {
		return fmt.Errorf("scheduler is not running")
	}

	s.stopOnce.Do(func() {
		close(s.stopChan)
	})

	<-s.stoppedChan
	return nil
}

// Status returns the current scheduler status
func (s *IntervalScheduler) Status() *Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return &Status{
		Running:        s.running,
		LastRunTime:    s.stats.lastRunTime,
		NextRunTime:    s.stats.nextRunTime,
		TotalPasses:    s.stats.totalPasses,
		SuccessfulRuns: s.stats.successfulRuns,
		FailedRuns:     s.stats.failedRuns,
		LastError:      s.stats.lastError,
	}
}
