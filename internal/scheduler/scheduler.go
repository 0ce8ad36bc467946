package scheduler

import (
	"context"
	"time"
)

// Scheduler drives periodic sync passes for the daemon
type Scheduler interface {
	// Start begins the scheduling loop
	Start(ctx context.Context) error

	// Stop gracefully stops the scheduler
	Stop() error

	// Status returns the current scheduler status
	Status() *Status
}

// Status represents the current state of a scheduler
type Status struct {
	Running        bool
	LastRunTime    time.Time
	NextRunTime    time.Time
	TotalPasses    int
	SuccessfulRuns int
	FailedRuns     int
	LastError      string
}

// Runner executes one sync pass over all tracked files
type Runner interface {
	// RunAll syncs every tracked file, isolating per-file failures,
	// and returns an error only when at least one file failed
	RunAll(ctx context.Context) error
}
