package service

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/csync-dev/csync/internal/config"
	"github.com/csync-dev/csync/internal/lock"
	"github.com/csync-dev/csync/internal/logger"
	"github.com/csync-dev/csync/internal/scheduler"
)

// DaemonService runs periodic sync passes until interrupted
type DaemonService struct {
	sync  *SyncService
	sched scheduler.Scheduler
	pid   *lock.PIDFile
}

// NewDaemonService creates a daemon around the sync service using the
// configured interval
func NewDaemonService(cfg *config.Config, sync *SyncService) (*DaemonService, error) {
	interval, err := cfg.Daemon.GetInterval()
	if err != nil {
		return nil, err
	}
	sched, err := scheduler.NewIntervalScheduler(interval, sync)
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}
	pid, err := lock.NewPIDFile(cfg.GetDataDir())
	if err != nil {
		return nil, err
	}
	return &DaemonService{sync: sync, sched: sched, pid: pid}, nil
}

// StopRunning signals a daemon started from the same data directory
func StopRunning(cfg *config.Config) error {
	pid, err := lock.NewPIDFile(cfg.GetDataDir())
	if err != nil {
		return err
	}
	return pid.Stop()
}

// Run starts the periodic passes and blocks until the context is
// cancelled or a SIGINT/SIGTERM arrives. One pass runs immediately on
// startup.
func (d *DaemonService) Run(ctx context.Context) error {
	log := logger.Get()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := d.pid.Write(); err != nil {
		return err
	}
	defer d.pid.Remove()

	if err := d.sync.RunAll(ctx); err != nil {
		log.Error("initial pass failed", "error", err)
	}

	if err := d.sched.Start(ctx); err != nil {
		return err
	}
	log.Info("daemon started")

	<-ctx.Done()
	log.Info("daemon stopping")
	if err := d.sched.Stop(); err != nil {
		return err
	}

	status := d.sched.Status()
	log.Info("daemon stopped",
		"passes", status.TotalPasses,
		"failures", status.FailedRuns)
	return nil
}

// Status reports the scheduler state
func (d *DaemonService) Status() *scheduler.Status {
	return d.sched.Status()
}
