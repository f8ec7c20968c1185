/*
scheduler.go - Recurring retention sweep

PURPOSE:
  Runs the recovery snapshot retention sweep daily at a fixed hour,
  off the request-handling path. The sweep threshold is the same
  configurable value used by the startup housekeeping pass.
*/
package api

import (
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/ledgerline/bookkeeppr/recovery"
)

// RetentionScheduler prunes old recovery snapshots on a daily cron.
type RetentionScheduler struct {
	cron          *cron.Cron
	recoveryDir   string
	retentionDays int
	log           *zap.Logger
}

// NewRetentionScheduler creates a scheduler for the given recovery
// directory and retention window.
func NewRetentionScheduler(recoveryDir string, retentionDays int, logger *zap.Logger) *RetentionScheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RetentionScheduler{
		cron:          cron.New(),
		recoveryDir:   recoveryDir,
		retentionDays: retentionDays,
		log:           logger,
	}
}

// Start schedules the daily sweep at noon.
func (s *RetentionScheduler) Start() {
	if _, err := s.cron.AddFunc("0 12 * * *", s.RunNow); err != nil {
		s.log.Error("failed to schedule retention sweep", zap.Error(err))
		return
	}
	s.cron.Start()
	s.log.Info("retention scheduler started",
		zap.String("dir", s.recoveryDir), zap.Int("retention_days", s.retentionDays))
}

// Stop stops the scheduler and waits for a running sweep to finish.
func (s *RetentionScheduler) Stop() {
	<-s.cron.Stop().Done()
	s.log.Info("retention scheduler stopped")
}

// RunNow triggers an immediate sweep (startup housekeeping, admin).
func (s *RetentionScheduler) RunNow() {
	if _, err := recovery.Sweep(s.recoveryDir, s.retentionDays, s.log); err != nil {
		s.log.Error("retention sweep failed", zap.Error(err))
	}
}
