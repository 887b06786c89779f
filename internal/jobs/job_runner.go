package jobs

import (
	"time"

	"libraryhub-backend/internal/config"
	"libraryhub-backend/internal/logger"
	"libraryhub-backend/internal/service"
)

// JobRunner coordinates all scheduled jobs
type JobRunner struct {
	reservations service.ReservationService
	borrows      service.BorrowService
	config       *config.Config
}

// NewJobRunner creates a new job runner with all dependencies
func NewJobRunner(reservations service.ReservationService, borrows service.BorrowService, cfg *config.Config) *JobRunner {
	return &JobRunner{
		reservations: reservations,
		borrows:      borrows,
		config:       cfg,
	}
}

// Config returns the configuration the runner was built with
func (jr *JobRunner) Config() *config.Config {
	return jr.config
}

// runWithRecovery wraps job execution with panic recovery
func (jr *JobRunner) runWithRecovery(jobName string, jobFunc func()) {
	log := logger.WithService("cronjob").With("job", jobName)
	defer func() {
		if r := recover(); r != nil {
			log.Error("Job panicked", "panic", r)
		}
	}()

	started := time.Now()
	log.Info("Starting job")
	jobFunc()
	log.Info("Job completed", "duration_ms", time.Since(started).Milliseconds())
}

// RunAll runs every scheduled job once (for manual execution)
func (jr *JobRunner) RunAll() {
	jr.SweepExpiredReservations()
	jr.ReportOverdueLoans()
}
