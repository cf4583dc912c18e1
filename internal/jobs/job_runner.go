package jobs

import (
	"context"
	"fmt"
	"time"

	"fuelrecon-backend/internal/config"
	"fuelrecon-backend/internal/logger"
	"fuelrecon-backend/internal/metrics"
	"fuelrecon-backend/internal/repository"
	"fuelrecon-backend/internal/service"
)

const lockPrefix = "fuelrecon:job:"

// JobRunner coordinates all scheduled jobs
type JobRunner struct {
	reconciliations service.ReconciliationService
	recRepo         repository.ReconciliationRepository
	locker          Locker
	config          *config.Config
	now             service.Clock
}

// NewJobRunner creates a job runner. A nil locker runs jobs without cross-instance locking.
func NewJobRunner(
	reconciliations service.ReconciliationService,
	recRepo repository.ReconciliationRepository,
	locker Locker,
	cfg *config.Config,
	now service.Clock,
) *JobRunner {
	if now == nil {
		now = time.Now
	}
	return &JobRunner{
		reconciliations: reconciliations,
		recRepo:         recRepo,
		locker:          locker,
		config:          cfg,
		now:             now,
	}
}

// Config returns the configuration the jobs were built with
func (jr *JobRunner) Config() *config.Config {
	return jr.config
}

// runWithRecovery wraps job execution with the job lock, panic recovery and metrics
func (jr *JobRunner) runWithRecovery(jobName string, jobFunc func(ctx context.Context) error) {
	var err error
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Job panicked", "job", jobName, "panic", r)
			err = fmt.Errorf("panic: %v", r)
		}
		metrics.RecordJobRun(jobName, err)
	}()

	ctx := context.Background()
	if jr.locker != nil {
		release, ok, lockErr := jr.locker.Acquire(ctx, lockPrefix+jobName, jr.config.Scheduler.JobLockTimeout)
		if lockErr != nil {
			err = lockErr
			logger.Error("Failed to acquire job lock", "job", jobName, "error", lockErr)
			return
		}
		if !ok {
			logger.Info("Job already running elsewhere, skipping", "job", jobName)
			return
		}
		defer release()
	}

	logger.Info("Starting job", "job", jobName)
	if err = jobFunc(ctx); err != nil {
		logger.Error("Job failed", "job", jobName, "error", err)
		return
	}
	logger.Info("Job completed", "job", jobName)
}

// RunAllNightlyJobs runs all nightly jobs (for manual execution)
func (jr *JobRunner) RunAllNightlyJobs() {
	jr.AutoCloseDays()
	jr.RerunOpenDays()
}
