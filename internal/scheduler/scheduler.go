package scheduler

import (
	"fmt"

	"github.com/robfig/cron/v3"

	"fuelrecon-backend/internal/jobs"
	"fuelrecon-backend/internal/logger"
)

// Scheduler manages cron job scheduling
type Scheduler struct {
	cron *cron.Cron
	jobs *jobs.JobRunner
}

// NewScheduler creates a scheduler running in the business timezone with seconds precision.
// It fails if a configured schedule does not parse.
func NewScheduler(jobRunner *jobs.JobRunner) (*Scheduler, error) {
	c := cron.New(
		cron.WithLocation(jobRunner.Config().Location()),
		cron.WithSeconds(),
	)

	s := &Scheduler{
		cron: c,
		jobs: jobRunner,
	}

	if err := s.registerJobs(); err != nil {
		return nil, err
	}
	return s, nil
}

// registerJobs registers all scheduled jobs with the cron scheduler
func (s *Scheduler) registerJobs() error {
	cfg := s.jobs.Config().Scheduler

	// Close yesterday's days once the night is over
	if _, err := s.cron.AddFunc(cfg.AutoCloseDays, s.jobs.AutoCloseDays); err != nil {
		return fmt.Errorf("register %s job: %w", jobs.JobAutoCloseDays, err)
	}

	// Keep open days' stored totals fresh
	if _, err := s.cron.AddFunc(cfg.RerunOpenDays, s.jobs.RerunOpenDays); err != nil {
		return fmt.Errorf("register %s job: %w", jobs.JobRerunOpenDays, err)
	}

	logger.Info("All cron jobs registered successfully", "auto_close_days", cfg.AutoCloseDays, "rerun_open_days", cfg.RerunOpenDays)
	return nil
}

// Start begins the cron scheduler
func (s *Scheduler) Start() {
	logger.Info("Starting cron scheduler...")
	s.cron.Start()
	logger.Info("Cron scheduler started successfully")
}

// Stop gracefully stops the cron scheduler, waiting for running jobs
func (s *Scheduler) Stop() {
	logger.Info("Stopping cron scheduler...")
	ctx := s.cron.Stop()
	<-ctx.Done()
	logger.Info("Cron scheduler stopped")
}

// EntryCount returns the number of registered jobs
func (s *Scheduler) EntryCount() int {
	return len(s.cron.Entries())
}
