package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"fuelrecon-backend/internal/alert"
	"fuelrecon-backend/internal/config"
	"fuelrecon-backend/internal/jobs"
	"fuelrecon-backend/internal/logger"
	"fuelrecon-backend/internal/repository/postgres"
	"fuelrecon-backend/internal/scheduler"
	"fuelrecon-backend/internal/service"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	runOnce := flag.String("run-once", "", "Run a specific job once and exit (e.g., 'auto-close-days', 'all-nightly')")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting FuelRecon Cronjob Runner...", "log_level", cfg.Log.Level, "timezone", cfg.Location().String())

	// Initialize Database
	logger.Info("Connecting to database...", "host", cfg.Database.Host, "port", cfg.Database.Port)
	db, err := sql.Open("postgres", cfg.GetDatabaseConnectionString())
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		log.Fatalf("Failed to connect to database: %v", err)
	}
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)

	// Test database connection
	if err := db.Ping(); err != nil {
		logger.Error("Failed to ping database", "error", err)
		log.Fatalf("Failed to ping database: %v", err)
	}
	logger.Info("Database connection established")

	// Initialize Repositories
	store := postgres.NewStore(db, postgres.TxOptions{
		AcquireTimeout: cfg.Database.AcquireTimeout,
		MaxRetries:     cfg.Database.MaxRetries,
		RetryBackoff:   cfg.Database.RetryBackoff,
	})
	defer store.Close()

	dispatcher, err := alert.NewFromConfig(context.Background(), cfg.Alerts, store.AlertRepository)
	if err != nil {
		logger.Error("Failed to initialize alert delivery", "error", err)
		log.Fatalf("Failed to initialize alert delivery: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := dispatcher.Close(ctx); err != nil {
			logger.Error("Alert dispatcher did not drain", "error", err)
		}
	}()

	// Initialize Services
	reconciliationSvc := service.NewReconciliationService(
		store.TxManager,
		store.ReadingRepository,
		store.SaleRepository,
		store.CashReportRepository,
		store.ReconciliationRepository,
		store.AuditRepository,
		dispatcher,
		service.ReconciliationOptions{FinalizeOnRun: cfg.FinalizeOnRun()},
		nil,
	)

	// Cross-instance job lock
	var locker jobs.Locker
	if cfg.Redis.Address != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()
		locker = jobs.NewRedisLocker(rdb)
		logger.Info("Job locking enabled", "redis", cfg.Redis.Address)
	} else {
		logger.Warn("Redis not configured, jobs run without cross-instance locking")
	}

	// Initialize Job Runner
	jobRunner := jobs.NewJobRunner(reconciliationSvc, store.ReconciliationRepository, locker, cfg, nil)

	// Check if running a single job
	if *runOnce != "" {
		logger.Info("Running job once", "job", *runOnce)
		if !runJobOnce(jobRunner, *runOnce) {
			os.Exit(1)
		}
		logger.Info("Job execution completed", "job", *runOnce)
		return
	}

	// Initialize Scheduler
	cronScheduler, err := scheduler.NewScheduler(jobRunner)
	if err != nil {
		logger.Error("Failed to create scheduler", "error", err)
		log.Fatalf("Failed to create scheduler: %v", err)
	}

	// Start scheduler
	cronScheduler.Start()
	logger.Info("Cronjob scheduler is running. Press Ctrl+C to stop.")

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	// Graceful shutdown
	logger.Info("Shutting down cronjob scheduler...")
	cronScheduler.Stop()
	logger.Info("Cronjob scheduler stopped. Goodbye!")
}

// runJobOnce runs a specific job once. It reports false for an unknown job name.
func runJobOnce(jobRunner *jobs.JobRunner, jobName string) bool {
	switch jobName {
	case jobs.JobAutoCloseDays:
		jobRunner.AutoCloseDays()
	case jobs.JobRerunOpenDays:
		jobRunner.RerunOpenDays()
	case "all-nightly":
		jobRunner.RunAllNightlyJobs()
	default:
		logger.Error("Unknown job name", "job", jobName)
		fmt.Printf("Available jobs:\n")
		fmt.Printf("  - %s\n", jobs.JobAutoCloseDays)
		fmt.Printf("  - %s\n", jobs.JobRerunOpenDays)
		fmt.Printf("  - all-nightly\n")
		return false
	}
	return true
}
