package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/lib/pq"

	"fuelrecon-backend/internal/alert"
	apihttp "fuelrecon-backend/internal/api/http"
	"fuelrecon-backend/internal/config"
	"fuelrecon-backend/internal/logger"
	"fuelrecon-backend/internal/repository/postgres"
	"fuelrecon-backend/internal/security"
	"fuelrecon-backend/internal/service"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting FuelRecon Backend...", "log_level", cfg.Log.Level, "log_format", cfg.Log.Format)
	logger.Info("Server configuration", "address", cfg.GetServerAddress())
	logger.Info("Database configuration", "host", cfg.Database.Host, "port", cfg.Database.Port, "database", cfg.Database.Database, "user", cfg.Database.User)
	logger.Info("Business configuration", "timezone", cfg.Location().String(), "finalize_on_run", cfg.FinalizeOnRun())

	// Initialize Database
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

	// Initialize alert delivery
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dispatcher, err := alert.NewFromConfig(ctx, cfg.Alerts, store.AlertRepository)
	if err != nil {
		logger.Error("Failed to initialize alert delivery", "error", err)
		log.Fatalf("Failed to initialize alert delivery: %v", err)
	}

	// Initialize Services
	prices := service.NewPriceResolver(store.PriceRepository)
	creditSvc := service.NewCreditService(store.CreditorRepository, nil)
	readingSvc := service.NewReadingService(
		store.TxManager,
		store.NozzleRepository,
		store.ReadingRepository,
		store.SaleRepository,
		store.ReconciliationRepository,
		store.AuditRepository,
		prices,
		creditSvc,
		dispatcher,
		service.ReadingOptions{
			Location:                 cfg.Location(),
			RequireResetConfirmation: cfg.Readings.RequireResetConfirmation,
		},
	)
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

	// Initialize Security
	tokenManager := security.NewTokenManager(cfg.JWT.Secret, cfg.JWT.Issuer)

	// Set up HTTP server
	server := apihttp.NewServer(readingSvc, reconciliationSvc, creditSvc, store, tokenManager)
	httpServer := &http.Server{
		Addr:    cfg.GetServerAddress(),
		Handler: server.Router(),
	}

	go func() {
		logger.Info("HTTP server listening", "address", cfg.GetServerAddress())
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()

	// Graceful shutdown
	logger.Info("Shutting down HTTP server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown failed", "error", err)
	}
	if err := dispatcher.Close(shutdownCtx); err != nil {
		logger.Error("Alert dispatcher did not drain", "error", err)
	}
	logger.Info("Server stopped. Goodbye!")
}
