package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"esarbank/internal/config"
	"esarbank/internal/database"
	"esarbank/internal/logger"
	"esarbank/internal/notify"
	"esarbank/internal/router"
	"esarbank/internal/scheduler"
	"esarbank/internal/validator"

	_ "esarbank/internal/docs" // Import swagger docs
)

// @title           ESAR Bank API
// @version         1.0
// @description     ESAR Bank online banking backend: customer onboarding, savings and current accounts, fund transfers, fixed deposits and monthly interest.
// @termsOfService  http://swagger.io/terms/

// @host      localhost:8080
// @BasePath  /api

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Initialize logger (use ENV var if available, default to development)
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	log := logger.Get()

	// Load configuration
	appConfig, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Create database manager
	dbManager, err := database.NewManager(database.NewConfig(appConfig))
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}
	defer func() {
		if err := dbManager.Close(); err != nil {
			log.Warnf("database close error: %v", err)
		}
	}()

	// Run migrations
	if err := dbManager.RunMigrations(); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	validator.Register()

	svc := router.NewServices(dbManager.DB())
	engine := router.New(appConfig, svc, notify.New(appConfig))

	sched := scheduler.New(time.UTC)
	if appConfig.InterestJobEnabled {
		if _, err := sched.Register("monthly-interest", appConfig.InterestCron, scheduler.MonthlyInterest(svc.Interest)); err != nil {
			return fmt.Errorf("failed to schedule monthly interest: %w", err)
		}
	}
	sched.Start()

	srv := &http.Server{
		Addr:         ":" + appConfig.Port,
		Handler:      engine,
		ReadTimeout:  appConfig.ReadTimeout,
		WriteTimeout: appConfig.WriteTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		log.Infof("Starting ESAR Bank server on port %s", appConfig.Port)
		log.Infof("Swagger documentation available at http://localhost:%s/swagger/index.html", appConfig.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
		log.Info("Shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), appConfig.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warnf("server shutdown error: %v", err)
	}
	if err := sched.Stop(shutdownCtx); err != nil {
		log.Warnf("scheduler stop error: %v", err)
	}

	log.Info("Server stopped")
	return nil
}
