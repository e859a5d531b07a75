// Command interest credits one month of savings interest and exits. It is
// meant for an external scheduler when the API's built-in cron is disabled.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"esarbank/internal/config"
	"esarbank/internal/database"
	"esarbank/internal/logger"
	"esarbank/internal/router"
)

func main() {
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Interest run failed: %v", err)
	}
}

func run() error {
	log := logger.Named("interest")

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	dbManager, err := database.NewManager(database.NewConfig(cfg))
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}
	defer func() {
		if err := dbManager.Close(); err != nil {
			log.Warnf("database close error: %v", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc := router.NewServices(dbManager.DB())
	result, err := svc.Interest.ApplyMonthlyInterest(ctx)
	if err != nil {
		return err
	}

	for _, e := range result.Errors {
		log.Errorw("account not credited", "account_id", e.AccountID, "error", e.Err)
	}
	log.Infow("run complete",
		"period", result.Period,
		"scanned", result.Scanned,
		"credited", result.Credited,
		"skipped", result.Skipped,
		"failed", result.Failed,
		"total_interest", result.TotalInterest.StringFixed(2),
		"duration", result.Duration,
	)

	if result.Failed > 0 {
		return fmt.Errorf("%d of %d accounts failed for %s", result.Failed, result.Scanned, result.Period)
	}
	return nil
}
