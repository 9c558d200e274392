package main

import (
	"context"
	"os"
	"time"

	"budgetmate/internal/cli"
	applog "budgetmate/internal/log"
	"budgetmate/internal/services"
)

func main() {
	cli.LoadEnvFile()
	bootstrap := cli.SetupLogger("info", applog.ComponentHousekeeping)
	cfg := cli.LoadAndValidateConfig(bootstrap.Logger)
	logger := cli.SetupLogger(cfg.LogLevel, applog.ComponentHousekeeping)

	logger.Info("Starting housekeeping-worker",
		"purge_schedule", cfg.HousekeepingSchedule,
		"month_open_schedule", cfg.MonthOpenSchedule)

	repo := cli.InitSQLite(logger.Logger, cfg.SQLiteDBPath)
	defer repo.Close()

	processor := services.NewHousekeepingProcessor(
		services.NewAccountService(repo, cfg.BcryptCost, cfg.SessionTTL),
		services.NewBudgetService(repo),
		services.HousekeepingConfig{
			PurgeSchedule:     cfg.HousekeepingSchedule,
			MonthOpenSchedule: cfg.MonthOpenSchedule,
		},
	)

	ctx, stop := cli.SignalContext(logger.Logger)
	defer stop()

	if err := processor.Start(ctx); err != nil {
		logger.Error("Failed to start housekeeping processor", "error", err)
		os.Exit(1)
	}

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := processor.Stop(shutdownCtx); err != nil {
		logger.Error("Housekeeping processor stop error", "error", err)
	}
	logger.Info("Housekeeping worker stopped")
}
