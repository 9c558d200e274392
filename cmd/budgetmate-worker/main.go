package main

import (
	"context"
	"errors"
	"os"
	"time"

	"budgetmate/internal/backend"
	"budgetmate/internal/cli"
	applog "budgetmate/internal/log"
	"budgetmate/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	bootstrap := cli.SetupLogger("info", applog.ComponentMirror)
	cfg := cli.LoadAndValidateConfig(bootstrap.Logger)
	logger := cli.SetupLogger(cfg.LogLevel, applog.ComponentMirror)

	logger.Info("Starting budgetmate-worker", "backend", cfg.MirrorBackend)

	repo := cli.InitSQLite(logger.Logger, cfg.SQLiteDBPath)
	defer repo.Close()

	amqpClient := cli.InitAMQP(logger.Logger, cfg, true)
	defer amqpClient.Close()

	ctx, stop := cli.SignalContext(logger.Logger)
	defer stop()

	settings, err := backend.SettingsFrom(cfg)
	if err != nil {
		logger.Error("Invalid mirror backend configuration", "error", err)
		os.Exit(1)
	}
	ledger, err := backend.Open(ctx, settings, logger.Logger)
	if err != nil {
		logger.Error("Failed to open mirror ledger", "error", err, "backend", string(settings.Kind))
		os.Exit(1)
	}

	mirror := worker.NewMirrorWorker(repo, ledger, 10*time.Minute)

	logger.Info("Performing startup resync")
	if err := mirror.Resync(ctx); err != nil {
		// events keep flowing; the next restart retries the resync
		logger.Error("Startup resync failed", "error", err)
	}

	err = amqpClient.ConsumeTransactionEvents(ctx, mirror.HandleEvent)
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Event consumption failed", "error", err)
		os.Exit(1)
	}
	logger.Info("Worker stopped gracefully")
}
