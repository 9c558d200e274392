package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"budgetmate/internal/adapters"
	"budgetmate/internal/cache"
	"budgetmate/internal/cli"
	apphttp "budgetmate/internal/http"
	applog "budgetmate/internal/log"
	"budgetmate/internal/services"
)

func main() {
	cli.LoadEnvFile()
	bootstrap := cli.SetupLogger("info", applog.ComponentApp)
	cfg := cli.LoadAndValidateConfig(bootstrap.Logger)
	logger := cli.SetupLogger(cfg.LogLevel, applog.ComponentApp)

	logger.Info("Starting budgetmate", "port", cfg.Port, "db", cfg.SQLiteDBPath)

	repo := cli.InitSQLite(logger.Logger, cfg.SQLiteDBPath)
	defer repo.Close()

	var publisher services.TransactionPublisher
	if amqpClient := cli.InitAMQP(logger.Logger, cfg, false); amqpClient != nil {
		defer amqpClient.Close()
		publisher = adapters.NewAMQPPublisher(amqpClient, repo)
	}

	reportCache := services.NewReportCache(cfg.ReportCacheSize, cfg.ReportCacheTTL)
	cacheManager := cache.NewManager()
	cacheManager.Register(reportCache)
	cacheManager.StartCleanup(cfg.ReportCacheTTL)
	defer cacheManager.Stop()

	reports := services.NewReportService(repo, reportCache)
	srv, err := apphttp.NewServer(apphttp.Options{
		Addr:                    ":" + cfg.Port,
		SessionTTL:              cfg.SessionTTL,
		CookieSecure:            cfg.SessionCookieSecure,
		RateLimitPerMinute:      cfg.RateLimitPerMinute,
		LoginRateLimitPerMinute: cfg.LoginRateLimitPerMinute,
	}, apphttp.Dependencies{
		Accounts:     services.NewAccountService(repo, cfg.BcryptCost, cfg.SessionTTL),
		Budgets:      services.NewBudgetService(repo),
		Transactions: services.NewTransactionService(repo, publisher, reports),
		Goals:        services.NewGoalService(repo),
		Reports:      reports,
		DB:           repo,
		Logger:       logger,
	})
	if err != nil {
		logger.Error("Failed to build HTTP server", "error", err)
		os.Exit(1)
	}
	srv.MaxHeaderBytes = 1 << 16

	ctx, stop := cli.SignalContext(logger.Logger)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("Server error", "error", err, "port", cfg.Port)
			os.Exit(1)
		}
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", "error", err)
	}
	logger.Info("Server stopped gracefully")
}
