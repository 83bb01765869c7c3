package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spendlens/spendlens/config"
	"github.com/spendlens/spendlens/internal/bootstrap"
)

func main() {
	ctx := context.Background()
	logger := bootstrap.InitLogger()
	if err := run(ctx, logger); err != nil {
		logger.ErrorContext(ctx, "fatal error", "error", err)
		os.Exit(1) //nolint:forbidigo // Main entrypoint should exit with non-zero status on fatal errors.
	}
}

func run(ctx context.Context, logger *slog.Logger) error {
	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		return err
	}

	logStartupInfo(ctx, logger, &cfg)

	cfgPtr := &cfg
	if err = bootstrap.ValidateServiceConfig(cfgPtr); err != nil {
		return err
	}

	db, err := bootstrap.ConnectDB(bootstrap.DatabaseConfig{
		DBConfig: cfg.Postgres,
		Logger:   logger,
	})
	if err != nil {
		return fmt.Errorf("connect db: %w", err)
	}
	defer func() {
		if cerr := db.Close(); cerr != nil {
			logger.ErrorContext(ctx, "close database failed", "error", cerr)
		}
	}()

	baseRedis, err := bootstrap.ConnectQueueRedis(cfg.BaseQueue, logger)
	if err != nil {
		return fmt.Errorf("connect base queue redis: %w", err)
	}
	defer closeQuietly(ctx, logger, "base queue redis", baseRedis.Close)

	emailRedis, err := bootstrap.ConnectQueueRedis(cfg.EmailQueue, logger)
	if err != nil {
		return fmt.Errorf("connect email queue redis: %w", err)
	}
	defer closeQuietly(ctx, logger, "email queue redis", emailRedis.Close)

	deps := &bootstrap.ServiceDeps{
		Config:     cfgPtr,
		DB:         db,
		BaseRedis:  baseRedis,
		EmailRedis: emailRedis,
		Logger:     logger,
	}
	services, err := bootstrap.NewServices(deps)
	if err != nil {
		return err
	}

	return bootstrap.RunServicesWithShutdown(&bootstrap.ServiceOrchestrationConfig{
		Config:   cfgPtr,
		DB:       db,
		Deps:     deps,
		Services: services,
		Logger:   logger,
	})
}

func logStartupInfo(ctx context.Context, logger *slog.Logger, cfg *config.AppConfig) {
	enabledServices := bootstrap.GetEnabledServices(cfg)
	logger.InfoContext(ctx, "starting spendlens service",
		"db_host", cfg.Postgres.Host,
		"db_port", cfg.Postgres.Port,
		"db_name", cfg.Postgres.Name,
		"enabled_services", enabledServices)
}

func closeQuietly(ctx context.Context, logger *slog.Logger, name string, close func() error) {
	if err := close(); err != nil && !errors.Is(err, context.Canceled) {
		logger.ErrorContext(ctx, "close "+name+" failed", "error", err)
	}
}
