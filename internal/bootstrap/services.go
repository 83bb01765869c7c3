package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spendlens/spendlens/config"
	"github.com/spendlens/spendlens/internal/data"
	"github.com/spendlens/spendlens/internal/dispatch"
	"github.com/spendlens/spendlens/internal/extract"
	"github.com/spendlens/spendlens/internal/observability/metrics"
	"github.com/spendlens/spendlens/internal/observability/statsd"
	"github.com/spendlens/spendlens/internal/service"
)

const (
	shutdownWaitTimeout = 15 * time.Second
	queueDepthInterval  = 30 * time.Second
)

// ServiceContainer holds all application services.
type ServiceContainer struct {
	Tasks      *service.TaskService
	JobQueries *service.JobQueryService
	Executor   *service.Executor
	Fetch      *service.FetchService
	Extraction *service.ExtractionService
	Cleanup    *service.CleanupService

	BaseQueue  *dispatch.Queue
	EmailQueue *dispatch.Queue

	Observability ObservabilityContainer
}

// ObservabilityContainer groups shared observability dependencies.
type ObservabilityContainer struct {
	MetricsSink   *statsd.Client
	MetricsConfig config.ObservabilityMetricsConfig
}

// ServiceDeps groups dependencies for service initialization.
type ServiceDeps struct {
	Config     *config.AppConfig
	DB         *sql.DB
	BaseRedis  redis.UniversalClient
	EmailRedis redis.UniversalClient
	Logger     *slog.Logger
}

// buildObservability configures the metrics sink.
func buildObservability(logger *slog.Logger, cfg config.ObservabilityConfig) ObservabilityContainer {
	obsLogger := logger
	if obsLogger == nil {
		obsLogger = slog.Default()
	}

	var metricsSink *statsd.Client
	if cfg.Metrics.IsEnabled() {
		client, err := statsd.NewClient(statsd.Config{
			Enabled: true,
			Address: cfg.Metrics.StatsdAddress,
			Prefix:  cfg.Metrics.StatsdPrefix,
			Logger:  obsLogger,
		})
		if err != nil {
			obsLogger.Error("failed to initialise statsd client", "error", err)
		} else {
			metricsSink = client
		}
	}

	return ObservabilityContainer{
		MetricsSink:   metricsSink,
		MetricsConfig: cfg.Metrics,
	}
}

// NewServices builds all repositories and services from shared dependencies.
func NewServices(deps *ServiceDeps) (ServiceContainer, error) {
	if deps == nil || deps.Config == nil {
		return ServiceContainer{}, errors.New("service dependencies are required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	observability := buildObservability(logger, deps.Config.Observability)

	repoCfg := data.RepoConfig{Logger: logger}
	jobRepo := data.NewJobRepo(deps.DB, repoCfg)
	accountRepo := data.NewAccountRepo(deps.DB)
	emailRepo := data.NewEmailRepo(deps.DB, repoCfg)
	extractionRepo := data.NewExtractionRepo(deps.DB, repoCfg)
	categoryRepo := data.NewCategoryRepo(deps.DB, repoCfg)
	transactionRepo := data.NewTransactionRepo(deps.DB, repoCfg)

	baseQueue := dispatch.NewQueue(deps.BaseRedis, dispatch.BaseQueueKey)
	emailQueue := dispatch.NewQueue(deps.EmailRedis, dispatch.EmailQueueKey)

	executor, err := service.NewExecutor(service.ExecutorOptions{
		Jobs:    jobRepo,
		Logger:  logger,
		Metrics: observability.MetricsSink,
	})
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("build executor: %w", err)
	}

	fetchSvc, err := service.NewFetchService(service.FetchServiceOptions{
		Accounts: accountRepo,
		Emails:   emailRepo,
		Logger:   logger,
		Google: service.GoogleClientConfig{
			ClientID:     deps.Config.Providers.Google.ClientID,
			ClientSecret: deps.Config.Providers.Google.ClientSecret,
		},
	})
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("build fetch service: %w", err)
	}

	extractionSvc, err := service.NewExtractionService(service.ExtractionServiceOptions{
		Emails:       emailRepo,
		Extractions:  extractionRepo,
		Categories:   categoryRepo,
		Transactions: transactionRepo,
		Extractor:    extract.NewKeywordExtractor(),
		Logger:       logger,
	})
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("build extraction service: %w", err)
	}

	cleanupSvc, err := service.NewCleanupService(service.CleanupServiceOptions{
		Jobs:   jobRepo,
		Logger: logger,
	})
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("build cleanup service: %w", err)
	}

	taskSvc, err := service.NewTaskService(service.TaskServiceOptions{
		BaseQueue:  baseQueue,
		EmailQueue: emailQueue,
	})
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("build task service: %w", err)
	}

	jobQueries, err := service.NewJobQueryService(jobRepo)
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("build job query service: %w", err)
	}

	return ServiceContainer{
		Tasks:         taskSvc,
		JobQueries:    jobQueries,
		Executor:      executor,
		Fetch:         fetchSvc,
		Extraction:    extractionSvc,
		Cleanup:       cleanupSvc,
		BaseQueue:     baseQueue,
		EmailQueue:    emailQueue,
		Observability: observability,
	}, nil
}

// RunBaseWorker consumes the base queue until the context is cancelled.
func RunBaseWorker(ctx context.Context, deps *ServiceDeps, services ServiceContainer) error {
	registry := dispatch.NewRegistry()
	service.RegisterBaseTasks(registry, services.Executor, services.Cleanup)

	worker, err := dispatch.NewWorker(dispatch.WorkerOptions{
		Client:      deps.BaseRedis,
		QueueKey:    dispatch.BaseQueueKey,
		Registry:    registry,
		Logger:      deps.Logger,
		Concurrency: deps.Config.BaseWorker.Concurrency,
		PopTimeout:  deps.Config.BaseWorker.PopTimeout,
	})
	if err != nil {
		return fmt.Errorf("build base worker: %w", err)
	}

	go reportQueueDepth(ctx, services.BaseQueue, services.Observability.MetricsSink, deps.Logger)
	return worker.Run(ctx)
}

// RunEmailWorker consumes the email queue until the context is cancelled.
func RunEmailWorker(ctx context.Context, deps *ServiceDeps, services ServiceContainer) error {
	registry := dispatch.NewRegistry()
	service.RegisterEmailTasks(registry, services.Executor, services.Fetch, services.Extraction)

	worker, err := dispatch.NewWorker(dispatch.WorkerOptions{
		Client:      deps.EmailRedis,
		QueueKey:    dispatch.EmailQueueKey,
		Registry:    registry,
		Logger:      deps.Logger,
		Concurrency: deps.Config.EmailWorker.Concurrency,
		PopTimeout:  deps.Config.EmailWorker.PopTimeout,
	})
	if err != nil {
		return fmt.Errorf("build email worker: %w", err)
	}

	go reportQueueDepth(ctx, services.EmailQueue, services.Observability.MetricsSink, deps.Logger)
	return worker.Run(ctx)
}

// reportQueueDepth periodically emits the waiting task count for one queue.
func reportQueueDepth(ctx context.Context, queue *dispatch.Queue, sink statsd.Sink, logger *slog.Logger) {
	if sink == nil {
		return
	}
	ticker := time.NewTicker(queueDepthInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			depth, err := queue.Depth(ctx)
			if err != nil {
				if logger != nil && ctx.Err() == nil {
					logger.WarnContext(ctx, "queue depth probe failed", "queue", queue.Key(), "error", err)
				}
				continue
			}
			metrics.EmitQueueDepth(sink, queue.Key(), depth)
		}
	}
}

// ServiceOrchestrationConfig contains everything needed to run the enabled services.
type ServiceOrchestrationConfig struct {
	Config   *config.AppConfig
	DB       *sql.DB
	Deps     *ServiceDeps
	Services ServiceContainer
	Logger   *slog.Logger
}

// backgroundService describes a startable background component.
type backgroundService struct {
	mode  config.ServiceMode
	name  string
	start func(context.Context) error
}

// backgroundServiceHandle tracks a running background service.
type backgroundServiceHandle struct {
	name string
	done <-chan struct{}
}

type serviceStartupDeps struct {
	ctx             context.Context
	cfg             *ServiceOrchestrationConfig
	logger          *slog.Logger
	enabledServices map[config.ServiceMode]bool
	errCh           chan error
}

// startHTTPServerIfEnabled starts the HTTP server if enabled.
func startHTTPServerIfEnabled(deps *serviceStartupDeps) *http.Server {
	if deps == nil || deps.cfg == nil || !deps.enabledServices[config.ServiceModeHTTP] {
		return nil
	}
	return StartHTTPServer(&HTTPServerConfig{
		Config:   deps.cfg.Config,
		DB:       deps.cfg.DB,
		Services: deps.cfg.Services,
		Logger:   deps.logger,
	})
}

func launchBackground(ctx context.Context, deps *serviceStartupDeps, descriptor backgroundService) <-chan struct{} {
	if deps == nil || !deps.enabledServices[descriptor.mode] {
		return nil
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := descriptor.start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			errMsg := fmt.Errorf("%s failed: %w", descriptor.name, err)
			select {
			case deps.errCh <- errMsg:
			case <-ctx.Done():
			default:
				deps.logger.WarnContext(ctx, "dropping background service error",
					"service", descriptor.name, "error", errMsg)
			}
		}
	}()

	deps.logger.InfoContext(ctx, "background service started",
		"service", descriptor.name, "mode", descriptor.mode)

	return done
}

func startBackgroundServices(deps *serviceStartupDeps) []backgroundServiceHandle {
	if deps == nil {
		return nil
	}

	services := []backgroundService{
		{
			mode: config.ServiceModeBaseWorker,
			name: "base worker",
			start: func(ctx context.Context) error {
				return RunBaseWorker(ctx, deps.cfg.Deps, deps.cfg.Services)
			},
		},
		{
			mode: config.ServiceModeEmailWorker,
			name: "email worker",
			start: func(ctx context.Context) error {
				return RunEmailWorker(ctx, deps.cfg.Deps, deps.cfg.Services)
			},
		},
	}

	handles := make([]backgroundServiceHandle, 0, len(services))
	for _, svc := range services {
		done := launchBackground(deps.ctx, deps, svc)
		if done == nil {
			continue
		}
		handles = append(handles, backgroundServiceHandle{name: svc.name, done: done})
	}

	return handles
}

// RunServicesWithShutdown starts all enabled services and manages their lifecycle.
// This function blocks until a shutdown signal is received or a service fails.
func RunServicesWithShutdown(cfg *ServiceOrchestrationConfig) error {
	if cfg == nil {
		return errors.New("service orchestration config is required")
	}
	if cfg.Config == nil {
		return errors.New("service orchestration config missing AppConfig")
	}

	serviceCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	enabledServices, err := cfg.Config.GetEnabledServices()
	if err != nil {
		return fmt.Errorf("determine enabled services: %w", err)
	}
	errCh := make(chan error, len(enabledServices)+1)

	deps := &serviceStartupDeps{
		ctx:             serviceCtx,
		cfg:             cfg,
		logger:          logger,
		enabledServices: enabledServices,
		errCh:           errCh,
	}

	httpServer := startHTTPServerIfEnabled(deps)
	backgrounds := startBackgroundServices(deps)

	return waitForShutdown(shutdownConfig{
		ctx:         serviceCtx,
		cancel:      cancel,
		errCh:       errCh,
		httpServer:  httpServer,
		logger:      logger,
		backgrounds: backgrounds,
		metricsSink: cfg.Services.Observability.MetricsSink,
	})
}

// shutdownConfig contains dependencies for graceful shutdown.
type shutdownConfig struct {
	ctx         context.Context
	cancel      context.CancelFunc
	errCh       <-chan error
	httpServer  *http.Server
	logger      *slog.Logger
	backgrounds []backgroundServiceHandle
	metricsSink *statsd.Client
}

// waitForShutdown waits for shutdown signal or service error.
func waitForShutdown(cfg shutdownConfig) error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case <-quit:
		cfg.logger.Info("shutting down services...")
		cfg.cancel()
		return gracefulStop(cfg)
	case err := <-cfg.errCh:
		cfg.logger.Error("service error", "error", err)
		cfg.cancel()
		if stopErr := gracefulStop(cfg); stopErr != nil {
			cfg.logger.Error("graceful stop failed", "error", stopErr)
		}
		return err
	}
}

// gracefulStop attempts to gracefully stop all services.
func gracefulStop(cfg shutdownConfig) error {
	if cfg.httpServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownWaitTimeout)
		defer cancel()

		if err := ShutdownHTTPServer(ShutdownConfig{
			Context: shutdownCtx,
			Server:  cfg.httpServer,
			Logger:  cfg.logger,
		}); err != nil {
			return err
		}
	}

	for _, svc := range cfg.backgrounds {
		waitForService(svc.done, svc.name, cfg.logger)
	}

	if cfg.metricsSink != nil {
		if err := cfg.metricsSink.Close(); err != nil {
			cfg.logger.Warn("close metrics sink", "error", err)
		}
	}

	return nil
}

// waitForService waits for a service to finish with timeout.
func waitForService(done <-chan struct{}, name string, logger *slog.Logger) {
	if done == nil {
		return
	}
	select {
	case <-done:
		logger.Info(name + " stopped")
	case <-time.After(shutdownWaitTimeout):
		logger.Warn("timeout waiting for " + name + " to stop")
	}
}
