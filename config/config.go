// Package config defines the environment-driven application configuration.
package config

import (
	"os"
	"strings"
)

// AppConfig is the main application configuration struct that composes
// domain-specific configuration from separate files.
//
// Configuration is loaded from environment variables using the
// github.com/caarlos0/env library. See individual domain config
// files for details on available environment variables:
//   - database.go: Database and queue backend configuration
//   - http.go: HTTP server configuration
//   - services.go: Service mode selection
//   - workers.go: Queue worker configuration
//   - providers.go: Mail provider OAuth configuration
type AppConfig struct {
	// IsDev controls development mode behavior (verbose logging, relaxed
	// guardrails). Set DEV=true for development mode.
	IsDev bool `env:"DEV" envDefault:"false"`

	// Database configuration
	Postgres DBConfig `envPrefix:"DB_"`

	// Queue backend configuration. Each queue gets its own Redis database so
	// one queue's failures stay isolated from the other.
	BaseQueue  QueueRedisConfig `envPrefix:"BASE_QUEUE_"`
	EmailQueue QueueRedisConfig `envPrefix:"EMAIL_QUEUE_"`

	// HTTP server configuration
	HTTP HTTPConfig

	// Service mode configuration
	Services string `env:"SERVICES" envDefault:"http"`

	// Queue worker configuration
	BaseWorker  WorkerConfig `envPrefix:"BASE_WORKER_"`
	EmailWorker WorkerConfig `envPrefix:"EMAIL_WORKER_"`

	// Mail provider configuration
	Providers ProvidersConfig

	// Job record retention configuration
	Cleanup CleanupConfig

	// Observability configuration
	Observability ObservabilityConfig
}

// Sanitize applies guardrails to configuration values loaded from env.
// This should be called after loading configuration from environment variables.
func (c *AppConfig) Sanitize() {
	c.BaseQueue.SanitizeWithDefaultDB(BaseQueueRedisDB)
	c.EmailQueue.SanitizeWithDefaultDB(EmailQueueRedisDB)
	c.BaseWorker.Sanitize()
	c.EmailWorker.Sanitize()
	c.Cleanup.Sanitize()
	c.Observability.Sanitize()

	c.detectDevMode()
}

// detectDevMode checks both DEV and APP_ENV environment variables. APP_ENV is
// checked as a fallback for deployments that only set an environment name.
func (c *AppConfig) detectDevMode() {
	if !c.IsDev {
		appEnv := strings.ToLower(os.Getenv("APP_ENV"))
		c.IsDev = appEnv == "development" || appEnv == "dev"
	}
}

// GetEnabledServices returns the enabled services based on the Services field.
func (c *AppConfig) GetEnabledServices() (map[ServiceMode]bool, error) {
	return ParseServices(c.Services)
}

// IsHTTPServerEnabled returns true if the HTTP server service is enabled.
func (c *AppConfig) IsHTTPServerEnabled() bool {
	services, err := c.GetEnabledServices()
	if err != nil {
		return false
	}
	return services[ServiceModeHTTP]
}

// IsBaseWorkerEnabled returns true if the base queue worker is enabled.
func (c *AppConfig) IsBaseWorkerEnabled() bool {
	services, err := c.GetEnabledServices()
	if err != nil {
		return false
	}
	return services[ServiceModeBaseWorker]
}

// IsEmailWorkerEnabled returns true if the email queue worker is enabled.
func (c *AppConfig) IsEmailWorkerEnabled() bool {
	services, err := c.GetEnabledServices()
	if err != nil {
		return false
	}
	return services[ServiceModeEmailWorker]
}
