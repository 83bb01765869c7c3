package config

import "time"

// WorkerConfig contains configuration for one queue worker.
type WorkerConfig struct {
	// Concurrency is the number of consumer goroutines.
	Concurrency int `env:"CONCURRENCY" envDefault:"1"`

	// PopTimeout bounds each blocking queue pop so shutdown stays responsive.
	PopTimeout time.Duration `env:"POP_TIMEOUT" envDefault:"5s"`
}

// Sanitize applies guardrails to worker configuration values.
func (w *WorkerConfig) Sanitize() {
	if w.Concurrency < 1 {
		w.Concurrency = 1
	}
	if w.PopTimeout <= 0 {
		w.PopTimeout = 5 * time.Second
	}
}

// CleanupConfig contains job record retention configuration.
type CleanupConfig struct {
	// RetentionDays is how long terminal job rows are kept before pruning.
	RetentionDays int `env:"JOB_RETENTION_DAYS" envDefault:"30"`
}

// Sanitize applies guardrails to cleanup configuration values.
func (c *CleanupConfig) Sanitize() {
	if c.RetentionDays < 1 {
		c.RetentionDays = 1
	}
}
