package config

// DBConfig contains PostgreSQL database configuration.
type DBConfig struct {
	Host     string `env:"HOST"     envDefault:"localhost"`
	Port     int    `env:"PORT"     envDefault:"5432"`
	User     string `env:"USER"     envDefault:"spendlens"`
	Password string `env:"PASSWORD" envDefault:"spendlens"`
	Name     string `env:"NAME"     envDefault:"spendlens"`
	SSLMode  string `env:"SSL_MODE" envDefault:"disable"` // Use 'disable' for local dev, 'require' for production
	// RunMigrationsOnStart controls whether the application automatically applies migrations during startup.
	RunMigrationsOnStart bool `env:"RUN_MIGRATIONS_ON_START" envDefault:"true"`
}

// Redis databases reserved per queue. Database 0 stays free for ad-hoc use.
const (
	BaseQueueRedisDB  = 1
	EmailQueueRedisDB = 2
)

// QueueRedisConfig contains the Redis connection settings for one task queue.
// An unset DB falls back to the queue's reserved database during Sanitize.
type QueueRedisConfig struct {
	Addr     string `env:"REDIS_ADDR"     envDefault:"localhost:6379"`
	Password string `env:"REDIS_PASSWORD" envDefault:""`
	DB       int    `env:"REDIS_DB"       envDefault:"0"`
}

// SanitizeWithDefaultDB applies guardrails and fills the reserved database
// number when none was configured.
func (q *QueueRedisConfig) SanitizeWithDefaultDB(defaultDB int) {
	if q.DB <= 0 {
		q.DB = defaultDB
	}
}
