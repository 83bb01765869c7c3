// Command spendlens-admin provides operational helpers for local development
// and deployment: running migrations, seeding demo data, and inspecting the
// dispatch queues.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/spendlens/spendlens/config"
	"github.com/spendlens/spendlens/internal/bootstrap"
	"github.com/spendlens/spendlens/internal/devseed"
	"github.com/spendlens/spendlens/internal/dispatch"
	"github.com/spendlens/spendlens/internal/migrate"
)

type commandFn func(ctx *commandContext, args []string) error

type command struct {
	name        string
	description string
	run         commandFn
}

type commandContext struct {
	Ctx    context.Context
	Logger *slog.Logger
	Config config.AppConfig
}

const defaultCommandTimeout = 5 * time.Minute

func main() {
	logger := bootstrap.InitLogger()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(2)
	}

	cmdName := os.Args[1]
	cmd, ok := commands()[cmdName]
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", cmdName)
		printUsage()
		os.Exit(2)
	}

	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		logger.ErrorContext(context.Background(), "load config", "error", err)
		os.Exit(1)
	}

	cmdCtx := &commandContext{
		Ctx:    context.Background(),
		Logger: logger,
		Config: cfg,
	}
	if runErr := cmd.run(cmdCtx, os.Args[2:]); runErr != nil {
		logger.ErrorContext(cmdCtx.Ctx, "command failed", "command", cmdName, "error", runErr)
		os.Exit(1)
	}
}

func commands() map[string]command {
	return map[string]command{
		"migrate": {
			name:        "migrate",
			description: "Run database migrations",
			run:         runMigrateCommand,
		},
		"db-seed": {
			name:        "db-seed",
			description: "Run database migrations and seed development data",
			run:         runDBSeed,
		},
		"queue-depth": {
			name:        "queue-depth",
			description: "Print the pending depth of the base and email dispatch queues",
			run:         runQueueDepth,
		},
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "usage: spendlens-admin <command>")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "commands:")

	cmds := commands()
	names := make([]string, 0, len(cmds))
	for name := range cmds {
		names = append(names, name)
	}
	sort.Strings(names)

	w := tabwriter.NewWriter(os.Stderr, 0, 4, 2, ' ', 0)
	for _, name := range names {
		fmt.Fprintf(w, "  %s\t%s\n", name, cmds[name].description)
	}
	_ = w.Flush()
}

// withDatabase opens a connection without running startup migrations so each
// command decides for itself whether to migrate.
func withDatabase(cmdCtx *commandContext, fn func(ctx context.Context, db *sql.DB) error) error {
	ctx, cancel := context.WithTimeout(cmdCtx.Ctx, defaultCommandTimeout)
	defer cancel()

	dbCfg := cmdCtx.Config.Postgres
	dbCfg.RunMigrationsOnStart = false
	db, err := bootstrap.ConnectDB(bootstrap.DatabaseConfig{
		DBConfig: dbCfg,
		Logger:   cmdCtx.Logger,
	})
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			cmdCtx.Logger.Warn("close database", "error", closeErr)
		}
	}()

	return fn(ctx, db)
}

func runMigrateCommand(cmdCtx *commandContext, _ []string) error {
	return withDatabase(cmdCtx, func(ctx context.Context, db *sql.DB) error {
		cmdCtx.Logger.Info("running database migrations")
		if err := migrate.Run(ctx, db); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
		cmdCtx.Logger.Info("migrations completed successfully")
		return nil
	})
}

func runDBSeed(cmdCtx *commandContext, _ []string) error {
	return withDatabase(cmdCtx, func(ctx context.Context, db *sql.DB) error {
		cmdCtx.Logger.Info("ensuring database migrations are current")
		if err := migrate.Run(ctx, db); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}

		cmdCtx.Logger.Info("seeding development data")
		if err := devseed.Run(ctx, devseed.NewServices(db), cmdCtx.Logger); err != nil {
			return fmt.Errorf("seed data: %w", err)
		}

		cmdCtx.Logger.Info("database seeding completed successfully")
		return nil
	})
}

func runQueueDepth(cmdCtx *commandContext, _ []string) error {
	ctx, cancel := context.WithTimeout(cmdCtx.Ctx, 30*time.Second)
	defer cancel()

	queues := []struct {
		label string
		cfg   config.QueueRedisConfig
		key   string
	}{
		{label: "base", cfg: cmdCtx.Config.BaseQueue, key: dispatch.BaseQueueKey},
		{label: "email", cfg: cmdCtx.Config.EmailQueue, key: dispatch.EmailQueueKey},
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "QUEUE\tREDIS DB\tKEY\tDEPTH")
	for _, q := range queues {
		client, err := bootstrap.ConnectQueueRedis(q.cfg, cmdCtx.Logger)
		if err != nil {
			return fmt.Errorf("connect %s queue redis: %w", q.label, err)
		}
		depth, err := dispatch.NewQueue(client, q.key).Depth(ctx)
		closeErr := client.Close()
		if err != nil {
			return fmt.Errorf("read %s queue depth: %w", q.label, err)
		}
		if closeErr != nil {
			cmdCtx.Logger.Warn("close redis client", "queue", q.label, "error", closeErr)
		}
		fmt.Fprintf(w, "%s\t%d\t%s\t%d\n", q.label, q.cfg.DB, q.key, depth)
	}
	return w.Flush()
}
