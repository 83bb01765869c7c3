package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

// WorkerOptions configures a queue worker.
type WorkerOptions struct {
	Client   redis.UniversalClient
	QueueKey string
	Registry *Registry
	Logger   *slog.Logger

	// Concurrency is the number of consumer goroutines; defaults to 1.
	Concurrency int
	// PopTimeout bounds each blocking pop so shutdown stays responsive;
	// defaults to 5s.
	PopTimeout time.Duration
}

// Worker consumes one queue and runs each task through its registry. Tasks are
// moved to a processing list while in flight and removed on completion, giving
// at-least-once delivery.
type Worker struct {
	client     redis.UniversalClient
	queueKey   string
	processing string
	registry   *Registry
	logger     *slog.Logger
	workers    int
	popTimeout time.Duration
}

// NewWorker creates a worker for one queue.
func NewWorker(opts WorkerOptions) (*Worker, error) {
	if opts.Client == nil {
		return nil, errors.New("redis client must be provided")
	}
	if opts.QueueKey == "" {
		return nil, errors.New("queue key must be provided")
	}
	if opts.Registry == nil {
		return nil, errors.New("task registry must be provided")
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	workers := opts.Concurrency
	if workers <= 0 {
		workers = 1
	}
	popTimeout := opts.PopTimeout
	if popTimeout <= 0 {
		popTimeout = 5 * time.Second
	}

	return &Worker{
		client:     opts.Client,
		queueKey:   opts.QueueKey,
		processing: opts.QueueKey + processingSuffix,
		registry:   opts.Registry,
		logger:     logger,
		workers:    workers,
		popTimeout: popTimeout,
	}, nil
}

// Run starts consumer goroutines and processes tasks until the context is
// cancelled.
func (w *Worker) Run(ctx context.Context) error {
	w.logger.InfoContext(ctx, "starting queue worker",
		"queue", w.queueKey, "workers", w.workers, "tasks", w.registry.Tasks())

	group, gctx := errgroup.WithContext(ctx)
	for range w.workers {
		group.Go(func() error { return w.consumeLoop(gctx) })
	}
	return group.Wait()
}

func (w *Worker) consumeLoop(ctx context.Context) error {
	for ctx.Err() == nil {
		payload, err := w.client.BLMove(ctx, w.queueKey, w.processing, "RIGHT", "LEFT", w.popTimeout).Result()
		switch {
		case err == nil:
			w.handle(ctx, payload)
			w.ack(ctx, payload)
		case errors.Is(err, redis.Nil):
			// pop timed out with an empty queue
		case ctx.Err() != nil:
			return nil
		default:
			return fmt.Errorf("pop from %s: %w", w.queueKey, err)
		}
	}
	return nil
}

// handle decodes and executes one payload. Malformed or unknown tasks are
// logged and dropped; handler failures are already recorded on the job row by
// the executor, so the queue does not retry them.
func (w *Worker) handle(ctx context.Context, payload string) {
	var env Envelope
	if err := json.Unmarshal([]byte(payload), &env); err != nil {
		w.logger.ErrorContext(ctx, "dropping malformed task payload",
			"queue", w.queueKey, "error", err)
		return
	}

	fn, ok := w.registry.Resolve(env.Task)
	if !ok {
		w.logger.ErrorContext(ctx, "dropping task with no registered handler",
			"queue", w.queueKey, "task", env.Task)
		return
	}

	start := time.Now()
	if err := fn(ctx, env.Kwargs); err != nil {
		w.logger.ErrorContext(ctx, "task failed",
			"queue", w.queueKey, "task", env.Task,
			"duration", time.Since(start), "error", err)
		return
	}
	w.logger.InfoContext(ctx, "task completed",
		"queue", w.queueKey, "task", env.Task, "duration", time.Since(start))
}

// ack removes the payload from the processing list. A fresh context is used so
// completed work is acknowledged even during shutdown.
func (w *Worker) ack(ctx context.Context, payload string) {
	ackCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := w.client.LRem(ackCtx, w.processing, 1, payload).Err(); err != nil {
		w.logger.ErrorContext(ctx, "failed to ack task payload",
			"queue", w.queueKey, "error", err)
	}
}
