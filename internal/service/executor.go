// Package service implements the business logic of the ingestion pipeline:
// job lifecycle orchestration, the fetch and extraction stages, and task
// enqueueing.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/spendlens/spendlens/internal/core"
	"github.com/spendlens/spendlens/internal/domain/model"
	obserrors "github.com/spendlens/spendlens/internal/observability/errors"
	"github.com/spendlens/spendlens/internal/observability/metrics"
	"github.com/spendlens/spendlens/internal/observability/statsd"
)

// TaskDefinition binds a job type to the callbacks the executor invokes over
// its lifecycle. Run is the unit of work; the hooks are optional extension
// points around it.
type TaskDefinition struct {
	Type  model.JobType
	Queue string

	// Run performs the work and returns the output payload recorded on success.
	Run func(ctx context.Context, job *model.Job, kwargs map[string]any) (any, error)
	// BeforeRun executes after the job row exists but before work starts; an
	// error here fails the job without invoking Run.
	BeforeRun func(ctx context.Context, job *model.Job) error
	// AfterRun executes after Run succeeds; an error here still fails the job.
	AfterRun func(ctx context.Context, job *model.Job, result any) error
	// OnFailure observes the failure before the row is finalized. It must not
	// attempt recovery.
	OnFailure func(ctx context.Context, job *model.Job, err error)
}

// ExecuteOptions carries the per-invocation inputs of one job execution.
type ExecuteOptions struct {
	Kwargs      map[string]any
	TriggeredBy model.TriggerSource
	UserID      *int64
}

// ExecutorOptions configures the job executor.
type ExecutorOptions struct {
	Jobs    core.JobRepository
	Logger  *slog.Logger
	Metrics statsd.Sink
	Now     func() time.Time
}

// Executor drives every job through the durable lifecycle: the job row is
// inserted already RUNNING and committed before any work happens, so a crash
// mid-run always leaves visible evidence. Terminal transitions are guarded in
// SQL and can never regress.
type Executor struct {
	jobs    core.JobRepository
	logger  *slog.Logger
	metrics statsd.Sink
	now     func() time.Time
}

// NewExecutor creates a job executor.
func NewExecutor(opts ExecutorOptions) (*Executor, error) {
	if opts.Jobs == nil {
		return nil, errors.New("job repository must be provided")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := opts.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &Executor{
		jobs:    opts.Jobs,
		logger:  logger,
		metrics: opts.Metrics,
		now:     now,
	}, nil
}

// Execute runs one job to a terminal state. The returned job reflects the
// created record; the returned error is the task failure, if any. Storage
// failures while finalizing are logged, never silently swallowed into success.
func (e *Executor) Execute(ctx context.Context, def TaskDefinition, opts ExecuteOptions) (*model.Job, error) {
	if def.Run == nil {
		return nil, errors.New("task definition has no Run callback")
	}

	input, err := json.Marshal(opts.Kwargs)
	if err != nil {
		return nil, fmt.Errorf("marshal input payload: %w", err)
	}
	triggeredBy := opts.TriggeredBy
	if triggeredBy == "" {
		triggeredBy = model.TriggerSystem
	}

	job, err := e.jobs.CreateRunning(ctx, &model.CreateJobRequest{
		Type:         def.Type,
		TriggeredBy:  triggeredBy,
		UserID:       opts.UserID,
		InputPayload: input,
	})
	if err != nil {
		return nil, fmt.Errorf("create job record: %w", err)
	}

	start := e.now()
	e.logger.InfoContext(ctx, "starting job", "job_id", job.ID, "job_type", job.Type)
	metrics.EmitJobLifecycle(e.metrics, metrics.JobMetric{
		JobType:    string(job.Type),
		Queue:      def.Queue,
		Transition: "started",
		Result:     metrics.ResultSuccess,
	})

	result, runErr := e.runLifecycle(ctx, def, job, opts.Kwargs)
	if runErr != nil {
		e.finalizeFailure(ctx, def, job, runErr, e.now().Sub(start))
		return job, runErr
	}

	e.finalizeSuccess(ctx, def, job, result, e.now().Sub(start))
	return job, nil
}

// runLifecycle invokes the hooks and Run in order, converting panics into
// errors so one bad task cannot take down a worker.
func (e *Executor) runLifecycle(ctx context.Context, def TaskDefinition, job *model.Job, kwargs map[string]any) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task panicked: %v", r)
		}
	}()

	if def.BeforeRun != nil {
		if err := def.BeforeRun(ctx, job); err != nil {
			return nil, fmt.Errorf("before run: %w", err)
		}
	}

	if err := e.jobs.MarkStarted(ctx, job.ID, e.now()); err != nil {
		return nil, fmt.Errorf("mark job started: %w", err)
	}

	result, err = def.Run(ctx, job, kwargs)
	if err != nil {
		return nil, err
	}

	if def.AfterRun != nil {
		if err := def.AfterRun(ctx, job, result); err != nil {
			return nil, fmt.Errorf("after run: %w", err)
		}
	}

	return result, nil
}

func (e *Executor) finalizeSuccess(ctx context.Context, def TaskDefinition, job *model.Job, result any, elapsed time.Duration) {
	output, err := json.Marshal(result)
	if err != nil {
		e.logger.ErrorContext(ctx, "marshal output payload", "job_id", job.ID, "error", err)
		output = nil
	}

	updated, err := e.jobs.MarkSucceeded(ctx, job.ID, output)
	if err != nil {
		e.logger.ErrorContext(ctx, "mark job succeeded", "job_id", job.ID, "error", err)
	} else if !updated {
		e.logger.WarnContext(ctx, "job already terminal, success not recorded", "job_id", job.ID)
	}

	e.logger.InfoContext(ctx, "job completed", "job_id", job.ID, "job_type", job.Type, "duration", elapsed)
	metrics.EmitJobLifecycle(e.metrics, metrics.JobMetric{
		JobType:    string(job.Type),
		Queue:      def.Queue,
		Transition: "completed",
		Result:     metrics.ResultSuccess,
		Duration:   elapsed,
	})
}

func (e *Executor) finalizeFailure(ctx context.Context, def TaskDefinition, job *model.Job, taskErr error, elapsed time.Duration) {
	if def.OnFailure != nil {
		def.OnFailure(ctx, job, taskErr)
	}

	payload, err := json.Marshal(model.JobErrorPayload{
		Error: taskErr.Error(),
		Kind:  obserrors.Classify(taskErr),
		Stack: string(debug.Stack()),
	})
	if err != nil {
		payload = nil
	}

	updated, err := e.jobs.MarkFailed(ctx, job.ID, payload)
	if err != nil {
		e.logger.ErrorContext(ctx, "mark job failed", "job_id", job.ID, "error", err, "task_error", taskErr)
	} else if !updated {
		e.logger.WarnContext(ctx, "job already terminal, failure not recorded", "job_id", job.ID)
	}

	e.logger.ErrorContext(ctx, "job failed", "job_id", job.ID, "job_type", job.Type, "duration", elapsed, "error", taskErr)
	metrics.EmitJobLifecycle(e.metrics, metrics.JobMetric{
		JobType:    string(job.Type),
		Queue:      def.Queue,
		Transition: "failed",
		Result:     metrics.ResultError,
		Duration:   elapsed,
		Err:        taskErr,
	})
}
