package service

import (
	"context"
	"errors"

	"github.com/spendlens/spendlens/internal/dispatch"
	"github.com/spendlens/spendlens/internal/domain/model"
	apperrors "github.com/spendlens/spendlens/internal/errors"
)

// Task names as they travel over the wire. Kwarg keys in the envelopes are
// part of the same contract and must not be renamed.
const (
	TaskEmailFetch      = "run_email_fetch"
	TaskEmailExtraction = "run_email_extraction"
	TaskJobCleanup      = "run_job_cleanup"
)

// TaskServiceOptions configures the task enqueueing service.
type TaskServiceOptions struct {
	BaseQueue  *dispatch.Queue
	EmailQueue *dispatch.Queue
}

// TaskService is the producer side of the pipeline: it serializes task
// envelopes onto the right queue. Email tasks go to the email queue; system
// maintenance goes to the base queue.
type TaskService struct {
	base  *dispatch.Queue
	email *dispatch.Queue
}

// NewTaskService creates the task enqueueing service.
func NewTaskService(opts TaskServiceOptions) (*TaskService, error) {
	if opts.BaseQueue == nil {
		return nil, errors.New("base queue must be provided")
	}
	if opts.EmailQueue == nil {
		return nil, errors.New("email queue must be provided")
	}
	return &TaskService{base: opts.BaseQueue, email: opts.EmailQueue}, nil
}

// EmailFetchRequest carries the parameters of an email fetch task.
type EmailFetchRequest struct {
	UserID    int64
	Provider  string
	Limit     int
	AccountID *int64
	Cursor    string
}

// EnqueueEmailFetch pushes an email fetch task onto the email queue.
func (s *TaskService) EnqueueEmailFetch(ctx context.Context, req EmailFetchRequest) error {
	if req.UserID <= 0 {
		return apperrors.Validationf("user_id must be positive")
	}
	providerName := req.Provider
	if providerName == "" {
		providerName = defaultFetchProvider
	}
	limit := req.Limit
	if limit <= 0 {
		limit = defaultFetchLimit
	}

	kwargs := map[string]any{
		"user_id":  req.UserID,
		"provider": providerName,
		"limit":    limit,
	}
	if req.AccountID != nil {
		kwargs["account_id"] = *req.AccountID
	}
	if req.Cursor != "" {
		kwargs["cursor"] = req.Cursor
	}
	return s.email.Enqueue(ctx, TaskEmailFetch, kwargs)
}

// EnqueueEmailExtraction pushes an extraction task onto the email queue.
func (s *TaskService) EnqueueEmailExtraction(ctx context.Context, batchSize int, reprocess bool) error {
	if batchSize <= 0 {
		batchSize = defaultExtractionBatch
	}
	kwargs := map[string]any{"batch_size": batchSize}
	if reprocess {
		kwargs["reprocess"] = true
	}
	return s.email.Enqueue(ctx, TaskEmailExtraction, kwargs)
}

// EnqueueJobCleanup pushes a retention cleanup task onto the base queue.
func (s *TaskService) EnqueueJobCleanup(ctx context.Context, retentionDays int) error {
	if retentionDays <= 0 {
		retentionDays = defaultRetentionDays
	}
	return s.base.Enqueue(ctx, TaskJobCleanup, map[string]any{"retention_days": retentionDays})
}

// RegisterEmailTasks binds the email queue task handlers onto a registry. Each
// handler runs its work through the executor so every dequeued task leaves a
// durable job record.
func RegisterEmailTasks(reg *dispatch.Registry, exec *Executor, fetch *FetchService, extraction *ExtractionService) {
	reg.Register(TaskEmailFetch, func(ctx context.Context, kwargs map[string]any) error {
		var userID *int64
		if id, ok, err := int64Kwarg(kwargs, "user_id"); err == nil && ok {
			userID = &id
		}
		_, err := exec.Execute(ctx, TaskDefinition{
			Type:  model.JobTypeEmailFetch,
			Queue: "email",
			Run: func(ctx context.Context, _ *model.Job, kwargs map[string]any) (any, error) {
				return fetch.Run(ctx, kwargs)
			},
		}, ExecuteOptions{
			Kwargs:      kwargs,
			TriggeredBy: model.TriggerAPI,
			UserID:      userID,
		})
		return err
	})

	reg.Register(TaskEmailExtraction, func(ctx context.Context, kwargs map[string]any) error {
		_, err := exec.Execute(ctx, TaskDefinition{
			Type:  model.JobTypeEmailExtraction,
			Queue: "email",
			Run: func(ctx context.Context, job *model.Job, kwargs map[string]any) (any, error) {
				return extraction.Run(ctx, job, kwargs)
			},
		}, ExecuteOptions{
			Kwargs:      kwargs,
			TriggeredBy: model.TriggerAPI,
		})
		return err
	})
}

// RegisterBaseTasks binds the base queue task handlers onto a registry.
func RegisterBaseTasks(reg *dispatch.Registry, exec *Executor, cleanup *CleanupService) {
	reg.Register(TaskJobCleanup, func(ctx context.Context, kwargs map[string]any) error {
		_, err := exec.Execute(ctx, TaskDefinition{
			Type:  model.JobTypeJobCleanup,
			Queue: "base",
			Run: func(ctx context.Context, _ *model.Job, kwargs map[string]any) (any, error) {
				return cleanup.Run(ctx, kwargs)
			},
		}, ExecuteOptions{
			Kwargs:      kwargs,
			TriggeredBy: model.TriggerSystem,
		})
		return err
	})
}
