package service

import (
	"context"
	"errors"

	"github.com/spendlens/spendlens/internal/core"
	"github.com/spendlens/spendlens/internal/domain/model"
	apperrors "github.com/spendlens/spendlens/internal/errors"
)

const maxJobListLimit = 100

// JobQueryService is the read-only view over job records used by the HTTP
// surface. Mutations stay with the executor.
type JobQueryService struct {
	jobs core.JobRepository
}

// NewJobQueryService creates the job read service.
func NewJobQueryService(jobs core.JobRepository) (*JobQueryService, error) {
	if jobs == nil {
		return nil, errors.New("job repository must be provided")
	}
	return &JobQueryService{jobs: jobs}, nil
}

// Get returns one job by ID.
func (s *JobQueryService) Get(ctx context.Context, id string) (*model.Job, error) {
	if id == "" {
		return nil, apperrors.Validationf("job id is required")
	}
	return s.jobs.GetByID(ctx, id)
}

// List returns jobs matching the options, newest first. The limit is clamped
// to keep listings bounded.
func (s *JobQueryService) List(ctx context.Context, opts *model.JobListOptions) ([]*model.Job, error) {
	if opts == nil {
		opts = &model.JobListOptions{}
	}
	if opts.Limit <= 0 || opts.Limit > maxJobListLimit {
		opts.Limit = maxJobListLimit
	}
	if opts.Offset < 0 {
		opts.Offset = 0
	}
	if opts.Type != "" && !opts.Type.Valid() {
		return nil, apperrors.Validationf("invalid job type %q", string(opts.Type))
	}
	if opts.Status != "" && !opts.Status.Valid() {
		return nil, apperrors.Validationf("invalid job status %q", string(opts.Status))
	}
	return s.jobs.List(ctx, opts)
}
