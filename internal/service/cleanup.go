package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/spendlens/spendlens/internal/core"
	apperrors "github.com/spendlens/spendlens/internal/errors"
)

const defaultRetentionDays = 30

// CleanupServiceOptions configures the job record retention service.
type CleanupServiceOptions struct {
	Jobs   core.JobRepository
	Logger *slog.Logger
	Now    func() time.Time
}

// CleanupService prunes terminal job rows past their retention window. Running
// and queued rows are never touched.
type CleanupService struct {
	jobs   core.JobRepository
	logger *slog.Logger
	now    func() time.Time
}

// CleanupResult is the output payload of one cleanup job.
type CleanupResult struct {
	DeletedCount  int64 `json:"deleted_count"`
	RetentionDays int   `json:"retention_days"`
}

// NewCleanupService creates the retention cleanup service.
func NewCleanupService(opts CleanupServiceOptions) (*CleanupService, error) {
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
	return &CleanupService{jobs: opts.Jobs, logger: logger, now: now}, nil
}

// Run executes one cleanup pass. Kwargs: retention_days (default 30).
func (s *CleanupService) Run(ctx context.Context, kwargs map[string]any) (*CleanupResult, error) {
	retentionDays, err := intKwarg(kwargs, "retention_days", defaultRetentionDays)
	if err != nil {
		return nil, err
	}
	if retentionDays < 1 {
		return nil, apperrors.Validationf("retention_days must be at least 1, got %d", retentionDays)
	}

	cutoff := s.now().AddDate(0, 0, -retentionDays)
	deleted, err := s.jobs.DeleteFinishedBefore(ctx, cutoff)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "pruned finished jobs",
		"deleted", deleted, "retention_days", retentionDays, "cutoff", cutoff)
	return &CleanupResult{DeletedCount: deleted, RetentionDays: retentionDays}, nil
}
