// Package data implements the repository layer on PostgreSQL via pgx.
package data

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	apperrors "github.com/spendlens/spendlens/internal/errors"
	"github.com/spendlens/spendlens/internal/data/pgxutil"
	"github.com/spendlens/spendlens/internal/domain/model"
)

// RepoConfig holds configuration options for repositories.
type RepoConfig struct {
	Logger       *slog.Logger
	TimeProvider TimeProvider
}

// JobRepo provides database operations for job records.
type JobRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
	logger       *slog.Logger
}

// NewJobRepo creates a new JobRepo instance with the given database connection and configuration.
func NewJobRepo(db *sql.DB, cfg RepoConfig) *JobRepo {
	tp := cfg.TimeProvider
	if tp == nil {
		tp = &RealTimeProvider{}
	}
	return &JobRepo{
		DB:           db,
		timeProvider: tp,
		logger:       cfg.Logger,
	}
}

const jobColumns = `
  id,
  job_type,
  status,
  triggered_by,
  user_id,
  input_payload,
  output_payload,
  error_payload,
  retry_count,
  started_at,
  finished_at,
  created_at
`

// CreateRunning inserts a job record directly in the RUNNING state. The insert is
// committed on its own so a crash later in the run still leaves the record behind.
func (r *JobRepo) CreateRunning(ctx context.Context, req *model.CreateJobRequest) (*model.Job, error) {
	if req == nil {
		return nil, errors.New("create job request is required")
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	input := req.InputPayload
	if len(input) == 0 {
		input = json.RawMessage(`{}`)
	}

	query := `
		INSERT INTO jobs (id, job_type, status, triggered_by, user_id, input_payload, retry_count, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, 0, $7)
		RETURNING ` + jobColumns

	var job *model.Job
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, queryErr := conn.Query(ctx, query,
			uuid.NewString(),
			req.Type,
			model.JobStatusRunning,
			req.TriggeredBy,
			req.UserID,
			[]byte(input),
			r.timeProvider.Now().UTC(),
		)
		if queryErr != nil {
			return fmt.Errorf("insert job: %w", queryErr)
		}
		var collectErr error
		job, collectErr = pgx.CollectOneRow(rows, pgx.RowToAddrOfStructByName[model.Job])
		if collectErr != nil {
			return fmt.Errorf("collect job: %w", collectErr)
		}
		return nil
	})
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}

	return job, nil
}

// MarkStarted stamps started_at, once. A second call is a no-op.
func (r *JobRepo) MarkStarted(ctx context.Context, id string, startedAt time.Time) error {
	_, err := r.DB.ExecContext(ctx, `
		UPDATE jobs SET started_at = $2
		WHERE id = $1 AND started_at IS NULL
	`, id, startedAt.UTC())
	if err != nil {
		return apperrors.MapDBError(fmt.Errorf("mark job started: %w", err))
	}
	return nil
}

// MarkSucceeded transitions a RUNNING job to SUCCESS, recording the output payload
// and finished_at. Returns false when the job was not in the RUNNING state.
func (r *JobRepo) MarkSucceeded(ctx context.Context, id string, output json.RawMessage) (bool, error) {
	return r.finish(ctx, id, model.JobStatusSuccess, "output_payload", output)
}

// MarkFailed transitions a RUNNING job to FAILED, recording the error payload
// and finished_at. Returns false when the job was not in the RUNNING state.
func (r *JobRepo) MarkFailed(ctx context.Context, id string, errPayload json.RawMessage) (bool, error) {
	return r.finish(ctx, id, model.JobStatusFailed, "error_payload", errPayload)
}

// finish applies a terminal transition guarded on the RUNNING state, so terminal
// statuses can never be overwritten.
func (r *JobRepo) finish(
	ctx context.Context,
	id string,
	status model.JobStatus,
	payloadColumn string,
	payload json.RawMessage,
) (bool, error) {
	if len(payload) == 0 {
		payload = json.RawMessage(`{}`)
	}

	//nolint:gosec // payloadColumn is one of two compile-time constants, never user input
	query := fmt.Sprintf(`
		UPDATE jobs
		SET status = $2, %s = $3, finished_at = $4
		WHERE id = $1 AND status = $5
	`, payloadColumn)

	res, err := r.DB.ExecContext(ctx, query,
		id, status, []byte(payload), r.timeProvider.Now().UTC(), model.JobStatusRunning)
	if err != nil {
		return false, apperrors.MapDBError(fmt.Errorf("finish job: %w", err))
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("finish job rows affected: %w", err)
	}

	if affected == 0 && r.logger != nil {
		r.logger.WarnContext(ctx, "terminal job transition skipped",
			"job_id", id, "target_status", status)
	}

	return affected > 0, nil
}

// GetByID retrieves a job by its ID.
func (r *JobRepo) GetByID(ctx context.Context, id string) (*model.Job, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs WHERE id = $1`

	var job *model.Job
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, queryErr := conn.Query(ctx, query, id)
		if queryErr != nil {
			return fmt.Errorf("query job: %w", queryErr)
		}
		var collectErr error
		job, collectErr = pgx.CollectOneRow(rows, pgx.RowToAddrOfStructByName[model.Job])
		if collectErr != nil {
			if errors.Is(collectErr, pgx.ErrNoRows) {
				return apperrors.NotFoundf("job %s not found", id)
			}
			return fmt.Errorf("collect job: %w", collectErr)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return job, nil
}

// List returns jobs matching the options, newest first.
func (r *JobRepo) List(ctx context.Context, opts *model.JobListOptions) ([]*model.Job, error) {
	if opts == nil {
		opts = &model.JobListOptions{}
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}
	if limit > 500 {
		limit = 500
	}
	offset := opts.Offset
	if offset < 0 {
		offset = 0
	}

	query := `SELECT ` + jobColumns + ` FROM jobs WHERE 1=1`
	args := []any{}
	if opts.Type != "" {
		args = append(args, opts.Type)
		query += fmt.Sprintf(" AND job_type = $%d", len(args))
	}
	if opts.Status != "" {
		args = append(args, opts.Status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	args = append(args, limit)
	query += fmt.Sprintf(" ORDER BY created_at DESC, id DESC LIMIT $%d", len(args))
	args = append(args, offset)
	query += fmt.Sprintf(" OFFSET $%d", len(args))

	var result []*model.Job
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, queryErr := conn.Query(ctx, query, args...)
		if queryErr != nil {
			return fmt.Errorf("query jobs: %w", queryErr)
		}
		defer rows.Close()

		vals, collectErr := pgx.CollectRows(rows, pgx.RowToAddrOfStructByName[model.Job])
		if collectErr != nil {
			return fmt.Errorf("collect jobs: %w", collectErr)
		}
		result = vals
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// DeleteFinishedBefore removes terminal job rows created before the cutoff.
func (r *JobRepo) DeleteFinishedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.DB.ExecContext(ctx, `
		DELETE FROM jobs
		WHERE finished_at IS NOT NULL AND finished_at < $1
		  AND status IN ($2, $3, $4)
	`, cutoff.UTC(), model.JobStatusSuccess, model.JobStatusFailed, model.JobStatusCancelled)
	if err != nil {
		return 0, apperrors.MapDBError(fmt.Errorf("delete finished jobs: %w", err))
	}
	return res.RowsAffected()
}
