package data

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"

	"github.com/spendlens/spendlens/internal/core"
	"github.com/spendlens/spendlens/internal/data/pgxutil"
	"github.com/spendlens/spendlens/internal/domain/model"
	apperrors "github.com/spendlens/spendlens/internal/errors"
)

// EmailRepo provides database operations for normalized emails.
type EmailRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
	logger       *slog.Logger
}

// NewEmailRepo creates a new EmailRepo instance.
func NewEmailRepo(db *sql.DB, cfg RepoConfig) *EmailRepo {
	tp := cfg.TimeProvider
	if tp == nil {
		tp = &RealTimeProvider{}
	}
	return &EmailRepo{DB: db, timeProvider: tp, logger: cfg.Logger}
}

const emailColumns = `
  id,
  user_id,
  connected_account_id,
  provider,
  provider_message_id,
  thread_id,
  subject,
  body_text,
  body_html,
  received_at,
  checksum,
  fetched_at,
  extraction_status,
  extraction_version,
  created_at
`

// Create persists a newly fetched email with extraction_status PENDING.
// A duplicate dedup key surfaces as a Conflict error from the unique constraint;
// callers are expected to check Exists first and treat the constraint as a race
// safety net only.
func (r *EmailRepo) Create(ctx context.Context, req *model.CreateEmailRequest) (*model.Email, error) {
	if req == nil {
		return nil, fmt.Errorf("create email request is required")
	}

	now := r.timeProvider.Now().UTC()
	query := `
		INSERT INTO emails (
			user_id, connected_account_id, provider, provider_message_id, thread_id,
			subject, body_text, body_html, received_at, checksum,
			fetched_at, extraction_status, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING ` + emailColumns

	var email *model.Email
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, queryErr := conn.Query(ctx, query,
			req.UserID,
			req.ConnectedAccountID,
			req.Provider,
			req.ProviderMessageID,
			req.ThreadID,
			req.Subject,
			req.BodyText,
			req.BodyHTML,
			req.ReceivedAt.UTC(),
			req.Checksum,
			now,
			model.ExtractionPending,
			now,
		)
		if queryErr != nil {
			return fmt.Errorf("insert email: %w", queryErr)
		}
		var collectErr error
		email, collectErr = pgx.CollectOneRow(rows, pgx.RowToAddrOfStructByName[model.Email])
		if collectErr != nil {
			return fmt.Errorf("collect email: %w", collectErr)
		}
		return nil
	})
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}

	return email, nil
}

// Exists reports whether an email with the given dedup key is already stored.
func (r *EmailRepo) Exists(ctx context.Context, key core.DedupKey) (bool, error) {
	var exists bool
	err := r.DB.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM emails
			WHERE user_id = $1 AND provider = $2 AND provider_message_id = $3
		)
	`, key.UserID, key.Provider, key.ProviderMessageID).Scan(&exists)
	if err != nil {
		return false, apperrors.MapDBError(fmt.Errorf("email exists: %w", err))
	}
	return exists, nil
}

// ListForExtraction returns up to limit emails awaiting extraction, oldest first.
// With includeProcessed the status filter is dropped (reprocess mode).
//
// There is no claiming step: two concurrent extraction runs can select
// overlapping batches. Known gap carried over from the original design.
func (r *EmailRepo) ListForExtraction(ctx context.Context, limit int, includeProcessed bool) ([]*model.Email, error) {
	if limit <= 0 {
		limit = 10
	}

	query := `SELECT ` + emailColumns + ` FROM emails`
	args := []any{}
	if !includeProcessed {
		args = append(args, model.ExtractionPending)
		query += " WHERE extraction_status = $1"
	}
	args = append(args, limit)
	query += fmt.Sprintf(" ORDER BY received_at ASC, id ASC LIMIT $%d", len(args))

	var emails []*model.Email
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, queryErr := conn.Query(ctx, query, args...)
		if queryErr != nil {
			return fmt.Errorf("query extraction batch: %w", queryErr)
		}
		defer rows.Close()

		vals, collectErr := pgx.CollectRows(rows, pgx.RowToAddrOfStructByName[model.Email])
		if collectErr != nil {
			return fmt.Errorf("collect extraction batch: %w", collectErr)
		}
		emails = vals
		return nil
	})
	if err != nil {
		return nil, err
	}

	return emails, nil
}

// SetExtractionStatus updates the extraction lifecycle status of one email.
func (r *EmailRepo) SetExtractionStatus(ctx context.Context, id int64, status model.ExtractionStatus) error {
	if !status.Valid() {
		return apperrors.Validationf("invalid extraction status %q", status)
	}

	res, err := r.DB.ExecContext(ctx, `
		UPDATE emails SET extraction_status = $2 WHERE id = $1
	`, id, status)
	if err != nil {
		return apperrors.MapDBError(fmt.Errorf("set extraction status: %w", err))
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set extraction status rows affected: %w", err)
	}
	if affected == 0 {
		return apperrors.NotFoundf("email %d not found", id)
	}
	return nil
}
