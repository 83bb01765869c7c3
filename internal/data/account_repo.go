package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/spendlens/spendlens/internal/data/pgxutil"
	"github.com/spendlens/spendlens/internal/domain/model"
	apperrors "github.com/spendlens/spendlens/internal/errors"
)

// AccountRepo provides read access to connected third-party mail accounts.
type AccountRepo struct {
	DB *sql.DB
}

// NewAccountRepo creates a new AccountRepo instance.
func NewAccountRepo(db *sql.DB) *AccountRepo {
	return &AccountRepo{DB: db}
}

const accountColumns = `
  id,
  user_id,
  provider,
  email,
  access_token,
  refresh_token,
  token_expiry,
  is_active,
  created_at
`

// GetByID retrieves a connected account by its ID.
func (r *AccountRepo) GetByID(ctx context.Context, id int64) (*model.ConnectedAccount, error) {
	query := `SELECT ` + accountColumns + ` FROM connected_accounts WHERE id = $1`

	var account *model.ConnectedAccount
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, queryErr := conn.Query(ctx, query, id)
		if queryErr != nil {
			return fmt.Errorf("query connected account: %w", queryErr)
		}
		var collectErr error
		account, collectErr = pgx.CollectOneRow(rows, pgx.RowToAddrOfStructByName[model.ConnectedAccount])
		if collectErr != nil {
			if errors.Is(collectErr, pgx.ErrNoRows) {
				return apperrors.NotFoundf("connected account %d not found", id)
			}
			return fmt.Errorf("collect connected account: %w", collectErr)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return account, nil
}

// ListForUser returns all connected accounts for a user, oldest first.
func (r *AccountRepo) ListForUser(ctx context.Context, userID int64) ([]*model.ConnectedAccount, error) {
	query := `SELECT ` + accountColumns + ` FROM connected_accounts WHERE user_id = $1 ORDER BY created_at ASC, id ASC`

	var accounts []*model.ConnectedAccount
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, queryErr := conn.Query(ctx, query, userID)
		if queryErr != nil {
			return fmt.Errorf("query connected accounts: %w", queryErr)
		}
		defer rows.Close()

		vals, collectErr := pgx.CollectRows(rows, pgx.RowToAddrOfStructByName[model.ConnectedAccount])
		if collectErr != nil {
			return fmt.Errorf("collect connected accounts: %w", collectErr)
		}
		accounts = vals
		return nil
	})
	if err != nil {
		return nil, err
	}

	return accounts, nil
}

// Deactivate flips is_active off for an account whose credentials were revoked.
func (r *AccountRepo) Deactivate(ctx context.Context, id int64) error {
	res, err := r.DB.ExecContext(ctx, `
		UPDATE connected_accounts SET is_active = FALSE WHERE id = $1
	`, id)
	if err != nil {
		return apperrors.MapDBError(fmt.Errorf("deactivate connected account: %w", err))
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deactivate rows affected: %w", err)
	}
	if affected == 0 {
		return apperrors.NotFoundf("connected account %d not found", id)
	}
	return nil
}
