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

// CategoryRepo provides per-user category lookup and creation.
type CategoryRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

// NewCategoryRepo creates a new CategoryRepo instance.
func NewCategoryRepo(db *sql.DB, cfg RepoConfig) *CategoryRepo {
	tp := cfg.TimeProvider
	if tp == nil {
		tp = &RealTimeProvider{}
	}
	return &CategoryRepo{DB: db, timeProvider: tp}
}

const categoryColumns = `
  id,
  user_id,
  name,
  type,
  created_at
`

// GetByName retrieves a user's category by name.
func (r *CategoryRepo) GetByName(ctx context.Context, userID int64, name string) (*model.Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM categories WHERE user_id = $1 AND name = $2`

	var category *model.Category
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, queryErr := conn.Query(ctx, query, userID, name)
		if queryErr != nil {
			return fmt.Errorf("query category: %w", queryErr)
		}
		var collectErr error
		category, collectErr = pgx.CollectOneRow(rows, pgx.RowToAddrOfStructByName[model.Category])
		if collectErr != nil {
			if errors.Is(collectErr, pgx.ErrNoRows) {
				return apperrors.NotFoundf("category %q not found for user %d", name, userID)
			}
			return fmt.Errorf("collect category: %w", collectErr)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return category, nil
}

// Create inserts a category for a user. A duplicate (user_id, name) surfaces as
// a Conflict error.
func (r *CategoryRepo) Create(
	ctx context.Context,
	userID int64,
	name string,
	txType model.TransactionType,
) (*model.Category, error) {
	query := `
		INSERT INTO categories (user_id, name, type, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + categoryColumns

	var category *model.Category
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, queryErr := conn.Query(ctx, query, userID, name, txType, r.timeProvider.Now().UTC())
		if queryErr != nil {
			return fmt.Errorf("insert category: %w", queryErr)
		}
		var collectErr error
		category, collectErr = pgx.CollectOneRow(rows, pgx.RowToAddrOfStructByName[model.Category])
		if collectErr != nil {
			return fmt.Errorf("collect category: %w", collectErr)
		}
		return nil
	})
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}

	return category, nil
}

// TransactionRepo provides creation of materialized financial transactions.
type TransactionRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

// NewTransactionRepo creates a new TransactionRepo instance.
func NewTransactionRepo(db *sql.DB, cfg RepoConfig) *TransactionRepo {
	tp := cfg.TimeProvider
	if tp == nil {
		tp = &RealTimeProvider{}
	}
	return &TransactionRepo{DB: db, timeProvider: tp}
}

const transactionColumns = `
  id,
  user_id,
  category_id,
  amount,
  currency,
  type,
  occurred_at,
  source,
  external_id,
  notes,
  created_at
`

// Create materializes a financial transaction for a user.
func (r *TransactionRepo) Create(
	ctx context.Context,
	req *model.CreateTransactionRequest,
) (*model.Transaction, error) {
	if req == nil {
		return nil, fmt.Errorf("create transaction request is required")
	}

	currency := req.Currency
	if currency == "" {
		currency = "USD"
	}

	query := `
		INSERT INTO transactions (
			user_id, category_id, amount, currency, type,
			occurred_at, source, external_id, notes, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING ` + transactionColumns

	var transaction *model.Transaction
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, queryErr := conn.Query(ctx, query,
			req.UserID,
			req.CategoryID,
			req.Amount,
			currency,
			req.Type,
			req.OccurredAt.UTC(),
			req.Source,
			req.ExternalID,
			req.Notes,
			r.timeProvider.Now().UTC(),
		)
		if queryErr != nil {
			return fmt.Errorf("insert transaction: %w", queryErr)
		}
		var collectErr error
		transaction, collectErr = pgx.CollectOneRow(rows, pgx.RowToAddrOfStructByName[model.Transaction])
		if collectErr != nil {
			return fmt.Errorf("collect transaction: %w", collectErr)
		}
		return nil
	})
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}

	return transaction, nil
}
