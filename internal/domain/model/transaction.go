package model

import "time"

// TransactionType classifies a financial transaction.
type TransactionType string

// TransactionSource identifies where a financial transaction originated.
type TransactionSource string

const (
	// TransactionExpense is money going out.
	TransactionExpense TransactionType = "expense"
	// TransactionIncome is money coming in.
	TransactionIncome TransactionType = "income"

	// SourceManual marks transactions entered directly by the user.
	SourceManual TransactionSource = "manual"
	// SourceEmail marks transactions materialized by the extraction stage.
	SourceEmail TransactionSource = "email"
	// SourceImport marks transactions loaded from bulk imports.
	SourceImport TransactionSource = "import"
	// SourceAPI marks transactions created through the public API.
	SourceAPI TransactionSource = "api"
)

// Category groups a user's transactions by spend type. Unique per (user_id, name).
type Category struct {
	ID        int64           `json:"id"         db:"id"`
	UserID    int64           `json:"user_id"    db:"user_id"`
	Name      string          `json:"name"       db:"name"`
	Type      TransactionType `json:"type"       db:"type"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
}

// Transaction is a materialized financial transaction owned by a user.
type Transaction struct {
	ID         int64             `json:"id"                    db:"id"`
	UserID     int64             `json:"user_id"               db:"user_id"`
	CategoryID *int64            `json:"category_id,omitempty" db:"category_id"`
	Amount     float64           `json:"amount"                db:"amount"`
	Currency   string            `json:"currency"              db:"currency"`
	Type       TransactionType   `json:"type"                  db:"type"`
	OccurredAt time.Time         `json:"occurred_at"           db:"occurred_at"`
	Source     TransactionSource `json:"source"                db:"source"`
	ExternalID *string           `json:"external_id,omitempty" db:"external_id"`
	Notes      *string           `json:"notes,omitempty"       db:"notes"`
	CreatedAt  time.Time         `json:"created_at"            db:"created_at"`
}

// CreateTransactionRequest represents a request to materialize a financial transaction.
type CreateTransactionRequest struct {
	UserID     int64
	CategoryID *int64
	Amount     float64
	Currency   string
	Type       TransactionType
	OccurredAt time.Time
	Source     TransactionSource
	ExternalID *string
	Notes      *string
}
