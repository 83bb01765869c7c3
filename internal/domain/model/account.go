package model

import "time"

// ConnectedAccount is a per-user third-party mail account credential record.
// Rows are unique on (provider, email). The record is written by the OAuth
// callback flow and treated as read-mostly input by the ingestion pipeline.
type ConnectedAccount struct {
	ID           int64     `json:"id"            db:"id"`
	UserID       int64     `json:"user_id"       db:"user_id"`
	Provider     string    `json:"provider"      db:"provider"`
	Email        string    `json:"email"         db:"email"`
	AccessToken  string    `json:"-"             db:"access_token"`
	RefreshToken string    `json:"-"             db:"refresh_token"`
	TokenExpiry  time.Time `json:"token_expiry"  db:"token_expiry"`
	IsActive     bool      `json:"is_active"     db:"is_active"`
	CreatedAt    time.Time `json:"created_at"    db:"created_at"`
}
