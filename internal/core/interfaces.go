// Package core provides the repository contracts for the spendlens ingestion pipeline.
package core

import (
	"context"
	"encoding/json"
	"time"

	"github.com/spendlens/spendlens/internal/domain/model"
)

// This file contains repository interface definitions (ports in hexagonal architecture).
// These interfaces define the contracts between the service layer and data layer.
// Service implementations should depend on these interfaces, not concrete implementations.

// JobRepository defines the interface for job record operations. Status mutations
// move the row forward only; terminal updates are no-ops on already-terminal rows.
type JobRepository interface {
	// CreateRunning inserts a job record already promoted to RUNNING and commits
	// it, so a crash mid-run always leaves visible evidence of the attempt.
	CreateRunning(ctx context.Context, req *model.CreateJobRequest) (*model.Job, error)
	// MarkStarted stamps started_at exactly once.
	MarkStarted(ctx context.Context, id string, startedAt time.Time) error
	// MarkSucceeded transitions RUNNING→SUCCESS and records the output payload.
	MarkSucceeded(ctx context.Context, id string, output json.RawMessage) (bool, error)
	// MarkFailed transitions RUNNING→FAILED and records the error payload.
	MarkFailed(ctx context.Context, id string, errPayload json.RawMessage) (bool, error)
	// GetByID returns a NotFound AppError when no job matches the id.
	GetByID(ctx context.Context, id string) (*model.Job, error)
	List(ctx context.Context, opts *model.JobListOptions) ([]*model.Job, error)
	// DeleteFinishedBefore removes terminal job rows older than the cutoff and
	// returns the number of rows deleted.
	DeleteFinishedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// AccountRepository defines read access to connected third-party mail accounts.
// The rows are written by the OAuth callback flow, not by this pipeline.
type AccountRepository interface {
	GetByID(ctx context.Context, id int64) (*model.ConnectedAccount, error)
	ListForUser(ctx context.Context, userID int64) ([]*model.ConnectedAccount, error)
	// Deactivate flips is_active off, used when a provider reports revoked credentials.
	Deactivate(ctx context.Context, id int64) error
}

// EmailRepository defines the interface for normalized email storage.
type EmailRepository interface {
	Create(ctx context.Context, req *model.CreateEmailRequest) (*model.Email, error)
	// Exists reports whether an email with the dedup key
	// (user_id, provider, provider_message_id) is already stored.
	Exists(ctx context.Context, key DedupKey) (bool, error)
	// ListForExtraction returns up to limit emails pending extraction; when
	// includeProcessed is set the status filter is dropped (reprocess mode).
	ListForExtraction(ctx context.Context, limit int, includeProcessed bool) ([]*model.Email, error)
	SetExtractionStatus(ctx context.Context, id int64, status model.ExtractionStatus) error
}

// DedupKey identifies one ingested message per user across providers.
type DedupKey struct {
	UserID            int64
	Provider          string
	ProviderMessageID string
}

// ExtractionRepository defines append-only storage for extraction attempts and
// per-invocation model telemetry.
type ExtractionRepository interface {
	CreateExtraction(ctx context.Context, req *model.CreateEmailExtractionRequest) (*model.EmailExtraction, error)
	CreateLLMTransaction(ctx context.Context, req *model.CreateLLMTransactionRequest) (*model.LLMTransaction, error)
}

// CategoryRepository defines category lookup and creation per user.
type CategoryRepository interface {
	GetByName(ctx context.Context, userID int64, name string) (*model.Category, error)
	Create(ctx context.Context, userID int64, name string, txType model.TransactionType) (*model.Category, error)
}

// TransactionRepository defines creation of materialized financial transactions.
type TransactionRepository interface {
	Create(ctx context.Context, req *model.CreateTransactionRequest) (*model.Transaction, error)
}
