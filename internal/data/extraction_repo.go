package data

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/spendlens/spendlens/internal/data/pgxutil"
	"github.com/spendlens/spendlens/internal/domain/model"
	apperrors "github.com/spendlens/spendlens/internal/errors"
)

// ExtractionRepo provides append-only storage for extraction attempts and
// per-invocation model telemetry. Rows are never updated after creation.
type ExtractionRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

// NewExtractionRepo creates a new ExtractionRepo instance.
func NewExtractionRepo(db *sql.DB, cfg RepoConfig) *ExtractionRepo {
	tp := cfg.TimeProvider
	if tp == nil {
		tp = &RealTimeProvider{}
	}
	return &ExtractionRepo{DB: db, timeProvider: tp}
}

const extractionColumns = `
  id,
  email_id,
  status,
  extracted_json,
  model_used,
  prompt_hash,
  extraction_version,
  created_at
`

const llmTransactionColumns = `
  id,
  job_id,
  model_name,
  provider,
  prompt_version,
  prompt_hash,
  input_tokens,
  output_tokens,
  total_tokens,
  estimated_cost,
  latency_ms,
  created_at
`

// CreateExtraction appends one extraction attempt for an email.
func (r *ExtractionRepo) CreateExtraction(
	ctx context.Context,
	req *model.CreateEmailExtractionRequest,
) (*model.EmailExtraction, error) {
	if req == nil {
		return nil, fmt.Errorf("create extraction request is required")
	}
	if !req.Status.Valid() {
		return nil, apperrors.Validationf("invalid extraction status %q", req.Status)
	}

	extracted := req.ExtractedJSON
	if len(extracted) == 0 {
		extracted = json.RawMessage(`{}`)
	}

	query := `
		INSERT INTO email_extractions (email_id, status, extracted_json, model_used, prompt_hash, extraction_version, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + extractionColumns

	var extraction *model.EmailExtraction
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, queryErr := conn.Query(ctx, query,
			req.EmailID,
			req.Status,
			[]byte(extracted),
			req.ModelUsed,
			req.PromptHash,
			req.ExtractionVersion,
			r.timeProvider.Now().UTC(),
		)
		if queryErr != nil {
			return fmt.Errorf("insert extraction: %w", queryErr)
		}
		var collectErr error
		extraction, collectErr = pgx.CollectOneRow(rows, pgx.RowToAddrOfStructByName[model.EmailExtraction])
		if collectErr != nil {
			return fmt.Errorf("collect extraction: %w", collectErr)
		}
		return nil
	})
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}

	return extraction, nil
}

// CreateLLMTransaction records telemetry for one extraction-model invocation.
func (r *ExtractionRepo) CreateLLMTransaction(
	ctx context.Context,
	req *model.CreateLLMTransactionRequest,
) (*model.LLMTransaction, error) {
	if req == nil {
		return nil, fmt.Errorf("create llm transaction request is required")
	}

	query := `
		INSERT INTO llm_transactions (
			job_id, model_name, provider, prompt_version, prompt_hash,
			input_tokens, output_tokens, total_tokens, estimated_cost, latency_ms, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING ` + llmTransactionColumns

	var llmTx *model.LLMTransaction
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, queryErr := conn.Query(ctx, query,
			req.JobID,
			req.ModelName,
			req.Provider,
			req.PromptVersion,
			req.PromptHash,
			req.InputTokens,
			req.OutputTokens,
			req.TotalTokens,
			req.EstimatedCost,
			req.LatencyMS,
			r.timeProvider.Now().UTC(),
		)
		if queryErr != nil {
			return fmt.Errorf("insert llm transaction: %w", queryErr)
		}
		var collectErr error
		llmTx, collectErr = pgx.CollectOneRow(rows, pgx.RowToAddrOfStructByName[model.LLMTransaction])
		if collectErr != nil {
			return fmt.Errorf("collect llm transaction: %w", collectErr)
		}
		return nil
	})
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}

	return llmTx, nil
}
