package model

import (
	"encoding/json"
	"time"
)

// EmailExtractionStatus represents the outcome of one extraction attempt.
type EmailExtractionStatus string

const (
	// EmailExtractionSuccess indicates extraction produced transaction data.
	EmailExtractionSuccess EmailExtractionStatus = "SUCCESS"
	// EmailExtractionSkipped indicates extraction ran but the email carried no transaction.
	EmailExtractionSkipped EmailExtractionStatus = "SKIPPED"
	// EmailExtractionFailed indicates the extraction attempt errored.
	EmailExtractionFailed EmailExtractionStatus = "FAILED"
)

// Valid returns true if the EmailExtractionStatus is valid.
func (s EmailExtractionStatus) Valid() bool {
	return s == EmailExtractionSuccess || s == EmailExtractionSkipped || s == EmailExtractionFailed
}

// EmailExtraction records one extraction attempt on an email. The table is an
// append-only history; rows are never updated after creation.
type EmailExtraction struct {
	ID                int64                 `json:"id"                           db:"id"`
	EmailID           int64                 `json:"email_id"                     db:"email_id"`
	Status            EmailExtractionStatus `json:"status"                       db:"status"`
	ExtractedJSON     json.RawMessage       `json:"extracted_json,omitempty"     db:"extracted_json"`
	ModelUsed         *string               `json:"model_used,omitempty"         db:"model_used"`
	PromptHash        *string               `json:"prompt_hash,omitempty"        db:"prompt_hash"`
	ExtractionVersion *string               `json:"extraction_version,omitempty" db:"extraction_version"`
	CreatedAt         time.Time             `json:"created_at"                   db:"created_at"`
}

// CreateEmailExtractionRequest represents a request to append an extraction attempt.
type CreateEmailExtractionRequest struct {
	EmailID           int64
	Status            EmailExtractionStatus
	ExtractedJSON     json.RawMessage
	ModelUsed         *string
	PromptHash        *string
	ExtractionVersion *string
}

// LLMTransaction is a write-only telemetry row recorded per extraction-model
// invocation. It is an audit trail and is never read by the pipeline itself.
type LLMTransaction struct {
	ID            int64     `json:"id"                       db:"id"`
	JobID         *string   `json:"job_id,omitempty"         db:"job_id"`
	ModelName     string    `json:"model_name"               db:"model_name"`
	Provider      string    `json:"provider"                 db:"provider"`
	PromptVersion *string   `json:"prompt_version,omitempty" db:"prompt_version"`
	PromptHash    *string   `json:"prompt_hash,omitempty"    db:"prompt_hash"`
	InputTokens   int       `json:"input_tokens"             db:"input_tokens"`
	OutputTokens  int       `json:"output_tokens"            db:"output_tokens"`
	TotalTokens   int       `json:"total_tokens"             db:"total_tokens"`
	EstimatedCost float64   `json:"estimated_cost"           db:"estimated_cost"`
	LatencyMS     int       `json:"latency_ms"               db:"latency_ms"`
	CreatedAt     time.Time `json:"created_at"               db:"created_at"`
}

// CreateLLMTransactionRequest represents a request to record model telemetry.
type CreateLLMTransactionRequest struct {
	JobID         *string
	ModelName     string
	Provider      string
	PromptVersion *string
	PromptHash    *string
	InputTokens   int
	OutputTokens  int
	TotalTokens   int
	EstimatedCost float64
	LatencyMS     int
}
