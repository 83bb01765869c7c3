package model

import "time"

// ExtractionStatus represents where an email sits in the extraction pipeline.
type ExtractionStatus string

const (
	// ExtractionPending indicates the email has not been processed yet.
	ExtractionPending ExtractionStatus = "PENDING"
	// ExtractionCompleted indicates the email went through the extraction stage.
	ExtractionCompleted ExtractionStatus = "COMPLETED"
	// ExtractionFailed indicates the extraction stage failed for the email.
	ExtractionFailed ExtractionStatus = "FAILED"
)

// Valid returns true if the ExtractionStatus is valid.
func (s ExtractionStatus) Valid() bool {
	return s == ExtractionPending || s == ExtractionCompleted || s == ExtractionFailed
}

// Email is a normalized message persisted by the fetch stage. Rows are unique on
// (provider, provider_message_id), which is the ingestion dedup key.
// extraction_status is mutated by the extraction stage only.
type Email struct {
	ID                 int64            `json:"id"                           db:"id"`
	UserID             int64            `json:"user_id"                      db:"user_id"`
	ConnectedAccountID int64            `json:"connected_account_id"         db:"connected_account_id"`
	Provider           string           `json:"provider"                     db:"provider"`
	ProviderMessageID  string           `json:"provider_message_id"          db:"provider_message_id"`
	ThreadID           *string          `json:"thread_id,omitempty"          db:"thread_id"`
	Subject            *string          `json:"subject,omitempty"            db:"subject"`
	BodyText           *string          `json:"body_text,omitempty"          db:"body_text"`
	BodyHTML           *string          `json:"body_html,omitempty"          db:"body_html"`
	ReceivedAt         time.Time        `json:"received_at"                  db:"received_at"`
	Checksum           *string          `json:"checksum,omitempty"           db:"checksum"`
	FetchedAt          time.Time        `json:"fetched_at"                   db:"fetched_at"`
	ExtractionStatus   ExtractionStatus `json:"extraction_status"            db:"extraction_status"`
	ExtractionVersion  *string          `json:"extraction_version,omitempty" db:"extraction_version"`
	CreatedAt          time.Time        `json:"created_at"                   db:"created_at"`
}

// CreateEmailRequest represents a request to persist a newly fetched email.
type CreateEmailRequest struct {
	UserID             int64
	ConnectedAccountID int64
	Provider           string
	ProviderMessageID  string
	ThreadID           *string
	Subject            *string
	BodyText           *string
	BodyHTML           *string
	ReceivedAt         time.Time
	Checksum           *string
}
