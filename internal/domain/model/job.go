// Package model defines the core data types and structures used throughout the spendlens job system.
package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// JobType represents the type of background job to be executed.
//
//nolint:recvcheck // UnmarshalText needs pointer receiver, Valid needs value receiver
type JobType string

// JobStatus represents the current status of a job.
type JobStatus string

// TriggerSource identifies what caused a job to be enqueued.
type TriggerSource string

const (
	// JobTypeEmailFetch represents an email fetch job type.
	JobTypeEmailFetch JobType = "EMAIL_FETCH"
	// JobTypeEmailExtraction represents an email extraction job type.
	JobTypeEmailExtraction JobType = "EMAIL_EXTRACTION"
	// JobTypeJobCleanup represents a job record retention cleanup job type.
	JobTypeJobCleanup JobType = "JOB_CLEANUP"

	// JobStatusQueued indicates a job is waiting to be executed.
	JobStatusQueued JobStatus = "QUEUED"
	// JobStatusRunning indicates a job is currently executing.
	JobStatusRunning JobStatus = "RUNNING"
	// JobStatusSuccess indicates a job finished successfully.
	JobStatusSuccess JobStatus = "SUCCESS"
	// JobStatusFailed indicates a job finished with an error.
	JobStatusFailed JobStatus = "FAILED"
	// JobStatusCancelled indicates a job was cancelled before completion.
	JobStatusCancelled JobStatus = "CANCELLED"

	// TriggerAPI indicates the job was triggered through the HTTP API.
	TriggerAPI TriggerSource = "API"
	// TriggerCron indicates the job was triggered by a schedule.
	TriggerCron TriggerSource = "CRON"
	// TriggerManual indicates the job was triggered by an operator.
	TriggerManual TriggerSource = "MANUAL"
	// TriggerRetry indicates the job was re-enqueued after a failure.
	TriggerRetry TriggerSource = "RETRY"
	// TriggerSystem indicates the job was triggered by internal machinery.
	TriggerSystem TriggerSource = "SYSTEM"
)

// UnmarshalText implements encoding.TextUnmarshaler for JobType to allow env parsing.
func (t *JobType) UnmarshalText(text []byte) error {
	v := strings.ToUpper(strings.TrimSpace(string(text)))
	jt := JobType(v)
	if jt.Valid() {
		*t = jt
		return nil
	}
	return fmt.Errorf("invalid JobType: %q", v)
}

// Valid returns true if the JobType is valid.
func (t JobType) Valid() bool {
	return t == JobTypeEmailFetch || t == JobTypeEmailExtraction || t == JobTypeJobCleanup
}

// Valid returns true if the JobStatus is valid.
func (s JobStatus) Valid() bool {
	return s == JobStatusQueued || s == JobStatusRunning || s == JobStatusSuccess ||
		s == JobStatusFailed || s == JobStatusCancelled
}

// Terminal returns true if the status is a terminal state. A job in a terminal
// state never transitions again.
func (s JobStatus) Terminal() bool {
	return s == JobStatusSuccess || s == JobStatusFailed || s == JobStatusCancelled
}

// CanTransitionTo reports whether moving from s to next respects the forward-only
// lifecycle QUEUED→RUNNING→{SUCCESS,FAILED,CANCELLED}.
func (s JobStatus) CanTransitionTo(next JobStatus) bool {
	switch s {
	case JobStatusQueued:
		return next == JobStatusRunning || next == JobStatusCancelled
	case JobStatusRunning:
		return next.Terminal()
	default:
		return false
	}
}

// Valid returns true if the TriggerSource is valid.
func (t TriggerSource) Valid() bool {
	return t == TriggerAPI || t == TriggerCron || t == TriggerManual ||
		t == TriggerRetry || t == TriggerSystem
}

// Job represents one durable record of a triggered unit of background work and its outcome.
// The row is owned and mutated exclusively by the job executor.
type Job struct {
	ID            string          `json:"id"                       db:"id"`
	Type          JobType         `json:"job_type"                 db:"job_type"`
	Status        JobStatus       `json:"status"                   db:"status"`
	TriggeredBy   TriggerSource   `json:"triggered_by"             db:"triggered_by"`
	UserID        *int64          `json:"user_id,omitempty"        db:"user_id"`
	InputPayload  json.RawMessage `json:"input_payload,omitempty"  db:"input_payload"`
	OutputPayload json.RawMessage `json:"output_payload,omitempty" db:"output_payload"`
	ErrorPayload  json.RawMessage `json:"error_payload,omitempty"  db:"error_payload"`
	RetryCount    int             `json:"retry_count"              db:"retry_count"`
	StartedAt     *time.Time      `json:"started_at,omitempty"     db:"started_at"`
	FinishedAt    *time.Time      `json:"finished_at,omitempty"    db:"finished_at"`
	CreatedAt     time.Time       `json:"created_at"               db:"created_at"`
}

// CreateJobRequest represents a request to create a new job record.
type CreateJobRequest struct {
	Type         JobType         `json:"job_type"`
	TriggeredBy  TriggerSource   `json:"triggered_by"`
	UserID       *int64          `json:"user_id,omitempty"`
	InputPayload json.RawMessage `json:"input_payload,omitempty"`
}

// Validate validates the CreateJobRequest fields.
func (r *CreateJobRequest) Validate() error {
	if !r.Type.Valid() {
		return errors.New("invalid job type")
	}
	if !r.TriggeredBy.Valid() {
		return errors.New("invalid trigger source")
	}
	return nil
}

// JobListOptions controls paging and filtering for job listings.
type JobListOptions struct {
	Type   JobType
	Status JobStatus
	Limit  int
	Offset int
}

// JobErrorPayload is the structured error recorded on a failed job.
type JobErrorPayload struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
	Stack string `json:"stack,omitempty"`
}
