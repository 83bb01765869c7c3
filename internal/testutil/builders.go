// Package testutil provides testing utilities and helpers for the spendlens job system.
package testutil

import (
	"encoding/json"
	"time"

	"github.com/spendlens/spendlens/internal/domain/model"
)

// JobRequestBuilder provides a fluent interface for building CreateJobRequest objects for testing.
type JobRequestBuilder struct {
	req *model.CreateJobRequest
}

// NewJobRequest creates a new JobRequestBuilder with sensible defaults.
func NewJobRequest() *JobRequestBuilder {
	return &JobRequestBuilder{
		req: &model.CreateJobRequest{
			Type:         model.JobTypeEmailFetch,
			TriggeredBy:  model.TriggerAPI,
			InputPayload: json.RawMessage(`{"user_id": 1, "provider": "gmail", "limit": 20}`),
		},
	}
}

// WithType sets the job type.
func (b *JobRequestBuilder) WithType(jobType model.JobType) *JobRequestBuilder {
	b.req.Type = jobType
	return b
}

// WithTriggeredBy sets the trigger source.
func (b *JobRequestBuilder) WithTriggeredBy(src model.TriggerSource) *JobRequestBuilder {
	b.req.TriggeredBy = src
	return b
}

// WithUserID sets the owning user.
func (b *JobRequestBuilder) WithUserID(userID int64) *JobRequestBuilder {
	b.req.UserID = &userID
	return b
}

// WithInputPayload sets the input payload.
func (b *JobRequestBuilder) WithInputPayload(payload json.RawMessage) *JobRequestBuilder {
	b.req.InputPayload = payload
	return b
}

// WithInputPayloadString sets the input payload from a string.
func (b *JobRequestBuilder) WithInputPayloadString(payload string) *JobRequestBuilder {
	b.req.InputPayload = json.RawMessage(payload)
	return b
}

// Build returns the constructed CreateJobRequest.
func (b *JobRequestBuilder) Build() *model.CreateJobRequest {
	return b.req
}

// JobBuilder provides a fluent interface for building Job rows for testing.
type JobBuilder struct {
	job *model.Job
}

// NewJob creates a new JobBuilder with sensible defaults for a freshly started run.
func NewJob() *JobBuilder {
	now := time.Now().UTC()
	return &JobBuilder{
		job: &model.Job{
			ID:          "00000000-0000-0000-0000-000000000001",
			Type:        model.JobTypeEmailFetch,
			Status:      model.JobStatusRunning,
			TriggeredBy: model.TriggerAPI,
			CreatedAt:   now,
		},
	}
}

// WithID sets the job ID.
func (b *JobBuilder) WithID(id string) *JobBuilder {
	b.job.ID = id
	return b
}

// WithType sets the job type.
func (b *JobBuilder) WithType(jobType model.JobType) *JobBuilder {
	b.job.Type = jobType
	return b
}

// WithStatus sets the job status.
func (b *JobBuilder) WithStatus(status model.JobStatus) *JobBuilder {
	b.job.Status = status
	return b
}

// WithUserID sets the owning user.
func (b *JobBuilder) WithUserID(userID int64) *JobBuilder {
	b.job.UserID = &userID
	return b
}

// WithInputPayloadString sets the input payload from a string.
func (b *JobBuilder) WithInputPayloadString(payload string) *JobBuilder {
	b.job.InputPayload = json.RawMessage(payload)
	return b
}

// Build returns the constructed Job.
func (b *JobBuilder) Build() *model.Job {
	return b.job
}

// AccountBuilder provides a fluent interface for building ConnectedAccount rows for testing.
type AccountBuilder struct {
	account *model.ConnectedAccount
}

// NewAccount creates a new AccountBuilder with an active gmail account.
func NewAccount() *AccountBuilder {
	now := time.Now().UTC()
	return &AccountBuilder{
		account: &model.ConnectedAccount{
			ID:           1,
			UserID:       1,
			Provider:     "gmail",
			Email:        "person@example.com",
			AccessToken:  "access-token",
			RefreshToken: "refresh-token",
			TokenExpiry:  now.Add(time.Hour),
			IsActive:     true,
			CreatedAt:    now,
		},
	}
}

// WithID sets the account ID.
func (b *AccountBuilder) WithID(id int64) *AccountBuilder {
	b.account.ID = id
	return b
}

// WithUserID sets the owning user.
func (b *AccountBuilder) WithUserID(userID int64) *AccountBuilder {
	b.account.UserID = userID
	return b
}

// WithProvider sets the mail provider.
func (b *AccountBuilder) WithProvider(provider string) *AccountBuilder {
	b.account.Provider = provider
	return b
}

// Inactive marks the account as deactivated.
func (b *AccountBuilder) Inactive() *AccountBuilder {
	b.account.IsActive = false
	return b
}

// Build returns the constructed ConnectedAccount.
func (b *AccountBuilder) Build() *model.ConnectedAccount {
	return b.account
}

// EmailBuilder provides a fluent interface for building Email rows for testing.
type EmailBuilder struct {
	email *model.Email
}

// NewEmail creates a new EmailBuilder for a pending receipt-like email.
func NewEmail() *EmailBuilder {
	now := time.Now().UTC()
	subject := "Your receipt"
	body := "Thanks for your purchase. Amount charged: $42.00."
	return &EmailBuilder{
		email: &model.Email{
			ID:                 1,
			UserID:             1,
			ConnectedAccountID: 1,
			Provider:           "gmail",
			ProviderMessageID:  "msg-0001",
			Subject:            &subject,
			BodyText:           &body,
			ReceivedAt:         now.Add(-time.Hour),
			FetchedAt:          now,
			ExtractionStatus:   model.ExtractionPending,
			CreatedAt:          now,
		},
	}
}

// WithID sets the email ID.
func (b *EmailBuilder) WithID(id int64) *EmailBuilder {
	b.email.ID = id
	return b
}

// WithUserID sets the owning user.
func (b *EmailBuilder) WithUserID(userID int64) *EmailBuilder {
	b.email.UserID = userID
	return b
}

// WithProviderMessageID sets the provider message ID.
func (b *EmailBuilder) WithProviderMessageID(id string) *EmailBuilder {
	b.email.ProviderMessageID = id
	return b
}

// WithSubject sets the subject line.
func (b *EmailBuilder) WithSubject(subject string) *EmailBuilder {
	b.email.Subject = &subject
	return b
}

// WithBodyText sets the plain text body.
func (b *EmailBuilder) WithBodyText(body string) *EmailBuilder {
	b.email.BodyText = &body
	return b
}

// WithoutBody clears both body fields.
func (b *EmailBuilder) WithoutBody() *EmailBuilder {
	b.email.BodyText = nil
	b.email.BodyHTML = nil
	return b
}

// WithExtractionStatus sets the extraction lifecycle status.
func (b *EmailBuilder) WithExtractionStatus(status model.ExtractionStatus) *EmailBuilder {
	b.email.ExtractionStatus = status
	return b
}

// Build returns the constructed Email.
func (b *EmailBuilder) Build() *model.Email {
	return b.email
}
