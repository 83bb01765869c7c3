package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJobTypeUnmarshalText(t *testing.T) {
	t.Run("accepts known types case-insensitively", func(t *testing.T) {
		var jt JobType
		require.NoError(t, jt.UnmarshalText([]byte(" email_fetch ")))
		assert.Equal(t, JobTypeEmailFetch, jt)

		require.NoError(t, jt.UnmarshalText([]byte("EMAIL_EXTRACTION")))
		assert.Equal(t, JobTypeEmailExtraction, jt)

		require.NoError(t, jt.UnmarshalText([]byte("job_cleanup")))
		assert.Equal(t, JobTypeJobCleanup, jt)
	})

	t.Run("rejects unknown types", func(t *testing.T) {
		var jt JobType
		err := jt.UnmarshalText([]byte("shred_database"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid JobType")
	})
}

func TestJobStatusTerminal(t *testing.T) {
	assert.False(t, JobStatusQueued.Terminal())
	assert.False(t, JobStatusRunning.Terminal())
	assert.True(t, JobStatusSuccess.Terminal())
	assert.True(t, JobStatusFailed.Terminal())
	assert.True(t, JobStatusCancelled.Terminal())
}

func TestJobStatusCanTransitionTo(t *testing.T) {
	t.Run("queued moves to running or cancelled", func(t *testing.T) {
		assert.True(t, JobStatusQueued.CanTransitionTo(JobStatusRunning))
		assert.True(t, JobStatusQueued.CanTransitionTo(JobStatusCancelled))
		assert.False(t, JobStatusQueued.CanTransitionTo(JobStatusSuccess))
		assert.False(t, JobStatusQueued.CanTransitionTo(JobStatusFailed))
	})

	t.Run("running moves to any terminal state", func(t *testing.T) {
		assert.True(t, JobStatusRunning.CanTransitionTo(JobStatusSuccess))
		assert.True(t, JobStatusRunning.CanTransitionTo(JobStatusFailed))
		assert.True(t, JobStatusRunning.CanTransitionTo(JobStatusCancelled))
		assert.False(t, JobStatusRunning.CanTransitionTo(JobStatusQueued))
	})

	t.Run("terminal states never move", func(t *testing.T) {
		for _, s := range []JobStatus{JobStatusSuccess, JobStatusFailed, JobStatusCancelled} {
			for _, next := range []JobStatus{JobStatusQueued, JobStatusRunning, JobStatusSuccess, JobStatusFailed, JobStatusCancelled} {
				assert.False(t, s.CanTransitionTo(next), "%s -> %s must be rejected", s, next)
			}
		}
	})
}

func TestCreateJobRequestValidate(t *testing.T) {
	t.Run("valid request", func(t *testing.T) {
		req := &CreateJobRequest{Type: JobTypeEmailFetch, TriggeredBy: TriggerAPI}
		require.NoError(t, req.Validate())
	})

	t.Run("invalid type", func(t *testing.T) {
		req := &CreateJobRequest{Type: "NOT_A_TYPE", TriggeredBy: TriggerAPI}
		require.Error(t, req.Validate())
	})

	t.Run("invalid trigger source", func(t *testing.T) {
		req := &CreateJobRequest{Type: JobTypeEmailFetch, TriggeredBy: "NOBODY"}
		require.Error(t, req.Validate())
	})
}

func TestExtractionStatusValid(t *testing.T) {
	assert.True(t, ExtractionPending.Valid())
	assert.True(t, ExtractionCompleted.Valid())
	assert.True(t, ExtractionFailed.Valid())
	assert.False(t, ExtractionStatus("DONE").Valid())
}
