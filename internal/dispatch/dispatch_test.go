package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry(t *testing.T) {
	reg := NewRegistry()
	noop := func(context.Context, map[string]any) error { return nil }

	t.Run("resolve unknown task", func(t *testing.T) {
		_, ok := reg.Resolve("run_email_fetch")
		assert.False(t, ok)
	})

	t.Run("register and resolve", func(t *testing.T) {
		reg.Register("run_email_fetch", noop)
		fn, ok := reg.Resolve("run_email_fetch")
		assert.True(t, ok)
		assert.NotNil(t, fn)
	})

	t.Run("tasks are sorted", func(t *testing.T) {
		reg.Register("run_job_cleanup", noop)
		reg.Register("run_email_extraction", noop)
		assert.Equal(t, []string{"run_email_extraction", "run_email_fetch", "run_job_cleanup"}, reg.Tasks())
	})
}

func TestEnvelopeWireFormat(t *testing.T) {
	env := Envelope{
		Task:       "run_email_fetch",
		Kwargs:     map[string]any{"user_id": 1, "provider": "gmail", "limit": 20},
		EnqueuedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	payload, err := json.Marshal(env)
	require.NoError(t, err)

	var decoded map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(payload, &decoded))
	assert.Contains(t, decoded, "task")
	assert.Contains(t, decoded, "kwargs")
	assert.Contains(t, decoded, "enqueued_at")
}

func TestNewWorkerValidation(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"})
	reg := NewRegistry()

	t.Run("requires client", func(t *testing.T) {
		_, err := NewWorker(WorkerOptions{QueueKey: BaseQueueKey, Registry: reg})
		assert.Error(t, err)
	})

	t.Run("requires queue key", func(t *testing.T) {
		_, err := NewWorker(WorkerOptions{Client: client, Registry: reg})
		assert.Error(t, err)
	})

	t.Run("requires registry", func(t *testing.T) {
		_, err := NewWorker(WorkerOptions{Client: client, QueueKey: BaseQueueKey})
		assert.Error(t, err)
	})

	t.Run("defaults applied", func(t *testing.T) {
		w, err := NewWorker(WorkerOptions{Client: client, QueueKey: EmailQueueKey, Registry: reg})
		require.NoError(t, err)
		assert.Equal(t, 1, w.workers)
		assert.Equal(t, 5*time.Second, w.popTimeout)
		assert.Equal(t, EmailQueueKey+processingSuffix, w.processing)
	})
}

func newHandleWorker(reg *Registry) *Worker {
	return &Worker{
		queueKey:   BaseQueueKey,
		processing: BaseQueueKey + processingSuffix,
		registry:   reg,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func TestWorkerHandle(t *testing.T) {
	t.Run("executes registered task with kwargs intact", func(t *testing.T) {
		reg := NewRegistry()
		var got map[string]any
		reg.Register("run_email_fetch", func(_ context.Context, kwargs map[string]any) error {
			got = kwargs
			return nil
		})

		w := newHandleWorker(reg)
		w.handle(context.Background(), `{"task":"run_email_fetch","kwargs":{"user_id":7,"provider":"gmail"}}`)

		require.NotNil(t, got)
		assert.Equal(t, float64(7), got["user_id"])
		assert.Equal(t, "gmail", got["provider"])
	})

	t.Run("malformed payload is dropped without panic", func(t *testing.T) {
		w := newHandleWorker(NewRegistry())
		w.handle(context.Background(), `{not json`)
	})

	t.Run("unknown task is dropped", func(t *testing.T) {
		called := false
		reg := NewRegistry()
		reg.Register("run_email_fetch", func(context.Context, map[string]any) error {
			called = true
			return nil
		})

		w := newHandleWorker(reg)
		w.handle(context.Background(), `{"task":"run_something_else","kwargs":{}}`)
		assert.False(t, called)
	})

	t.Run("handler error is swallowed, not retried", func(t *testing.T) {
		reg := NewRegistry()
		calls := 0
		reg.Register("run_email_extraction", func(context.Context, map[string]any) error {
			calls++
			return errors.New("batch failed")
		})

		w := newHandleWorker(reg)
		w.handle(context.Background(), `{"task":"run_email_extraction","kwargs":{}}`)
		assert.Equal(t, 1, calls)
	})
}
