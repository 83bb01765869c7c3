package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spendlens/spendlens/internal/provider"
)

type recordedMetric struct {
	name  string
	value float64
	tags  map[string]string
}

type recordingSink struct {
	counts  []recordedMetric
	gauges  []recordedMetric
	timings []recordedMetric
}

func (r *recordingSink) Count(name string, value int64, tags map[string]string) {
	r.counts = append(r.counts, recordedMetric{name: name, value: float64(value), tags: tags})
}

func (r *recordingSink) Gauge(name string, value float64, tags map[string]string) {
	r.gauges = append(r.gauges, recordedMetric{name: name, value: value, tags: tags})
}

func (r *recordingSink) Timing(name string, value time.Duration, tags map[string]string) {
	r.timings = append(r.timings, recordedMetric{name: name, value: float64(value), tags: tags})
}

func TestEmitJobLifecycle(t *testing.T) {
	t.Run("nil sink is a no-op", func(t *testing.T) {
		EmitJobLifecycle(nil, JobMetric{JobType: "EMAIL_FETCH"})
	})

	t.Run("success transition", func(t *testing.T) {
		sink := &recordingSink{}
		EmitJobLifecycle(sink, JobMetric{
			JobType:    "EMAIL_FETCH",
			Queue:      "email",
			Transition: "completed",
			Result:     ResultSuccess,
			Duration:   250 * time.Millisecond,
		})

		require.Len(t, sink.counts, 1)
		assert.Equal(t, "job.transition", sink.counts[0].name)
		assert.Equal(t, map[string]string{
			"job_type":   "EMAIL_FETCH",
			"transition": "completed",
			"result":     ResultSuccess,
			"queue":      "email",
		}, sink.counts[0].tags)

		require.Len(t, sink.timings, 1)
		assert.Equal(t, "job.duration", sink.timings[0].name)
	})

	t.Run("failure carries an error class", func(t *testing.T) {
		sink := &recordingSink{}
		EmitJobLifecycle(sink, JobMetric{
			JobType:    "EMAIL_FETCH",
			Transition: "failed",
			Result:     ResultError,
			Err:        provider.NewAuthError("gmail", "revoked", nil),
		})

		require.Len(t, sink.counts, 1)
		assert.Equal(t, "provider_auth", sink.counts[0].tags["error_class"])
		// Zero duration emits no timing.
		assert.Empty(t, sink.timings)
	})
}

func TestEmitQueueDepth(t *testing.T) {
	EmitQueueDepth(nil, "base", 3)

	sink := &recordingSink{}
	EmitQueueDepth(sink, "base", 3)
	require.Len(t, sink.gauges, 1)
	assert.Equal(t, "queue.depth", sink.gauges[0].name)
	assert.Equal(t, float64(3), sink.gauges[0].value)
	assert.Equal(t, map[string]string{"queue": "base"}, sink.gauges[0].tags)
}

func TestCloneTags(t *testing.T) {
	assert.Nil(t, CloneTags(nil))

	src := map[string]string{"a": "1"}
	dst := CloneTags(src)
	dst["a"] = "2"
	assert.Equal(t, "1", src["a"])
}
