// Package dispatch provides the Redis-backed task queues that decouple task
// enqueueing from execution. Each queue lives on its own Redis database so a
// backlog or outage on one queue never starves the other.
package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Queue key names. The processing suffix holds in-flight payloads so a crashed
// worker leaves its task visible for recovery instead of losing it.
const (
	BaseQueueKey  = "spendlens:queue:base"
	EmailQueueKey = "spendlens:queue:email"

	processingSuffix = ":processing"
)

// Envelope is the wire format for one enqueued task. Kwargs keys are
// propagated byte-for-byte to the handler.
type Envelope struct {
	Task       string         `json:"task"`
	Kwargs     map[string]any `json:"kwargs"`
	EnqueuedAt time.Time      `json:"enqueued_at"`
}

// TaskFunc executes one dequeued task.
type TaskFunc func(ctx context.Context, kwargs map[string]any) error

// Queue is the producer side of one named task queue.
type Queue struct {
	client redis.UniversalClient
	key    string
}

// NewQueue creates a producer for the given queue key.
func NewQueue(client redis.UniversalClient, key string) *Queue {
	return &Queue{client: client, key: key}
}

// Key returns the Redis list key this queue pushes to.
func (q *Queue) Key() string {
	return q.key
}

// Enqueue serializes the task envelope and pushes it onto the queue.
func (q *Queue) Enqueue(ctx context.Context, task string, kwargs map[string]any) error {
	payload, err := json.Marshal(Envelope{
		Task:       task,
		Kwargs:     kwargs,
		EnqueuedAt: time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("marshal task envelope: %w", err)
	}
	if err := q.client.LPush(ctx, q.key, payload).Err(); err != nil {
		return fmt.Errorf("enqueue %s: %w", task, err)
	}
	return nil
}

// Depth returns the number of tasks waiting on the queue.
func (q *Queue) Depth(ctx context.Context) (int64, error) {
	n, err := q.client.LLen(ctx, q.key).Result()
	if err != nil {
		return 0, fmt.Errorf("queue depth %s: %w", q.key, err)
	}
	return n, nil
}

// Health checks connectivity to the queue's Redis backend.
func (q *Queue) Health(ctx context.Context) error {
	return q.client.Ping(ctx).Err()
}

// Registry maps task names to their handlers. A worker only ever executes
// tasks registered on its own registry, so queues cannot cross-consume.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]TaskFunc
}

// NewRegistry creates an empty task registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]TaskFunc)}
}

// Register binds a handler to a task name. Later registrations for the same
// name win.
func (r *Registry) Register(task string, fn TaskFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[task] = fn
}

// Resolve looks up the handler for a task name.
func (r *Registry) Resolve(task string) (TaskFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.handlers[task]
	return fn, ok
}

// Tasks returns the registered task names, sorted.
func (r *Registry) Tasks() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
