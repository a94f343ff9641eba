package redis

import (
	"context"
	"encoding/json"
	"time"

	rv8 "github.com/go-redis/redis/v8"
	"go.opentelemetry.io/otel"
	semconv "go.opentelemetry.io/otel/semconv/v1.7.0"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/David-Orizu31/todolist/internal"
)

const otelName = "github.com/David-Orizu31/todolist/internal/redis"

// Task implements cache-aside caching in front of another TaskStore, it is
// interchangeable with the memcached decorator.
type Task struct {
	client     *rv8.Client
	orig       TaskStore
	expiration time.Duration
	logger     *zap.Logger
}

// TaskStore defines the datastore handling persisting Task records.
type TaskStore interface {
	Create(ctx context.Context, params internal.CreateParams) (internal.Task, error)
	Delete(ctx context.Context, id string) error
	Find(ctx context.Context, id string) (internal.Task, error)
	Update(ctx context.Context, task internal.Task) error
}

// NewTask instantiates the Task store.
func NewTask(client *rv8.Client, orig TaskStore, logger *zap.Logger) *Task {
	return &Task{
		client:     client,
		orig:       orig,
		expiration: 15 * time.Minute,
		logger:     logger,
	}
}

// Create delegates to the wrapped store and caches the new record.
func (t *Task) Create(ctx context.Context, params internal.CreateParams) (internal.Task, error) {
	defer newOTELSpan(ctx, "Task.Create").End()

	task, err := t.orig.Create(ctx, params)
	if err != nil {
		return internal.Task{}, err
	}

	t.set(ctx, task)

	return task, nil
}

// Delete removes the record from the wrapped store and evicts it.
func (t *Task) Delete(ctx context.Context, id string) error {
	defer newOTELSpan(ctx, "Task.Delete").End()

	if err := t.orig.Delete(ctx, id); err != nil {
		return err
	}

	_ = t.client.Del(ctx, id).Err()

	return nil
}

// Find returns the cached record when present, falling back to the wrapped
// store and caching the result.
func (t *Task) Find(ctx context.Context, id string) (internal.Task, error) {
	defer newOTELSpan(ctx, "Task.Find").End()

	b, err := t.client.Get(ctx, id).Bytes()
	if err == nil {
		var res internal.Task
		if err := json.Unmarshal(b, &res); err == nil {
			return res, nil
		}
	}

	t.logger.Debug("Find: cache miss", zap.String("id", id))

	res, err := t.orig.Find(ctx, id)
	if err != nil {
		return internal.Task{}, err
	}

	t.set(ctx, res)

	return res, nil
}

// Update persists the record through the wrapped store and refreshes the
// cached copy.
func (t *Task) Update(ctx context.Context, task internal.Task) error {
	defer newOTELSpan(ctx, "Task.Update").End()

	if err := t.orig.Update(ctx, task); err != nil {
		return err
	}

	t.set(ctx, task)

	return nil
}

func (t *Task) set(ctx context.Context, task internal.Task) {
	defer newOTELSpan(ctx, "set").End()

	b, err := json.Marshal(&task)
	if err != nil {
		return
	}

	_ = t.client.Set(ctx, task.ID, b, t.expiration).Err()
}

func newOTELSpan(ctx context.Context, name string) trace.Span {
	_, span := otel.Tracer(otelName).Start(ctx, name)

	span.SetAttributes(semconv.DBSystemRedis)

	return span
}
