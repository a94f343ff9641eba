package memcached

import (
	"context"
	"time"

	"github.com/bradfitz/gomemcache/memcache"
	"go.uber.org/zap"

	"github.com/David-Orizu31/todolist/internal"
)

// Task implements cache-aside caching in front of another TaskStore.
type Task struct {
	client     *memcache.Client
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
func NewTask(client *memcache.Client, orig TaskStore, logger *zap.Logger) *Task {
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

	t.logger.Debug("Create: caching new record", zap.String("id", task.ID))

	setTask(ctx, t.client, task.ID, &task, t.expiration)

	return task, nil
}

// Delete removes the record from the wrapped store and evicts it.
func (t *Task) Delete(ctx context.Context, id string) error {
	defer newOTELSpan(ctx, "Task.Delete").End()

	if err := t.orig.Delete(ctx, id); err != nil {
		return err
	}

	deleteTask(ctx, t.client, id)

	return nil
}

// Find returns the cached record when present, falling back to the wrapped
// store and caching the result.
func (t *Task) Find(ctx context.Context, id string) (internal.Task, error) {
	defer newOTELSpan(ctx, "Task.Find").End()

	var res internal.Task

	if err := getTask(ctx, t.client, id, &res); err == nil {
		return res, nil
	}

	t.logger.Debug("Find: cache miss", zap.String("id", id))

	res, err := t.orig.Find(ctx, id)
	if err != nil {
		return internal.Task{}, err
	}

	setTask(ctx, t.client, res.ID, &res, t.expiration)

	return res, nil
}

// Update persists the record through the wrapped store and refreshes the
// cached copy.
func (t *Task) Update(ctx context.Context, task internal.Task) error {
	defer newOTELSpan(ctx, "Task.Update").End()

	if err := t.orig.Update(ctx, task); err != nil {
		return err
	}

	t.logger.Debug("Update: refreshing cached record", zap.String("id", task.ID))

	setTask(ctx, t.client, task.ID, &task, t.expiration)

	return nil
}
