package service

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/David-Orizu31/todolist/internal"
)

const otelName = "github.com/David-Orizu31/todolist/internal/service"

// TaskStore defines the datastore handling persisting Task records.
type TaskStore interface {
	Create(ctx context.Context, params internal.CreateParams) (internal.Task, error)
	Delete(ctx context.Context, id string) error
	Find(ctx context.Context, id string) (internal.Task, error)
	Update(ctx context.Context, task internal.Task) error
}

// TaskMessageBrokerRepository defines the datastore used for publishing Task
// lifecycle events.
type TaskMessageBrokerRepository interface {
	Created(ctx context.Context, task internal.Task) error
	Completed(ctx context.Context, task internal.Task) error
	Reopened(ctx context.Context, task internal.Task) error
	Updated(ctx context.Context, task internal.Task) error
	Deleted(ctx context.Context, id string) error
}

// Task defines the application service in charge of interacting with Tasks.
type Task struct {
	logger    *zap.Logger
	store     TaskStore
	msgBroker TaskMessageBrokerRepository
}

// NewTask instantiates the Task service.
func NewTask(logger *zap.Logger, store TaskStore, msgBroker TaskMessageBrokerRepository) *Task {
	return &Task{
		logger:    logger,
		store:     store,
		msgBroker: msgBroker,
	}
}

// Create stores a new record owned by the requester.
func (t *Task) Create(ctx context.Context, params internal.CreateParams) (internal.Task, error) {
	ctx, span := otel.Tracer(otelName).Start(ctx, "Task.Create")
	defer span.End()

	if err := params.Validate(); err != nil {
		return internal.Task{}, err
	}

	task, err := t.store.Create(ctx, params)
	if err != nil {
		return internal.Task{}, fmt.Errorf("store create: %w", err)
	}

	// XXX: Transactional outbox will replace the best effort publish.
	if err := t.msgBroker.Created(ctx, task); err != nil {
		t.logger.Warn("msgBroker.Created failed", zap.Error(err))
	}

	return task, nil
}

// Task gets an existing Task from the datastore.
func (t *Task) Task(ctx context.Context, id string) (internal.Task, error) {
	ctx, span := otel.Tracer(otelName).Start(ctx, "Task.Task")
	defer span.End()

	task, err := t.store.Find(ctx, id)
	if err != nil {
		return internal.Task{}, fmt.Errorf("store find: %w", err)
	}

	return task, nil
}

// Update replaces the description and priority of an existing record, only
// the owner may do so.
func (t *Task) Update(ctx context.Context, id, description string, priority internal.Priority, requester string) error {
	ctx, span := otel.Tracer(otelName).Start(ctx, "Task.Update")
	defer span.End()

	task, err := t.store.Find(ctx, id)
	if err != nil {
		return fmt.Errorf("store find: %w", err)
	}

	if err := task.Update(description, priority, requester); err != nil {
		return err
	}

	if err := t.store.Update(ctx, task); err != nil {
		return fmt.Errorf("store update: %w", err)
	}

	if err := t.msgBroker.Updated(ctx, task); err != nil {
		t.logger.Warn("msgBroker.Updated failed", zap.Error(err))
	}

	return nil
}

// Complete marks an existing record as done, completing an already completed
// record is an error.
func (t *Task) Complete(ctx context.Context, id, requester string) error {
	ctx, span := otel.Tracer(otelName).Start(ctx, "Task.Complete")
	defer span.End()

	task, err := t.store.Find(ctx, id)
	if err != nil {
		return fmt.Errorf("store find: %w", err)
	}

	if err := task.Complete(requester); err != nil {
		return err
	}

	if err := t.store.Update(ctx, task); err != nil {
		return fmt.Errorf("store update: %w", err)
	}

	if err := t.msgBroker.Completed(ctx, task); err != nil {
		t.logger.Warn("msgBroker.Completed failed", zap.Error(err))
	}

	return nil
}

// Reopen marks an existing record as pending, reopening an already open
// record succeeds.
func (t *Task) Reopen(ctx context.Context, id, requester string) error {
	ctx, span := otel.Tracer(otelName).Start(ctx, "Task.Reopen")
	defer span.End()

	task, err := t.store.Find(ctx, id)
	if err != nil {
		return fmt.Errorf("store find: %w", err)
	}

	if err := task.Reopen(requester); err != nil {
		return err
	}

	if err := t.store.Update(ctx, task); err != nil {
		return fmt.Errorf("store update: %w", err)
	}

	if err := t.msgBroker.Reopened(ctx, task); err != nil {
		t.logger.Warn("msgBroker.Reopened failed", zap.Error(err))
	}

	return nil
}

// Delete removes an existing Task from the datastore for good, only the
// owner may do so.
func (t *Task) Delete(ctx context.Context, id, requester string) error {
	ctx, span := otel.Tracer(otelName).Start(ctx, "Task.Delete")
	defer span.End()

	task, err := t.store.Find(ctx, id)
	if err != nil {
		return fmt.Errorf("store find: %w", err)
	}

	if err := task.AuthorizeOwner(requester); err != nil {
		return err
	}

	if err := t.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("store delete: %w", err)
	}

	if err := t.msgBroker.Deleted(ctx, id); err != nil {
		t.logger.Warn("msgBroker.Deleted failed", zap.Error(err))
	}

	return nil
}
