package postgresql

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/David-Orizu31/todolist/internal"
	"github.com/David-Orizu31/todolist/internal/postgresql/db"
)

// Task represents the repository used for persisting Task records.
type Task struct {
	pool *pgxpool.Pool
}

// NewTask instantiates the Task repository.
func NewTask(pool *pgxpool.Pool) *Task {
	return &Task{
		pool: pool,
	}
}

// Create inserts a new record owned by params.Owner, the identifier is a
// fresh UUID so deleted records never come back under a reused id.
func (t *Task) Create(ctx context.Context, params internal.CreateParams) (internal.Task, error) {
	defer newOTELSpan(ctx, "Task.Create").End()

	id := uuid.New()

	task, err := internal.NewTask(id.String(), params.Owner, params.Description, params.Priority)
	if err != nil {
		return internal.Task{}, err
	}

	_, err = t.pool.Exec(ctx,
		`INSERT INTO tasks (id, owner, description, priority, completed) VALUES ($1, $2, $3, $4, $5)`,
		id,
		task.Owner,
		task.Description,
		newPriority(task.Priority),
		task.Completed,
	)
	if err != nil {
		return internal.Task{}, internal.WrapErrorf(err, internal.ErrorCodeUnknown, "pool.Exec insert")
	}

	return task, nil
}

// Delete removes the record entirely, there is no soft delete.
func (t *Task) Delete(ctx context.Context, id string) error {
	defer newOTELSpan(ctx, "Task.Delete").End()

	taskID, err := uuid.Parse(id)
	if err != nil {
		return internal.WrapErrorf(err, internal.ErrorCodeInvalidArgument, "uuid.Parse")
	}

	tag, err := t.pool.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, taskID)
	if err != nil {
		return internal.WrapErrorf(err, internal.ErrorCodeUnknown, "pool.Exec delete")
	}

	if tag.RowsAffected() == 0 {
		return internal.NewErrorf(internal.ErrorCodeNotFound, "task %q not found", id)
	}

	return nil
}

// Find returns the requested record.
func (t *Task) Find(ctx context.Context, id string) (internal.Task, error) {
	defer newOTELSpan(ctx, "Task.Find").End()

	taskID, err := uuid.Parse(id)
	if err != nil {
		return internal.Task{}, internal.WrapErrorf(err, internal.ErrorCodeInvalidArgument, "uuid.Parse")
	}

	var res db.Task

	err = t.pool.QueryRow(ctx,
		`SELECT id, owner, description, priority, completed FROM tasks WHERE id = $1`,
		taskID,
	).Scan(&res.ID, &res.Owner, &res.Description, &res.Priority, &res.Completed)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return internal.Task{}, internal.NewErrorf(internal.ErrorCodeNotFound, "task %q not found", id)
		}

		return internal.Task{}, internal.WrapErrorf(err, internal.ErrorCodeUnknown, "pool.QueryRow select")
	}

	priority, err := convertPriority(res.Priority)
	if err != nil {
		return internal.Task{}, internal.WrapErrorf(err, internal.ErrorCodeUnknown, "convertPriority")
	}

	return internal.Task{
		ID:          res.ID.String(),
		Owner:       res.Owner,
		Description: res.Description,
		Priority:    priority,
		Completed:   res.Completed,
	}, nil
}

// Update persists the received record, the owner column is deliberately not
// part of the statement because ownership never transfers.
func (t *Task) Update(ctx context.Context, task internal.Task) error {
	defer newOTELSpan(ctx, "Task.Update").End()

	taskID, err := uuid.Parse(task.ID)
	if err != nil {
		return internal.WrapErrorf(err, internal.ErrorCodeInvalidArgument, "uuid.Parse")
	}

	tag, err := t.pool.Exec(ctx,
		`UPDATE tasks SET description = $2, priority = $3, completed = $4 WHERE id = $1`,
		taskID,
		task.Description,
		newPriority(task.Priority),
		task.Completed,
	)
	if err != nil {
		return internal.WrapErrorf(err, internal.ErrorCodeUnknown, "pool.Exec update")
	}

	if tag.RowsAffected() == 0 {
		return internal.NewErrorf(internal.ErrorCodeNotFound, "task %q not found", task.ID)
	}

	return nil
}
