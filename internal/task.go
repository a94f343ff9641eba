package internal

// Priority indicates how urgent a Task is. Only the three values below are
// valid for the lifetime of a record.
type Priority int8

const (
	PriorityLow    Priority = 1
	PriorityMedium Priority = 2
	PriorityHigh   Priority = 3
)

// Validate returns ErrorCodeInvalidPriority when the value is outside the
// supported set.
func (p Priority) Validate() error {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return nil
	}

	return NewErrorf(ErrorCodeInvalidPriority, "unknown priority %d", p)
}

func (p Priority) String() string {
	switch p {
	case PriorityLow:
		return "low"
	case PriorityMedium:
		return "medium"
	case PriorityHigh:
		return "high"
	}

	return "invalid"
}

// Task is a single record with exactly one owning account. Mutations go
// through the methods below so the owner check always runs before any field
// is written; callers must not write fields directly.
type Task struct {
	ID          string
	Owner       string
	Description string
	Priority    Priority
	Completed   bool
}

// CreateParams defines the arguments used for creating tasks, the requester
// creating the record becomes its owner.
type CreateParams struct {
	Owner       string
	Description string
	Priority    Priority
}

// Validate indicates whether the values are valid for creating a record.
func (p CreateParams) Validate() error {
	return p.Priority.Validate()
}

// NewTask instantiates a record owned by owner, not yet completed. The
// description is free form and intentionally not validated.
func NewTask(id, owner, description string, priority Priority) (Task, error) {
	if err := priority.Validate(); err != nil {
		return Task{}, err
	}

	return Task{
		ID:          id,
		Owner:       owner,
		Description: description,
		Priority:    priority,
	}, nil
}

// AuthorizeOwner returns ErrorCodeNotOwner unless the requester is the
// account that created the record. Every mutation runs this check first.
func (t Task) AuthorizeOwner(requester string) error {
	if requester != t.Owner {
		return NewErrorf(ErrorCodeNotOwner, "task %q does not belong to %q", t.ID, requester)
	}

	return nil
}

// Complete marks the record as done. Completing twice is an error, not a
// no-op; see Reopen for the deliberate asymmetry.
func (t *Task) Complete(requester string) error {
	if err := t.AuthorizeOwner(requester); err != nil {
		return err
	}

	if t.Completed {
		return NewErrorf(ErrorCodeAlreadyCompleted, "task %q is already completed", t.ID)
	}

	t.Completed = true

	return nil
}

// Reopen marks the record as pending again. Unlike Complete this is
// idempotent: reopening an open record succeeds without error.
func (t *Task) Reopen(requester string) error {
	if err := t.AuthorizeOwner(requester); err != nil {
		return err
	}

	t.Completed = false

	return nil
}

// Update replaces the description and priority wholesale, Completed is left
// untouched. Nothing is written when either check fails.
func (t *Task) Update(description string, priority Priority, requester string) error {
	if err := t.AuthorizeOwner(requester); err != nil {
		return err
	}

	if err := priority.Validate(); err != nil {
		return err
	}

	t.Description = description
	t.Priority = priority

	return nil
}
