package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/David-Orizu31/todolist/internal"
	"github.com/David-Orizu31/todolist/internal/service"
)

type fakeStore struct {
	tasks  map[string]internal.Task
	nextID int
}

func newFakeStore() *fakeStore {
	return &fakeStore{tasks: make(map[string]internal.Task)}
}

func (s *fakeStore) Create(_ context.Context, params internal.CreateParams) (internal.Task, error) {
	s.nextID++

	id := string(rune('a' + s.nextID - 1))

	task, err := internal.NewTask(id, params.Owner, params.Description, params.Priority)
	if err != nil {
		return internal.Task{}, err
	}

	s.tasks[id] = task

	return task, nil
}

func (s *fakeStore) Delete(_ context.Context, id string) error {
	if _, ok := s.tasks[id]; !ok {
		return internal.NewErrorf(internal.ErrorCodeNotFound, "task %q not found", id)
	}

	delete(s.tasks, id)

	return nil
}

func (s *fakeStore) Find(_ context.Context, id string) (internal.Task, error) {
	task, ok := s.tasks[id]
	if !ok {
		return internal.Task{}, internal.NewErrorf(internal.ErrorCodeNotFound, "task %q not found", id)
	}

	return task, nil
}

func (s *fakeStore) Update(_ context.Context, task internal.Task) error {
	if _, ok := s.tasks[task.ID]; !ok {
		return internal.NewErrorf(internal.ErrorCodeNotFound, "task %q not found", task.ID)
	}

	s.tasks[task.ID] = task

	return nil
}

type fakeBroker struct {
	events []string
}

func (b *fakeBroker) Created(_ context.Context, task internal.Task) error {
	b.events = append(b.events, "created:"+task.ID)
	return nil
}

func (b *fakeBroker) Completed(_ context.Context, task internal.Task) error {
	b.events = append(b.events, "completed:"+task.ID)
	return nil
}

func (b *fakeBroker) Reopened(_ context.Context, task internal.Task) error {
	b.events = append(b.events, "reopened:"+task.ID)
	return nil
}

func (b *fakeBroker) Updated(_ context.Context, task internal.Task) error {
	b.events = append(b.events, "updated:"+task.ID)
	return nil
}

func (b *fakeBroker) Deleted(_ context.Context, id string) error {
	b.events = append(b.events, "deleted:"+id)
	return nil
}

func requireErrorCode(t *testing.T, err error, code internal.ErrorCode) {
	t.Helper()

	var ierr *internal.Error
	require.True(t, errors.As(err, &ierr), "expected *internal.Error, got %v", err)
	require.Equal(t, code, ierr.Code())
}

func newTestService(t *testing.T) (*service.Task, *fakeStore, *fakeBroker) {
	t.Helper()

	store := newFakeStore()
	broker := &fakeBroker{}

	return service.NewTask(zap.NewNop(), store, broker), store, broker
}

func TestServiceCreate(t *testing.T) {
	t.Parallel()

	t.Run("ok", func(t *testing.T) {
		t.Parallel()

		svc, _, broker := newTestService(t)

		task, err := svc.Create(context.Background(), internal.CreateParams{
			Owner:       "alice",
			Description: "Buy groceries",
			Priority:    internal.PriorityMedium,
		})
		require.NoError(t, err)
		require.NotEmpty(t, task.ID)
		require.Equal(t, "alice", task.Owner)
		require.False(t, task.Completed)
		require.Equal(t, []string{"created:" + task.ID}, broker.events)
	})

	t.Run("invalid priority creates nothing", func(t *testing.T) {
		t.Parallel()

		svc, store, broker := newTestService(t)

		_, err := svc.Create(context.Background(), internal.CreateParams{
			Owner:       "alice",
			Description: "Buy groceries",
			Priority:    internal.Priority(7),
		})
		requireErrorCode(t, err, internal.ErrorCodeInvalidPriority)
		require.Empty(t, store.tasks)
		require.Empty(t, broker.events)
	})
}

func TestServiceCompleteReopen(t *testing.T) {
	t.Parallel()

	svc, store, broker := newTestService(t)

	task, err := svc.Create(context.Background(), internal.CreateParams{
		Owner:       "alice",
		Description: "Buy groceries",
		Priority:    internal.PriorityMedium,
	})
	require.NoError(t, err)

	require.NoError(t, svc.Complete(context.Background(), task.ID, "alice"))
	require.True(t, store.tasks[task.ID].Completed)

	err = svc.Complete(context.Background(), task.ID, "alice")
	requireErrorCode(t, err, internal.ErrorCodeAlreadyCompleted)
	require.True(t, store.tasks[task.ID].Completed)

	require.NoError(t, svc.Reopen(context.Background(), task.ID, "alice"))
	require.False(t, store.tasks[task.ID].Completed)

	// Idempotent: reopening an open record is fine.
	require.NoError(t, svc.Reopen(context.Background(), task.ID, "alice"))
	require.False(t, store.tasks[task.ID].Completed)

	require.Equal(t, []string{
		"created:" + task.ID,
		"completed:" + task.ID,
		"reopened:" + task.ID,
		"reopened:" + task.ID,
	}, broker.events)
}

func TestServiceMutationsRequireOwner(t *testing.T) {
	t.Parallel()

	svc, store, _ := newTestService(t)

	task, err := svc.Create(context.Background(), internal.CreateParams{
		Owner:       "alice",
		Description: "Buy groceries",
		Priority:    internal.PriorityMedium,
	})
	require.NoError(t, err)

	requireErrorCode(t, svc.Complete(context.Background(), task.ID, "bob"), internal.ErrorCodeNotOwner)
	requireErrorCode(t, svc.Reopen(context.Background(), task.ID, "bob"), internal.ErrorCodeNotOwner)
	requireErrorCode(t, svc.Update(context.Background(), task.ID, "x", internal.PriorityLow, "bob"), internal.ErrorCodeNotOwner)
	requireErrorCode(t, svc.Delete(context.Background(), task.ID, "bob"), internal.ErrorCodeNotOwner)

	got := store.tasks[task.ID]
	require.Equal(t, task, got, "failed calls must leave the record untouched")
}

func TestServiceUpdate(t *testing.T) {
	t.Parallel()

	t.Run("ok", func(t *testing.T) {
		t.Parallel()

		svc, store, broker := newTestService(t)

		task, err := svc.Create(context.Background(), internal.CreateParams{
			Owner:       "alice",
			Description: "Buy groceries",
			Priority:    internal.PriorityMedium,
		})
		require.NoError(t, err)

		require.NoError(t, svc.Update(context.Background(), task.ID, "Buy milk", internal.PriorityHigh, "alice"))

		got := store.tasks[task.ID]
		require.Equal(t, "Buy milk", got.Description)
		require.Equal(t, internal.PriorityHigh, got.Priority)
		require.Equal(t, "alice", got.Owner)
		require.False(t, got.Completed)
		require.Contains(t, broker.events, "updated:"+task.ID)
	})

	t.Run("invalid priority leaves record untouched", func(t *testing.T) {
		t.Parallel()

		svc, store, _ := newTestService(t)

		task, err := svc.Create(context.Background(), internal.CreateParams{
			Owner:       "alice",
			Description: "Buy groceries",
			Priority:    internal.PriorityMedium,
		})
		require.NoError(t, err)

		err = svc.Update(context.Background(), task.ID, "Buy milk", internal.Priority(5), "alice")
		requireErrorCode(t, err, internal.ErrorCodeInvalidPriority)
		require.Equal(t, "Buy groceries", store.tasks[task.ID].Description)
	})
}

func TestServiceDelete(t *testing.T) {
	t.Parallel()

	svc, store, broker := newTestService(t)

	task, err := svc.Create(context.Background(), internal.CreateParams{
		Owner:       "alice",
		Description: "Buy groceries",
		Priority:    internal.PriorityMedium,
	})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), task.ID, "alice"))
	require.Empty(t, store.tasks)
	require.Contains(t, broker.events, "deleted:"+task.ID)

	_, err = svc.Task(context.Background(), task.ID)
	requireErrorCode(t, err, internal.ErrorCodeNotFound)

	err = svc.Complete(context.Background(), task.ID, "alice")
	requireErrorCode(t, err, internal.ErrorCodeNotFound)
}
