package rest_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/David-Orizu31/todolist/internal"
	"github.com/David-Orizu31/todolist/internal/rest"
)

type fakeTaskService struct {
	createFn   func(ctx context.Context, params internal.CreateParams) (internal.Task, error)
	taskFn     func(ctx context.Context, id string) (internal.Task, error)
	updateFn   func(ctx context.Context, id, description string, priority internal.Priority, requester string) error
	completeFn func(ctx context.Context, id, requester string) error
	reopenFn   func(ctx context.Context, id, requester string) error
	deleteFn   func(ctx context.Context, id, requester string) error
}

func (f *fakeTaskService) Create(ctx context.Context, params internal.CreateParams) (internal.Task, error) {
	return f.createFn(ctx, params)
}

func (f *fakeTaskService) Task(ctx context.Context, id string) (internal.Task, error) {
	return f.taskFn(ctx, id)
}

func (f *fakeTaskService) Update(ctx context.Context, id, description string, priority internal.Priority, requester string) error {
	return f.updateFn(ctx, id, description, priority, requester)
}

func (f *fakeTaskService) Complete(ctx context.Context, id, requester string) error {
	return f.completeFn(ctx, id, requester)
}

func (f *fakeTaskService) Reopen(ctx context.Context, id, requester string) error {
	return f.reopenFn(ctx, id, requester)
}

func (f *fakeTaskService) Delete(ctx context.Context, id, requester string) error {
	return f.deleteFn(ctx, id, requester)
}

func doRequest(t *testing.T, svc rest.TaskService, method, target, requester, body string) *httptest.ResponseRecorder {
	t.Helper()

	router := chi.NewRouter()
	rest.NewTaskHandler(svc).Register(router)

	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if requester != "" {
		req.Header.Set("X-Requester", requester)
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	return rec
}

func TestTaskHandlerCreate(t *testing.T) {
	t.Parallel()

	t.Run("created", func(t *testing.T) {
		t.Parallel()

		svc := &fakeTaskService{
			createFn: func(_ context.Context, params internal.CreateParams) (internal.Task, error) {
				return internal.NewTask("f8a510f9-6ec3-44b3-b48b-497310cd2aa0", params.Owner, params.Description, params.Priority)
			},
		}

		rec := doRequest(t, svc, http.MethodPost, "/tasks", "alice", `{"description":"Buy groceries","priority":2}`)
		require.Equal(t, http.StatusCreated, rec.Code)

		var resp rest.CreateTasksResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		require.Equal(t, "alice", resp.Task.Owner)
		require.Equal(t, rest.Priority(2), resp.Task.Priority)
		require.False(t, resp.Task.IsCompleted)
	})

	t.Run("invalid priority", func(t *testing.T) {
		t.Parallel()

		svc := &fakeTaskService{
			createFn: func(_ context.Context, params internal.CreateParams) (internal.Task, error) {
				t.Fatal("service must not be called")
				return internal.Task{}, nil
			},
		}

		rec := doRequest(t, svc, http.MethodPost, "/tasks", "alice", `{"description":"Buy groceries","priority":5}`)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("missing requester header", func(t *testing.T) {
		t.Parallel()

		rec := doRequest(t, &fakeTaskService{}, http.MethodPost, "/tasks", "", `{"description":"x","priority":1}`)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestTaskHandlerErrorMapping(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		err    error
		status int
	}{
		{
			name:   "not owner",
			err:    internal.NewErrorf(internal.ErrorCodeNotOwner, "not owner"),
			status: http.StatusForbidden,
		},
		{
			name:   "already completed",
			err:    internal.NewErrorf(internal.ErrorCodeAlreadyCompleted, "already completed"),
			status: http.StatusConflict,
		},
		{
			name:   "not found",
			err:    internal.NewErrorf(internal.ErrorCodeNotFound, "not found"),
			status: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			svc := &fakeTaskService{
				completeFn: func(_ context.Context, _, _ string) error {
					return tt.err
				},
			}

			rec := doRequest(t, svc, http.MethodPost, "/tasks/id-1/complete", "bob", "")
			require.Equal(t, tt.status, rec.Code)
		})
	}
}

func TestTaskHandlerRead(t *testing.T) {
	t.Parallel()

	svc := &fakeTaskService{
		taskFn: func(_ context.Context, id string) (internal.Task, error) {
			return internal.Task{
				ID:          id,
				Owner:       "alice",
				Description: "Buy groceries",
				Priority:    internal.PriorityHigh,
				Completed:   true,
			}, nil
		},
	}

	rec := doRequest(t, svc, http.MethodGet, "/tasks/id-1", "", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp rest.ReadTaskResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Equal(t, "id-1", resp.Task.ID)
	require.Equal(t, "alice", resp.Task.Owner)
	require.Equal(t, "Buy groceries", resp.Task.Description)
	require.Equal(t, rest.Priority(3), resp.Task.Priority)
	require.True(t, resp.Task.IsCompleted)
}

func TestTaskHandlerReopenAndDelete(t *testing.T) {
	t.Parallel()

	t.Run("reopen ok", func(t *testing.T) {
		t.Parallel()

		svc := &fakeTaskService{
			reopenFn: func(_ context.Context, id, requester string) error {
				require.Equal(t, "id-1", id)
				require.Equal(t, "alice", requester)
				return nil
			},
		}

		rec := doRequest(t, svc, http.MethodPost, "/tasks/id-1/reopen", "alice", "")
		require.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("delete by non owner", func(t *testing.T) {
		t.Parallel()

		svc := &fakeTaskService{
			deleteFn: func(_ context.Context, _, _ string) error {
				return internal.NewErrorf(internal.ErrorCodeNotOwner, "not owner")
			},
		}

		rec := doRequest(t, svc, http.MethodDelete, "/tasks/id-1", "bob", "")
		require.Equal(t, http.StatusForbidden, rec.Code)
	})
}

func TestTaskHandlerUpdate(t *testing.T) {
	t.Parallel()

	svc := &fakeTaskService{
		updateFn: func(_ context.Context, id, description string, priority internal.Priority, requester string) error {
			require.Equal(t, "id-1", id)
			require.Equal(t, "Buy milk", description)
			require.Equal(t, internal.PriorityHigh, priority)
			require.Equal(t, "alice", requester)
			return nil
		},
	}

	rec := doRequest(t, svc, http.MethodPut, "/tasks/id-1", "alice", `{"description":"Buy milk","priority":3}`)
	require.Equal(t, http.StatusOK, rec.Code)
}
