package rest

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/David-Orizu31/todolist/internal"
)

//go:generate counterfeiter -o resttesting/task_service.gen.go . TaskService

// TaskService represents the application service used by the handlers.
type TaskService interface {
	Create(ctx context.Context, params internal.CreateParams) (internal.Task, error)
	Task(ctx context.Context, id string) (internal.Task, error)
	Update(ctx context.Context, id, description string, priority internal.Priority, requester string) error
	Complete(ctx context.Context, id, requester string) error
	Reopen(ctx context.Context, id, requester string) error
	Delete(ctx context.Context, id, requester string) error
}

// TaskHandler exposes the Task operations over HTTP.
type TaskHandler struct {
	svc TaskService
}

// NewTaskHandler instantiates the handler.
func NewTaskHandler(svc TaskService) *TaskHandler {
	return &TaskHandler{
		svc: svc,
	}
}

// Register connects the handlers to the router.
func (t *TaskHandler) Register(r chi.Router) {
	r.Post("/tasks", t.create)
	r.Route("/tasks/{id}", func(r chi.Router) {
		r.Get("/", t.task)
		r.Put("/", t.update)
		r.Delete("/", t.delete)
		r.Post("/complete", t.complete)
		r.Post("/reopen", t.reopen)
	})
}

// Priority is the wire representation of a record's priority, 1 through 3.
type Priority int8

const (
	priorityLow    Priority = 1
	priorityMedium Priority = 2
	priorityHigh   Priority = 3
)

// Convert returns the domain type matching the received value.
func (p Priority) Convert() internal.Priority {
	return internal.Priority(p)
}

// NewPriority converts the domain type to the wire representation.
func NewPriority(p internal.Priority) Priority {
	return Priority(p)
}

// Task is a single record with exactly one owning account.
type Task struct {
	ID          string   `json:"id"`
	Owner       string   `json:"owner"`
	Description string   `json:"description"`
	Priority    Priority `json:"priority"`
	IsCompleted bool     `json:"is_completed"`
}

func newTask(task internal.Task) Task {
	return Task{
		ID:          task.ID,
		Owner:       task.Owner,
		Description: task.Description,
		Priority:    NewPriority(task.Priority),
		IsCompleted: task.Completed,
	}
}

// CreateTasksRequest defines the request used for creating tasks.
type CreateTasksRequest struct {
	Description string   `json:"description"`
	Priority    Priority `json:"priority"`
}

// Validate indicates whether the request shape is usable, the domain runs
// the authoritative checks.
func (r CreateTasksRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Priority, validation.In(priorityLow, priorityMedium, priorityHigh)),
	)
}

// CreateTasksResponse defines the response returned back after creating tasks.
type CreateTasksResponse struct {
	Task Task `json:"task"`
}

// ReadTaskResponse defines the response returned back after reading one task.
type ReadTaskResponse struct {
	Task Task `json:"task"`
}

// UpdateTaskRequest defines the request used for updating a task.
type UpdateTaskRequest struct {
	Description string   `json:"description"`
	Priority    Priority `json:"priority"`
}

// Validate indicates whether the request shape is usable.
func (r UpdateTaskRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Priority, validation.In(priorityLow, priorityMedium, priorityHigh)),
	)
}

// requesterFrom extracts the authenticated identity the host put on the
// request, authentication itself happens upstream of this service.
func requesterFrom(r *http.Request) (string, error) {
	requester := r.Header.Get("X-Requester")
	if requester == "" {
		return "", internal.NewErrorf(internal.ErrorCodeInvalidArgument, "missing X-Requester header")
	}

	return requester, nil
}

func (t *TaskHandler) create(w http.ResponseWriter, r *http.Request) {
	requester, err := requesterFrom(r)
	if err != nil {
		renderErrorResponse(r.Context(), w, "invalid request", err)
		return
	}

	var req CreateTasksRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		renderErrorResponse(r.Context(), w, "invalid request",
			internal.WrapErrorf(err, internal.ErrorCodeInvalidArgument, "json decoder"))
		return
	}
	defer r.Body.Close()

	if err := req.Validate(); err != nil {
		renderErrorResponse(r.Context(), w, "invalid priority",
			internal.WrapErrorf(err, internal.ErrorCodeInvalidPriority, "req.Validate"))
		return
	}

	task, err := t.svc.Create(r.Context(), internal.CreateParams{
		Owner:       requester,
		Description: req.Description,
		Priority:    req.Priority.Convert(),
	})
	if err != nil {
		renderErrorResponse(r.Context(), w, "create failed", err)
		return
	}

	renderResponse(w, &CreateTasksResponse{Task: newTask(task)}, http.StatusCreated)
}

func (t *TaskHandler) task(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	task, err := t.svc.Task(r.Context(), id)
	if err != nil {
		renderErrorResponse(r.Context(), w, "find failed", err)
		return
	}

	renderResponse(w, &ReadTaskResponse{Task: newTask(task)}, http.StatusOK)
}

func (t *TaskHandler) update(w http.ResponseWriter, r *http.Request) {
	requester, err := requesterFrom(r)
	if err != nil {
		renderErrorResponse(r.Context(), w, "invalid request", err)
		return
	}

	var req UpdateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		renderErrorResponse(r.Context(), w, "invalid request",
			internal.WrapErrorf(err, internal.ErrorCodeInvalidArgument, "json decoder"))
		return
	}
	defer r.Body.Close()

	if err := req.Validate(); err != nil {
		renderErrorResponse(r.Context(), w, "invalid priority",
			internal.WrapErrorf(err, internal.ErrorCodeInvalidPriority, "req.Validate"))
		return
	}

	id := chi.URLParam(r, "id")

	if err := t.svc.Update(r.Context(), id, req.Description, req.Priority.Convert(), requester); err != nil {
		renderErrorResponse(r.Context(), w, "update failed", err)
		return
	}

	renderResponse(w, struct{}{}, http.StatusOK)
}

func (t *TaskHandler) complete(w http.ResponseWriter, r *http.Request) {
	requester, err := requesterFrom(r)
	if err != nil {
		renderErrorResponse(r.Context(), w, "invalid request", err)
		return
	}

	id := chi.URLParam(r, "id")

	if err := t.svc.Complete(r.Context(), id, requester); err != nil {
		renderErrorResponse(r.Context(), w, "complete failed", err)
		return
	}

	renderResponse(w, struct{}{}, http.StatusOK)
}

func (t *TaskHandler) reopen(w http.ResponseWriter, r *http.Request) {
	requester, err := requesterFrom(r)
	if err != nil {
		renderErrorResponse(r.Context(), w, "invalid request", err)
		return
	}

	id := chi.URLParam(r, "id")

	if err := t.svc.Reopen(r.Context(), id, requester); err != nil {
		renderErrorResponse(r.Context(), w, "reopen failed", err)
		return
	}

	renderResponse(w, struct{}{}, http.StatusOK)
}

func (t *TaskHandler) delete(w http.ResponseWriter, r *http.Request) {
	requester, err := requesterFrom(r)
	if err != nil {
		renderErrorResponse(r.Context(), w, "invalid request", err)
		return
	}

	id := chi.URLParam(r, "id")

	if err := t.svc.Delete(r.Context(), id, requester); err != nil {
		renderErrorResponse(r.Context(), w, "delete failed", err)
		return
	}

	renderResponse(w, struct{}{}, http.StatusOK)
}
