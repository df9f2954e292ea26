package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/phrazzld/taskdue/internal/api/shared"
	"github.com/phrazzld/taskdue/internal/platform/logger"
	"github.com/phrazzld/taskdue/internal/scheduler"
	"github.com/phrazzld/taskdue/internal/service"
)

// SchedulerInspector exposes the scheduler's read-only state.
type SchedulerInspector interface {
	Pending() []scheduler.Job
	Stats() scheduler.Stats
}

// RecoveryReporter exposes the outcome of the last startup recovery.
type RecoveryReporter interface {
	LastReport() (service.RecoveryReport, bool)
}

// TaskHandler handles task-related HTTP requests
type TaskHandler struct {
	tasks     service.TaskService
	scheduler SchedulerInspector
	recovery  RecoveryReporter
	logger    *slog.Logger
}

// NewTaskHandler creates a new TaskHandler. recovery may be nil.
func NewTaskHandler(
	tasks service.TaskService,
	sched SchedulerInspector,
	recovery RecoveryReporter,
	logger *slog.Logger,
) *TaskHandler {
	if tasks == nil || sched == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("task service and scheduler cannot be nil for TaskHandler")
	}
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for TaskHandler")
	}

	return &TaskHandler{
		tasks:     tasks,
		scheduler: sched,
		recovery:  recovery,
		logger:    logger.With(slog.String("component", "task_handler")),
	}
}

// RegisterRoutes mounts the task endpoints on r.
func (h *TaskHandler) RegisterRoutes(r chi.Router) {
	r.Route("/tasks", func(r chi.Router) {
		r.Post("/", h.CreateTask)
		r.Get("/", h.ListTasks)
		r.Get("/{id}", h.GetTask)
		r.Post("/{id}/complete", h.CompleteTask)
		r.Delete("/{id}", h.DeleteTask)
	})
	r.Get("/scheduler", h.SchedulerStatus)
}

// CreateTask handles POST /tasks requests.
func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	var req CreateTaskRequest
	if err := shared.DecodeJSON(w, r, &req); err != nil {
		if errors.Is(err, shared.ErrEmptyBody) {
			HandleAPIError(w, r, err, "")
			return
		}
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid request format", err)
		return
	}

	if err := shared.ValidateRequest(&req); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	task, err := h.tasks.CreateTask(r.Context(), service.CreateTaskParams{
		Title:               req.Title,
		DueDate:             req.DueDate,
		DueTime:             req.DueTime,
		Status:              req.Status,
		ScheduledCompletion: req.ScheduledCompletion,
	})
	if err != nil {
		HandleAPIError(w, r, err, "Failed to create task")
		return
	}

	log.Debug("task created via API", slog.Int64("task_id", task.ID))
	shared.RespondWithJSON(w, r, http.StatusCreated, taskToResponse(task))
}

// ListTasks handles GET /tasks requests.
func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.tasks.ListTasks(r.Context())
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list tasks")
		return
	}

	resp := make([]TaskResponse, 0, len(tasks))
	for _, t := range tasks {
		resp = append(resp, taskToResponse(t))
	}
	shared.RespondWithJSON(w, r, http.StatusOK, resp)
}

// GetTask handles GET /tasks/{id} requests.
func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	id, err := getPathID(r, "id")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	task, err := h.tasks.GetTask(r.Context(), id)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to get task")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, taskToResponse(task))
}

// CompleteTask handles POST /tasks/{id}/complete requests.
// Completing an already completed task succeeds.
func (h *TaskHandler) CompleteTask(w http.ResponseWriter, r *http.Request) {
	id, err := getPathID(r, "id")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	found, err := h.tasks.MarkComplete(r.Context(), id)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to complete task")
		return
	}
	if !found {
		HandleAPIError(w, r, service.ErrTaskNotFound, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, CompleteTaskResponse{ID: id, Completed: true})
}

// DeleteTask handles DELETE /tasks/{id} requests.
func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	id, err := getPathID(r, "id")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	found, err := h.tasks.DeleteTask(r.Context(), id)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to delete task")
		return
	}
	if !found {
		HandleAPIError(w, r, service.ErrTaskNotFound, "")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// SchedulerStatus handles GET /scheduler requests.
func (h *TaskHandler) SchedulerStatus(w http.ResponseWriter, r *http.Request) {
	resp := SchedulerStatusResponse{
		Pending: jobsToResponse(h.scheduler.Pending()),
		Stats:   h.scheduler.Stats(),
	}
	if h.recovery != nil {
		if report, ok := h.recovery.LastReport(); ok {
			resp.Recovery = &report
		}
	}
	shared.RespondWithJSON(w, r, http.StatusOK, resp)
}
