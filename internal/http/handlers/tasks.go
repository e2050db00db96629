package handlers

import (
	"context"
	"net/http"

	"github.com/geocoder89/taskhub/internal/domain/task"
	"github.com/gin-gonic/gin"
)

type TaskEngine interface {
	List(ctx context.Context, q task.Query) (task.Page, error)
	Get(ctx context.Context, ownerID, id string) (task.View, error)
	Create(ctx context.Context, ownerID string, req task.CreateRequest) (task.View, error)
	Update(ctx context.Context, ownerID, id string, req task.UpdateRequest) (task.View, error)
	Toggle(ctx context.Context, ownerID, id string) (task.View, error)
	Delete(ctx context.Context, ownerID, id string) error
	Stats(ctx context.Context, ownerID string) (task.Stats, error)
}

type TasksHandler struct {
	tasks TaskEngine
}

func NewTasksHandler(tasks TaskEngine) *TasksHandler {
	return &TasksHandler{tasks: tasks}
}

func (h *TasksHandler) ListTasks(ctx *gin.Context) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}

	var params task.ListParams
	if !BindQuery(ctx, &params) {
		return
	}

	cctx, cancel := withTimeout(ctx, readTimeout)
	defer cancel()

	page, err := h.tasks.List(cctx, params.Query(actor.UserID))
	if err != nil {
		RespondServiceError(ctx, err, "Could not list tasks")
		return
	}

	respondCacheable(ctx, "Tasks retrieved successfully", page)
}

func (h *TasksHandler) Stats(ctx *gin.Context) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}

	cctx, cancel := withTimeout(ctx, readTimeout)
	defer cancel()

	stats, err := h.tasks.Stats(cctx, actor.UserID)
	if err != nil {
		RespondServiceError(ctx, err, "Could not compute task stats")
		return
	}

	respondCacheable(ctx, "Task statistics retrieved successfully", stats)
}

func (h *TasksHandler) GetTask(ctx *gin.Context) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}

	id, ok := idParam(ctx, "task")
	if !ok {
		return
	}

	cctx, cancel := withTimeout(ctx, readTimeout)
	defer cancel()

	v, err := h.tasks.Get(cctx, actor.UserID, id)
	if err != nil {
		RespondServiceError(ctx, err, "Could not fetch task")
		return
	}

	respondCacheable(ctx, "Task retrieved successfully", gin.H{"task": v})
}

func (h *TasksHandler) CreateTask(ctx *gin.Context) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}

	var req task.CreateRequest
	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := withTimeout(ctx, writeTimeout)
	defer cancel()

	v, err := h.tasks.Create(cctx, actor.UserID, req)
	if err != nil {
		RespondServiceError(ctx, err, "Could not create task")
		return
	}

	RespondSuccess(ctx, http.StatusCreated, "Task created successfully", gin.H{"task": v})
}

func (h *TasksHandler) UpdateTask(ctx *gin.Context) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}

	id, ok := idParam(ctx, "task")
	if !ok {
		return
	}

	var req task.UpdateRequest
	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := withTimeout(ctx, writeTimeout)
	defer cancel()

	v, err := h.tasks.Update(cctx, actor.UserID, id, req)
	if err != nil {
		RespondServiceError(ctx, err, "Could not update task")
		return
	}

	RespondSuccess(ctx, http.StatusOK, "Task updated successfully", gin.H{"task": v})
}

func (h *TasksHandler) ToggleTask(ctx *gin.Context) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}

	id, ok := idParam(ctx, "task")
	if !ok {
		return
	}

	cctx, cancel := withTimeout(ctx, writeTimeout)
	defer cancel()

	v, err := h.tasks.Toggle(cctx, actor.UserID, id)
	if err != nil {
		RespondServiceError(ctx, err, "Could not toggle task")
		return
	}

	RespondSuccess(ctx, http.StatusOK, "Task status updated", gin.H{"task": v})
}

func (h *TasksHandler) DeleteTask(ctx *gin.Context) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}

	id, ok := idParam(ctx, "task")
	if !ok {
		return
	}

	cctx, cancel := withTimeout(ctx, writeTimeout)
	defer cancel()

	if err := h.tasks.Delete(cctx, actor.UserID, id); err != nil {
		RespondServiceError(ctx, err, "Could not delete task")
		return
	}

	RespondSuccess(ctx, http.StatusOK, "Task deleted successfully", nil)
}
