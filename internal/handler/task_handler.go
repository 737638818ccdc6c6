package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"taskcalendar/internal/model"
)

// TaskEngine is the optimistic task engine as seen by HTTP handlers.
type TaskEngine interface {
	List(ctx context.Context, filter model.TaskFilter) ([]model.Task, error)
	Get(ctx context.Context, id string) (*model.Task, error)
	Create(ctx context.Context, input model.NewTask) (*model.Task, error)
	Update(ctx context.Context, id string, patch model.TaskPatch) (*model.Task, error)
	Delete(ctx context.Context, id string) error
}

// SharedTaskLister lists tasks other owners shared with a user.
type SharedTaskLister interface {
	ListShared(ctx context.Context, userID string) ([]model.Task, error)
}

type TaskHandler struct {
	engine TaskEngine
	shared SharedTaskLister
	log    *logrus.Entry
}

func NewTaskHandler(engine TaskEngine, shared SharedTaskLister, log *logrus.Entry) *TaskHandler {
	return &TaskHandler{engine: engine, shared: shared, log: log}
}

// List godoc
// @Summary      List tasks
// @Description  Tasks of the signed-in user ordered by due date
// @Tags         Tasks
// @Produce      json
// @Param        status  query  string  false  "todo, inProgress, done or all"
// @Success      200  {array}   model.Task
// @Failure      400  {object}  map[string]string
// @Security     BearerAuth
// @Router       /tasks [get]
func (h *TaskHandler) List(c *gin.Context) {
	const op = "handler.TaskHandler.List"
	log := h.log.WithField("operation", op)

	var filter model.TaskFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		invalidRequest(c, err)
		return
	}
	if key := filter.Key(); key != model.FilterAll && !validStatus(model.TaskStatus(key)) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown status filter"})
		return
	}

	tasks, err := h.engine.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, log, err)
		return
	}
	c.JSON(http.StatusOK, tasks)
}

// GetByID godoc
// @Summary  Get a task
// @Tags     Tasks
// @Produce  json
// @Param    id   path      string  true  "Task ID"
// @Success  200  {object}  model.Task
// @Failure  404  {object}  map[string]string
// @Security BearerAuth
// @Router   /tasks/{id} [get]
func (h *TaskHandler) GetByID(c *gin.Context) {
	const op = "handler.TaskHandler.GetByID"
	log := h.log.WithField("operation", op)

	id, ok := pathID(c, "task")
	if !ok {
		return
	}

	task, err := h.engine.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, log, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

// Create godoc
// @Summary  Create a task
// @Tags     Tasks
// @Accept   json
// @Produce  json
// @Param    task  body      model.NewTask  true  "Task"
// @Success  201   {object}  model.Task
// @Security BearerAuth
// @Router   /tasks [post]
func (h *TaskHandler) Create(c *gin.Context) {
	const op = "handler.TaskHandler.Create"
	log := h.log.WithField("operation", op)

	var req model.NewTask
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c, err)
		return
	}

	task, err := h.engine.Create(c.Request.Context(), req)
	if err != nil {
		respondError(c, log, err)
		return
	}
	c.JSON(http.StatusCreated, task)
}

// Update godoc
// @Summary      Update a task
// @Description  Only the fields present in the body are changed; null clears a nullable field
// @Tags         Tasks
// @Accept       json
// @Produce      json
// @Param        id     path      string           true  "Task ID"
// @Param        patch  body      model.TaskPatch  true  "Fields to change"
// @Success      200    {object}  model.Task
// @Security     BearerAuth
// @Router       /tasks/{id} [patch]
func (h *TaskHandler) Update(c *gin.Context) {
	const op = "handler.TaskHandler.Update"
	log := h.log.WithField("operation", op)

	id, ok := pathID(c, "task")
	if !ok {
		return
	}

	var patch model.TaskPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		invalidRequest(c, err)
		return
	}
	if patch.Empty() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No fields to update"})
		return
	}

	task, err := h.engine.Update(c.Request.Context(), id, patch)
	if err != nil {
		respondError(c, log, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

// Delete godoc
// @Summary  Delete a task
// @Tags     Tasks
// @Param    id  path  string  true  "Task ID"
// @Success  204
// @Security BearerAuth
// @Router   /tasks/{id} [delete]
func (h *TaskHandler) Delete(c *gin.Context) {
	const op = "handler.TaskHandler.Delete"
	log := h.log.WithField("operation", op)

	id, ok := pathID(c, "task")
	if !ok {
		return
	}

	if err := h.engine.Delete(c.Request.Context(), id); err != nil {
		respondError(c, log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Shared returns tasks other users shared with the caller.
func (h *TaskHandler) Shared(c *gin.Context) {
	const op = "handler.TaskHandler.Shared"
	log := h.log.WithField("operation", op)

	userID, ok := currentUser(c)
	if !ok {
		return
	}

	tasks, err := h.shared.ListShared(c.Request.Context(), userID)
	if err != nil {
		respondError(c, log, err)
		return
	}
	c.JSON(http.StatusOK, tasks)
}

func validStatus(s model.TaskStatus) bool {
	for _, known := range model.TaskStatuses {
		if s == known {
			return true
		}
	}
	return false
}
