package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"taskcalendar/internal/model"
	"taskcalendar/internal/realtime"
)

const kindGoals = "goals"

type GoalStore interface {
	List(ctx context.Context, ownerID string) ([]model.Goal, error)
	Create(ctx context.Context, ownerID string, input model.NewGoal) (*model.Goal, error)
	Update(ctx context.Context, ownerID, id string, patch model.GoalPatch) (*model.Goal, error)
	Delete(ctx context.Context, ownerID, id string) error
}

type GoalHandler struct {
	repo GoalStore
	pub  realtime.Publisher
	log  *logrus.Entry
}

func NewGoalHandler(repo GoalStore, pub realtime.Publisher, log *logrus.Entry) *GoalHandler {
	return &GoalHandler{repo: repo, pub: pub, log: log}
}

// GoalView is a goal together with its completion ratio.
type GoalView struct {
	model.Goal
	Completion float64 `json:"completion"`
}

func viewGoal(g model.Goal) GoalView {
	return GoalView{Goal: g, Completion: g.Completion()}
}

// List godoc
// @Summary  List goals
// @Tags     Goals
// @Produce  json
// @Success  200  {array}  GoalView
// @Security BearerAuth
// @Router   /goals [get]
func (h *GoalHandler) List(c *gin.Context) {
	const op = "handler.GoalHandler.List"
	log := h.log.WithField("operation", op)

	userID, ok := currentUser(c)
	if !ok {
		return
	}

	goals, err := h.repo.List(c.Request.Context(), userID)
	if err != nil {
		respondError(c, log, err)
		return
	}

	views := make([]GoalView, 0, len(goals))
	for _, g := range goals {
		views = append(views, viewGoal(g))
	}
	c.JSON(http.StatusOK, views)
}

func (h *GoalHandler) Create(c *gin.Context) {
	const op = "handler.GoalHandler.Create"
	log := h.log.WithField("operation", op)

	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req model.NewGoal
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c, err)
		return
	}
	if req.PeriodEnd.Before(req.PeriodStart) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Period end is before its start"})
		return
	}

	goal, err := h.repo.Create(c.Request.Context(), userID, req)
	if err != nil {
		respondError(c, log, err)
		return
	}
	announce(h.pub, realtime.EventCreated, kindGoals, userID, goal.ID, goal, goal.SharedWith)
	c.JSON(http.StatusCreated, viewGoal(*goal))
}

func (h *GoalHandler) Update(c *gin.Context) {
	const op = "handler.GoalHandler.Update"
	log := h.log.WithField("operation", op)

	id, ok := pathID(c, "goal")
	if !ok {
		return
	}

	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var patch model.GoalPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		invalidRequest(c, err)
		return
	}

	goal, err := h.repo.Update(c.Request.Context(), userID, id, patch)
	if err != nil {
		respondError(c, log, err)
		return
	}
	announce(h.pub, realtime.EventUpdated, kindGoals, userID, goal.ID, goal, goal.SharedWith)
	c.JSON(http.StatusOK, viewGoal(*goal))
}

func (h *GoalHandler) Delete(c *gin.Context) {
	const op = "handler.GoalHandler.Delete"
	log := h.log.WithField("operation", op)

	id, ok := pathID(c, "goal")
	if !ok {
		return
	}

	userID, ok := currentUser(c)
	if !ok {
		return
	}

	if err := h.repo.Delete(c.Request.Context(), userID, id); err != nil {
		respondError(c, log, err)
		return
	}
	announce(h.pub, realtime.EventDeleted, kindGoals, userID, id, nil, nil)
	c.Status(http.StatusNoContent)
}
