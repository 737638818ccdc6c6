package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"taskcalendar/internal/calendar"
	"taskcalendar/internal/model"
)

type CalendarHandler struct {
	planner *calendar.Planner
	log     *logrus.Entry
}

func NewCalendarHandler(planner *calendar.Planner, log *logrus.Entry) *CalendarHandler {
	return &CalendarHandler{planner: planner, log: log}
}

type MoveRequest struct {
	Start time.Time `json:"start" binding:"required"`
	End   time.Time `json:"end" binding:"required"`
}

type AllDayRequest struct {
	AllDay *bool `json:"allDay" binding:"required"`
}

type ColorRequest struct {
	Color string `json:"color" binding:"omitempty,hexcolor"`
}

type SlotRequest struct {
	calendar.Slot
	model.NewTask
}

// Events godoc
// @Summary  Calendar events
// @Tags     Calendar
// @Produce  json
// @Success  200  {array}  calendar.Event
// @Security BearerAuth
// @Router   /calendar/events [get]
func (h *CalendarHandler) Events(c *gin.Context) {
	const op = "handler.CalendarHandler.Events"
	log := h.log.WithField("operation", op)

	events, err := h.planner.Events(c.Request.Context())
	if err != nil {
		respondError(c, log, err)
		return
	}
	c.JSON(http.StatusOK, events)
}

func (h *CalendarHandler) Colors(c *gin.Context) {
	c.JSON(http.StatusOK, calendar.PresetColors)
}

// Move godoc
// @Summary      Reschedule an event
// @Description  Drag, resize or drop a task onto the calendar
// @Tags         Calendar
// @Accept       json
// @Produce      json
// @Param        id    path      string       true  "Task ID"
// @Param        body  body      MoveRequest  true  "New range"
// @Success      200   {object}  model.Task
// @Security     BearerAuth
// @Router       /calendar/events/{id}/move [post]
func (h *CalendarHandler) Move(c *gin.Context) {
	const op = "handler.CalendarHandler.Move"
	log := h.log.WithField("operation", op)

	id, ok := pathID(c, "task")
	if !ok {
		return
	}

	var req MoveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c, err)
		return
	}

	task, err := h.planner.Move(c.Request.Context(), id, req.Start, req.End)
	if err != nil {
		respondError(c, log, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

func (h *CalendarHandler) Cycle(c *gin.Context) {
	const op = "handler.CalendarHandler.Cycle"
	log := h.log.WithField("operation", op)

	id, ok := pathID(c, "task")
	if !ok {
		return
	}

	task, err := h.planner.CycleStatus(c.Request.Context(), id)
	if err != nil {
		respondError(c, log, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

func (h *CalendarHandler) AllDay(c *gin.Context) {
	const op = "handler.CalendarHandler.AllDay"
	log := h.log.WithField("operation", op)

	id, ok := pathID(c, "task")
	if !ok {
		return
	}

	var req AllDayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c, err)
		return
	}

	task, err := h.planner.SetAllDay(c.Request.Context(), id, *req.AllDay)
	if err != nil {
		respondError(c, log, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

func (h *CalendarHandler) ScheduleNow(c *gin.Context) {
	const op = "handler.CalendarHandler.ScheduleNow"
	log := h.log.WithField("operation", op)

	id, ok := pathID(c, "task")
	if !ok {
		return
	}

	task, err := h.planner.ScheduleNow(c.Request.Context(), id)
	if err != nil {
		respondError(c, log, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

func (h *CalendarHandler) SetColor(c *gin.Context) {
	const op = "handler.CalendarHandler.SetColor"
	log := h.log.WithField("operation", op)

	id, ok := pathID(c, "task")
	if !ok {
		return
	}

	var req ColorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c, err)
		return
	}

	task, err := h.planner.SetColor(c.Request.Context(), id, req.Color)
	if err != nil {
		respondError(c, log, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

func (h *CalendarHandler) ToggleBackup(c *gin.Context) {
	const op = "handler.CalendarHandler.ToggleBackup"
	log := h.log.WithField("operation", op)

	id, ok := pathID(c, "task")
	if !ok {
		return
	}

	task, err := h.planner.ToggleBackup(c.Request.Context(), id)
	if err != nil {
		respondError(c, log, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

// CreateInSlot godoc
// @Summary  Create a task in a selected slot
// @Tags     Calendar
// @Accept   json
// @Produce  json
// @Param    body  body      SlotRequest  true  "Slot and task fields"
// @Success  201   {object}  model.Task
// @Security BearerAuth
// @Router   /calendar/slots [post]
func (h *CalendarHandler) CreateInSlot(c *gin.Context) {
	const op = "handler.CalendarHandler.CreateInSlot"
	log := h.log.WithField("operation", op)

	var req SlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c, err)
		return
	}

	task, err := h.planner.CreateInSlot(c.Request.Context(), req.Slot, req.NewTask)
	if err != nil {
		respondError(c, log, err)
		return
	}
	c.JSON(http.StatusCreated, task)
}
