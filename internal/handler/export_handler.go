package handler

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"taskcalendar/internal/model"
)

// ExportHandler dumps a whole workspace for backup.
type ExportHandler struct {
	tasks    TaskEngine
	contacts ContactStore
	lessons  LessonStore
	notes    NoteStore
	goals    GoalStore
	now      func() time.Time
	log      *logrus.Entry
}

func NewExportHandler(tasks TaskEngine, contacts ContactStore, lessons LessonStore, notes NoteStore, goals GoalStore, log *logrus.Entry) *ExportHandler {
	return &ExportHandler{
		tasks:    tasks,
		contacts: contacts,
		lessons:  lessons,
		notes:    notes,
		goals:    goals,
		now:      time.Now,
		log:      log,
	}
}

type Export struct {
	ExportedAt time.Time           `json:"exportedAt"`
	Tasks      []model.Task        `json:"tasks"`
	Contacts   []model.Contact     `json:"contacts"`
	Lessons    []model.Lesson      `json:"lessons"`
	Notes      []model.ContactNote `json:"contactNotes"`
	Goals      []model.Goal        `json:"goals"`
}

// JSON godoc
// @Summary  Export every collection
// @Tags     Export
// @Produce  json
// @Success  200  {object}  Export
// @Security BearerAuth
// @Router   /export [get]
func (h *ExportHandler) JSON(c *gin.Context) {
	const op = "handler.ExportHandler.JSON"
	log := h.log.WithField("operation", op)

	userID, ok := currentUser(c)
	if !ok {
		return
	}

	out := Export{ExportedAt: h.now().UTC()}
	g, ctx := errgroup.WithContext(c.Request.Context())
	g.Go(func() (err error) {
		out.Tasks, err = h.tasks.List(ctx, model.TaskFilter{})
		return err
	})
	g.Go(func() (err error) {
		out.Contacts, err = h.contacts.List(ctx, userID)
		return err
	})
	g.Go(func() (err error) {
		out.Lessons, err = h.lessons.List(ctx, userID, "")
		return err
	})
	g.Go(func() (err error) {
		out.Notes, err = h.notes.List(ctx, userID, "")
		return err
	})
	g.Go(func() (err error) {
		out.Goals, err = h.goals.List(ctx, userID)
		return err
	})
	if err := g.Wait(); err != nil {
		respondError(c, log, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="taskcalendar-%s.json"`, out.ExportedAt.Format("2006-01-02")))
	c.JSON(http.StatusOK, out)
}

var taskCSVHeader = []string{"id", "title", "status", "priority", "dueAt", "scheduledStart", "scheduledEnd", "isAllDay", "isBackup", "color", "assignedTo", "notes"}

// TasksCSV writes the caller's tasks as a spreadsheet.
func (h *ExportHandler) TasksCSV(c *gin.Context) {
	const op = "handler.ExportHandler.TasksCSV"
	log := h.log.WithField("operation", op)

	tasks, err := h.tasks.List(c.Request.Context(), model.TaskFilter{})
	if err != nil {
		respondError(c, log, err)
		return
	}

	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", `attachment; filename="tasks.csv"`)
	c.Status(http.StatusOK)

	w := csv.NewWriter(c.Writer)
	_ = w.Write(taskCSVHeader)
	for _, t := range tasks {
		_ = w.Write([]string{
			t.ID,
			t.Title,
			string(t.Status),
			string(t.Priority),
			formatInstant(t.DueAt),
			formatInstant(t.ScheduledStart),
			formatInstant(t.ScheduledEnd),
			strconv.FormatBool(t.IsAllDay),
			strconv.FormatBool(t.IsBackup),
			t.ResolvedColor(),
			strings.Join(t.AssignedTo, ";"),
			t.Notes,
		})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		log.WithError(err).Warn("csv write failed")
	}
}

func formatInstant(ts *time.Time) string {
	if ts == nil {
		return ""
	}
	return ts.UTC().Format(time.RFC3339)
}
