package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"taskcalendar/internal/model"
	"taskcalendar/internal/realtime"
)

const (
	kindLessons = "lessons"
	kindNotes   = "contact_notes"
)

type LessonStore interface {
	List(ctx context.Context, ownerID, contactID string) ([]model.Lesson, error)
	Create(ctx context.Context, ownerID string, input model.NewLesson) (*model.Lesson, error)
	Update(ctx context.Context, ownerID, id string, patch model.LessonPatch) (*model.Lesson, error)
	Delete(ctx context.Context, ownerID, id string) error
}

type NoteStore interface {
	List(ctx context.Context, ownerID, contactID string) ([]model.ContactNote, error)
	Create(ctx context.Context, ownerID string, input model.NewContactNote) (*model.ContactNote, error)
	Update(ctx context.Context, ownerID, id string, patch model.ContactNotePatch) (*model.ContactNote, error)
	Delete(ctx context.Context, ownerID, id string) error
}

// LessonHandler serves logged lessons and free-form contact notes.
type LessonHandler struct {
	lessons LessonStore
	notes   NoteStore
	pub     realtime.Publisher
	log     *logrus.Entry
}

func NewLessonHandler(lessons LessonStore, notes NoteStore, pub realtime.Publisher, log *logrus.Entry) *LessonHandler {
	return &LessonHandler{lessons: lessons, notes: notes, pub: pub, log: log}
}

// ListLessons godoc
// @Summary  List lessons
// @Tags     Lessons
// @Produce  json
// @Param    contactId  query  string  false  "Only lessons with this contact"
// @Success  200  {array}  model.Lesson
// @Security BearerAuth
// @Router   /lessons [get]
func (h *LessonHandler) ListLessons(c *gin.Context) {
	const op = "handler.LessonHandler.ListLessons"
	log := h.log.WithField("operation", op)

	userID, ok := currentUser(c)
	if !ok {
		return
	}

	lessons, err := h.lessons.List(c.Request.Context(), userID, c.Query("contactId"))
	if err != nil {
		respondError(c, log, err)
		return
	}
	c.JSON(http.StatusOK, lessons)
}

func (h *LessonHandler) CreateLesson(c *gin.Context) {
	const op = "handler.LessonHandler.CreateLesson"
	log := h.log.WithField("operation", op)

	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req model.NewLesson
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c, err)
		return
	}

	lesson, err := h.lessons.Create(c.Request.Context(), userID, req)
	if err != nil {
		respondError(c, log, err)
		return
	}
	announce(h.pub, realtime.EventCreated, kindLessons, userID, lesson.ID, lesson, lesson.SharedWith)
	c.JSON(http.StatusCreated, lesson)
}

func (h *LessonHandler) UpdateLesson(c *gin.Context) {
	const op = "handler.LessonHandler.UpdateLesson"
	log := h.log.WithField("operation", op)

	id, ok := pathID(c, "lesson")
	if !ok {
		return
	}

	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var patch model.LessonPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		invalidRequest(c, err)
		return
	}

	lesson, err := h.lessons.Update(c.Request.Context(), userID, id, patch)
	if err != nil {
		respondError(c, log, err)
		return
	}
	announce(h.pub, realtime.EventUpdated, kindLessons, userID, lesson.ID, lesson, lesson.SharedWith)
	c.JSON(http.StatusOK, lesson)
}

func (h *LessonHandler) DeleteLesson(c *gin.Context) {
	const op = "handler.LessonHandler.DeleteLesson"
	log := h.log.WithField("operation", op)

	id, ok := pathID(c, "lesson")
	if !ok {
		return
	}

	userID, ok := currentUser(c)
	if !ok {
		return
	}

	if err := h.lessons.Delete(c.Request.Context(), userID, id); err != nil {
		respondError(c, log, err)
		return
	}
	announce(h.pub, realtime.EventDeleted, kindLessons, userID, id, nil, nil)
	c.Status(http.StatusNoContent)
}

// ListNotes godoc
// @Summary  List contact notes
// @Tags     Lessons
// @Produce  json
// @Param    contactId  query  string  false  "Only notes about this contact"
// @Success  200  {array}  model.ContactNote
// @Security BearerAuth
// @Router   /notes [get]
func (h *LessonHandler) ListNotes(c *gin.Context) {
	const op = "handler.LessonHandler.ListNotes"
	log := h.log.WithField("operation", op)

	userID, ok := currentUser(c)
	if !ok {
		return
	}

	notes, err := h.notes.List(c.Request.Context(), userID, c.Query("contactId"))
	if err != nil {
		respondError(c, log, err)
		return
	}
	c.JSON(http.StatusOK, notes)
}

func (h *LessonHandler) CreateNote(c *gin.Context) {
	const op = "handler.LessonHandler.CreateNote"
	log := h.log.WithField("operation", op)

	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req model.NewContactNote
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c, err)
		return
	}

	note, err := h.notes.Create(c.Request.Context(), userID, req)
	if err != nil {
		respondError(c, log, err)
		return
	}
	announce(h.pub, realtime.EventCreated, kindNotes, userID, note.ID, note, note.SharedWith)
	c.JSON(http.StatusCreated, note)
}

func (h *LessonHandler) UpdateNote(c *gin.Context) {
	const op = "handler.LessonHandler.UpdateNote"
	log := h.log.WithField("operation", op)

	id, ok := pathID(c, "note")
	if !ok {
		return
	}

	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var patch model.ContactNotePatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		invalidRequest(c, err)
		return
	}

	note, err := h.notes.Update(c.Request.Context(), userID, id, patch)
	if err != nil {
		respondError(c, log, err)
		return
	}
	announce(h.pub, realtime.EventUpdated, kindNotes, userID, note.ID, note, note.SharedWith)
	c.JSON(http.StatusOK, note)
}

func (h *LessonHandler) DeleteNote(c *gin.Context) {
	const op = "handler.LessonHandler.DeleteNote"
	log := h.log.WithField("operation", op)

	id, ok := pathID(c, "note")
	if !ok {
		return
	}

	userID, ok := currentUser(c)
	if !ok {
		return
	}

	if err := h.notes.Delete(c.Request.Context(), userID, id); err != nil {
		respondError(c, log, err)
		return
	}
	announce(h.pub, realtime.EventDeleted, kindNotes, userID, id, nil, nil)
	c.Status(http.StatusNoContent)
}
