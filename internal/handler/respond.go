package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"taskcalendar/internal/middleware"
	"taskcalendar/internal/realtime"
	"taskcalendar/internal/repository"
)

// statusFor maps repository errors onto HTTP status codes and client messages.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, repository.ErrUnauthorized):
		return http.StatusUnauthorized, "Not authorized"
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound, "Not found"
	case errors.Is(err, repository.ErrInvalidRecord):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, repository.ErrSelfInvite):
		return http.StatusBadRequest, "You cannot accept your own invite"
	case errors.Is(err, repository.ErrInviteHandled):
		return http.StatusConflict, "Invite already handled"
	case errors.Is(err, repository.ErrRemoteUnavailable):
		return http.StatusServiceUnavailable, "Record store unavailable"
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}

func respondError(c *gin.Context, log *logrus.Entry, err error) {
	status, msg := statusFor(err)
	if status >= http.StatusInternalServerError {
		log.WithError(err).Error("request failed")
	} else {
		log.WithError(err).Debug("request rejected")
	}
	c.JSON(status, gin.H{"error": msg})
}

func invalidRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
}

// pathID returns the :id path parameter, or writes a 400 when it is not a uuid.
func pathID(c *gin.Context, kind string) (string, bool) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + kind + " ID format"})
		return "", false
	}
	return id, true
}

// currentUser returns the authenticated user id or writes a 401.
func currentUser(c *gin.Context) (string, bool) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return "", false
	}
	return userID, true
}

// announce publishes a change of a non-task collection. pub may be nil.
func announce(pub realtime.Publisher, eventType, kind, owner, id string, payload any, audience []string) {
	if pub == nil {
		return
	}
	pub.Publish(realtime.Event{
		Type:     eventType,
		Kind:     kind,
		ID:       id,
		Owner:    owner,
		Audience: append([]string(nil), audience...),
		Payload:  payload,
	})
}
