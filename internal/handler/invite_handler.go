package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"taskcalendar/internal/model"
	"taskcalendar/internal/realtime"
	"taskcalendar/internal/repository"
)

const kindInvites = "invites"

type InviteStore interface {
	List(ctx context.Context, ownerID string) ([]model.WorkspaceInvite, error)
	ListForEmail(ctx context.Context, email string) ([]model.WorkspaceInvite, error)
	Get(ctx context.Context, ownerID, id string) (*model.WorkspaceInvite, error)
	Create(ctx context.Context, ownerID string, input model.NewInvite) (*model.WorkspaceInvite, error)
	Revoke(ctx context.Context, ownerID, id string) error
	Accept(ctx context.Context, ownerID, id, collaboratorID string) (*model.WorkspaceInvite, error)
	Decline(ctx context.Context, ownerID, id string) (*model.WorkspaceInvite, error)
}

// InviteHandler serves both sides of workspace sharing: the owner issuing
// invites and the invitee answering them.
type InviteHandler struct {
	invites InviteStore
	users   repository.UserRepositoryInterface
	pub     realtime.Publisher
	log     *logrus.Entry
}

func NewInviteHandler(invites InviteStore, users repository.UserRepositoryInterface, pub realtime.Publisher, log *logrus.Entry) *InviteHandler {
	return &InviteHandler{invites: invites, users: users, pub: pub, log: log}
}

// Create godoc
// @Summary  Invite a collaborator
// @Tags     Sharing
// @Accept   json
// @Produce  json
// @Param    invite  body      model.NewInvite  true  "Invitee"
// @Success  201     {object}  model.WorkspaceInvite
// @Security BearerAuth
// @Router   /invites [post]
func (h *InviteHandler) Create(c *gin.Context) {
	const op = "handler.InviteHandler.Create"
	log := h.log.WithField("operation", op)

	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req model.NewInvite
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c, err)
		return
	}

	me, err := h.users.GetByID(c.Request.Context(), userID)
	if err != nil {
		respondError(c, log, err)
		return
	}
	if me != nil && model.NormalizeEmail(me.Email) == model.NormalizeEmail(req.Email) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "You cannot invite yourself"})
		return
	}

	invite, err := h.invites.Create(c.Request.Context(), userID, req)
	if err != nil {
		respondError(c, log, err)
		return
	}
	log.WithField("invite_id", invite.ID).Info("invite created")
	c.JSON(http.StatusCreated, invite)
}

// List returns the invites the caller has issued.
func (h *InviteHandler) List(c *gin.Context) {
	const op = "handler.InviteHandler.List"
	log := h.log.WithField("operation", op)

	userID, ok := currentUser(c)
	if !ok {
		return
	}

	invites, err := h.invites.List(c.Request.Context(), userID)
	if err != nil {
		respondError(c, log, err)
		return
	}
	c.JSON(http.StatusOK, invites)
}

func (h *InviteHandler) Revoke(c *gin.Context) {
	const op = "handler.InviteHandler.Revoke"
	log := h.log.WithField("operation", op)

	userID, ok := currentUser(c)
	if !ok {
		return
	}

	if err := h.invites.Revoke(c.Request.Context(), userID, c.Param("id")); err != nil {
		respondError(c, log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Incoming godoc
// @Summary  Pending invites addressed to the caller
// @Tags     Sharing
// @Produce  json
// @Success  200  {array}  model.WorkspaceInvite
// @Security BearerAuth
// @Router   /invites/incoming [get]
func (h *InviteHandler) Incoming(c *gin.Context) {
	const op = "handler.InviteHandler.Incoming"
	log := h.log.WithField("operation", op)

	me, ok := h.caller(c, log)
	if !ok {
		return
	}

	invites, err := h.invites.ListForEmail(c.Request.Context(), me.Email)
	if err != nil {
		respondError(c, log, err)
		return
	}
	c.JSON(http.StatusOK, invites)
}

// Details shows an invite to the account it was sent to.
func (h *InviteHandler) Details(c *gin.Context) {
	const op = "handler.InviteHandler.Details"
	log := h.log.WithField("operation", op)

	invite, _, ok := h.addressed(c, log)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, invite)
}

// Accept godoc
// @Summary      Accept an invite
// @Description  Shares every record of the inviting workspace with the caller
// @Tags         Sharing
// @Produce      json
// @Param        owner  path      string  true  "Inviting owner"
// @Param        id     path      string  true  "Invite ID"
// @Success      200    {object}  model.WorkspaceInvite
// @Failure      409    {object}  map[string]string
// @Security     BearerAuth
// @Router       /invites/{owner}/{id}/accept [post]
func (h *InviteHandler) Accept(c *gin.Context) {
	const op = "handler.InviteHandler.Accept"
	log := h.log.WithField("operation", op)

	invite, me, ok := h.addressed(c, log)
	if !ok {
		return
	}

	accepted, err := h.invites.Accept(c.Request.Context(), invite.OwnerUID, invite.ID, me.ID)
	if err != nil {
		respondError(c, log, err)
		return
	}
	announce(h.pub, realtime.EventShared, kindInvites, accepted.OwnerUID, accepted.ID, accepted, []string{me.ID})
	log.WithFields(logrus.Fields{"invite_id": accepted.ID, "collaborator": me.ID}).Info("invite accepted")
	c.JSON(http.StatusOK, accepted)
}

func (h *InviteHandler) Decline(c *gin.Context) {
	const op = "handler.InviteHandler.Decline"
	log := h.log.WithField("operation", op)

	invite, _, ok := h.addressed(c, log)
	if !ok {
		return
	}

	declined, err := h.invites.Decline(c.Request.Context(), invite.OwnerUID, invite.ID)
	if err != nil {
		respondError(c, log, err)
		return
	}
	c.JSON(http.StatusOK, declined)
}

func (h *InviteHandler) caller(c *gin.Context, log *logrus.Entry) (*model.User, bool) {
	userID, ok := currentUser(c)
	if !ok {
		return nil, false
	}
	me, err := h.users.GetByID(c.Request.Context(), userID)
	if err != nil {
		respondError(c, log, err)
		return nil, false
	}
	if me == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not found"})
		return nil, false
	}
	return me, true
}

// addressed loads the invite named by the path and checks it was sent to the caller.
func (h *InviteHandler) addressed(c *gin.Context, log *logrus.Entry) (*model.WorkspaceInvite, *model.User, bool) {
	me, ok := h.caller(c, log)
	if !ok {
		return nil, nil, false
	}

	invite, err := h.invites.Get(c.Request.Context(), c.Param("owner"), c.Param("id"))
	if err != nil {
		respondError(c, log, err)
		return nil, nil, false
	}
	if invite.Email != model.NormalizeEmail(me.Email) {
		c.JSON(http.StatusForbidden, gin.H{"error": "This invite was sent to a different account"})
		return nil, nil, false
	}
	return invite, me, true
}
