package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"taskcalendar/internal/model"
	"taskcalendar/internal/realtime"
)

const kindContacts = "contacts"

type ContactStore interface {
	List(ctx context.Context, ownerID string) ([]model.Contact, error)
	ListShared(ctx context.Context, userID string) ([]model.Contact, error)
	Get(ctx context.Context, ownerID, id string) (*model.Contact, error)
	Create(ctx context.Context, ownerID string, input model.NewContact) (*model.Contact, error)
	Update(ctx context.Context, ownerID, id string, patch model.ContactPatch) (*model.Contact, error)
	Delete(ctx context.Context, ownerID, id string) error
}

type ContactHandler struct {
	repo ContactStore
	pub  realtime.Publisher
	log  *logrus.Entry
}

func NewContactHandler(repo ContactStore, pub realtime.Publisher, log *logrus.Entry) *ContactHandler {
	return &ContactHandler{repo: repo, pub: pub, log: log}
}

// MapPin places a contact with an address on the map.
type MapPin struct {
	model.Contact
	Position model.Coordinates `json:"position"`
}

// List godoc
// @Summary      List contacts
// @Description  With group=stage the contacts are returned as stage columns
// @Tags         Contacts
// @Produce      json
// @Param        group  query  string  false  "stage"
// @Success      200  {array}  model.Contact
// @Security     BearerAuth
// @Router       /contacts [get]
func (h *ContactHandler) List(c *gin.Context) {
	const op = "handler.ContactHandler.List"
	log := h.log.WithField("operation", op)

	userID, ok := currentUser(c)
	if !ok {
		return
	}

	contacts, err := h.repo.List(c.Request.Context(), userID)
	if err != nil {
		respondError(c, log, err)
		return
	}

	switch c.Query("group") {
	case "":
		c.JSON(http.StatusOK, contacts)
	case "stage":
		c.JSON(http.StatusOK, model.GroupContactsByStage(contacts))
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown grouping"})
	}
}

// Map returns a pin for every contact that has an address.
func (h *ContactHandler) Map(c *gin.Context) {
	const op = "handler.ContactHandler.Map"
	log := h.log.WithField("operation", op)

	userID, ok := currentUser(c)
	if !ok {
		return
	}

	contacts, err := h.repo.List(c.Request.Context(), userID)
	if err != nil {
		respondError(c, log, err)
		return
	}

	pins := make([]MapPin, 0, len(contacts))
	for _, contact := range contacts {
		if contact.Address == "" {
			continue
		}
		pins = append(pins, MapPin{Contact: contact, Position: model.PseudoCoordinates(contact.Address)})
	}
	c.JSON(http.StatusOK, pins)
}

func (h *ContactHandler) Shared(c *gin.Context) {
	const op = "handler.ContactHandler.Shared"
	log := h.log.WithField("operation", op)

	userID, ok := currentUser(c)
	if !ok {
		return
	}

	contacts, err := h.repo.ListShared(c.Request.Context(), userID)
	if err != nil {
		respondError(c, log, err)
		return
	}
	c.JSON(http.StatusOK, contacts)
}

func (h *ContactHandler) GetByID(c *gin.Context) {
	const op = "handler.ContactHandler.GetByID"
	log := h.log.WithField("operation", op)

	id, ok := pathID(c, "contact")
	if !ok {
		return
	}

	userID, ok := currentUser(c)
	if !ok {
		return
	}

	contact, err := h.repo.Get(c.Request.Context(), userID, id)
	if err != nil {
		respondError(c, log, err)
		return
	}
	c.JSON(http.StatusOK, contact)
}

// Create godoc
// @Summary  Create a contact
// @Tags     Contacts
// @Accept   json
// @Produce  json
// @Param    contact  body      model.NewContact  true  "Contact"
// @Success  201      {object}  model.Contact
// @Security BearerAuth
// @Router   /contacts [post]
func (h *ContactHandler) Create(c *gin.Context) {
	const op = "handler.ContactHandler.Create"
	log := h.log.WithField("operation", op)

	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req model.NewContact
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c, err)
		return
	}

	contact, err := h.repo.Create(c.Request.Context(), userID, req)
	if err != nil {
		respondError(c, log, err)
		return
	}
	announce(h.pub, realtime.EventCreated, kindContacts, userID, contact.ID, contact, contact.SharedWith)
	c.JSON(http.StatusCreated, contact)
}

func (h *ContactHandler) Update(c *gin.Context) {
	const op = "handler.ContactHandler.Update"
	log := h.log.WithField("operation", op)

	id, ok := pathID(c, "contact")
	if !ok {
		return
	}

	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var patch model.ContactPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		invalidRequest(c, err)
		return
	}

	contact, err := h.repo.Update(c.Request.Context(), userID, id, patch)
	if err != nil {
		respondError(c, log, err)
		return
	}
	announce(h.pub, realtime.EventUpdated, kindContacts, userID, contact.ID, contact, contact.SharedWith)
	c.JSON(http.StatusOK, contact)
}

func (h *ContactHandler) Delete(c *gin.Context) {
	const op = "handler.ContactHandler.Delete"
	log := h.log.WithField("operation", op)

	id, ok := pathID(c, "contact")
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
	announce(h.pub, realtime.EventDeleted, kindContacts, userID, id, nil, nil)
	c.Status(http.StatusNoContent)
}
