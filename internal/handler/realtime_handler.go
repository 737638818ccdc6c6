package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// FeedServer upgrades a request to a change feed for one user.
type FeedServer interface {
	ServeWS(w http.ResponseWriter, r *http.Request, userID string)
}

type RealtimeHandler struct {
	feed FeedServer
}

func NewRealtimeHandler(feed FeedServer) *RealtimeHandler {
	return &RealtimeHandler{feed: feed}
}

// Feed godoc
// @Summary      Change feed
// @Description  Websocket stream of created, updated, deleted and shared events
// @Tags         Realtime
// @Param        access_token  query  string  false  "JWT when the Authorization header cannot be set"
// @Success      101
// @Security     BearerAuth
// @Router       /ws [get]
func (h *RealtimeHandler) Feed(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	h.feed.ServeWS(c.Writer, c.Request, userID)
}
