// Package realtime pushes record changes to connected websocket clients.
package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/sirupsen/logrus"
)

const (
	EventHello   = "hello"
	EventCreated = "created"
	EventUpdated = "updated"
	EventDeleted = "deleted"
	EventShared  = "shared"
)

// Event is one change notification. Owner and Audience decide who receives it.
type Event struct {
	Type      string    `json:"type"`
	Kind      string    `json:"kind,omitempty"`
	ID        string    `json:"id,omitempty"`
	Owner     string    `json:"owner,omitempty"`
	Audience  []string  `json:"-"`
	Payload   any       `json:"payload,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func (e Event) deliversTo(userID string) bool {
	if e.Owner == userID {
		return true
	}
	for _, uid := range e.Audience {
		if uid == userID {
			return true
		}
	}
	return false
}

// Publisher is implemented by anything that accepts change events.
type Publisher interface {
	Publish(ev Event)
}

// Hub fans events out to the websocket connections of their recipients.
type Hub struct {
	log *logrus.Entry

	clients   map[*websocket.Conn]string
	clientsMu sync.RWMutex

	broadcast chan Event
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	writeWait time.Duration
}

func NewHub(log *logrus.Entry) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		log:       log.WithField("component", "realtime"),
		clients:   make(map[*websocket.Conn]string),
		broadcast: make(chan Event, 100),
		ctx:       ctx,
		cancel:    cancel,
		writeWait: 5 * time.Second,
	}
}

// Start runs the broadcast loop until Stop.
func (h *Hub) Start() {
	h.wg.Add(1)
	go h.broadcastLoop()
}

// Stop closes every connection and waits for the broadcast loop to exit.
func (h *Hub) Stop() {
	h.cancel()

	h.clientsMu.Lock()
	for conn := range h.clients {
		_ = conn.Close(websocket.StatusGoingAway, "server shutting down")
		delete(h.clients, conn)
	}
	h.clientsMu.Unlock()

	h.wg.Wait()
}

// Publish queues ev. Events are dropped when the queue is full.
func (h *Hub) Publish(ev Event) {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now().UTC()
	}
	select {
	case h.broadcast <- ev:
	default:
		h.log.WithField("type", ev.Type).Warn("broadcast queue full, dropping event")
	}
}

// ClientCount returns the number of open connections.
func (h *Hub) ClientCount() int {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()
	return len(h.clients)
}

// ServeWS upgrades the request and subscribes the connection for userID.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, userID string) {
	const op = "realtime.Hub.ServeWS"
	log := h.log.WithField("operation", op).WithField("user_id", userID)

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: []string{"*"}})
	if err != nil {
		log.WithError(err).Warn("websocket upgrade failed")
		return
	}

	h.clientsMu.Lock()
	h.clients[conn] = userID
	count := len(h.clients)
	h.clientsMu.Unlock()
	log.WithField("clients", count).Debug("client connected")

	h.write(conn, Event{Type: EventHello, Owner: userID, Timestamp: time.Now().UTC()})

	go h.readLoop(conn)
}

func (h *Hub) broadcastLoop() {
	defer h.wg.Done()

	for {
		select {
		case <-h.ctx.Done():
			return
		case ev := <-h.broadcast:
			h.clientsMu.RLock()
			targets := make([]*websocket.Conn, 0, len(h.clients))
			for conn, uid := range h.clients {
				if ev.deliversTo(uid) {
					targets = append(targets, conn)
				}
			}
			h.clientsMu.RUnlock()

			for _, conn := range targets {
				if err := h.write(conn, ev); err != nil {
					h.removeClient(conn)
				}
			}
		}
	}
}

func (h *Hub) write(conn *websocket.Conn, ev Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		h.log.WithError(err).Error("failed to marshal event")
		return nil
	}

	ctx, cancel := context.WithTimeout(h.ctx, h.writeWait)
	defer cancel()
	if err := conn.Write(ctx, websocket.MessageText, data); err != nil {
		h.log.WithError(err).Debug("failed to send event")
		return err
	}
	return nil
}

// readLoop drains client frames so close and ping frames are processed.
func (h *Hub) readLoop(conn *websocket.Conn) {
	defer h.removeClient(conn)

	for {
		if _, _, err := conn.Read(h.ctx); err != nil {
			return
		}
	}
}

func (h *Hub) removeClient(conn *websocket.Conn) {
	h.clientsMu.Lock()
	_, ok := h.clients[conn]
	delete(h.clients, conn)
	h.clientsMu.Unlock()

	if ok {
		_ = conn.Close(websocket.StatusNormalClosure, "")
	}
}
