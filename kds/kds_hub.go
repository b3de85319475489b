package kds

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/yeremiapane/restaurant-ops/events"
	"github.com/yeremiapane/restaurant-ops/models"
)

const writeWait = 5 * time.Second

// Message is the frame pushed to every connected screen.
type Message struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// audience limits which roles see an event type. Types not listed go to
// every connected client.
var audience = map[events.Type][]string{
	events.InvoiceCreated:       {models.RoleAdmin, models.RoleStaff, models.RoleCashier},
	events.InvoicePaid:          {models.RoleAdmin, models.RoleStaff, models.RoleCashier},
	events.InvoiceStatusChanged: {models.RoleAdmin, models.RoleStaff, models.RoleCashier},
	events.LowStock:             {models.RoleAdmin, models.RoleChef},
	events.OutOfStock:           {models.RoleAdmin, models.RoleChef},
}

// sendBuffer is how many frames a client may fall behind before it is
// dropped.
const sendBuffer = 32

type client struct {
	conn *websocket.Conn
	role string
	send chan []byte
}

// Hub holds the kitchen display and staff websocket clients and pushes
// domain events to them. Each client has its own writer goroutine, so a
// slow screen never blocks a broadcast.
type Hub struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]*client
	log     *logrus.Logger
}

func NewHub(log *logrus.Logger) *Hub {
	return &Hub{clients: make(map[*websocket.Conn]*client), log: log}
}

func (h *Hub) Register(conn *websocket.Conn, role string) {
	c := &client{conn: conn, role: role, send: make(chan []byte, sendBuffer)}

	h.mu.Lock()
	h.clients[conn] = c
	h.mu.Unlock()

	go h.writePump(c)
	h.log.WithField("role", role).Debug("kds client connected")
}

// Unregister stops the client's writer, which closes the connection.
func (h *Hub) Unregister(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.remove(conn)
}

// remove must be called with h.mu held.
func (h *Hub) remove(conn *websocket.Conn) {
	c, ok := h.clients[conn]
	if !ok {
		return
	}
	delete(h.clients, conn)
	close(c.send)
}

func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Publish implements events.Publisher.
func (h *Hub) Publish(_ context.Context, evt events.Event) error {
	h.Broadcast(Message{Event: string(evt.Type), Data: evt}, audience[evt.Type]...)
	return nil
}

// Broadcast queues msg for clients holding one of roles, or for all clients
// when roles is empty. A client whose queue is full is dropped.
func (h *Hub) Broadcast(msg Message, roles ...string) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.log.WithError(err).Error("marshal kds message")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	queued := 0
	for conn, c := range h.clients {
		if !allowed(c.role, roles) {
			continue
		}
		select {
		case c.send <- data:
			queued++
		default:
			h.log.WithField("role", c.role).Warn("kds client too slow, dropping")
			h.remove(conn)
		}
	}

	h.log.WithFields(logrus.Fields{
		"event":   msg.Event,
		"clients": queued,
	}).Debug("kds broadcast")
}

// writePump is the only writer on c.conn.
func (h *Hub) writePump(c *client) {
	defer c.conn.Close()
	for data := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			h.log.WithError(err).WithField("role", c.role).Warn("dropping kds client")
			h.Unregister(c.conn)
			// drain until Unregister closes the channel
			for range c.send {
			}
			return
		}
	}
}

func allowed(role string, roles []string) bool {
	if len(roles) == 0 {
		return true
	}
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}
