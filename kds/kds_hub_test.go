package kds

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeremiapane/restaurant-ops/events"
	"github.com/yeremiapane/restaurant-ops/models"
	"github.com/yeremiapane/restaurant-ops/utils"
)

// dial connects a client to hub under role and waits until it is registered.
func dial(t *testing.T, hub *Hub, role string) *websocket.Conn {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		hub.Register(conn, role)
	}))
	t.Cleanup(srv.Close)

	before := hub.Clients()
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	require.Eventually(t, func() bool { return hub.Clients() == before+1 }, time.Second, 10*time.Millisecond)
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) (Message, error) {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(300 * time.Millisecond))
	_, data, err := conn.ReadMessage()
	if err != nil {
		return Message{}, err
	}
	var msg Message
	require.NoError(t, json.Unmarshal(data, &msg))
	return msg, nil
}

func TestPublishReachesClients(t *testing.T) {
	hub := NewHub(utils.NewTestLogger())
	chef := dial(t, hub, models.RoleChef)

	err := hub.Publish(context.Background(), events.Event{Type: events.KitchenTicketCreated, Title: "New kitchen ticket"})
	require.NoError(t, err)

	msg, err := readMessage(t, chef)
	require.NoError(t, err)
	assert.Equal(t, string(events.KitchenTicketCreated), msg.Event)
}

func TestInvoiceEventsSkipChefs(t *testing.T) {
	hub := NewHub(utils.NewTestLogger())
	chef := dial(t, hub, models.RoleChef)
	cashier := dial(t, hub, models.RoleCashier)

	require.NoError(t, hub.Publish(context.Background(), events.Event{Type: events.InvoicePaid}))

	msg, err := readMessage(t, cashier)
	require.NoError(t, err)
	assert.Equal(t, string(events.InvoicePaid), msg.Event)

	_, err = readMessage(t, chef)
	assert.Error(t, err, "chef should not receive invoice events")
}

func TestUnregister(t *testing.T) {
	hub := NewHub(utils.NewTestLogger())
	dial(t, hub, models.RoleStaff)

	hub.mu.Lock()
	var server *websocket.Conn
	for c := range hub.clients {
		server = c
	}
	hub.mu.Unlock()

	hub.Unregister(server)
	hub.Unregister(server)
	assert.Zero(t, hub.Clients())
}

func TestStalledClientIsDroppedWithoutBlocking(t *testing.T) {
	hub := NewHub(utils.NewTestLogger())
	live := dial(t, hub, models.RoleStaff)

	// a client with no writer never drains its queue
	stalled := &client{conn: new(websocket.Conn), role: models.RoleCashier, send: make(chan []byte, sendBuffer)}
	hub.mu.Lock()
	hub.clients[stalled.conn] = stalled
	hub.mu.Unlock()
	require.Equal(t, 2, hub.Clients())

	done := make(chan struct{})
	go func() {
		for i := 0; i <= sendBuffer; i++ {
			hub.Broadcast(Message{Event: "invoice_paid"}, models.RoleCashier)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("broadcast blocked on a stalled client")
	}

	assert.Equal(t, 1, hub.Clients())
	queued := 0
	for range stalled.send {
		queued++
	}
	assert.Equal(t, sendBuffer, queued)

	hub.Broadcast(Message{Event: "order_updated"})
	msg, err := readMessage(t, live)
	require.NoError(t, err)
	assert.Equal(t, "order_updated", msg.Event)
}
