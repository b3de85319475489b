package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeremiapane/restaurant-ops/config"
	"github.com/yeremiapane/restaurant-ops/database"
	"github.com/yeremiapane/restaurant-ops/events"
	"github.com/yeremiapane/restaurant-ops/kds"
	"github.com/yeremiapane/restaurant-ops/router"
	"github.com/yeremiapane/restaurant-ops/utils"
)

type apiResponse struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type client struct {
	t     *testing.T
	base  string
	token string
}

func (c *client) call(method, path string, body interface{}, out interface{}) int {
	c.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(c.t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, c.base+path, &buf)
	require.NoError(c.t, err)
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(c.t, err)
	defer resp.Body.Close()

	var env apiResponse
	require.NoError(c.t, json.NewDecoder(resp.Body).Decode(&env))
	if out != nil && len(env.Data) > 0 {
		require.NoError(c.t, json.Unmarshal(env.Data, out))
	}
	return resp.StatusCode
}

// setupServer runs the full stack: seeded sqlite, the kds hub and a
// miniredis-backed menu cache.
func setupServer(t *testing.T) (*httptest.Server, *events.Recorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	utils.UseJSONFieldNames()

	cfg := &config.Config{
		Server: config.ServerConfig{CORSOrigin: "*", RateLimitRPS: 1000, RateLimitBurst: 1000},
		Database: config.DatabaseConfig{
			Timeout:           5 * time.Second,
			Seed:              true,
			SeedAdminEmail:    "admin@restaurant.local",
			SeedAdminPassword: "integration-pass",
		},
		Billing: config.BillingConfig{TaxRate: decimal.RequireFromString("0.19"), Location: time.UTC},
		Auth:    config.AuthConfig{JWTSecret: "integration-secret", TokenTTL: time.Hour},
		Redis:   config.RedisConfig{TTL: time.Minute},
	}
	log := utils.NewTestLogger()

	db, err := database.OpenInMemory("integration")
	require.NoError(t, err)
	require.NoError(t, database.Seed(db, cfg.Database, log))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	hub := kds.NewHub(log)
	rec := &events.Recorder{}
	srv := httptest.NewServer(router.SetupRouter(router.Deps{
		Config:    cfg,
		DB:        db,
		Log:       log,
		Clock:     utils.NewClock(time.UTC),
		Publisher: events.Multi{events.NewNotificationStore(db), hub, rec},
		Hub:       hub,
		Redis:     rdb,
	}))
	t.Cleanup(srv.Close)
	return srv, rec
}

func waitForEvent(t *testing.T, conn *websocket.Conn, event string) kds.Message {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		conn.SetReadDeadline(deadline)
		_, data, err := conn.ReadMessage()
		require.NoError(t, err)
		var msg kds.Message
		require.NoError(t, json.Unmarshal(data, &msg))
		if msg.Event == event {
			return msg
		}
	}
	t.Fatalf("no %s event received", event)
	return kds.Message{}
}

// TestEndToEndIntegration walks the main flow:
// login -> order -> kitchen -> served -> invoice -> paid, plus a stock movement.
func TestEndToEndIntegration(t *testing.T) {
	srv, rec := setupServer(t)
	api := &client{t: t, base: srv.URL}

	// 1. Login with the seeded admin
	var login struct {
		Token string `json:"token"`
	}
	require.Equal(t, http.StatusOK, api.call(http.MethodPost, "/login",
		gin.H{"email": "admin@restaurant.local", "password": "integration-pass"}, &login))
	require.NotEmpty(t, login.Token)
	staff := &client{t: t, base: srv.URL, token: login.Token}

	// 2. Kitchen screen connects
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/kds/ws?token=" + login.Token
	screen, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer screen.Close()

	// 3. Guest reads the seeded menu (twice, second time from cache) and orders
	var menu []struct {
		ID    uint        `json:"id"`
		Name  string      `json:"name"`
		Price json.Number `json:"price"`
	}
	require.Equal(t, http.StatusOK, api.call(http.MethodGet, "/menus?available=true", nil, &menu))
	require.NotEmpty(t, menu)
	require.Equal(t, http.StatusOK, api.call(http.MethodGet, "/menus?available=true", nil, &menu))

	var order struct {
		ID          uint        `json:"id"`
		Status      string      `json:"status"`
		TotalAmount json.Number `json:"total_amount"`
	}
	require.Equal(t, http.StatusCreated, api.call(http.MethodPost, "/orders", gin.H{
		"order_type": "dine_in",
		"items":      []gin.H{{"menu_item_id": menu[0].ID, "quantity": 2}},
	}, &order))
	assert.Equal(t, "pending", order.Status)

	price := decimal.RequireFromString(string(menu[0].Price))
	want := utils.RoundMoney(price.Mul(decimal.NewFromInt(2)).Mul(decimal.RequireFromString("1.19")))
	assert.Equal(t, want.StringFixed(2), string(order.TotalAmount))

	// 4. Kitchen flow
	orderPath := "/orders/" + strconv.FormatUint(uint64(order.ID), 10)
	require.Equal(t, http.StatusOK, staff.call(http.MethodPatch, orderPath+"/status", gin.H{"status": "preparing"}, nil))
	waitForEvent(t, screen, string(events.KitchenTicketCreated))

	require.Equal(t, http.StatusOK, staff.call(http.MethodPatch, orderPath+"/status", gin.H{"status": "ready"}, nil))
	require.Equal(t, http.StatusOK, staff.call(http.MethodPatch, orderPath+"/status", gin.H{"status": "served"}, &order))
	assert.Equal(t, "served", order.Status)

	// 5. Billing
	var invoice struct {
		ID            uint        `json:"id"`
		TotalAmount   json.Number `json:"total_amount"`
		PaymentStatus string      `json:"payment_status"`
		PaidAt        *string     `json:"paid_at"`
	}
	require.Equal(t, http.StatusCreated, staff.call(http.MethodPost, "/billing", gin.H{"order_id": order.ID}, &invoice))
	assert.Equal(t, order.TotalAmount, invoice.TotalAmount)

	payPath := "/billing/" + strconv.FormatUint(uint64(invoice.ID), 10) + "/payment?payment_status=paid&payment_method=card"
	require.Equal(t, http.StatusOK, staff.call(http.MethodPatch, payPath, nil, &invoice))
	assert.Equal(t, "paid", invoice.PaymentStatus)
	assert.NotNil(t, invoice.PaidAt)
	waitForEvent(t, screen, string(events.InvoicePaid))

	assert.Equal(t, http.StatusBadRequest, staff.call(http.MethodPatch, payPath, nil, nil))

	// 6. Stock
	var pantry []struct {
		ID uint `json:"id"`
	}
	require.Equal(t, http.StatusOK, staff.call(http.MethodGet, "/inventory", nil, &pantry))
	require.NotEmpty(t, pantry)
	stockPath := "/inventory/" + strconv.FormatUint(uint64(pantry[0].ID), 10) + "/stock?quantity=-1000&reason=audit"
	require.Equal(t, http.StatusOK, staff.call(http.MethodPatch, stockPath, nil, nil))
	waitForEvent(t, screen, string(events.OutOfStock))

	// 7. Sales report sees the paid invoice
	var sales struct {
		Revenue      json.Number `json:"revenue"`
		PaidInvoices int64       `json:"paid_invoices"`
	}
	require.Equal(t, http.StatusOK, staff.call(http.MethodGet, "/reports/sales", nil, &sales))
	assert.Equal(t, int64(1), sales.PaidInvoices)
	assert.Equal(t, invoice.TotalAmount, sales.Revenue)

	assert.Len(t, rec.OfType(events.OrderCreated), 1)
	assert.Len(t, rec.OfType(events.InvoicePaid), 1)
}
