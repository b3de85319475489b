package services_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/yeremiapane/restaurant-ops/database"
	"github.com/yeremiapane/restaurant-ops/events"
	"github.com/yeremiapane/restaurant-ops/models"
	"github.com/yeremiapane/restaurant-ops/services"
	"github.com/yeremiapane/restaurant-ops/utils"
)

type testEnv struct {
	db           *gorm.DB
	store        *services.Store
	clock        *utils.Clock
	events       *events.Recorder
	orders       *services.OrderService
	kitchen      *services.KitchenService
	billing      *services.BillingService
	inventory    *services.InventoryService
	menu         *services.MenuService
	customers    *services.CustomerService
	tables       *services.TableService
	reservations *services.ReservationService
	reports      *services.ReportService
}

func newTestEnv(t *testing.T) *testEnv {
	return newTestEnvWith(t, services.BillingOptions{})
}

func newTestEnvWith(t *testing.T, billing services.BillingOptions) *testEnv {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := database.OpenInMemory(name)
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	log := utils.NewTestLogger()
	store := services.NewStore(db, 5*time.Second)
	clock := utils.NewClock(time.UTC)
	rec := &events.Recorder{}

	return &testEnv{
		db:           db,
		store:        store,
		clock:        clock,
		events:       rec,
		orders:       services.NewOrderService(store, services.DefaultTaxRate, clock, rec, log),
		kitchen:      services.NewKitchenService(store, rec, log),
		billing:      services.NewBillingService(store, clock, billing, rec, log),
		inventory:    services.NewInventoryService(store, clock, rec, log),
		menu:         services.NewMenuService(store),
		customers:    services.NewCustomerService(store),
		tables:       services.NewTableService(store),
		reservations: services.NewReservationService(store, clock),
		reports:      services.NewReportService(store, clock),
	}
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.Truef(t, dec(want).Equal(got), "want %s, got %s", want, got.String())
}

func (e *testEnv) menuItem(t *testing.T, name, price string, prepTime int) models.MenuItem {
	t.Helper()
	item, err := e.menu.CreateMenuItem(context.Background(), services.MenuItemInput{
		Name:            name,
		Price:           dec(price),
		Cost:            dec("1.00"),
		PreparationTime: prepTime,
	})
	require.NoError(t, err)
	return *item
}

func (e *testEnv) customer(t *testing.T, first string, vip bool) models.Customer {
	t.Helper()
	c, err := e.customers.Create(context.Background(), services.CustomerInput{
		FirstName: first,
		LastName:  "Tester",
		IsVIP:     vip,
	})
	require.NoError(t, err)
	return *c
}

// scenarioOrder is 2x12.99 + 1x18.99.
func (e *testEnv) scenarioOrder(t *testing.T) *models.Order {
	t.Helper()
	burger := e.menuItem(t, "Burger", "12.99", 12)
	steak := e.menuItem(t, "Steak", "18.99", 25)

	order, err := e.orders.CreateOrder(context.Background(), services.CreateOrderInput{
		OrderType: models.OrderTypeDineIn,
		Items: []services.OrderItemInput{
			{MenuItemID: burger.ID, Quantity: 2},
			{MenuItemID: steak.ID, Quantity: 1},
		},
	})
	require.NoError(t, err)
	return order
}

func (e *testEnv) driveOrder(t *testing.T, id uint, path ...models.OrderStatus) {
	t.Helper()
	for _, st := range path {
		_, err := e.orders.UpdateStatus(context.Background(), id, st)
		require.NoError(t, err)
	}
}
