package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeremiapane/restaurant-ops/events"
	"github.com/yeremiapane/restaurant-ops/models"
	"github.com/yeremiapane/restaurant-ops/services"
	"github.com/yeremiapane/restaurant-ops/utils"
)

func TestSalesReport(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	paidOrder := env.scenarioOrder(t)
	inv, err := env.billing.CreateInvoice(ctx, services.CreateInvoiceInput{OrderID: paidOrder.ID})
	require.NoError(t, err)
	_, err = env.billing.RecordPayment(ctx, inv.ID, services.PaymentInput{Amount: inv.TotalAmount, Method: models.PaymentMethodCash})
	require.NoError(t, err)

	_, err = env.billing.CreateInvoice(ctx, services.CreateInvoiceInput{OrderID: env.scenarioOrder(t).ID})
	require.NoError(t, err)

	cancelled := env.scenarioOrder(t)
	env.driveOrder(t, cancelled.ID, models.OrderStatusCancelled)

	now := env.clock.Now()
	report, err := env.reports.Sales(ctx, now.Add(-time.Hour), now.Add(time.Hour), 1)
	require.NoError(t, err)

	assertDecimal(t, "53.51", report.Revenue)
	assert.EqualValues(t, 1, report.PaidInvoices)
	assertDecimal(t, "53.51", report.AverageTicket)
	assert.EqualValues(t, 2, report.OrdersByStatus[models.OrderStatusPending])
	assert.EqualValues(t, 1, report.OrdersByStatus[models.OrderStatusCancelled])

	require.Len(t, report.TopItems, 1)
	assert.Equal(t, "Burger", report.TopItems[0].Name)
	assert.EqualValues(t, 2, report.TopItems[0].Quantity)

	_, err = env.reports.Sales(ctx, now, now, 5)
	assert.ErrorIs(t, err, services.ErrValidation)
}

func TestInventoryReport(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.ingredient(t, "Beans", "10", "2")
	env.ingredient(t, "Corn", "1", "2")
	env.ingredient(t, "Lime", "0", "1")

	report, err := env.reports.Inventory(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, report.TotalIngredients)
	require.Len(t, report.LowStock, 1)
	assert.Equal(t, "Corn", report.LowStock[0].Name)
	require.Len(t, report.OutOfStock, 1)
	assert.Equal(t, "Lime", report.OutOfStock[0].Name)
	assertDecimal(t, "27.5", report.TotalStockValue)
}

func TestUsers(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	tokens := utils.NewTokenManager("test-secret", time.Hour)
	users := services.NewUserService(env.store, tokens)

	_, err := users.Register(ctx, services.RegisterInput{Name: "Chef", Email: "chef@example.com", Password: "short", Role: models.RoleChef})
	assert.ErrorIs(t, err, services.ErrValidation)
	_, err = users.Register(ctx, services.RegisterInput{Name: "Chef", Email: "chef@example.com", Password: "longenough", Role: "owner"})
	assert.ErrorIs(t, err, services.ErrValidation)

	u, err := users.Register(ctx, services.RegisterInput{Name: "Chef", Email: "Chef@Example.com", Password: "longenough", Role: models.RoleChef})
	require.NoError(t, err)
	assert.Equal(t, "chef@example.com", u.Email)
	assert.NotEqual(t, "longenough", u.Password)

	_, err = users.Register(ctx, services.RegisterInput{Name: "Again", Email: "chef@example.com", Password: "longenough", Role: models.RoleStaff})
	assert.ErrorIs(t, err, services.ErrConflict)

	token, got, err := users.Login(ctx, "chef@example.com", "longenough")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	claims, err := tokens.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, claims.UserID)
	assert.Equal(t, models.RoleChef, claims.Role)

	_, _, err = users.Login(ctx, "chef@example.com", "wrong-password")
	assert.ErrorIs(t, err, services.ErrInvalidCredentials)
	_, _, err = users.Login(ctx, "nobody@example.com", "longenough")
	assert.ErrorIs(t, err, services.ErrInvalidCredentials)
}

func TestNotifications(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	store := events.NewNotificationStore(env.db)
	notes := services.NewNotificationService(env.store)

	require.NoError(t, store.Publish(ctx, events.Event{Type: events.LowStock, Title: "Low stock", Message: "Corn", OccurredAt: time.Now()}))
	require.NoError(t, store.Publish(ctx, events.Event{Type: events.OrderCreated, Title: "New order", Message: "ORD-1", OccurredAt: time.Now()}))

	low, err := notes.List(ctx, string(events.LowStock), false, 0)
	require.NoError(t, err)
	require.Len(t, low, 1)

	require.NoError(t, notes.MarkRead(ctx, low[0].ID))
	require.NoError(t, notes.MarkRead(ctx, low[0].ID))

	unread, err := notes.List(ctx, "", true, 10)
	require.NoError(t, err)
	require.Len(t, unread, 1)
	assert.Equal(t, string(events.OrderCreated), unread[0].Type)

	assert.ErrorIs(t, notes.MarkRead(ctx, 999), services.ErrNotFound)
}
