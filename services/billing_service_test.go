package services_test

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeremiapane/restaurant-ops/events"
	"github.com/yeremiapane/restaurant-ops/models"
	"github.com/yeremiapane/restaurant-ops/services"
)

func (e *testEnv) invoice(t *testing.T) *models.Invoice {
	t.Helper()
	order := e.scenarioOrder(t)
	inv, err := e.billing.CreateInvoice(context.Background(), services.CreateInvoiceInput{OrderID: order.ID})
	require.NoError(t, err)
	return inv
}

func TestInvoiceLifecycle(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	inv := env.invoice(t)
	assert.Equal(t, models.InvoiceStatusPending, inv.Status)
	assertDecimal(t, "53.51", inv.TotalAmount)
	assertDecimal(t, "8.5443", inv.TaxAmount)
	assert.Nil(t, inv.PaidAt)
	assert.Regexp(t, `^INV-\d{8}-[0-9A-F]{8}$`, inv.InvoiceNumber)

	payment, err := env.billing.RecordPayment(ctx, inv.ID, services.PaymentInput{
		Amount: dec("53.51"),
		Method: models.PaymentMethodCard,
	})
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusCompleted, payment.Status)
	assert.NotEmpty(t, payment.Reference)

	paid, err := env.billing.GetInvoice(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, models.InvoiceStatusPaid, paid.Status)
	require.NotNil(t, paid.PaidAt)
	require.NotNil(t, paid.PaymentMethod)
	assert.Equal(t, models.PaymentMethodCard, *paid.PaymentMethod)
	require.Len(t, paid.Payments, 1)

	_, err = env.billing.RecordPayment(ctx, inv.ID, services.PaymentInput{Amount: dec("53.51"), Method: models.PaymentMethodCash})
	assert.ErrorIs(t, err, services.ErrInvoiceNotPayable)

	var payments int64
	env.db.Model(&models.Payment{}).Where("invoice_id = ?", inv.ID).Count(&payments)
	assert.EqualValues(t, 1, payments)

	assert.Len(t, env.events.OfType(events.InvoiceCreated), 1)
	assert.Len(t, env.events.OfType(events.InvoicePaid), 1)
}

func TestRecordPaymentValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	inv := env.invoice(t)

	tests := []struct {
		name string
		in   services.PaymentInput
	}{
		{"unknown method", services.PaymentInput{Amount: dec("53.51"), Method: "crypto"}},
		{"zero amount", services.PaymentInput{Amount: dec("0"), Method: models.PaymentMethodCash}},
		{"partial amount", services.PaymentInput{Amount: dec("50"), Method: models.PaymentMethodCash}},
		{"overpaid", services.PaymentInput{Amount: dec("60"), Method: models.PaymentMethodCash}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.billing.RecordPayment(ctx, inv.ID, tt.in)
			assert.ErrorIs(t, err, services.ErrValidation)
		})
	}

	stored, err := env.billing.GetInvoice(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, models.InvoiceStatusPending, stored.Status)
	assert.Empty(t, stored.Payments)

	_, err = env.billing.RecordPayment(ctx, 9999, services.PaymentInput{Amount: dec("1"), Method: models.PaymentMethodCash})
	assert.ErrorIs(t, err, services.ErrNotFound)
}

func TestCreateInvoiceRules(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.billing.CreateInvoice(ctx, services.CreateInvoiceInput{OrderID: 404})
	assert.ErrorIs(t, err, services.ErrNotFound)

	cancelled := env.scenarioOrder(t)
	env.driveOrder(t, cancelled.ID, models.OrderStatusCancelled)
	_, err = env.billing.CreateInvoice(ctx, services.CreateInvoiceInput{OrderID: cancelled.ID})
	assert.ErrorIs(t, err, services.ErrValidation)

	order := env.scenarioOrder(t)
	_, err = env.billing.CreateInvoice(ctx, services.CreateInvoiceInput{OrderID: order.ID})
	require.NoError(t, err)
	_, err = env.billing.CreateInvoice(ctx, services.CreateInvoiceInput{OrderID: order.ID})
	assert.ErrorIs(t, err, services.ErrConflict)
}

func TestCreateInvoiceRequireServed(t *testing.T) {
	env := newTestEnvWith(t, services.BillingOptions{RequireServed: true})
	ctx := context.Background()
	order := env.scenarioOrder(t)

	_, err := env.billing.CreateInvoice(ctx, services.CreateInvoiceInput{OrderID: order.ID})
	assert.ErrorIs(t, err, services.ErrValidation)

	env.driveOrder(t, order.ID, models.OrderStatusPreparing, models.OrderStatusReady, models.OrderStatusServed)
	_, err = env.billing.CreateInvoice(ctx, services.CreateInvoiceInput{OrderID: order.ID})
	assert.NoError(t, err)
}

func TestUpdatePaymentStatus(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	t.Run("paid records a payment", func(t *testing.T) {
		inv := env.invoice(t)
		qr := models.PaymentMethodQR
		got, err := env.billing.UpdatePaymentStatus(ctx, inv.ID, models.InvoiceStatusPaid, &qr)
		require.NoError(t, err)
		assert.Equal(t, models.InvoiceStatusPaid, got.Status)
		assert.NotNil(t, got.PaidAt)
		require.Len(t, got.Payments, 1)
		assert.Equal(t, models.PaymentMethodQR, got.Payments[0].Method)

		_, err = env.billing.UpdatePaymentStatus(ctx, inv.ID, models.InvoiceStatusPaid, nil)
		assert.ErrorIs(t, err, services.ErrInvoiceNotPayable)
	})

	t.Run("refund clears paid_at", func(t *testing.T) {
		inv := env.invoice(t)
		_, err := env.billing.UpdatePaymentStatus(ctx, inv.ID, models.InvoiceStatusPaid, nil)
		require.NoError(t, err)

		got, err := env.billing.UpdatePaymentStatus(ctx, inv.ID, models.InvoiceStatusRefunded, nil)
		require.NoError(t, err)
		assert.Equal(t, models.InvoiceStatusRefunded, got.Status)
		assert.Nil(t, got.PaidAt)
		require.Len(t, got.Payments, 1)
		assert.Equal(t, models.PaymentStatusRefunded, got.Payments[0].Status)
	})

	t.Run("cancel is idempotent", func(t *testing.T) {
		inv := env.invoice(t)
		before := len(env.events.OfType(events.InvoiceStatusChanged))

		for i := 0; i < 2; i++ {
			got, err := env.billing.UpdatePaymentStatus(ctx, inv.ID, models.InvoiceStatusCancelled, nil)
			require.NoError(t, err)
			assert.Equal(t, models.InvoiceStatusCancelled, got.Status)
		}
		assert.Len(t, env.events.OfType(events.InvoiceStatusChanged), before+1)

		_, err := env.billing.RecordPayment(ctx, inv.ID, services.PaymentInput{Amount: inv.TotalAmount, Method: models.PaymentMethodCash})
		assert.ErrorIs(t, err, services.ErrInvoiceNotPayable)
	})

	t.Run("illegal transitions", func(t *testing.T) {
		inv := env.invoice(t)
		_, err := env.billing.UpdatePaymentStatus(ctx, inv.ID, models.InvoiceStatusRefunded, nil)
		var te *services.TransitionError
		require.True(t, errors.As(err, &te))
		assert.Equal(t, "pending", te.From)
		assert.Equal(t, "refunded", te.To)

		_, err = env.billing.UpdatePaymentStatus(ctx, inv.ID, "settled", nil)
		assert.ErrorIs(t, err, services.ErrValidation)
	})
}

func TestLoyaltyPoints(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	c := env.customer(t, "Luis", false)
	burger := env.menuItem(t, "Burger", "12.99", 10)

	order, err := env.orders.CreateOrder(ctx, services.CreateOrderInput{
		CustomerID: &c.ID,
		OrderType:  models.OrderTypeTakeaway,
		Items:      []services.OrderItemInput{{MenuItemID: burger.ID, Quantity: 2}},
	})
	require.NoError(t, err)

	inv, err := env.billing.CreateInvoice(ctx, services.CreateInvoiceInput{OrderID: order.ID})
	require.NoError(t, err)
	require.NotNil(t, inv.CustomerID)

	// 25.98 + 4.9362 tax = 30.92
	_, err = env.billing.RecordPayment(ctx, inv.ID, services.PaymentInput{Amount: dec("30.92"), Method: models.PaymentMethodCash})
	require.NoError(t, err)

	got, err := env.customers.Get(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 30, got.LoyaltyPoints)

	_, err = env.billing.UpdatePaymentStatus(ctx, inv.ID, models.InvoiceStatusRefunded, nil)
	require.NoError(t, err)
	got, err = env.customers.Get(ctx, c.ID)
	require.NoError(t, err)
	assert.Zero(t, got.LoyaltyPoints)
}

func TestBillingStats(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	paid := env.invoice(t)
	_, err := env.billing.RecordPayment(ctx, paid.ID, services.PaymentInput{Amount: paid.TotalAmount, Method: models.PaymentMethodCash})
	require.NoError(t, err)
	env.invoice(t)
	cancelled := env.invoice(t)
	_, err = env.billing.UpdatePaymentStatus(ctx, cancelled.ID, models.InvoiceStatusCancelled, nil)
	require.NoError(t, err)

	stats, err := env.billing.Stats(ctx, nil, nil)
	require.NoError(t, err)
	assert.EqualValues(t, 3, stats.TotalInvoices)
	assert.EqualValues(t, 1, stats.PaidInvoices)
	assert.EqualValues(t, 1, stats.PendingInvoices)
	assert.EqualValues(t, 1, stats.CancelledInvoices)
	assertDecimal(t, "53.51", stats.TotalRevenue)
	assertDecimal(t, "53.51", stats.AverageInvoiceAmount)
	assertDecimal(t, "33.33", stats.PaymentRate)
}

func TestRenderInvoicePDF(t *testing.T) {
	env := newTestEnv(t)
	inv := env.invoice(t)

	pdf, err := env.billing.RenderInvoicePDF(context.Background(), inv.ID)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(pdf, []byte("%PDF")))

	_, err = env.billing.RenderInvoicePDF(context.Background(), 9999)
	assert.ErrorIs(t, err, services.ErrNotFound)
}
