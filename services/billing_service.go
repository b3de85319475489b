package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/yeremiapane/restaurant-ops/events"
	"github.com/yeremiapane/restaurant-ops/models"
	"github.com/yeremiapane/restaurant-ops/utils"
)

type CreateInvoiceInput struct {
	OrderID    uint
	CustomerID *uint
}

type PaymentInput struct {
	Amount    decimal.Decimal
	Method    models.PaymentMethod
	Reference string
}

type InvoiceFilter struct {
	Status     models.InvoiceStatus
	CustomerID *uint
	From       *time.Time
	To         *time.Time
	Limit      int
	Offset     int
}

type BillingStats struct {
	TotalInvoices        int64           `json:"total_invoices"`
	PaidInvoices         int64           `json:"paid_invoices"`
	PendingInvoices      int64           `json:"pending_invoices"`
	CancelledInvoices    int64           `json:"cancelled_invoices"`
	RefundedInvoices     int64           `json:"refunded_invoices"`
	TotalRevenue         decimal.Decimal `json:"total_revenue"`
	AverageInvoiceAmount decimal.Decimal `json:"average_invoice_amount"`
	PaymentRate          decimal.Decimal `json:"payment_rate"`
}

type BillingOptions struct {
	// RequireServed restricts invoicing to served orders.
	RequireServed bool
}

type BillingService struct {
	store  *Store
	clock  *utils.Clock
	opts   BillingOptions
	events notifier
	log    *logrus.Logger
}

func NewBillingService(store *Store, clock *utils.Clock, opts BillingOptions, pub events.Publisher, log *logrus.Logger) *BillingService {
	return &BillingService{
		store:  store,
		clock:  clock,
		opts:   opts,
		events: newNotifier(pub, log),
		log:    log,
	}
}

func newInvoiceNumber(now time.Time) string {
	return fmt.Sprintf("INV-%s-%s", now.Format("20060102"), strings.ToUpper(uuid.NewString()[:8]))
}

// CreateInvoice freezes the order's totals into a pending invoice.
// Orders are invoiced at most once and never once cancelled.
func (s *BillingService) CreateInvoice(ctx context.Context, in CreateInvoiceInput) (*models.Invoice, error) {
	now := s.clock.Now()
	var invoice models.Invoice

	err := s.store.Tx(ctx, func(tx *gorm.DB) error {
		var order models.Order
		if err := tx.First(&order, in.OrderID).Error; err != nil {
			return lookup(err, "order", in.OrderID)
		}
		if order.Status == models.OrderStatusCancelled {
			return invalid("order_id", "order %s is cancelled and cannot be invoiced", order.OrderNumber)
		}
		if s.opts.RequireServed && order.Status != models.OrderStatusServed {
			return invalid("order_id", "order %s must be served before invoicing, it is %s", order.OrderNumber, order.Status)
		}

		var existing int64
		if err := tx.Model(&models.Invoice{}).Where("order_id = ?", order.ID).Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return fmt.Errorf("%w: order %s is already invoiced", ErrConflict, order.OrderNumber)
		}

		customerID := order.CustomerID
		if in.CustomerID != nil {
			if err := tx.Select("id").First(&models.Customer{}, *in.CustomerID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return invalid("customer_id", "customer %d does not exist", *in.CustomerID)
				}
				return err
			}
			customerID = in.CustomerID
		}

		orderID := order.ID
		invoice = models.Invoice{
			InvoiceNumber:  newInvoiceNumber(now),
			OrderID:        &orderID,
			CustomerID:     customerID,
			Subtotal:       order.Subtotal,
			TaxAmount:      order.TaxAmount,
			DiscountAmount: order.DiscountAmount,
			TotalAmount:    order.TotalAmount,
			Status:         models.InvoiceStatusPending,
			Version:        1,
			IssuedAt:       now.UTC(),
		}
		return tx.Create(&invoice).Error
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"invoice_id":     invoice.ID,
		"invoice_number": invoice.InvoiceNumber,
		"order_id":       in.OrderID,
	}).Info("invoice created")

	s.events.emit(ctx, events.Event{
		Type:    events.InvoiceCreated,
		Title:   "Invoice issued",
		Message: fmt.Sprintf("Invoice %s issued", invoice.InvoiceNumber),
		Data: map[string]interface{}{
			"invoice_id":   invoice.ID,
			"order_id":     in.OrderID,
			"total_amount": invoice.TotalAmount.StringFixed(2),
		},
	})
	return &invoice, nil
}

func (s *BillingService) GetInvoice(ctx context.Context, id uint) (*models.Invoice, error) {
	db, cancel := s.store.Conn(ctx)
	defer cancel()

	var invoice models.Invoice
	if err := db.Preload("Payments").First(&invoice, id).Error; err != nil {
		return nil, classify(lookup(err, "invoice", id))
	}
	return &invoice, nil
}

func (s *BillingService) ListInvoices(ctx context.Context, f InvoiceFilter) ([]models.Invoice, error) {
	db, cancel := s.store.Conn(ctx)
	defer cancel()

	q := db.Model(&models.Invoice{}).Order("issued_at DESC, id DESC")
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.CustomerID != nil {
		q = q.Where("customer_id = ?", *f.CustomerID)
	}
	if f.From != nil {
		q = q.Where("issued_at >= ?", f.From.UTC())
	}
	if f.To != nil {
		q = q.Where("issued_at < ?", f.To.UTC())
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit).Offset(f.Offset)
	}

	var invoices []models.Invoice
	if err := q.Find(&invoices).Error; err != nil {
		return nil, classify(err)
	}
	return invoices, nil
}

// RecordPayment settles a pending invoice in full. Partial payments are
// rejected, so one completed payment always means a paid invoice.
func (s *BillingService) RecordPayment(ctx context.Context, invoiceID uint, in PaymentInput) (*models.Payment, error) {
	if !in.Method.Valid() {
		return nil, invalid("payment_method", "must be one of cash, card, transfer, qr")
	}
	if !in.Amount.IsPositive() {
		return nil, invalid("amount", "must be greater than zero")
	}
	if in.Reference == "" {
		in.Reference = uuid.NewString()
	}

	var (
		payment models.Payment
		invoice models.Invoice
	)
	err := s.store.Tx(ctx, func(tx *gorm.DB) error {
		if err := tx.First(&invoice, invoiceID).Error; err != nil {
			return lookup(err, "invoice", invoiceID)
		}
		if invoice.Status != models.InvoiceStatusPending {
			return fmt.Errorf("%w: invoice %s is %s", ErrInvoiceNotPayable, invoice.InvoiceNumber, invoice.Status)
		}
		if !in.Amount.Equal(invoice.TotalAmount) {
			return invalid("amount", "payment of %s does not match invoice total %s",
				in.Amount.StringFixed(2), invoice.TotalAmount.StringFixed(2))
		}

		now := s.clock.Now().UTC()
		method := in.Method
		res := tx.Model(&models.Invoice{}).
			Where("id = ? AND status = ? AND version = ?", invoice.ID, models.InvoiceStatusPending, invoice.Version).
			Updates(map[string]interface{}{
				"status":         models.InvoiceStatusPaid,
				"paid_at":        now,
				"payment_method": method,
				"version":        gorm.Expr("version + 1"),
				"updated_at":     now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: invoice %s changed while paying", ErrInvoiceNotPayable, invoice.InvoiceNumber)
		}

		payment = models.Payment{
			InvoiceID:   invoice.ID,
			Amount:      in.Amount,
			Method:      method,
			Reference:   in.Reference,
			Status:      models.PaymentStatusCompleted,
			ProcessedAt: &now,
		}
		if err := tx.Create(&payment).Error; err != nil {
			return err
		}

		return adjustLoyalty(tx, invoice.CustomerID, invoice.TotalAmount.IntPart())
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"invoice_id": invoice.ID,
		"payment_id": payment.ID,
		"amount":     payment.Amount.StringFixed(2),
		"method":     payment.Method,
	}).Info("payment recorded")

	s.events.emit(ctx, events.Event{
		Type:    events.InvoicePaid,
		Title:   "Invoice paid",
		Message: fmt.Sprintf("Invoice %s paid by %s", invoice.InvoiceNumber, payment.Method),
		Data: map[string]interface{}{
			"invoice_id": invoice.ID,
			"payment_id": payment.ID,
			"amount":     payment.Amount.StringFixed(2),
		},
	})
	return &payment, nil
}

// adjustLoyalty adds points (or removes them, never below zero).
func adjustLoyalty(tx *gorm.DB, customerID *uint, points int64) error {
	if customerID == nil || points == 0 {
		return nil
	}

	var customer models.Customer
	if err := tx.Select("id", "loyalty_points").First(&customer, *customerID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}

	next := int64(customer.LoyaltyPoints) + points
	if next < 0 {
		next = 0
	}
	return tx.Model(&models.Customer{}).Where("id = ?", customer.ID).
		UpdateColumn("loyalty_points", next).Error
}

// UpdatePaymentStatus drives the invoice state machine from the PATCH surface.
// "paid" records a full payment; "cancelled" and "refunded" follow the
// transition table; asking for the current status changes nothing.
func (s *BillingService) UpdatePaymentStatus(ctx context.Context, invoiceID uint, target models.InvoiceStatus, method *models.PaymentMethod) (*models.Invoice, error) {
	if !target.Valid() {
		return nil, invalid("payment_status", "must be one of pending, paid, cancelled, refunded")
	}

	if target == models.InvoiceStatusPaid {
		invoice, err := s.GetInvoice(ctx, invoiceID)
		if err != nil {
			return nil, err
		}
		m := models.PaymentMethodCash
		if method != nil {
			m = *method
		}
		if _, err := s.RecordPayment(ctx, invoiceID, PaymentInput{Amount: invoice.TotalAmount, Method: m}); err != nil {
			return nil, err
		}
		return s.GetInvoice(ctx, invoiceID)
	}

	for attempt := 0; attempt < maxWriteAttempts; attempt++ {
		var (
			from    models.InvoiceStatus
			changed bool
			number  string
		)
		err := s.store.Tx(ctx, func(tx *gorm.DB) error {
			var invoice models.Invoice
			if err := tx.First(&invoice, invoiceID).Error; err != nil {
				return lookup(err, "invoice", invoiceID)
			}
			if invoice.Status == target {
				return nil
			}
			if !invoice.Status.CanTransitionTo(target) {
				return &TransitionError{Entity: "invoice", From: string(invoice.Status), To: string(target)}
			}

			now := s.clock.Now().UTC()
			res := tx.Model(&models.Invoice{}).
				Where("id = ? AND status = ? AND version = ?", invoice.ID, invoice.Status, invoice.Version).
				Updates(map[string]interface{}{
					"status":     target,
					"paid_at":    nil,
					"version":    gorm.Expr("version + 1"),
					"updated_at": now,
				})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return errStaleWrite
			}

			if target == models.InvoiceStatusRefunded {
				if err := tx.Model(&models.Payment{}).
					Where("invoice_id = ? AND status = ?", invoice.ID, models.PaymentStatusCompleted).
					Updates(map[string]interface{}{"status": models.PaymentStatusRefunded, "updated_at": now}).Error; err != nil {
					return err
				}
				if err := adjustLoyalty(tx, invoice.CustomerID, -invoice.TotalAmount.IntPart()); err != nil {
					return err
				}
			}

			from = invoice.Status
			number = invoice.InvoiceNumber
			changed = true
			return nil
		})
		if errors.Is(err, errStaleWrite) {
			continue
		}
		if err != nil {
			return nil, err
		}

		if changed {
			s.log.WithFields(logrus.Fields{
				"invoice_id": invoiceID,
				"from":       from,
				"to":         target,
			}).Info("invoice status changed")

			s.events.emit(ctx, events.Event{
				Type:    events.InvoiceStatusChanged,
				Title:   "Invoice status changed",
				Message: fmt.Sprintf("Invoice %s is now %s", number, target),
				Data: map[string]interface{}{
					"invoice_id": invoiceID,
					"from":       from,
					"to":         target,
				},
			})
		}
		return s.GetInvoice(ctx, invoiceID)
	}

	return nil, fmt.Errorf("%w: invoice %d is being updated concurrently", ErrConflict, invoiceID)
}

// Stats summarises invoices issued in [from, to); nil bounds are open.
func (s *BillingService) Stats(ctx context.Context, from, to *time.Time) (*BillingStats, error) {
	invoices, err := s.ListInvoices(ctx, InvoiceFilter{From: from, To: to})
	if err != nil {
		return nil, err
	}

	stats := &BillingStats{
		TotalRevenue:         decimal.Zero,
		AverageInvoiceAmount: decimal.Zero,
		PaymentRate:          decimal.Zero,
	}
	for _, inv := range invoices {
		stats.TotalInvoices++
		switch inv.Status {
		case models.InvoiceStatusPaid:
			stats.PaidInvoices++
			stats.TotalRevenue = stats.TotalRevenue.Add(inv.TotalAmount)
		case models.InvoiceStatusPending:
			stats.PendingInvoices++
		case models.InvoiceStatusCancelled:
			stats.CancelledInvoices++
		case models.InvoiceStatusRefunded:
			stats.RefundedInvoices++
		}
	}

	if stats.PaidInvoices > 0 {
		stats.AverageInvoiceAmount = utils.RoundMoney(stats.TotalRevenue.Div(decimal.NewFromInt(stats.PaidInvoices)))
	}
	if stats.TotalInvoices > 0 {
		stats.PaymentRate = decimal.NewFromInt(stats.PaidInvoices * 100).
			Div(decimal.NewFromInt(stats.TotalInvoices)).
			Round(2)
	}
	return stats, nil
}
