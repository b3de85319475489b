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
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yeremiapane/restaurant-ops/events"
	"github.com/yeremiapane/restaurant-ops/models"
	"github.com/yeremiapane/restaurant-ops/utils"
)

type OrderItemInput struct {
	MenuItemID          uint
	Quantity            int
	Customizations      []models.Customization
	SpecialInstructions string
}

type CreateOrderInput struct {
	CustomerID          *uint
	TableID             *uint
	OrderType           models.OrderType
	Items               []OrderItemInput
	DiscountCode        string
	SpecialInstructions string
}

// OrderUpdate carries the editable fields of an open order. Nil fields are
// left unchanged.
type OrderUpdate struct {
	TableID             *uint
	SpecialInstructions *string
}

type OrderFilter struct {
	Status     models.OrderStatus
	CustomerID *uint
	TableID    *uint
	From       *time.Time
	To         *time.Time
	Limit      int
	Offset     int
}

type OrderService struct {
	store   *Store
	taxRate decimal.Decimal
	clock   *utils.Clock
	events  notifier
	log     *logrus.Logger
}

func NewOrderService(store *Store, taxRate decimal.Decimal, clock *utils.Clock, pub events.Publisher, log *logrus.Logger) *OrderService {
	return &OrderService{
		store:   store,
		taxRate: taxRate,
		clock:   clock,
		events:  newNotifier(pub, log),
		log:     log,
	}
}

func newOrderNumber(now time.Time) string {
	return fmt.Sprintf("ORD-%s-%s", now.Format("20060102"), strings.ToUpper(uuid.NewString()[:8]))
}

// CreateOrder prices every item from the catalog and stores the order with
// its items in one transaction.
func (s *OrderService) CreateOrder(ctx context.Context, in CreateOrderInput) (*models.Order, error) {
	if len(in.Items) == 0 {
		return nil, invalid("items", "an order needs at least one item")
	}
	if len(in.Items) > MaxItemsPerOrder {
		return nil, invalid("items", "an order holds at most %d items", MaxItemsPerOrder)
	}
	for _, it := range in.Items {
		if it.Quantity < 1 || it.Quantity > MaxItemQuantity {
			return nil, invalid("quantity", "must be between 1 and %d", MaxItemQuantity)
		}
	}

	now := s.clock.Now()
	var order *models.Order

	err := s.store.Tx(ctx, func(tx *gorm.DB) error {
		if in.CustomerID != nil {
			if err := tx.Select("id").First(&models.Customer{}, *in.CustomerID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return invalid("customer_id", "customer %d does not exist", *in.CustomerID)
				}
				return err
			}
		}
		if err := checkTable(tx, in.TableID); err != nil {
			return err
		}

		b := NewOrderBuilder(in.OrderType).
			ForCustomer(in.CustomerID).
			AtTable(in.TableID).
			WithInstructions(in.SpecialInstructions)

		for _, it := range in.Items {
			item, err := loadMenuItem(tx, it.MenuItemID)
			if err != nil {
				return err
			}
			b.AddItem(*item, it.Quantity, it.Customizations, it.SpecialInstructions)
		}

		if in.DiscountCode != "" {
			amount, err := s.redeemDiscount(tx, in.DiscountCode, b.Subtotal(), now)
			if err != nil {
				return err
			}
			b.WithDiscount(in.DiscountCode, amount)
		}

		built, err := b.Build(s.taxRate)
		if err != nil {
			return err
		}
		built.OrderNumber = newOrderNumber(now)

		if err := tx.Create(built).Error; err != nil {
			return err
		}
		order = built
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"order_id":     order.ID,
		"order_number": order.OrderNumber,
		"total":        order.TotalAmount.StringFixed(2),
	}).Info("order created")

	s.events.emit(ctx, events.Event{
		Type:    events.OrderCreated,
		Title:   "New order",
		Message: fmt.Sprintf("Order %s created", order.OrderNumber),
		Data: map[string]interface{}{
			"order_id":     order.ID,
			"order_number": order.OrderNumber,
			"order_type":   order.OrderType,
			"total_amount": order.TotalAmount.StringFixed(2),
		},
	})
	return order, nil
}

func checkTable(tx *gorm.DB, id *uint) error {
	if id == nil {
		return nil
	}
	var table models.Table
	if err := tx.First(&table, *id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return invalid("table_id", "table %d does not exist", *id)
		}
		return err
	}
	if !table.IsActive {
		return invalid("table_id", "table %s is not active", table.Number)
	}
	return nil
}

func loadMenuItem(tx *gorm.DB, id uint) (*models.MenuItem, error) {
	var item models.MenuItem
	if err := tx.First(&item, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: id %d", ErrItemNotFound, id)
		}
		return nil, err
	}
	if !item.IsAvailable {
		return nil, fmt.Errorf("%w: %s", ErrItemUnavailable, item.Name)
	}
	return &item, nil
}

// redeemDiscount resolves the code and consumes one use of it.
func (s *OrderService) redeemDiscount(tx *gorm.DB, code string, subtotal decimal.Decimal, now time.Time) (decimal.Decimal, error) {
	var d models.Discount
	if err := tx.Where("code = ?", code).First(&d).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return decimal.Zero, invalid("discount_code", "unknown discount code %s", code)
		}
		return decimal.Zero, err
	}

	amount, err := ResolveDiscount(subtotal, d, now)
	if err != nil {
		return decimal.Zero, err
	}

	res := tx.Model(&models.Discount{}).
		Where("id = ? AND (usage_limit IS NULL OR used_count < usage_limit)", d.ID).
		UpdateColumn("used_count", gorm.Expr("used_count + 1"))
	if res.Error != nil {
		return decimal.Zero, res.Error
	}
	if res.RowsAffected == 0 {
		return decimal.Zero, invalid("discount_code", "discount %s has reached its usage limit", code)
	}
	return amount, nil
}

func (s *OrderService) GetOrder(ctx context.Context, id uint) (*models.Order, error) {
	db, cancel := s.store.Conn(ctx)
	defer cancel()

	var order models.Order
	if err := db.Preload("Items").First(&order, id).Error; err != nil {
		return nil, classify(lookup(err, "order", id))
	}
	return &order, nil
}

// ListItems returns the lines of an order in the order they were added.
func (s *OrderService) ListItems(ctx context.Context, id uint) ([]models.OrderItem, error) {
	db, cancel := s.store.Conn(ctx)
	defer cancel()

	if err := db.Select("id").First(&models.Order{}, id).Error; err != nil {
		return nil, classify(lookup(err, "order", id))
	}
	var items []models.OrderItem
	if err := db.Where("order_id = ?", id).Order("id ASC").Find(&items).Error; err != nil {
		return nil, classify(err)
	}
	return items, nil
}

func (s *OrderService) ListOrders(ctx context.Context, f OrderFilter) ([]models.Order, error) {
	db, cancel := s.store.Conn(ctx)
	defer cancel()

	q := db.Model(&models.Order{}).Preload("Items").Order("created_at DESC, id DESC")
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.CustomerID != nil {
		q = q.Where("customer_id = ?", *f.CustomerID)
	}
	if f.TableID != nil {
		q = q.Where("table_id = ?", *f.TableID)
	}
	if f.From != nil {
		q = q.Where("created_at >= ?", f.From.UTC())
	}
	if f.To != nil {
		q = q.Where("created_at < ?", f.To.UTC())
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit).Offset(f.Offset)
	}

	var orders []models.Order
	if err := q.Find(&orders).Error; err != nil {
		return nil, classify(err)
	}
	return orders, nil
}

// UpdateStatus moves an order along its lifecycle. Asking for the status the
// order already has is a no-op. Each step is a conditional update on
// (status, version) and is re-evaluated when another writer won the race.
func (s *OrderService) UpdateStatus(ctx context.Context, id uint, target models.OrderStatus) (*models.Order, error) {
	if !target.Valid() {
		return nil, invalid("status", "unknown order status %q", target)
	}

	for attempt := 0; attempt < maxWriteAttempts; attempt++ {
		var (
			from    models.OrderStatus
			changed bool
		)

		err := s.store.Tx(ctx, func(tx *gorm.DB) error {
			var order models.Order
			if err := tx.Preload("Items").First(&order, id).Error; err != nil {
				return lookup(err, "order", id)
			}
			if order.Status == target {
				return nil
			}
			if !order.Status.CanTransitionTo(target) {
				return &TransitionError{Entity: "order", From: string(order.Status), To: string(target)}
			}

			now := s.clock.Now().UTC()
			res := tx.Model(&models.Order{}).
				Where("id = ? AND status = ? AND version = ?", id, order.Status, order.Version).
				Updates(map[string]interface{}{
					"status":     target,
					"version":    gorm.Expr("version + 1"),
					"updated_at": now,
				})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return errStaleWrite
			}

			if err := tx.Model(&models.OrderItem{}).Where("order_id = ?", id).
				Updates(map[string]interface{}{"status": target, "updated_at": now}).Error; err != nil {
				return err
			}

			if target == models.OrderStatusPreparing {
				if err := upsertKitchenTicket(tx, &order, now); err != nil {
					return err
				}
			} else if err := tx.Model(&models.KitchenTicket{}).Where("order_id = ?", id).
				Updates(map[string]interface{}{"status": target, "updated_at": now}).Error; err != nil {
				return err
			}

			from = order.Status
			changed = true
			return nil
		})
		if errors.Is(err, errStaleWrite) {
			s.log.WithField("order_id", id).Debug("order changed concurrently, retrying status update")
			continue
		}
		if err != nil {
			return nil, err
		}

		order, err := s.GetOrder(ctx, id)
		if err != nil {
			return nil, err
		}
		if changed {
			s.log.WithFields(logrus.Fields{
				"order_id": id,
				"from":     from,
				"to":       target,
			}).Info("order status changed")

			s.events.emit(ctx, events.Event{
				Type:    events.OrderStatusChanged,
				Title:   "Order status changed",
				Message: fmt.Sprintf("Order %s is now %s", order.OrderNumber, target),
				Data: map[string]interface{}{
					"order_id":     order.ID,
					"order_number": order.OrderNumber,
					"from":         from,
					"to":           target,
				},
			})
			if target == models.OrderStatusPreparing {
				s.events.emit(ctx, events.Event{
					Type:    events.KitchenTicketCreated,
					Title:   "New kitchen ticket",
					Message: fmt.Sprintf("Order %s sent to the kitchen", order.OrderNumber),
					Data:    map[string]interface{}{"order_id": order.ID},
				})
			}
		}
		return order, nil
	}

	return nil, fmt.Errorf("%w: order %d is being updated concurrently", ErrConflict, id)
}

// AddItem appends a line to a pending, uninvoiced order at the item's
// current price and recomputes the totals. A redeemed discount is applied
// again to the new subtotal without consuming another use.
func (s *OrderService) AddItem(ctx context.Context, id uint, in OrderItemInput) (*models.Order, error) {
	if in.Quantity < 1 || in.Quantity > MaxItemQuantity {
		return nil, invalid("quantity", "must be between 1 and %d", MaxItemQuantity)
	}

	for attempt := 0; attempt < maxWriteAttempts; attempt++ {
		var line models.OrderItem
		err := s.store.Tx(ctx, func(tx *gorm.DB) error {
			var order models.Order
			if err := tx.Preload("Items").First(&order, id).Error; err != nil {
				return lookup(err, "order", id)
			}
			if order.Status != models.OrderStatusPending {
				return invalid("status", "items can only be added to pending orders, order is %s", order.Status)
			}
			if len(order.Items) >= MaxItemsPerOrder {
				return invalid("items", "an order holds at most %d items", MaxItemsPerOrder)
			}
			var invoices int64
			if err := tx.Model(&models.Invoice{}).Where("order_id = ?", id).Count(&invoices).Error; err != nil {
				return err
			}
			if invoices > 0 {
				return fmt.Errorf("%w: order %d has an invoice", ErrConflict, id)
			}

			item, err := loadMenuItem(tx, in.MenuItemID)
			if err != nil {
				return err
			}
			now := s.clock.Now().UTC()
			line = models.OrderItem{
				OrderID:             id,
				MenuItemID:          item.ID,
				Quantity:            in.Quantity,
				UnitPrice:           item.Price,
				Customizations:      in.Customizations,
				SpecialInstructions: in.SpecialInstructions,
				Status:              models.OrderStatusPending,
				CreatedAt:           now,
				UpdatedAt:           now,
			}
			line.TotalPrice = line.LineTotal()

			lines := append(append([]models.OrderItem(nil), order.Items...), line)
			subtotal := CalculateTotals(lines, decimal.Zero, decimal.Zero).Subtotal
			discount, err := reapplyDiscount(tx, &order, subtotal)
			if err != nil {
				return err
			}
			totals := CalculateTotals(lines, s.taxRate, discount)

			res := tx.Model(&models.Order{}).
				Where("id = ? AND status = ? AND version = ?", id, order.Status, order.Version).
				Updates(map[string]interface{}{
					"subtotal":        totals.Subtotal,
					"tax_amount":      totals.TaxAmount,
					"discount_amount": totals.DiscountAmount,
					"total_amount":    totals.TotalAmount,
					"version":         gorm.Expr("version + 1"),
					"updated_at":      now,
				})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return errStaleWrite
			}
			return tx.Create(&line).Error
		})
		if errors.Is(err, errStaleWrite) {
			s.log.WithField("order_id", id).Debug("order changed concurrently, retrying item add")
			continue
		}
		if err != nil {
			return nil, err
		}

		order, err := s.GetOrder(ctx, id)
		if err != nil {
			return nil, err
		}
		s.log.WithFields(logrus.Fields{
			"order_id":     id,
			"menu_item_id": line.MenuItemID,
			"quantity":     line.Quantity,
			"total":        order.TotalAmount.StringFixed(2),
		}).Info("order item added")

		s.events.emit(ctx, events.Event{
			Type:    events.OrderUpdated,
			Title:   "Order updated",
			Message: fmt.Sprintf("Item added to order %s", order.OrderNumber),
			Data: map[string]interface{}{
				"order_id":     order.ID,
				"order_number": order.OrderNumber,
				"order_item":   line.ID,
				"total_amount": order.TotalAmount.StringFixed(2),
			},
		})
		return order, nil
	}

	return nil, fmt.Errorf("%w: order %d is being updated concurrently", ErrConflict, id)
}

// reapplyDiscount recomputes the order's redeemed discount for subtotal.
// An order without a code, or whose code row is gone, keeps what it has.
func reapplyDiscount(tx *gorm.DB, order *models.Order, subtotal decimal.Decimal) (decimal.Decimal, error) {
	if order.DiscountCode == nil {
		return order.DiscountAmount, nil
	}
	var d models.Discount
	err := tx.Where("code = ?", *order.DiscountCode).First(&d).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return order.DiscountAmount, nil
	}
	if err != nil {
		return decimal.Zero, err
	}
	return discountValue(subtotal, d)
}

// UpdateOrder edits the table or special instructions of an order that has
// not reached a final status.
func (s *OrderService) UpdateOrder(ctx context.Context, id uint, upd OrderUpdate) (*models.Order, error) {
	if upd.SpecialInstructions != nil && len(*upd.SpecialInstructions) > 1000 {
		return nil, invalid("special_instructions", "must be at most 1000 characters")
	}

	for attempt := 0; attempt < maxWriteAttempts; attempt++ {
		err := s.store.Tx(ctx, func(tx *gorm.DB) error {
			var order models.Order
			if err := tx.First(&order, id).Error; err != nil {
				return lookup(err, "order", id)
			}
			if order.Status.Terminal() {
				return invalid("status", "order is %s and can no longer be edited", order.Status)
			}

			changes := map[string]interface{}{
				"version":    gorm.Expr("version + 1"),
				"updated_at": s.clock.Now().UTC(),
			}
			if upd.TableID != nil {
				if err := checkTable(tx, upd.TableID); err != nil {
					return err
				}
				changes["table_id"] = *upd.TableID
			}
			if upd.SpecialInstructions != nil {
				changes["special_instructions"] = *upd.SpecialInstructions
			}

			res := tx.Model(&models.Order{}).
				Where("id = ? AND version = ?", id, order.Version).
				Updates(changes)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return errStaleWrite
			}
			return nil
		})
		if errors.Is(err, errStaleWrite) {
			continue
		}
		if err != nil {
			return nil, err
		}

		order, err := s.GetOrder(ctx, id)
		if err != nil {
			return nil, err
		}
		s.events.emit(ctx, events.Event{
			Type:    events.OrderUpdated,
			Title:   "Order updated",
			Message: fmt.Sprintf("Order %s updated", order.OrderNumber),
			Data: map[string]interface{}{
				"order_id":     order.ID,
				"order_number": order.OrderNumber,
			},
		})
		return order, nil
	}

	return nil, fmt.Errorf("%w: order %d is being updated concurrently", ErrConflict, id)
}

// upsertKitchenTicket snapshots the order for the kitchen. The unique
// order_id keeps one ticket per order.
func upsertKitchenTicket(tx *gorm.DB, order *models.Order, now time.Time) error {
	ids := make([]uint, 0, len(order.Items))
	for _, it := range order.Items {
		ids = append(ids, it.MenuItemID)
	}

	var menuItems []models.MenuItem
	if len(ids) > 0 {
		if err := tx.Where("id IN ?", ids).Find(&menuItems).Error; err != nil {
			return err
		}
	}
	byID := make(map[uint]models.MenuItem, len(menuItems))
	for _, m := range menuItems {
		byID[m.ID] = m
	}

	estimated := 0
	items := make([]models.TicketItem, 0, len(order.Items))
	for _, it := range order.Items {
		m := byID[it.MenuItemID]
		if m.PreparationTime > estimated {
			estimated = m.PreparationTime
		}
		items = append(items, models.TicketItem{
			OrderItemID:         it.ID,
			MenuItemID:          it.MenuItemID,
			Name:                m.Name,
			Quantity:            it.Quantity,
			Customizations:      it.Customizations,
			SpecialInstructions: it.SpecialInstructions,
		})
	}

	priority := models.PriorityNormal
	if order.OrderType == models.OrderTypeDelivery {
		priority = models.PriorityHigh
	}
	if order.CustomerID != nil {
		var customer models.Customer
		err := tx.Select("id", "is_vip").First(&customer, *order.CustomerID).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if customer.IsVIP {
			priority = models.PriorityHigh
		}
	}

	var ticket models.KitchenTicket
	err := tx.Where("order_id = ?", order.ID).First(&ticket).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		ticket = models.KitchenTicket{
			OrderID:       order.ID,
			Status:        models.OrderStatusPreparing,
			Items:         items,
			EstimatedTime: estimated,
			Priority:      priority,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		return tx.Create(&ticket).Error
	case err != nil:
		return err
	}

	return tx.Model(&ticket).Updates(map[string]interface{}{
		"status":         models.OrderStatusPreparing,
		"items":          datatypes.JSONSlice[models.TicketItem](items),
		"estimated_time": estimated,
		"updated_at":     now,
	}).Error
}

// DeleteOrder removes a pending or cancelled order together with its items
// and kitchen ticket.
func (s *OrderService) DeleteOrder(ctx context.Context, id uint) error {
	return s.store.Tx(ctx, func(tx *gorm.DB) error {
		var order models.Order
		if err := tx.First(&order, id).Error; err != nil {
			return lookup(err, "order", id)
		}
		if order.Status != models.OrderStatusPending && order.Status != models.OrderStatusCancelled {
			return invalid("status", "only pending or cancelled orders can be deleted, order is %s", order.Status)
		}

		var invoices int64
		if err := tx.Model(&models.Invoice{}).Where("order_id = ?", id).Count(&invoices).Error; err != nil {
			return err
		}
		if invoices > 0 {
			return fmt.Errorf("%w: order %d has an invoice", ErrConflict, id)
		}

		if err := tx.Where("order_id = ?", id).Delete(&models.KitchenTicket{}).Error; err != nil {
			return err
		}
		if err := tx.Where("order_id = ?", id).Delete(&models.OrderItem{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Order{}, id).Error
	})
}
