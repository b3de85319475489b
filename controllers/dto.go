package controllers

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/yeremiapane/restaurant-ops/models"
	"github.com/yeremiapane/restaurant-ops/services"
	"github.com/yeremiapane/restaurant-ops/utils"
)

// presenter turns models into response DTOs: money as two-decimal numbers,
// timestamps in the configured timezone.
type presenter struct {
	clock *utils.Clock
}

func quantity(d decimal.Decimal) json.Number {
	return json.Number(d.String())
}

// queryTime accepts RFC 3339 or a plain date in the configured timezone.
func (p presenter) queryTime(c *gin.Context, key string) (*time.Time, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, nil
	}
	t, err := time.ParseInLocation("2006-01-02", raw, p.clock.Location())
	if err != nil {
		return nil, fmt.Errorf("invalid %s, use YYYY-MM-DD or RFC 3339", key)
	}
	return &t, nil
}

type OrderItemResponse struct {
	ID                  uint                   `json:"id"`
	MenuItemID          uint                   `json:"menu_item_id"`
	Quantity            int                    `json:"quantity"`
	UnitPrice           json.Number            `json:"unit_price"`
	TotalPrice          json.Number            `json:"total_price"`
	Customizations      []models.Customization `json:"customizations"`
	SpecialInstructions string                 `json:"special_instructions,omitempty"`
	Status              models.OrderStatus     `json:"status"`
}

type OrderResponse struct {
	ID                  uint                `json:"id"`
	OrderNumber         string              `json:"order_number"`
	CustomerID          *uint               `json:"customer_id"`
	TableID             *uint               `json:"table_id"`
	OrderType           models.OrderType    `json:"order_type"`
	Status              models.OrderStatus  `json:"status"`
	Subtotal            json.Number         `json:"subtotal"`
	TaxAmount           json.Number         `json:"tax_amount"`
	DiscountAmount      json.Number         `json:"discount_amount"`
	TotalAmount         json.Number         `json:"total_amount"`
	DiscountCode        *string             `json:"discount_code,omitempty"`
	SpecialInstructions string              `json:"special_instructions,omitempty"`
	Items               []OrderItemResponse `json:"items"`
	CreatedAt           string              `json:"created_at"`
	UpdatedAt           string              `json:"updated_at"`
}

func (p presenter) orderItems(list []models.OrderItem) []OrderItemResponse {
	items := make([]OrderItemResponse, 0, len(list))
	for _, it := range list {
		customizations := []models.Customization(it.Customizations)
		if customizations == nil {
			customizations = []models.Customization{}
		}
		items = append(items, OrderItemResponse{
			ID:                  it.ID,
			MenuItemID:          it.MenuItemID,
			Quantity:            it.Quantity,
			UnitPrice:           utils.MoneyJSON(it.UnitPrice),
			TotalPrice:          utils.MoneyJSON(it.TotalPrice),
			Customizations:      customizations,
			SpecialInstructions: it.SpecialInstructions,
			Status:              it.Status,
		})
	}
	return items
}

func (p presenter) order(o *models.Order) OrderResponse {
	return OrderResponse{
		ID:                  o.ID,
		OrderNumber:         o.OrderNumber,
		CustomerID:          o.CustomerID,
		TableID:             o.TableID,
		OrderType:           o.OrderType,
		Status:              o.Status,
		Subtotal:            utils.MoneyJSON(o.Subtotal),
		TaxAmount:           utils.MoneyJSON(o.TaxAmount),
		DiscountAmount:      utils.MoneyJSON(o.DiscountAmount),
		TotalAmount:         utils.MoneyJSON(o.TotalAmount),
		DiscountCode:        o.DiscountCode,
		SpecialInstructions: o.SpecialInstructions,
		Items:               p.orderItems(o.Items),
		CreatedAt:           p.clock.Format(o.CreatedAt),
		UpdatedAt:           p.clock.Format(o.UpdatedAt),
	}
}

func (p presenter) orders(list []models.Order) []OrderResponse {
	out := make([]OrderResponse, 0, len(list))
	for i := range list {
		out = append(out, p.order(&list[i]))
	}
	return out
}

type TicketResponse struct {
	ID            uint                  `json:"id"`
	OrderID       uint                  `json:"order_id"`
	Status        models.OrderStatus    `json:"status"`
	Items         []models.TicketItem   `json:"items"`
	EstimatedTime int                   `json:"estimated_time"`
	Priority      models.TicketPriority `json:"priority"`
	ChefNotes     string                `json:"chef_notes"`
	CreatedAt     string                `json:"created_at"`
	UpdatedAt     string                `json:"updated_at"`
}

func (p presenter) ticket(t *models.KitchenTicket) TicketResponse {
	items := []models.TicketItem(t.Items)
	if items == nil {
		items = []models.TicketItem{}
	}
	return TicketResponse{
		ID:            t.ID,
		OrderID:       t.OrderID,
		Status:        t.Status,
		Items:         items,
		EstimatedTime: t.EstimatedTime,
		Priority:      t.Priority,
		ChefNotes:     t.ChefNotes,
		CreatedAt:     p.clock.Format(t.CreatedAt),
		UpdatedAt:     p.clock.Format(t.UpdatedAt),
	}
}

type PaymentResponse struct {
	ID          uint                 `json:"id"`
	InvoiceID   uint                 `json:"invoice_id"`
	Amount      json.Number          `json:"amount"`
	Method      models.PaymentMethod `json:"method"`
	Reference   string               `json:"reference"`
	Status      models.PaymentStatus `json:"status"`
	ProcessedAt *string              `json:"processed_at"`
	CreatedAt   string               `json:"created_at"`
}

func (p presenter) payment(pm *models.Payment) PaymentResponse {
	return PaymentResponse{
		ID:          pm.ID,
		InvoiceID:   pm.InvoiceID,
		Amount:      utils.MoneyJSON(pm.Amount),
		Method:      pm.Method,
		Reference:   pm.Reference,
		Status:      pm.Status,
		ProcessedAt: p.clock.FormatPtr(pm.ProcessedAt),
		CreatedAt:   p.clock.Format(pm.CreatedAt),
	}
}

type InvoiceResponse struct {
	ID             uint                  `json:"id"`
	InvoiceNumber  string                `json:"invoice_number"`
	OrderID        *uint                 `json:"order_id"`
	CustomerID     *uint                 `json:"customer_id"`
	Subtotal       json.Number           `json:"subtotal"`
	TaxAmount      json.Number           `json:"tax_amount"`
	DiscountAmount json.Number           `json:"discount_amount"`
	TotalAmount    json.Number           `json:"total_amount"`
	PaymentStatus  models.InvoiceStatus  `json:"payment_status"`
	PaymentMethod  *models.PaymentMethod `json:"payment_method"`
	IssuedAt       string                `json:"issued_at"`
	PaidAt         *string               `json:"paid_at"`
	Payments       []PaymentResponse     `json:"payments"`
}

func (p presenter) invoice(inv *models.Invoice) InvoiceResponse {
	payments := make([]PaymentResponse, 0, len(inv.Payments))
	for i := range inv.Payments {
		payments = append(payments, p.payment(&inv.Payments[i]))
	}
	return InvoiceResponse{
		ID:             inv.ID,
		InvoiceNumber:  inv.InvoiceNumber,
		OrderID:        inv.OrderID,
		CustomerID:     inv.CustomerID,
		Subtotal:       utils.MoneyJSON(inv.Subtotal),
		TaxAmount:      utils.MoneyJSON(inv.TaxAmount),
		DiscountAmount: utils.MoneyJSON(inv.DiscountAmount),
		TotalAmount:    utils.MoneyJSON(inv.TotalAmount),
		PaymentStatus:  inv.Status,
		PaymentMethod:  inv.PaymentMethod,
		IssuedAt:       p.clock.Format(inv.IssuedAt),
		PaidAt:         p.clock.FormatPtr(inv.PaidAt),
		Payments:       payments,
	}
}

type IngredientResponse struct {
	ID           uint        `json:"id"`
	Name         string      `json:"name"`
	Unit         string      `json:"unit"`
	CostPerUnit  json.Number `json:"cost_per_unit"`
	CurrentStock json.Number `json:"current_stock"`
	MinStock     json.Number `json:"min_stock"`
	Supplier     string      `json:"supplier,omitempty"`
	IsActive     bool        `json:"is_active"`
	IsLowStock   bool        `json:"is_low_stock"`
	UpdatedAt    string      `json:"updated_at"`
}

func (p presenter) ingredient(ing *models.Ingredient) IngredientResponse {
	return IngredientResponse{
		ID:           ing.ID,
		Name:         ing.Name,
		Unit:         ing.Unit,
		CostPerUnit:  quantity(ing.CostPerUnit),
		CurrentStock: quantity(ing.CurrentStock),
		MinStock:     quantity(ing.MinStock),
		Supplier:     ing.Supplier,
		IsActive:     ing.IsActive,
		IsLowStock:   ing.IsLow(),
		UpdatedAt:    p.clock.Format(ing.UpdatedAt),
	}
}

func (p presenter) ingredients(list []models.Ingredient) []IngredientResponse {
	out := make([]IngredientResponse, 0, len(list))
	for i := range list {
		out = append(out, p.ingredient(&list[i]))
	}
	return out
}

type MovementResponse struct {
	ID                uint                `json:"id"`
	IngredientID      uint                `json:"ingredient_id"`
	MovementType      models.MovementType `json:"movement_type"`
	Quantity          json.Number         `json:"quantity"`
	RequestedQuantity json.Number         `json:"requested_quantity"`
	StockAfter        json.Number         `json:"stock_after"`
	Reason            string              `json:"reason"`
	Actor             string              `json:"actor,omitempty"`
	CreatedAt         string              `json:"created_at"`
}

func (p presenter) movement(m *models.InventoryMovement) MovementResponse {
	return MovementResponse{
		ID:                m.ID,
		IngredientID:      m.IngredientID,
		MovementType:      m.MovementType,
		Quantity:          quantity(m.Quantity),
		RequestedQuantity: quantity(m.RequestedQuantity),
		StockAfter:        quantity(m.StockAfter),
		Reason:            m.Reason,
		Actor:             m.Actor,
		CreatedAt:         p.clock.Format(m.CreatedAt),
	}
}

type MenuItemResponse struct {
	ID              uint                   `json:"id"`
	CategoryID      *uint                  `json:"category_id"`
	Name            string                 `json:"name"`
	Description     string                 `json:"description"`
	Price           json.Number            `json:"price"`
	Cost            json.Number            `json:"cost"`
	PreparationTime int                    `json:"preparation_time"`
	IsAvailable     bool                   `json:"is_available"`
	IsFeatured      bool                   `json:"is_featured"`
	ImageURL        string                 `json:"image_url,omitempty"`
	AllergenInfo    []string               `json:"allergen_info"`
	NutritionalInfo map[string]interface{} `json:"nutritional_info,omitempty"`
	UpdatedAt       string                 `json:"updated_at"`
}

func (p presenter) menuItem(m *models.MenuItem) MenuItemResponse {
	allergens := []string(m.AllergenInfo)
	if allergens == nil {
		allergens = []string{}
	}
	return MenuItemResponse{
		ID:              m.ID,
		CategoryID:      m.CategoryID,
		Name:            m.Name,
		Description:     m.Description,
		Price:           utils.MoneyJSON(m.Price),
		Cost:            utils.MoneyJSON(m.Cost),
		PreparationTime: m.PreparationTime,
		IsAvailable:     m.IsAvailable,
		IsFeatured:      m.IsFeatured,
		ImageURL:        m.ImageURL,
		AllergenInfo:    allergens,
		NutritionalInfo: m.NutritionalInfo,
		UpdatedAt:       p.clock.Format(m.UpdatedAt),
	}
}

type CategoryResponse struct {
	ID           uint   `json:"id"`
	Name         string `json:"name"`
	Description  string `json:"description"`
	DisplayOrder int    `json:"display_order"`
	IsActive     bool   `json:"is_active"`
}

func (p presenter) category(c *models.MenuCategory) CategoryResponse {
	return CategoryResponse{
		ID:           c.ID,
		Name:         c.Name,
		Description:  c.Description,
		DisplayOrder: c.DisplayOrder,
		IsActive:     c.IsActive,
	}
}

type CustomerResponse struct {
	ID            uint     `json:"id"`
	FirstName     string   `json:"first_name"`
	LastName      string   `json:"last_name"`
	Email         *string  `json:"email"`
	Phone         *string  `json:"phone"`
	LoyaltyPoints int      `json:"loyalty_points"`
	IsVIP         bool     `json:"is_vip"`
	Allergies     []string `json:"allergies"`
	CreatedAt     string   `json:"created_at"`
}

func (p presenter) customer(c *models.Customer) CustomerResponse {
	allergies := []string(c.Allergies)
	if allergies == nil {
		allergies = []string{}
	}
	return CustomerResponse{
		ID:            c.ID,
		FirstName:     c.FirstName,
		LastName:      c.LastName,
		Email:         c.Email,
		Phone:         c.Phone,
		LoyaltyPoints: c.LoyaltyPoints,
		IsVIP:         c.IsVIP,
		Allergies:     allergies,
		CreatedAt:     p.clock.Format(c.CreatedAt),
	}
}

type ZoneResponse struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	IsActive    bool   `json:"is_active"`
}

func (p presenter) zone(z *models.Zone) ZoneResponse {
	return ZoneResponse{ID: z.ID, Name: z.Name, Description: z.Description, IsActive: z.IsActive}
}

type TableResponse struct {
	ID       uint   `json:"id"`
	Number   string `json:"number"`
	ZoneID   *uint  `json:"zone_id"`
	Capacity int    `json:"capacity"`
	IsActive bool   `json:"is_active"`
}

func (p presenter) table(t *models.Table) TableResponse {
	return TableResponse{ID: t.ID, Number: t.Number, ZoneID: t.ZoneID, Capacity: t.Capacity, IsActive: t.IsActive}
}

type ReservationResponse struct {
	ID              uint                     `json:"id"`
	CustomerID      uint                     `json:"customer_id"`
	TableID         uint                     `json:"table_id"`
	ReservedFor     string                   `json:"reserved_for"`
	EndsAt          string                   `json:"ends_at"`
	Duration        int                      `json:"duration"`
	PartySize       int                      `json:"party_size"`
	Status          models.ReservationStatus `json:"status"`
	SpecialRequests string                   `json:"special_requests,omitempty"`
}

func (p presenter) reservation(r *models.Reservation) ReservationResponse {
	return ReservationResponse{
		ID:              r.ID,
		CustomerID:      r.CustomerID,
		TableID:         r.TableID,
		ReservedFor:     p.clock.Format(r.ReservedFor),
		EndsAt:          p.clock.Format(r.Ends()),
		Duration:        r.Duration,
		PartySize:       r.PartySize,
		Status:          r.Status,
		SpecialRequests: r.SpecialRequests,
	}
}

type NotificationResponse struct {
	ID        uint                   `json:"id"`
	Type      string                 `json:"type"`
	Title     string                 `json:"title"`
	Message   string                 `json:"message"`
	Payload   map[string]interface{} `json:"payload"`
	IsRead    bool                   `json:"is_read"`
	CreatedAt string                 `json:"created_at"`
}

func (p presenter) notification(n *models.Notification) NotificationResponse {
	payload := map[string]interface{}(n.Payload)
	if payload == nil {
		payload = map[string]interface{}{}
	}
	return NotificationResponse{
		ID:        n.ID,
		Type:      n.Type,
		Title:     n.Title,
		Message:   n.Message,
		Payload:   payload,
		IsRead:    n.IsRead,
		CreatedAt: p.clock.Format(n.CreatedAt),
	}
}

type UserResponse struct {
	ID        uint   `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	CreatedAt string `json:"created_at"`
}

func (p presenter) user(u *models.User) UserResponse {
	return UserResponse{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role, CreatedAt: p.clock.Format(u.CreatedAt)}
}

type BillingStatsResponse struct {
	TotalInvoices        int64       `json:"total_invoices"`
	PaidInvoices         int64       `json:"paid_invoices"`
	PendingInvoices      int64       `json:"pending_invoices"`
	CancelledInvoices    int64       `json:"cancelled_invoices"`
	RefundedInvoices     int64       `json:"refunded_invoices"`
	TotalRevenue         json.Number `json:"total_revenue"`
	TotalRevenueDisplay  string      `json:"total_revenue_display"`
	AverageInvoiceAmount json.Number `json:"average_invoice_amount"`
	PaymentRate          json.Number `json:"payment_rate"`
}

func (p presenter) billingStats(s *services.BillingStats) BillingStatsResponse {
	return BillingStatsResponse{
		TotalInvoices:        s.TotalInvoices,
		PaidInvoices:         s.PaidInvoices,
		PendingInvoices:      s.PendingInvoices,
		CancelledInvoices:    s.CancelledInvoices,
		RefundedInvoices:     s.RefundedInvoices,
		TotalRevenue:         utils.MoneyJSON(s.TotalRevenue),
		TotalRevenueDisplay:  utils.FormatCurrency(s.TotalRevenue),
		AverageInvoiceAmount: utils.MoneyJSON(s.AverageInvoiceAmount),
		PaymentRate:          utils.MoneyJSON(s.PaymentRate),
	}
}
