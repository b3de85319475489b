package services

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/yeremiapane/restaurant-ops/models"
	"github.com/yeremiapane/restaurant-ops/utils"
)

type TopItem struct {
	MenuItemID uint            `json:"menu_item_id"`
	Name       string          `json:"name"`
	Quantity   int64           `json:"quantity"`
	Revenue    decimal.Decimal `json:"revenue"`
}

type SalesReport struct {
	From           time.Time                    `json:"from"`
	To             time.Time                    `json:"to"`
	Revenue        decimal.Decimal              `json:"revenue"`
	PaidInvoices   int64                        `json:"paid_invoices"`
	AverageTicket  decimal.Decimal              `json:"average_ticket"`
	OrdersByStatus map[models.OrderStatus]int64 `json:"orders_by_status"`
	TopItems       []TopItem                    `json:"top_items"`
}

type InventoryReport struct {
	TotalIngredients int                 `json:"total_ingredients"`
	LowStock         []models.Ingredient `json:"low_stock"`
	OutOfStock       []models.Ingredient `json:"out_of_stock"`
	TotalStockValue  decimal.Decimal     `json:"total_stock_value"`
}

type ReportService struct {
	store *Store
	clock *utils.Clock
}

func NewReportService(store *Store, clock *utils.Clock) *ReportService {
	return &ReportService{store: store, clock: clock}
}

// Sales covers [from, to). Revenue counts paid invoices only.
func (s *ReportService) Sales(ctx context.Context, from, to time.Time, top int) (*SalesReport, error) {
	if !to.After(from) {
		return nil, invalid("to", "must be after from")
	}
	if top <= 0 {
		top = 5
	}

	db, cancel := s.store.Conn(ctx)
	defer cancel()

	report := &SalesReport{
		From:           from,
		To:             to,
		Revenue:        decimal.Zero,
		AverageTicket:  decimal.Zero,
		OrdersByStatus: map[models.OrderStatus]int64{},
	}

	var paid []models.Invoice
	if err := db.Select("id", "total_amount").
		Where("status = ? AND issued_at >= ? AND issued_at < ?", models.InvoiceStatusPaid, from.UTC(), to.UTC()).
		Find(&paid).Error; err != nil {
		return nil, classify(err)
	}
	for _, inv := range paid {
		report.Revenue = report.Revenue.Add(inv.TotalAmount)
	}
	report.PaidInvoices = int64(len(paid))
	if report.PaidInvoices > 0 {
		report.AverageTicket = utils.RoundMoney(report.Revenue.Div(decimal.NewFromInt(report.PaidInvoices)))
	}

	var counts []struct {
		Status models.OrderStatus
		Count  int64
	}
	if err := db.Model(&models.Order{}).
		Select("status, COUNT(*) AS count").
		Where("created_at >= ? AND created_at < ?", from.UTC(), to.UTC()).
		Group("status").
		Scan(&counts).Error; err != nil {
		return nil, classify(err)
	}
	for _, c := range counts {
		report.OrdersByStatus[c.Status] = c.Count
	}

	var rows []struct {
		MenuItemID uint
		Name       string
		Quantity   int64
		Revenue    decimal.Decimal
	}
	if err := db.Table("order_items").
		Select("order_items.menu_item_id AS menu_item_id, menu_items.name AS name, SUM(order_items.quantity) AS quantity, SUM(order_items.total_price) AS revenue").
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Joins("JOIN menu_items ON menu_items.id = order_items.menu_item_id").
		Where("orders.status <> ? AND orders.created_at >= ? AND orders.created_at < ?", models.OrderStatusCancelled, from.UTC(), to.UTC()).
		Group("order_items.menu_item_id, menu_items.name").
		Order("quantity DESC").
		Limit(top).
		Scan(&rows).Error; err != nil {
		return nil, classify(err)
	}
	report.TopItems = make([]TopItem, 0, len(rows))
	for _, r := range rows {
		report.TopItems = append(report.TopItems, TopItem{
			MenuItemID: r.MenuItemID,
			Name:       r.Name,
			Quantity:   r.Quantity,
			Revenue:    r.Revenue,
		})
	}
	return report, nil
}

func (s *ReportService) Inventory(ctx context.Context) (*InventoryReport, error) {
	db, cancel := s.store.Conn(ctx)
	defer cancel()

	var list []models.Ingredient
	if err := db.Order("name ASC").Find(&list).Error; err != nil {
		return nil, classify(err)
	}

	report := &InventoryReport{
		TotalIngredients: len(list),
		LowStock:         []models.Ingredient{},
		OutOfStock:       []models.Ingredient{},
		TotalStockValue:  decimal.Zero,
	}
	value := decimal.Zero
	for _, ing := range list {
		value = value.Add(ing.CurrentStock.Mul(ing.CostPerUnit))
		switch {
		case ing.CurrentStock.IsZero():
			report.OutOfStock = append(report.OutOfStock, ing)
		case ing.IsLow():
			report.LowStock = append(report.LowStock, ing)
		}
	}
	report.TotalStockValue = utils.RoundMoney(value)
	return report, nil
}
