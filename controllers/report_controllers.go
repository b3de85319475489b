package controllers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yeremiapane/restaurant-ops/models"
	"github.com/yeremiapane/restaurant-ops/services"
	"github.com/yeremiapane/restaurant-ops/utils"
)

// ReportController replaces the old admin dashboard endpoints.
type ReportController struct {
	reports *services.ReportService
	view    presenter
}

func NewReportController(reports *services.ReportService, clock *utils.Clock) *ReportController {
	return &ReportController{reports: reports, view: presenter{clock: clock}}
}

type TopItemResponse struct {
	MenuItemID uint        `json:"menu_item_id"`
	Name       string      `json:"name"`
	Quantity   int64       `json:"quantity"`
	Revenue    json.Number `json:"revenue"`
}

type SalesReportResponse struct {
	From           string                       `json:"from"`
	To             string                       `json:"to"`
	Revenue        json.Number                  `json:"revenue"`
	RevenueDisplay string                       `json:"revenue_display"`
	PaidInvoices   int64                        `json:"paid_invoices"`
	AverageTicket  json.Number                  `json:"average_ticket"`
	OrdersByStatus map[models.OrderStatus]int64 `json:"orders_by_status"`
	TopItems       []TopItemResponse            `json:"top_items"`
}

type InventoryReportResponse struct {
	TotalIngredients int                  `json:"total_ingredients"`
	LowStock         []IngredientResponse `json:"low_stock"`
	OutOfStock       []IngredientResponse `json:"out_of_stock"`
	TotalStockValue  json.Number          `json:"total_stock_value"`
}

// GetSalesReport -> GET /reports/sales?from=&to=&top=
// Without a range it covers the current day in the configured timezone.
func (rc *ReportController) GetSalesReport(c *gin.Context) {
	from, err := rc.view.queryTime(c, "from")
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	to, err := rc.view.queryTime(c, "to")
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	start := rc.view.clock.DayStart(rc.view.clock.Now())
	if from != nil {
		start = *from
	}
	end := start.AddDate(0, 0, 1)
	if to != nil {
		end = *to
	}

	report, err := rc.reports.Sales(c.Request.Context(), start, end, queryInt(c, "top", 5))
	if err != nil {
		respondError(c, err)
		return
	}

	top := make([]TopItemResponse, 0, len(report.TopItems))
	for _, t := range report.TopItems {
		top = append(top, TopItemResponse{
			MenuItemID: t.MenuItemID,
			Name:       t.Name,
			Quantity:   t.Quantity,
			Revenue:    utils.MoneyJSON(t.Revenue),
		})
	}
	utils.RespondJSON(c, http.StatusOK, "Sales report", SalesReportResponse{
		From:           rc.view.clock.Format(report.From),
		To:             rc.view.clock.Format(report.To),
		Revenue:        utils.MoneyJSON(report.Revenue),
		RevenueDisplay: utils.FormatCurrency(report.Revenue),
		PaidInvoices:   report.PaidInvoices,
		AverageTicket:  utils.MoneyJSON(report.AverageTicket),
		OrdersByStatus: report.OrdersByStatus,
		TopItems:       top,
	})
}

// GetInventoryReport -> GET /reports/inventory
func (rc *ReportController) GetInventoryReport(c *gin.Context) {
	report, err := rc.reports.Inventory(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Inventory report", InventoryReportResponse{
		TotalIngredients: report.TotalIngredients,
		LowStock:         rc.view.ingredients(report.LowStock),
		OutOfStock:       rc.view.ingredients(report.OutOfStock),
		TotalStockValue:  utils.MoneyJSON(report.TotalStockValue),
	})
}
