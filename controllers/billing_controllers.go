package controllers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/yeremiapane/restaurant-ops/models"
	"github.com/yeremiapane/restaurant-ops/services"
	"github.com/yeremiapane/restaurant-ops/utils"
)

type BillingController struct {
	billing *services.BillingService
	view    presenter
}

func NewBillingController(billing *services.BillingService, clock *utils.Clock) *BillingController {
	return &BillingController{billing: billing, view: presenter{clock: clock}}
}

// CreateInvoice -> POST /billing
func (bc *BillingController) CreateInvoice(c *gin.Context) {
	var req struct {
		OrderID    uint  `json:"order_id" binding:"required"`
		CustomerID *uint `json:"customer_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	invoice, err := bc.billing.CreateInvoice(c.Request.Context(), services.CreateInvoiceInput{
		OrderID:    req.OrderID,
		CustomerID: req.CustomerID,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Invoice created", bc.view.invoice(invoice))
}

// GetInvoices -> GET /billing?payment_status=&customer_id=&from=&to=
func (bc *BillingController) GetInvoices(c *gin.Context) {
	f := services.InvoiceFilter{
		Status: models.InvoiceStatus(c.Query("payment_status")),
		Limit:  queryInt(c, "limit", 50),
		Offset: queryInt(c, "offset", 0),
	}
	var err error
	if f.CustomerID, err = queryUint(c, "customer_id"); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	if f.From, err = bc.view.queryTime(c, "from"); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	if f.To, err = bc.view.queryTime(c, "to"); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	invoices, err := bc.billing.ListInvoices(c.Request.Context(), f)
	if err != nil {
		respondError(c, err)
		return
	}
	out := make([]InvoiceResponse, 0, len(invoices))
	for i := range invoices {
		out = append(out, bc.view.invoice(&invoices[i]))
	}
	utils.RespondJSON(c, http.StatusOK, "List of invoices", out)
}

// GetInvoice -> GET /billing/:id
func (bc *BillingController) GetInvoice(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	invoice, err := bc.billing.GetInvoice(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Invoice detail", bc.view.invoice(invoice))
}

// UpdatePaymentStatus -> PATCH /billing/:id/payment?payment_status=&payment_method=
func (bc *BillingController) UpdatePaymentStatus(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	status := models.InvoiceStatus(c.Query("payment_status"))
	if status == "" {
		utils.RespondError(c, http.StatusBadRequest, fmt.Errorf("payment_status is required"))
		return
	}
	var method *models.PaymentMethod
	if raw := c.Query("payment_method"); raw != "" {
		m := models.PaymentMethod(raw)
		if !m.Valid() {
			utils.RespondError(c, http.StatusBadRequest, fmt.Errorf("invalid payment_method %q", raw))
			return
		}
		method = &m
	}

	invoice, err := bc.billing.UpdatePaymentStatus(c.Request.Context(), id, status, method)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Payment status updated", bc.view.invoice(invoice))
}

// RecordPayment -> POST /billing/:id/payments
func (bc *BillingController) RecordPayment(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Amount    decimal.Decimal      `json:"amount"`
		Method    models.PaymentMethod `json:"payment_method" binding:"required,oneof=cash card transfer qr"`
		Reference string               `json:"reference" binding:"max=100"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	payment, err := bc.billing.RecordPayment(c.Request.Context(), id, services.PaymentInput{
		Amount:    req.Amount,
		Method:    req.Method,
		Reference: req.Reference,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Payment recorded", bc.view.payment(payment))
}

// GetInvoicePDF -> GET /billing/:id/pdf
func (bc *BillingController) GetInvoicePDF(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	pdf, err := bc.billing.RenderInvoicePDF(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`inline; filename="invoice-%d.pdf"`, id))
	c.Data(http.StatusOK, "application/pdf", pdf)
}

// GetStats -> GET /billing/stats/overview?from=&to=
func (bc *BillingController) GetStats(c *gin.Context) {
	from, err := bc.view.queryTime(c, "from")
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	to, err := bc.view.queryTime(c, "to")
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	stats, err := bc.billing.Stats(c.Request.Context(), from, to)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Billing stats", bc.view.billingStats(stats))
}
