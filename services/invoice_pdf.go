package services

import (
	"bytes"
	"context"
	"fmt"

	"github.com/go-pdf/fpdf"

	"github.com/yeremiapane/restaurant-ops/models"
	"github.com/yeremiapane/restaurant-ops/utils"
)

// RenderInvoicePDF lays out the invoice with its order lines.
func (s *BillingService) RenderInvoicePDF(ctx context.Context, id uint) ([]byte, error) {
	invoice, err := s.GetInvoice(ctx, id)
	if err != nil {
		return nil, err
	}

	var lines []invoiceLine
	if invoice.OrderID != nil {
		lines, err = s.invoiceLines(ctx, *invoice.OrderID)
		if err != nil {
			return nil, err
		}
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(invoice.InvoiceNumber, false)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(0, 10, "INVOICE "+invoice.InvoiceNumber)
	pdf.Ln(10)

	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, "Issued: "+s.clock.Format(invoice.IssuedAt))
	pdf.Ln(6)
	pdf.Cell(0, 6, "Status: "+string(invoice.Status))
	pdf.Ln(6)
	if invoice.PaidAt != nil {
		pdf.Cell(0, 6, "Paid: "+s.clock.Format(*invoice.PaidAt))
		pdf.Ln(6)
	}
	pdf.Ln(4)

	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(90, 7, "Item", "B", 0, "L", false, 0, "")
	pdf.CellFormat(20, 7, "Qty", "B", 0, "R", false, 0, "")
	pdf.CellFormat(35, 7, "Unit price", "B", 0, "R", false, 0, "")
	pdf.CellFormat(35, 7, "Total", "B", 1, "R", false, 0, "")

	pdf.SetFont("Arial", "", 10)
	for _, l := range lines {
		pdf.CellFormat(90, 6, l.name, "", 0, "L", false, 0, "")
		pdf.CellFormat(20, 6, fmt.Sprintf("%d", l.item.Quantity), "", 0, "R", false, 0, "")
		pdf.CellFormat(35, 6, utils.FormatCurrency(l.item.UnitPrice), "", 0, "R", false, 0, "")
		pdf.CellFormat(35, 6, utils.FormatCurrency(l.item.TotalPrice), "", 1, "R", false, 0, "")
	}
	pdf.Ln(4)

	totals := []struct {
		label string
		value string
	}{
		{"Subtotal", utils.FormatCurrency(invoice.Subtotal)},
		{"Tax", utils.FormatCurrency(invoice.TaxAmount)},
		{"Discount", utils.FormatCurrency(invoice.DiscountAmount.Neg())},
		{"Total", utils.FormatCurrency(invoice.TotalAmount)},
	}
	for i, t := range totals {
		if i == len(totals)-1 {
			pdf.SetFont("Arial", "B", 11)
		}
		pdf.CellFormat(145, 6, t.label, "", 0, "R", false, 0, "")
		pdf.CellFormat(35, 6, t.value, "", 1, "R", false, 0, "")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render invoice pdf: %w", err)
	}
	return buf.Bytes(), nil
}

type invoiceLine struct {
	item models.OrderItem
	name string
}

func (s *BillingService) invoiceLines(ctx context.Context, orderID uint) ([]invoiceLine, error) {
	db, cancel := s.store.Conn(ctx)
	defer cancel()

	var items []models.OrderItem
	if err := db.Preload("MenuItem").Where("order_id = ?", orderID).Order("id ASC").Find(&items).Error; err != nil {
		return nil, classify(err)
	}

	lines := make([]invoiceLine, 0, len(items))
	for _, it := range items {
		name := fmt.Sprintf("Item #%d", it.MenuItemID)
		if it.MenuItem != nil {
			name = it.MenuItem.Name
		}
		lines = append(lines, invoiceLine{item: it, name: name})
	}
	return lines, nil
}
