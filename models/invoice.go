package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Invoice freezes the order's totals at issuance.
// PaidAt is set exactly when Status is paid.
type Invoice struct {
	ID             uint            `gorm:"primaryKey" json:"id"`
	InvoiceNumber  string          `gorm:"type:varchar(40);uniqueIndex;not null" json:"invoice_number"`
	OrderID        *uint           `gorm:"uniqueIndex" json:"order_id,omitempty"`
	Order          *Order          `gorm:"foreignKey:OrderID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL" json:"-"`
	CustomerID     *uint           `gorm:"index" json:"customer_id,omitempty"`
	Customer       *Customer       `gorm:"foreignKey:CustomerID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL" json:"-"`
	Subtotal       decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"subtotal"`
	TaxAmount      decimal.Decimal `gorm:"type:decimal(14,6);not null" json:"tax_amount"`
	DiscountAmount decimal.Decimal `gorm:"type:decimal(14,6);not null;default:0" json:"discount_amount"`
	TotalAmount    decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total_amount"`
	Status         InvoiceStatus   `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	PaymentMethod  *PaymentMethod  `gorm:"type:varchar(20)" json:"payment_method,omitempty"`
	Version        int             `gorm:"not null;default:1" json:"version"`
	IssuedAt       time.Time       `gorm:"not null;index" json:"issued_at"`
	PaidAt         *time.Time      `json:"paid_at,omitempty"`
	CreatedAt      time.Time       `gorm:"not null" json:"created_at"`
	UpdatedAt      time.Time       `gorm:"not null" json:"updated_at"`
	Payments       []Payment       `gorm:"foreignKey:InvoiceID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"payments,omitempty"`
}
