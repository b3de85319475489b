package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order owns its items; subtotal, tax and total are derived, never set by callers.
type Order struct {
	ID                  uint            `gorm:"primaryKey" json:"id"`
	OrderNumber         string          `gorm:"type:varchar(40);uniqueIndex;not null" json:"order_number"`
	CustomerID          *uint           `gorm:"index" json:"customer_id,omitempty"`
	Customer            *Customer       `gorm:"foreignKey:CustomerID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL" json:"-"`
	TableID             *uint           `gorm:"index" json:"table_id,omitempty"`
	Table               *Table          `gorm:"foreignKey:TableID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL" json:"-"`
	OrderType           OrderType       `gorm:"type:varchar(20);not null" json:"order_type"`
	Status              OrderStatus     `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	Subtotal            decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"subtotal"`
	TaxAmount           decimal.Decimal `gorm:"type:decimal(14,6);not null" json:"tax_amount"`
	DiscountAmount      decimal.Decimal `gorm:"type:decimal(14,6);not null;default:0" json:"discount_amount"`
	TotalAmount         decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total_amount"`
	DiscountCode        *string         `gorm:"type:varchar(50)" json:"discount_code,omitempty"`
	SpecialInstructions string          `gorm:"type:text" json:"special_instructions"`
	Version             int             `gorm:"not null;default:1" json:"version"`
	CreatedAt           time.Time       `gorm:"not null;index" json:"created_at"`
	UpdatedAt           time.Time       `gorm:"not null" json:"updated_at"`
	Items               []OrderItem     `gorm:"foreignKey:OrderID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"items"`
}
