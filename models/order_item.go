package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Customization is one ordered key-value choice on a line item, e.g. {"size": "large"}.
type Customization struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

type OrderItem struct {
	ID                  uint                               `gorm:"primaryKey" json:"id"`
	OrderID             uint                               `gorm:"not null;index" json:"order_id"`
	MenuItemID          uint                               `gorm:"not null;index" json:"menu_item_id"`
	MenuItem            *MenuItem                          `gorm:"foreignKey:MenuItemID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"-"`
	Quantity            int                                `gorm:"not null" json:"quantity"`
	UnitPrice           decimal.Decimal                    `gorm:"type:decimal(12,2);not null" json:"unit_price"`
	TotalPrice          decimal.Decimal                    `gorm:"type:decimal(12,2);not null" json:"total_price"`
	Customizations      datatypes.JSONSlice[Customization] `json:"customizations"`
	SpecialInstructions string                             `gorm:"type:text" json:"special_instructions"`
	Status              OrderStatus                        `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	CreatedAt           time.Time                          `gorm:"not null" json:"created_at"`
	UpdatedAt           time.Time                          `gorm:"not null" json:"updated_at"`
}

// LineTotal is quantity × unit price, unrounded.
func (i *OrderItem) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// BeforeSave keeps total_price derived from quantity and unit price.
func (i *OrderItem) BeforeSave(tx *gorm.DB) error {
	i.TotalPrice = i.LineTotal()
	return nil
}
