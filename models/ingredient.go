package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Ingredient struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	Name         string          `gorm:"type:varchar(100);uniqueIndex;not null" json:"name"`
	Unit         string          `gorm:"type:varchar(20);not null" json:"unit"`
	CostPerUnit  decimal.Decimal `gorm:"type:decimal(12,4);not null;default:0" json:"cost_per_unit"`
	CurrentStock decimal.Decimal `gorm:"type:decimal(14,3);not null;default:0" json:"current_stock"`
	MinStock     decimal.Decimal `gorm:"type:decimal(14,3);not null;default:0" json:"min_stock"`
	Supplier     string          `gorm:"type:varchar(100)" json:"supplier"`
	IsActive     bool            `gorm:"not null" json:"is_active"`
	Version      int             `gorm:"not null;default:1" json:"version"`
	CreatedAt    time.Time       `gorm:"not null" json:"created_at"`
	UpdatedAt    time.Time       `gorm:"not null" json:"updated_at"`
}

func (i *Ingredient) IsLow() bool {
	return i.CurrentStock.LessThan(i.MinStock)
}

// InventoryMovement is an append-only ledger row. Quantity is the delta that
// was applied; RequestedQuantity is what the caller asked for.
type InventoryMovement struct {
	ID                uint            `gorm:"primaryKey" json:"id"`
	IngredientID      uint            `gorm:"not null;index" json:"ingredient_id"`
	MovementType      MovementType    `gorm:"type:varchar(20);not null" json:"movement_type"`
	Quantity          decimal.Decimal `gorm:"type:decimal(14,3);not null" json:"quantity"`
	RequestedQuantity decimal.Decimal `gorm:"type:decimal(14,3);not null" json:"requested_quantity"`
	StockAfter        decimal.Decimal `gorm:"type:decimal(14,3);not null" json:"stock_after"`
	Reason            string          `gorm:"type:text" json:"reason"`
	Actor             string          `gorm:"type:varchar(100)" json:"actor"`
	CreatedAt         time.Time       `gorm:"not null;index" json:"created_at"`
}
