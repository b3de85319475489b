package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountFixed      DiscountType = "fixed"
)

type Discount struct {
	ID                uint             `gorm:"primaryKey" json:"id"`
	Code              string           `gorm:"type:varchar(50);uniqueIndex;not null" json:"code"`
	Name              string           `gorm:"type:varchar(100);not null" json:"name"`
	ValueType         DiscountType     `gorm:"type:varchar(20);not null" json:"value_type"`
	Value             decimal.Decimal  `gorm:"type:decimal(12,2);not null" json:"value"`
	MinOrderAmount    decimal.Decimal  `gorm:"type:decimal(12,2);not null;default:0" json:"min_order_amount"`
	MaxDiscountAmount *decimal.Decimal `gorm:"type:decimal(12,2)" json:"max_discount_amount,omitempty"`
	UsageLimit        *int             `json:"usage_limit,omitempty"`
	UsedCount         int              `gorm:"not null;default:0" json:"used_count"`
	ValidFrom         *time.Time       `json:"valid_from,omitempty"`
	ValidUntil        *time.Time       `json:"valid_until,omitempty"`
	IsActive          bool             `gorm:"not null" json:"is_active"`
	CreatedAt         time.Time        `gorm:"not null" json:"created_at"`
	UpdatedAt         time.Time        `gorm:"not null" json:"updated_at"`
}
