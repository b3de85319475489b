package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type MenuItem struct {
	ID              uint                        `gorm:"primaryKey" json:"id"`
	CategoryID      *uint                       `gorm:"index" json:"category_id,omitempty"`
	Category        *MenuCategory               `gorm:"foreignKey:CategoryID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL" json:"-"`
	Name            string                      `gorm:"type:varchar(255);not null" json:"name"`
	Description     string                      `gorm:"type:text" json:"description"`
	Price           decimal.Decimal             `gorm:"type:decimal(12,2);not null" json:"price"`
	Cost            decimal.Decimal             `gorm:"type:decimal(12,2);not null;default:0" json:"cost"`
	PreparationTime int                         `gorm:"not null;default:0" json:"preparation_time"`
	IsAvailable     bool                        `gorm:"not null" json:"is_available"`
	IsFeatured      bool                        `gorm:"not null" json:"is_featured"`
	ImageURL        string                      `gorm:"type:varchar(255)" json:"image_url"`
	AllergenInfo    datatypes.JSONSlice[string] `json:"allergen_info"`
	NutritionalInfo datatypes.JSONMap           `json:"nutritional_info"`
	CreatedAt       time.Time                   `gorm:"not null" json:"created_at"`
	UpdatedAt       time.Time                   `gorm:"not null" json:"updated_at"`
}
