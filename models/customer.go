package models

import (
	"time"

	"gorm.io/datatypes"
)

type Customer struct {
	ID            uint                        `gorm:"primaryKey" json:"id"`
	FirstName     string                      `gorm:"type:varchar(100);not null" json:"first_name"`
	LastName      string                      `gorm:"type:varchar(100);not null" json:"last_name"`
	Email         *string                     `gorm:"type:varchar(255);uniqueIndex" json:"email,omitempty"`
	Phone         *string                     `gorm:"type:varchar(30)" json:"phone,omitempty"`
	LoyaltyPoints int                         `gorm:"not null;default:0" json:"loyalty_points"`
	IsVIP         bool                        `gorm:"column:is_vip;not null" json:"is_vip"`
	Allergies     datatypes.JSONSlice[string] `json:"allergies"`
	CreatedAt     time.Time                   `gorm:"not null" json:"created_at"`
	UpdatedAt     time.Time                   `gorm:"not null" json:"updated_at"`
}

func (c *Customer) FullName() string {
	return c.FirstName + " " + c.LastName
}
