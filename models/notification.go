package models

import (
	"time"

	"gorm.io/datatypes"
)

// Notification is the stored copy of a published domain event.
type Notification struct {
	ID        uint              `gorm:"primaryKey" json:"id"`
	Type      string            `gorm:"type:varchar(50);not null;index" json:"type"`
	Title     string            `gorm:"type:varchar(100);not null" json:"title"`
	Message   string            `gorm:"type:text;not null" json:"message"`
	Payload   datatypes.JSONMap `json:"payload"`
	IsRead    bool              `gorm:"not null" json:"is_read"`
	CreatedAt time.Time         `gorm:"not null;index" json:"created_at"`
}
