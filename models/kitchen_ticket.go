package models

import (
	"time"

	"gorm.io/datatypes"
)

// TicketItem is the snapshot of an order line shown to the kitchen.
type TicketItem struct {
	OrderItemID         uint            `json:"order_item_id"`
	MenuItemID          uint            `json:"menu_item_id"`
	Name                string          `json:"name"`
	Quantity            int             `json:"quantity"`
	Customizations      []Customization `json:"customizations,omitempty"`
	SpecialInstructions string          `json:"special_instructions,omitempty"`
}

type KitchenTicket struct {
	ID            uint                            `gorm:"primaryKey" json:"id"`
	OrderID       uint                            `gorm:"uniqueIndex;not null" json:"order_id"`
	Status        OrderStatus                     `gorm:"type:varchar(20);not null;index" json:"status"`
	Items         datatypes.JSONSlice[TicketItem] `json:"items"`
	EstimatedTime int                             `gorm:"not null;default:0" json:"estimated_time"`
	Priority      TicketPriority                  `gorm:"type:varchar(10);not null;default:'normal'" json:"priority"`
	ChefNotes     string                          `gorm:"type:text" json:"chef_notes"`
	CreatedAt     time.Time                       `gorm:"not null" json:"created_at"`
	UpdatedAt     time.Time                       `gorm:"not null" json:"updated_at"`
}
