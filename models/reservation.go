package models

import "time"

const DefaultReservationMinutes = 120

type Reservation struct {
	ID              uint              `gorm:"primaryKey" json:"id"`
	CustomerID      uint              `gorm:"not null;index" json:"customer_id"`
	Customer        *Customer         `gorm:"foreignKey:CustomerID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	TableID         uint              `gorm:"not null;index" json:"table_id"`
	Table           *Table            `gorm:"foreignKey:TableID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	ReservedFor     time.Time         `gorm:"not null;index" json:"reserved_for"`
	Duration        int               `gorm:"not null;default:120" json:"duration"`
	PartySize       int               `gorm:"not null" json:"party_size"`
	Status          ReservationStatus `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	SpecialRequests string            `gorm:"type:text" json:"special_requests"`
	CreatedAt       time.Time         `gorm:"not null" json:"created_at"`
	UpdatedAt       time.Time         `gorm:"not null" json:"updated_at"`
}

// Ends is the end of the reserved slot.
func (r *Reservation) Ends() time.Time {
	return r.ReservedFor.Add(time.Duration(r.Duration) * time.Minute)
}
