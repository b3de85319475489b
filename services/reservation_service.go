package services

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/yeremiapane/restaurant-ops/models"
	"github.com/yeremiapane/restaurant-ops/utils"
)

// Parties above this size wait for manual confirmation.
const largePartySize = 8

type ReservationInput struct {
	CustomerID      uint
	TableID         uint
	ReservedFor     time.Time
	Duration        int
	PartySize       int
	SpecialRequests string
}

type ReservationFilter struct {
	TableID    *uint
	CustomerID *uint
	Date       *time.Time
	Status     models.ReservationStatus
}

type ReservationService struct {
	store *Store
	clock *utils.Clock
}

func NewReservationService(store *Store, clock *utils.Clock) *ReservationService {
	return &ReservationService{store: store, clock: clock}
}

// Create books a table. VIP customers are confirmed straight away, large
// parties stay pending, everyone else is confirmed.
func (s *ReservationService) Create(ctx context.Context, in ReservationInput) (*models.Reservation, error) {
	if in.PartySize <= 0 {
		return nil, invalid("party_size", "must be greater than zero")
	}
	if in.Duration == 0 {
		in.Duration = models.DefaultReservationMinutes
	}
	if in.Duration < 0 {
		return nil, invalid("duration", "must be greater than zero")
	}
	if in.ReservedFor.IsZero() {
		return nil, invalid("reserved_for", "is required")
	}
	if in.ReservedFor.Before(s.clock.Now()) {
		return nil, invalid("reserved_for", "must be in the future")
	}

	r := models.Reservation{
		CustomerID:      in.CustomerID,
		TableID:         in.TableID,
		ReservedFor:     in.ReservedFor.UTC(),
		Duration:        in.Duration,
		PartySize:       in.PartySize,
		SpecialRequests: in.SpecialRequests,
	}

	err := s.store.Tx(ctx, func(tx *gorm.DB) error {
		var customer models.Customer
		if err := tx.First(&customer, in.CustomerID).Error; err != nil {
			return lookupAsInvalid(err, "customer_id", "customer %d does not exist", in.CustomerID)
		}
		var table models.Table
		if err := tx.First(&table, in.TableID).Error; err != nil {
			return lookupAsInvalid(err, "table_id", "table %d does not exist", in.TableID)
		}
		if !table.IsActive {
			return invalid("table_id", "table %s is not active", table.Number)
		}
		if in.PartySize > table.Capacity {
			return invalid("party_size", "table %s seats %d", table.Number, table.Capacity)
		}

		var others []models.Reservation
		if err := tx.Where("table_id = ? AND status <> ?", in.TableID, models.ReservationCancelled).
			Where("reserved_for < ?", r.Ends()).
			Find(&others).Error; err != nil {
			return err
		}
		for _, o := range others {
			if o.Ends().After(r.ReservedFor) {
				return fmt.Errorf("%w: table %s is already reserved at %s", ErrConflict, table.Number, s.clock.Format(o.ReservedFor))
			}
		}

		switch {
		case customer.IsVIP:
			r.Status = models.ReservationConfirmed
		case in.PartySize > largePartySize:
			r.Status = models.ReservationPending
		default:
			r.Status = models.ReservationConfirmed
		}
		return tx.Create(&r).Error
	})
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *ReservationService) Get(ctx context.Context, id uint) (*models.Reservation, error) {
	db, cancel := s.store.Conn(ctx)
	defer cancel()

	var r models.Reservation
	if err := db.First(&r, id).Error; err != nil {
		return nil, classify(lookup(err, "reservation", id))
	}
	return &r, nil
}

func (s *ReservationService) List(ctx context.Context, f ReservationFilter) ([]models.Reservation, error) {
	db, cancel := s.store.Conn(ctx)
	defer cancel()

	q := db.Model(&models.Reservation{}).Order("reserved_for ASC")
	if f.TableID != nil {
		q = q.Where("table_id = ?", *f.TableID)
	}
	if f.CustomerID != nil {
		q = q.Where("customer_id = ?", *f.CustomerID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.Date != nil {
		start := s.clock.DayStart(*f.Date)
		q = q.Where("reserved_for >= ? AND reserved_for < ?", start.UTC(), start.AddDate(0, 0, 1).UTC())
	}

	var list []models.Reservation
	if err := q.Find(&list).Error; err != nil {
		return nil, classify(err)
	}
	return list, nil
}

func (s *ReservationService) Confirm(ctx context.Context, id uint) (*models.Reservation, error) {
	return s.setStatus(ctx, id, models.ReservationConfirmed)
}

func (s *ReservationService) Cancel(ctx context.Context, id uint) (*models.Reservation, error) {
	return s.setStatus(ctx, id, models.ReservationCancelled)
}

// setStatus allows pending -> confirmed and pending|confirmed -> cancelled.
func (s *ReservationService) setStatus(ctx context.Context, id uint, target models.ReservationStatus) (*models.Reservation, error) {
	var r models.Reservation
	err := s.store.Tx(ctx, func(tx *gorm.DB) error {
		if err := tx.First(&r, id).Error; err != nil {
			return lookup(err, "reservation", id)
		}
		if r.Status == target {
			return nil
		}
		if r.Status == models.ReservationCancelled ||
			(target == models.ReservationConfirmed && r.Status != models.ReservationPending) {
			return &TransitionError{Entity: "reservation", From: string(r.Status), To: string(target)}
		}
		r.Status = target
		return tx.Model(&r).Update("status", target).Error
	})
	if err != nil {
		return nil, err
	}
	return &r, nil
}
