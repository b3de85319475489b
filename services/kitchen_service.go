package services

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/yeremiapane/restaurant-ops/events"
	"github.com/yeremiapane/restaurant-ops/models"
)

// TicketUpdate changes kitchen metadata only; status follows the order.
type TicketUpdate struct {
	EstimatedTime *int
	Priority      *models.TicketPriority
	ChefNotes     *string
}

type KitchenStats struct {
	Preparing            int64   `json:"preparing"`
	Ready                int64   `json:"ready"`
	Served               int64   `json:"served"`
	Cancelled            int64   `json:"cancelled"`
	AverageEstimatedTime float64 `json:"average_estimated_time"`
}

type KitchenService struct {
	store  *Store
	events notifier
	log    *logrus.Logger
}

func NewKitchenService(store *Store, pub events.Publisher, log *logrus.Logger) *KitchenService {
	return &KitchenService{store: store, events: newNotifier(pub, log), log: log}
}

// ListTickets returns tickets oldest first, urgent and high priority ahead of normal.
func (s *KitchenService) ListTickets(ctx context.Context, status models.OrderStatus) ([]models.KitchenTicket, error) {
	db, cancel := s.store.Conn(ctx)
	defer cancel()

	q := db.Model(&models.KitchenTicket{}).
		Order("CASE priority WHEN 'urgent' THEN 0 WHEN 'high' THEN 1 ELSE 2 END").
		Order("created_at ASC")
	if status != "" {
		q = q.Where("status = ?", status)
	}

	var tickets []models.KitchenTicket
	if err := q.Find(&tickets).Error; err != nil {
		return nil, classify(err)
	}
	return tickets, nil
}

func (s *KitchenService) GetTicket(ctx context.Context, orderID uint) (*models.KitchenTicket, error) {
	db, cancel := s.store.Conn(ctx)
	defer cancel()

	var ticket models.KitchenTicket
	if err := db.Where("order_id = ?", orderID).First(&ticket).Error; err != nil {
		return nil, classify(lookup(err, "kitchen ticket for order", orderID))
	}
	return &ticket, nil
}

func (s *KitchenService) UpdateTicket(ctx context.Context, orderID uint, upd TicketUpdate) (*models.KitchenTicket, error) {
	changes := map[string]interface{}{}
	if upd.EstimatedTime != nil {
		if *upd.EstimatedTime < 1 {
			return nil, invalid("estimated_time", "must be at least 1 minute")
		}
		changes["estimated_time"] = *upd.EstimatedTime
	}
	if upd.Priority != nil {
		if !upd.Priority.Valid() {
			return nil, invalid("priority", "must be one of normal, high, urgent")
		}
		changes["priority"] = *upd.Priority
	}
	if upd.ChefNotes != nil {
		changes["chef_notes"] = *upd.ChefNotes
	}
	if len(changes) == 0 {
		return nil, invalid("", "nothing to update")
	}

	var ticket models.KitchenTicket
	err := s.store.Tx(ctx, func(tx *gorm.DB) error {
		if err := tx.Where("order_id = ?", orderID).First(&ticket).Error; err != nil {
			return lookup(err, "kitchen ticket for order", orderID)
		}
		if ticket.Status == models.OrderStatusServed || ticket.Status == models.OrderStatusCancelled {
			return invalid("status", "ticket for order %d is %s and can no longer change", orderID, ticket.Status)
		}
		if err := tx.Model(&ticket).Updates(changes).Error; err != nil {
			return err
		}
		return tx.First(&ticket, ticket.ID).Error
	})
	if err != nil {
		return nil, err
	}

	s.events.emit(ctx, events.Event{
		Type:    events.KitchenTicketUpdated,
		Title:   "Kitchen ticket updated",
		Message: fmt.Sprintf("Ticket for order %d updated", orderID),
		Data: map[string]interface{}{
			"order_id":       orderID,
			"priority":       ticket.Priority,
			"estimated_time": ticket.EstimatedTime,
		},
	})
	return &ticket, nil
}

func (s *KitchenService) Stats(ctx context.Context) (*KitchenStats, error) {
	db, cancel := s.store.Conn(ctx)
	defer cancel()

	var rows []struct {
		Status models.OrderStatus
		Count  int64
	}
	if err := db.Model(&models.KitchenTicket{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, classify(err)
	}

	stats := &KitchenStats{}
	for _, r := range rows {
		switch r.Status {
		case models.OrderStatusPreparing:
			stats.Preparing = r.Count
		case models.OrderStatusReady:
			stats.Ready = r.Count
		case models.OrderStatusServed:
			stats.Served = r.Count
		case models.OrderStatusCancelled:
			stats.Cancelled = r.Count
		}
	}

	var avg struct{ Avg *float64 }
	if err := db.Model(&models.KitchenTicket{}).
		Select("AVG(estimated_time) AS avg").
		Where("status = ?", models.OrderStatusPreparing).
		Scan(&avg).Error; err != nil {
		return nil, classify(err)
	}
	if avg.Avg != nil {
		stats.AverageEstimatedTime = *avg.Avg
	}
	return stats, nil
}
