package services

import (
	"context"

	"github.com/yeremiapane/restaurant-ops/models"
)

type NotificationService struct {
	store *Store
}

func NewNotificationService(store *Store) *NotificationService {
	return &NotificationService{store: store}
}

func (s *NotificationService) List(ctx context.Context, eventType string, unreadOnly bool, limit int) ([]models.Notification, error) {
	db, cancel := s.store.Conn(ctx)
	defer cancel()

	q := db.Model(&models.Notification{}).Order("created_at DESC, id DESC")
	if eventType != "" {
		q = q.Where("type = ?", eventType)
	}
	if unreadOnly {
		q = q.Where("is_read = ?", false)
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	var list []models.Notification
	if err := q.Limit(limit).Find(&list).Error; err != nil {
		return nil, classify(err)
	}
	return list, nil
}

func (s *NotificationService) MarkRead(ctx context.Context, id uint) error {
	db, cancel := s.store.Conn(ctx)
	defer cancel()

	var n models.Notification
	if err := db.Select("id").First(&n, id).Error; err != nil {
		return classify(lookup(err, "notification", id))
	}
	return classify(db.Model(&n).Update("is_read", true).Error)
}
