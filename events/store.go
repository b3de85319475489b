package events

import (
	"context"

	"github.com/yeremiapane/restaurant-ops/models"
	"gorm.io/gorm"
)

// NotificationStore persists every event as a notification row.
type NotificationStore struct {
	DB *gorm.DB
}

func NewNotificationStore(db *gorm.DB) *NotificationStore {
	return &NotificationStore{DB: db}
}

func (s *NotificationStore) Publish(ctx context.Context, evt Event) error {
	n := models.Notification{
		Type:      string(evt.Type),
		Title:     evt.Title,
		Message:   evt.Message,
		Payload:   evt.Data,
		CreatedAt: evt.OccurredAt,
	}
	return s.DB.WithContext(ctx).Create(&n).Error
}
