package repository

import (
	"context"

	"github.com/pavelchamgl/analog-threads/internal/models"

	"gorm.io/gorm"
)

// NotificationRepository persists delivered notifications for later reading.
type NotificationRepository interface {
	Create(ctx context.Context, notification *models.Notification) error
	ListByOwner(ctx context.Context, ownerID uint, limit int, selectedID uint) ([]models.Notification, int64, error)
}

type notificationRepository struct {
	db *gorm.DB
}

// NewNotificationRepository creates a new notification repository
func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) Create(ctx context.Context, notification *models.Notification) error {
	if err := r.db.WithContext(ctx).Create(notification).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *notificationRepository) ListByOwner(ctx context.Context, ownerID uint, limit int, selectedID uint) ([]models.Notification, int64, error) {
	var notifications []models.Notification
	var count int64

	base := r.db.WithContext(ctx).Model(&models.Notification{}).
		Where("owner_id = ?", ownerID)

	if err := base.Count(&count).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}

	q := base.Order("id DESC").Limit(limit)
	if selectedID > 0 {
		q = q.Where("id <= ?", selectedID)
	}
	if err := q.Find(&notifications).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}
	return notifications, count, nil
}
