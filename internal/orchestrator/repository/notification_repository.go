package repository

import (
	"context"
	"time"

	"golang-ea-automation/internal/entity"

	"gorm.io/gorm"
)

// NotificationRepository defines data access for user notifications.
type NotificationRepository interface {
	Create(ctx context.Context, n *entity.Notification) error
	CreateBatch(ctx context.Context, ns []entity.Notification) error
	List(ctx context.Context, userID uint, unreadOnly bool, limit int) ([]entity.Notification, error)
	MarkRead(ctx context.Context, id uint, userID *uint, at time.Time) (int64, error)
	MarkAllRead(ctx context.Context, userID uint, at time.Time) (int64, error)
	CountUnread(ctx context.Context, userID uint) (int64, error)
}

// NewNotificationRepository creates a new GORM-based notification repository.
func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

type notificationRepository struct {
	db *gorm.DB
}

func (r *notificationRepository) Create(ctx context.Context, n *entity.Notification) error {
	return r.db.WithContext(ctx).Create(n).Error
}

func (r *notificationRepository) CreateBatch(ctx context.Context, ns []entity.Notification) error {
	if len(ns) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).CreateInBatches(ns, 100).Error
}

func (r *notificationRepository) List(ctx context.Context, userID uint, unreadOnly bool, limit int) ([]entity.Notification, error) {
	q := r.db.WithContext(ctx).Where("user_id = ?", userID)
	if unreadOnly {
		q = q.Where("is_read = ?", false)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	var out []entity.Notification
	err := q.Order("created_at DESC, id DESC").Find(&out).Error
	return out, err
}

// MarkRead marks one notification read. When userID is set only that user's notification matches.
func (r *notificationRepository) MarkRead(ctx context.Context, id uint, userID *uint, at time.Time) (int64, error) {
	q := r.db.WithContext(ctx).Model(&entity.Notification{}).Where("id = ?", id)
	if userID != nil {
		q = q.Where("user_id = ?", *userID)
	}
	res := q.Updates(map[string]interface{}{"is_read": true, "read_at": at})
	return res.RowsAffected, res.Error
}

func (r *notificationRepository) MarkAllRead(ctx context.Context, userID uint, at time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Model(&entity.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Updates(map[string]interface{}{"is_read": true, "read_at": at})
	return res.RowsAffected, res.Error
}

func (r *notificationRepository) CountUnread(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&count).Error
	return count, err
}
