package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/omar-ramo/yawm/internal/domain"
)

// GormNotificationRepository implements NotificationRepository using GORM.
type GormNotificationRepository struct {
	db *gorm.DB
}

// NewGormNotificationRepository creates a new GORM-backed notification repository.
func NewGormNotificationRepository(db *gorm.DB) *GormNotificationRepository {
	return &GormNotificationRepository{db: db}
}

func (r *GormNotificationRepository) Create(ctx context.Context, n *domain.Notification) error {
	return r.db.WithContext(ctx).Omit("Actor").Create(n).Error
}

func (r *GormNotificationRepository) Count(ctx context.Context, recipientID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Notification{}).
		Where("recipient_id = ?", recipientID).
		Count(&count).Error
	return count, err
}

// List returns a recipient's notifications newest first.
func (r *GormNotificationRepository) List(ctx context.Context, recipientID string, offset, limit int) ([]domain.Notification, error) {
	out := []domain.Notification{}
	err := r.db.WithContext(ctx).
		Preload("Actor").
		Where("recipient_id = ?", recipientID).
		Order("created_at DESC, id DESC").
		Offset(offset).Limit(limit).
		Find(&out).Error
	return out, err
}

func (r *GormNotificationRepository) CountUnread(ctx context.Context, recipientID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Notification{}).
		Where("recipient_id = ? AND unread = ?", recipientID, true).
		Count(&count).Error
	return count, err
}

// MarkRead marks one notification read. Marking an already read notification succeeds.
func (r *GormNotificationRepository) MarkRead(ctx context.Context, recipientID, id string) error {
	var n domain.Notification
	err := r.db.WithContext(ctx).
		Select("id").
		Where("id = ? AND recipient_id = ?", id, recipientID).
		First(&n).Error
	if err != nil {
		if isNotFound(err) {
			return ErrNotificationNotFound
		}
		return err
	}

	return r.db.WithContext(ctx).Model(&domain.Notification{}).
		Where("id = ?", id).
		UpdateColumn("unread", false).Error
}

func (r *GormNotificationRepository) MarkAllRead(ctx context.Context, recipientID string) (int64, error) {
	result := r.db.WithContext(ctx).Model(&domain.Notification{}).
		Where("recipient_id = ? AND unread = ?", recipientID, true).
		UpdateColumn("unread", false)
	return result.RowsAffected, result.Error
}

var _ NotificationRepository = (*GormNotificationRepository)(nil)
