package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/oggyb/fall-in/internal/db"
)

// NotificationRepository is the per-recipient event log.
type NotificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(database *gorm.DB) *NotificationRepository {
	return &NotificationRepository{db: database}
}

func (r *NotificationRepository) Create(ctx context.Context, n *db.Notification) error {
	return r.db.WithContext(ctx).Create(n).Error
}

// Recent returns the newest notifications of userID.
func (r *NotificationRepository) Recent(ctx context.Context, userID string, limit int) ([]db.Notification, error) {
	var out []db.Notification
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&out).Error
	return out, err
}

// MarkAllRead flips every unread notification of userID.
func (r *NotificationRepository) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	res := r.db.WithContext(ctx).Model(&db.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Update("is_read", true)
	return res.RowsAffected, res.Error
}

// DeleteOwned removes notification id if it belongs to userID.
func (r *NotificationRepository) DeleteOwned(ctx context.Context, id, userID string) (int64, error) {
	res := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&db.Notification{})
	return res.RowsAffected, res.Error
}

func (r *NotificationRepository) UnreadCount(ctx context.Context, userID string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&db.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&n).Error
	return n, err
}

// DeleteBetween removes notifications exchanged between a and b in both
// directions. With types given only those types are removed.
func (r *NotificationRepository) DeleteBetween(ctx context.Context, a, b string, types ...string) (int64, error) {
	q := r.db.WithContext(ctx).Scopes(PairScope("user_id", "from_user_id", a, b))
	if len(types) > 0 {
		q = q.Where("type IN ?", types)
	}
	res := q.Delete(&db.Notification{})
	return res.RowsAffected, res.Error
}

// Between lists notifications exchanged between a and b, oldest first.
func (r *NotificationRepository) Between(ctx context.Context, a, b string) ([]db.Notification, error) {
	var out []db.Notification
	err := r.db.WithContext(ctx).
		Scopes(PairScope("user_id", "from_user_id", a, b)).
		Order("created_at ASC, id ASC").
		Find(&out).Error
	return out, err
}
