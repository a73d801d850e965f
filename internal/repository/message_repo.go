package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/oggyb/fall-in/internal/db"
)

// MessageRepository is the append-only per-pair message log.
type MessageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(database *gorm.DB) *MessageRepository {
	return &MessageRepository{db: database}
}

func (r *MessageRepository) Create(ctx context.Context, m *db.Message) error {
	return r.db.WithContext(ctx).Create(m).Error
}

// Latest returns the newest message between a and b, or nil when there is none.
func (r *MessageRepository) Latest(ctx context.Context, a, b string) (*db.Message, error) {
	var m db.Message
	err := r.db.WithContext(ctx).
		Scopes(PairScope("sender_id", "receiver_id", a, b)).
		Order("sent_at DESC, id DESC").
		Take(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// Since returns messages between a and b strictly after t, oldest first.
func (r *MessageRepository) Since(ctx context.Context, a, b string, t time.Time) ([]db.Message, error) {
	var out []db.Message
	err := r.db.WithContext(ctx).
		Scopes(PairScope("sender_id", "receiver_id", a, b)).
		Where("sent_at > ?", t).
		Order("sent_at ASC, id ASC").
		Find(&out).Error
	return out, err
}

// All returns the full history between a and b, oldest first.
func (r *MessageRepository) All(ctx context.Context, a, b string) ([]db.Message, error) {
	var out []db.Message
	err := r.db.WithContext(ctx).
		Scopes(PairScope("sender_id", "receiver_id", a, b)).
		Order("sent_at ASC, id ASC").
		Find(&out).Error
	return out, err
}

// MarkRead flips unread messages sent by senderID to receiverID.
func (r *MessageRepository) MarkRead(ctx context.Context, senderID, receiverID string) (int64, error) {
	res := r.db.WithContext(ctx).Model(&db.Message{}).
		Where("sender_id = ? AND receiver_id = ? AND is_read = ?", senderID, receiverID, false).
		Update("is_read", true)
	return res.RowsAffected, res.Error
}

// UnreadFrom counts unread messages senderID sent to receiverID.
func (r *MessageRepository) UnreadFrom(ctx context.Context, senderID, receiverID string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&db.Message{}).
		Where("sender_id = ? AND receiver_id = ? AND is_read = ?", senderID, receiverID, false).
		Count(&n).Error
	return n, err
}

func (r *MessageRepository) DeletePair(ctx context.Context, a, b string) (int64, error) {
	res := r.db.WithContext(ctx).Scopes(PairScope("sender_id", "receiver_id", a, b)).Delete(&db.Message{})
	return res.RowsAffected, res.Error
}
