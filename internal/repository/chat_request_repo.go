package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/oggyb/fall-in/internal/db"
)

// ChatRequestRepository stores directed chat requests.
type ChatRequestRepository struct {
	db *gorm.DB
}

func NewChatRequestRepository(database *gorm.DB) *ChatRequestRepository {
	return &ChatRequestRepository{db: database}
}

// Create inserts a pending request requester → receiver.
// When a request for that ordered pair already exists (any status) nothing is
// written and the stored row is returned with created=false.
func (r *ChatRequestRepository) Create(ctx context.Context, requesterID, receiverID string) (*db.ChatRequest, bool, error) {
	req := db.ChatRequest{RequesterID: requesterID, ReceiverID: receiverID, Status: db.ChatPending}
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "requester_id"}, {Name: "receiver_id"}},
			DoNothing: true,
		}).
		Create(&req)
	if res.Error != nil && !isUniqueViolation(res.Error) {
		return nil, false, res.Error
	}
	if res.Error == nil && res.RowsAffected > 0 {
		return &req, true, nil
	}
	existing, err := r.FindDirected(ctx, requesterID, receiverID)
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

func (r *ChatRequestRepository) FindByID(ctx context.Context, id string) (*db.ChatRequest, error) {
	var req db.ChatRequest
	if err := r.db.WithContext(ctx).Where("id = ?", id).Take(&req).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

// FindDirected returns the request requester → receiver.
func (r *ChatRequestRepository) FindDirected(ctx context.Context, requesterID, receiverID string) (*db.ChatRequest, error) {
	var req db.ChatRequest
	err := r.db.WithContext(ctx).
		Where("requester_id = ? AND receiver_id = ?", requesterID, receiverID).
		Take(&req).Error
	if err != nil {
		return nil, err
	}
	return &req, nil
}

// SetStatus flips the status of a request, guarded by its current status.
// It reports whether a row changed.
func (r *ChatRequestRepository) SetStatus(ctx context.Context, id, from, to string) (bool, error) {
	res := r.db.WithContext(ctx).Model(&db.ChatRequest{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	return res.RowsAffected > 0, res.Error
}

func (r *ChatRequestRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&db.ChatRequest{}).Error
}

// AcceptedBetween reports whether an accepted request links a and b in either direction.
func (r *ChatRequestRepository) AcceptedBetween(ctx context.Context, a, b string) (bool, error) {
	var req db.ChatRequest
	return findPairRow(
		r.db.WithContext(ctx).Where("status = ?", db.ChatAccepted),
		"requester_id", "receiver_id", a, b, &req,
	)
}

// Pending lists requests waiting on receiverID, newest first.
func (r *ChatRequestRepository) Pending(ctx context.Context, receiverID string) ([]db.ChatRequest, error) {
	var out []db.ChatRequest
	err := r.db.WithContext(ctx).
		Where("receiver_id = ? AND status = ?", receiverID, db.ChatPending).
		Order("created_at DESC, id DESC").
		Find(&out).Error
	return out, err
}

// Accepted lists accepted requests the user is part of, on either side.
func (r *ChatRequestRepository) Accepted(ctx context.Context, userID string) ([]db.ChatRequest, error) {
	var out []db.ChatRequest
	err := r.db.WithContext(ctx).
		Where("status = ?", db.ChatAccepted).
		Where("requester_id = ? OR receiver_id = ?", userID, userID).
		Find(&out).Error
	return out, err
}

// DeletePair removes every request between a and b regardless of status.
func (r *ChatRequestRepository) DeletePair(ctx context.Context, a, b string) (int64, error) {
	res := r.db.WithContext(ctx).Scopes(PairScope("requester_id", "receiver_id", a, b)).Delete(&db.ChatRequest{})
	return res.RowsAffected, res.Error
}
