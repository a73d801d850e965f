package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/oggyb/fall-in/internal/db"
)

// LikeRepository provides data access methods for the Like model.
// It encapsulates all queries related to one-directional interest between users.
type LikeRepository struct {
	db *gorm.DB
}

// NewLikeRepository creates a new repository bound to the given DB connection.
func NewLikeRepository(database *gorm.DB) *LikeRepository {
	return &LikeRepository{db: database}
}

// Create records liker → liked.
//
// Behavior:
//   - If the (liker_id, liked_id) pair exists the insert is a no-op.
//   - Returns created=false for the no-op so callers can treat duplicates as success.
//
// Example:
//
//	created, err := repo.Create(ctx, alice, bob) // alice liked bob
func (r *LikeRepository) Create(ctx context.Context, likerID, likedID string) (bool, error) {
	like := db.Like{LikerID: likerID, LikedID: likedID}
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "liker_id"}, {Name: "liked_id"}},
			DoNothing: true,
		}).
		Create(&like)
	if res.Error != nil {
		if isUniqueViolation(res.Error) {
			return false, nil
		}
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// Exists reports whether liker has liked liked.
func (r *LikeRepository) Exists(ctx context.Context, likerID, likedID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&db.Like{}).
		Where("liker_id = ? AND liked_id = ?", likerID, likedID).
		Count(&count).Error
	return count > 0, err
}

// LikedIDs returns every user id the given user has liked.
func (r *LikeRepository) LikedIDs(ctx context.Context, likerID string) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).Model(&db.Like{}).Where("liker_id = ?", likerID).Pluck("liked_id", &ids).Error
	return ids, err
}

// DeletePair removes likes between a and b in both directions.
func (r *LikeRepository) DeletePair(ctx context.Context, a, b string) (int64, error) {
	res := r.db.WithContext(ctx).Scopes(PairScope("liker_id", "liked_id", a, b)).Delete(&db.Like{})
	return res.RowsAffected, res.Error
}
