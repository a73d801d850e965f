package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/oggyb/fall-in/internal/db"
)

// MatchRepository stores mutual matches in canonical (min, max) order.
type MatchRepository struct {
	db *gorm.DB
}

func NewMatchRepository(database *gorm.DB) *MatchRepository {
	return &MatchRepository{db: database}
}

// Create inserts the match for {a, b} unless it already exists.
// The returned row is the stored one in both cases.
func (r *MatchRepository) Create(ctx context.Context, a, b string, at time.Time) (*db.Match, bool, error) {
	u1, u2 := CanonicalPair(a, b)
	m := db.Match{User1ID: u1, User2ID: u2, MatchedAt: at}
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user1_id"}, {Name: "user2_id"}},
			DoNothing: true,
		}).
		Create(&m)
	if res.Error != nil && !isUniqueViolation(res.Error) {
		return nil, false, res.Error
	}
	if res.Error == nil && res.RowsAffected > 0 {
		return &m, true, nil
	}
	existing, err := r.Find(ctx, a, b)
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

// Find returns the match for {a, b} or gorm.ErrRecordNotFound.
func (r *MatchRepository) Find(ctx context.Context, a, b string) (*db.Match, error) {
	var m db.Match
	found, err := findPairRow(r.db.WithContext(ctx), "user1_id", "user2_id", a, b, &m)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, gorm.ErrRecordNotFound
	}
	return &m, nil
}

func (r *MatchRepository) Exists(ctx context.Context, a, b string) (bool, error) {
	var m db.Match
	return findPairRow(r.db.WithContext(ctx), "user1_id", "user2_id", a, b, &m)
}

// ForUser lists the user's matches, newest first. limit <= 0 means all.
func (r *MatchRepository) ForUser(ctx context.Context, userID string, limit int) ([]db.Match, error) {
	q := r.db.WithContext(ctx).
		Where("user1_id = ? OR user2_id = ?", userID, userID).
		Order("matched_at DESC, id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var out []db.Match
	err := q.Find(&out).Error
	return out, err
}

// PartnerIDs returns the other member of each of the user's matches.
func (r *MatchRepository) PartnerIDs(ctx context.Context, userID string) ([]string, error) {
	matches, err := r.ForUser(ctx, userID, 0)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(matches))
	for i := range matches {
		ids = append(ids, matches[i].Other(userID))
	}
	return ids, nil
}

// DeletePair removes the match for {a, b}.
func (r *MatchRepository) DeletePair(ctx context.Context, a, b string) (int64, error) {
	res := r.db.WithContext(ctx).Scopes(PairScope("user1_id", "user2_id", a, b)).Delete(&db.Match{})
	return res.RowsAffected, res.Error
}
