package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/oggyb/fall-in/internal/db"
	"github.com/oggyb/fall-in/internal/utils/pagination"
)

// ConfessionRepository provides data access for the anonymous confession feed.
type ConfessionRepository struct {
	db *gorm.DB
}

func NewConfessionRepository(database *gorm.DB) *ConfessionRepository {
	return &ConfessionRepository{db: database}
}

func (r *ConfessionRepository) Create(ctx context.Context, c *db.Confession) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *ConfessionRepository) FindByID(ctx context.Context, id string) (*db.Confession, error) {
	var c db.Confession
	if err := r.db.WithContext(ctx).Where("id = ?", id).Take(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

// Feed returns confessions newest first.
//
// Behavior:
//   - category "" means every category.
//   - Ordered by created_at DESC, id DESC.
//   - Supports cursor-based pagination via paginationToken.
//
// Example:
//
//	repo.Feed(ctx, "crush", nil, 20) // first 20 crush confessions
func (r *ConfessionRepository) Feed(
	ctx context.Context,
	category string,
	paginationToken *string,
	limit int,
) ([]db.Confession, *string, error) {
	cursor, err := pagination.Decode(getString(paginationToken))
	if err != nil {
		return nil, nil, err
	}

	query := r.db.WithContext(ctx).
		Order("created_at DESC, id DESC").
		Limit(limit + 1)
	if category != "" {
		query = query.Where("category = ?", category)
	}
	if !cursor.Empty() {
		ts := cursor.Time()
		query = query.Where("(created_at < ? OR (created_at = ? AND id < ?))", ts, ts, cursor.ID)
	}

	var out []db.Confession
	if err := query.Find(&out).Error; err != nil {
		return nil, nil, err
	}

	var nextToken *string
	if len(out) > limit {
		last := out[limit-1]
		token, _ := pagination.Encode(pagination.At(last.ID, last.CreatedAt))
		nextToken = &token
		out = out[:limit]
	}
	return out, nextToken, nil
}

// IncrementViews bumps the view counter of id.
func (r *ConfessionRepository) IncrementViews(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Model(&db.Confession{}).Where("id = ?", id).
		UpdateColumn("views", gorm.Expr("views + 1"))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Like records userID liking confession id once, incrementing the counter on
// the first like only. It reports whether the like was new.
func (r *ConfessionRepository) Like(ctx context.Context, id, userID string) (bool, error) {
	created := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "confession_id"}, {Name: "user_id"}},
			DoNothing: true,
		}).Create(&db.ConfessionLike{ConfessionID: id, UserID: userID})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		created = true
		return tx.Model(&db.Confession{}).Where("id = ?", id).
			UpdateColumn("likes", gorm.Expr("likes + 1")).Error
	})
	return created, err
}

func (r *ConfessionRepository) CreateComment(ctx context.Context, c *db.ConfessionComment) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *ConfessionRepository) FindComment(ctx context.Context, id string) (*db.ConfessionComment, error) {
	var c db.ConfessionComment
	if err := r.db.WithContext(ctx).Where("id = ?", id).Take(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

// Comments lists every comment of a confession, oldest first.
func (r *ConfessionRepository) Comments(ctx context.Context, confessionID string) ([]db.ConfessionComment, error) {
	var out []db.ConfessionComment
	err := r.db.WithContext(ctx).
		Where("confession_id = ?", confessionID).
		Order("created_at ASC, id ASC").
		Find(&out).Error
	return out, err
}

// CommentCounts returns the number of comments per confession id.
func (r *ConfessionRepository) CommentCounts(ctx context.Context, ids []string) (map[string]int64, error) {
	out := make(map[string]int64, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []struct {
		ConfessionID string
		N            int64
	}
	err := r.db.WithContext(ctx).Model(&db.ConfessionComment{}).
		Select("confession_id, COUNT(*) AS n").
		Where("confession_id IN ?", ids).
		Group("confession_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.ConfessionID] = row.N
	}
	return out, nil
}

// LikeComment records userID liking comment id once.
func (r *ConfessionRepository) LikeComment(ctx context.Context, id, userID string) (bool, error) {
	created := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "comment_id"}, {Name: "user_id"}},
			DoNothing: true,
		}).Create(&db.CommentLike{CommentID: id, UserID: userID})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		created = true
		return tx.Model(&db.ConfessionComment{}).Where("id = ?", id).
			UpdateColumn("likes", gorm.Expr("likes + 1")).Error
	})
	return created, err
}

// getString safely dereferences a *string
func getString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
