package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/oggyb/fall-in/internal/db"
)

// UserRepository provides data access for users and their profile prompts.
type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(database *gorm.DB) *UserRepository {
	return &UserRepository{db: database}
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*db.User, error) {
	var u db.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).Take(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*db.User, error) {
	var u db.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).Take(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// FindOrCreateByEmail returns the user with email, inserting an email-only row
// when none exists yet.
func (r *UserRepository) FindOrCreateByEmail(ctx context.Context, email string) (*db.User, error) {
	u, err := r.FindByEmail(ctx, email)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	fresh := db.User{Email: email}
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "email"}}, DoNothing: true}).
		Create(&fresh)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		// lost a race with a concurrent signup
		return r.FindByEmail(ctx, email)
	}
	return &fresh, nil
}

// SetOTP stores a hashed one-time code and its expiry.
func (r *UserRepository) SetOTP(ctx context.Context, id, hash string, expiresAt time.Time) error {
	return r.db.WithContext(ctx).Model(&db.User{}).Where("id = ?", id).
		Updates(map[string]any{"otp_hash": hash, "otp_expires_at": expiresAt}).Error
}

// ConsumeOTP clears the stored code and marks the user verified.
func (r *UserRepository) ConsumeOTP(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Model(&db.User{}).Where("id = ?", id).
		Updates(map[string]any{"otp_hash": "", "otp_expires_at": nil, "is_verified": true}).Error
}

// ProfileFields is the editable part of a user row.
type ProfileFields struct {
	Name       string
	Age        int
	Pronouns   string
	Department string
	Year       string
	LookingFor string
	Bio        string
	// Photo is left untouched when nil.
	Photo *string
}

func (r *UserRepository) UpdateProfile(ctx context.Context, id string, f ProfileFields) error {
	updates := map[string]any{
		"name":        f.Name,
		"age":         f.Age,
		"pronouns":    f.Pronouns,
		"department":  f.Department,
		"year":        f.Year,
		"looking_for": f.LookingFor,
		"bio":         f.Bio,
	}
	if f.Photo != nil {
		updates["profile_photo"] = *f.Photo
	}
	res := r.db.WithContext(ctx).Model(&db.User{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ReplacePrompts swaps the user's prompt answers for the given ones.
// Empty answers are skipped.
func (r *UserRepository) ReplacePrompts(ctx context.Context, userID string, answers map[string]string, order []string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", userID).Delete(&db.UserPrompt{}).Error; err != nil {
			return err
		}
		for _, q := range order {
			a := answers[q]
			if a == "" {
				continue
			}
			if err := tx.Create(&db.UserPrompt{UserID: userID, Question: q, Answer: a}).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *UserRepository) Prompts(ctx context.Context, userID string) ([]db.UserPrompt, error) {
	var prompts []db.UserPrompt
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at ASC, id ASC").Find(&prompts).Error
	return prompts, err
}

// PromptsFor loads prompts for many users keyed by user id.
func (r *UserRepository) PromptsFor(ctx context.Context, userIDs []string) (map[string][]db.UserPrompt, error) {
	out := make(map[string][]db.UserPrompt, len(userIDs))
	if len(userIDs) == 0 {
		return out, nil
	}
	var prompts []db.UserPrompt
	if err := r.db.WithContext(ctx).Where("user_id IN ?", userIDs).Order("created_at ASC, id ASC").Find(&prompts).Error; err != nil {
		return nil, err
	}
	for _, p := range prompts {
		out[p.UserID] = append(out[p.UserID], p)
	}
	return out, nil
}

// FindByIDs loads users keyed by id. Missing ids are absent from the map.
func (r *UserRepository) FindByIDs(ctx context.Context, ids []string) (map[string]*db.User, error) {
	out := make(map[string]*db.User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var users []db.User
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, err
	}
	for i := range users {
		out[users[i].ID] = &users[i]
	}
	return out, nil
}

// Name returns the display name of id, or "Someone" when unknown.
func (r *UserRepository) Name(ctx context.Context, id string) string {
	var u db.User
	if err := r.db.WithContext(ctx).Select("id", "name").Where("id = ?", id).Take(&u).Error; err != nil {
		return (*db.User)(nil).DisplayName()
	}
	return u.DisplayName()
}

// Discover lists complete profiles other than userID and the excluded ids.
//
// Behavior:
//   - Skips users that never set a name.
//   - Newest profiles first.
func (r *UserRepository) Discover(ctx context.Context, userID string, exclude []string, limit int) ([]db.User, error) {
	q := r.db.WithContext(ctx).
		Where("id <> ?", userID).
		Where("name IS NOT NULL AND name <> ''").
		Order("created_at DESC, id DESC").
		Limit(limit)
	if len(exclude) > 0 {
		q = q.Where("id NOT IN ?", exclude)
	}
	var users []db.User
	err := q.Find(&users).Error
	return users, err
}
