package account

import (
	"context"
	"errors"
	"io"
	"strings"
	"unicode/utf8"

	"gorm.io/gorm"

	"github.com/oggyb/fall-in/internal/app"
	"github.com/oggyb/fall-in/internal/auth"
	"github.com/oggyb/fall-in/internal/db"
	svcErr "github.com/oggyb/fall-in/internal/errors"
	"github.com/oggyb/fall-in/internal/media"
	"github.com/oggyb/fall-in/internal/repository"
	"github.com/oggyb/fall-in/internal/service/view"
)

const (
	DiscoverLimit = 10

	maxNameLen = 100
	maxBioLen  = 500
	maxAnswer  = 500
	minAge     = 18
	maxAge     = 99
)

// LookingFor lists the accepted values of a profile's looking_for field.
var LookingFor = []string{"dating", "relationship", "friendship", "casual"}

// RelationshipReader summarizes the ledger between two users.
type RelationshipReader interface {
	Relationship(ctx context.Context, viewer, other string) (view.Relationship, error)
}

// Session is returned by a successful verification.
type Session struct {
	Token           string       `json:"token"`
	Claims          *auth.Claims `json:"-"`
	UserID          string       `json:"user_id"`
	ProfileComplete bool         `json:"profile_complete"`
}

// ProfileInput is the editable part of a profile. Prompts maps question to answer.
type ProfileInput struct {
	Name       string
	Age        int
	Pronouns   string
	Department string
	Year       string
	LookingFor string
	Bio        string
	Prompts    map[string]string
}

// PhotoUpload is an uploaded profile picture.
type PhotoUpload struct {
	Filename string
	Body     io.Reader
}

// Service handles OTP signup and login, sessions and profiles.
type Service struct {
	appCtx *app.AppContext
	store  *repository.Store
	rel    RelationshipReader
}

func NewService(appCtx *app.AppContext, rel RelationshipReader) *Service {
	return &Service{appCtx: appCtx, store: appCtx.Store, rel: rel}
}

// NormalizeEmail trims and lowercases an address. ok is false when it cannot be an address.
func NormalizeEmail(email string) (string, bool) {
	email = strings.ToLower(strings.TrimSpace(email))
	at := strings.Index(email, "@")
	if at <= 0 || at == len(email)-1 {
		return "", false
	}
	return email, true
}

// Signup starts registration by mailing a verification code.
//
// Behavior:
//   - A verified address must log in instead.
//   - The email-only user row is created on the first attempt.
//   - Mail delivery failures are logged, the code stays valid.
func (s *Service) Signup(ctx context.Context, email string) error {
	email, ok := NormalizeEmail(email)
	if !ok {
		return svcErr.Validation("a valid email is required")
	}
	existing, err := s.store.Users.FindByEmail(ctx, email)
	switch {
	case err == nil && existing.IsVerified:
		return svcErr.Validation("email already registered, please log in")
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound):
		return svcErr.Upstream(err)
	}

	user, err := s.store.Users.FindOrCreateByEmail(ctx, email)
	if err != nil {
		return svcErr.Upstream(err)
	}
	return s.sendCode(ctx, user)
}

// Login mails a fresh code to a known address.
func (s *Service) Login(ctx context.Context, email string) error {
	email, ok := NormalizeEmail(email)
	if !ok {
		return svcErr.Validation("a valid email is required")
	}
	user, err := s.store.Users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return svcErr.NotFound("email not found, please sign up first")
		}
		return svcErr.Upstream(err)
	}
	return s.sendCode(ctx, user)
}

func (s *Service) sendCode(ctx context.Context, user *db.User) error {
	cfg := s.appCtx.Config
	if s.appCtx.RedisCache != nil {
		allowed, err := s.appCtx.RedisCache.AllowOTPSend(ctx, user.Email, cfg.OTP.MaxSends, cfg.OTP.Window)
		if err != nil {
			s.appCtx.Logger.Warn("otp throttle unavailable", "email", user.Email, "err", err)
		} else if !allowed {
			return svcErr.Validation("too many codes requested, please try again later")
		}
	}

	code, err := newCode(cfg.OTP.Length)
	if err != nil {
		return svcErr.Upstream(err)
	}
	hash, err := hashCode(code)
	if err != nil {
		return svcErr.Upstream(err)
	}
	if err := s.store.Users.SetOTP(ctx, user.ID, hash, s.appCtx.Now().Add(cfg.OTP.TTL)); err != nil {
		return svcErr.Upstream(err)
	}

	if err := s.appCtx.Mailer.SendOTP(ctx, user.Email, code); err != nil {
		s.appCtx.Logger.Error("otp mail failed", "email", user.Email, "err", err)
	}
	return nil
}

// VerifySignup checks the signup code and opens a session.
func (s *Service) VerifySignup(ctx context.Context, email, code string) (*Session, error) {
	return s.verify(ctx, email, code)
}

// VerifyLogin checks the login code and opens a session.
func (s *Service) VerifyLogin(ctx context.Context, email, code string) (*Session, error) {
	return s.verify(ctx, email, code)
}

func (s *Service) verify(ctx context.Context, email, code string) (*Session, error) {
	email, ok := NormalizeEmail(email)
	if !ok {
		return nil, svcErr.Validation("a valid email is required")
	}
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, svcErr.Validation("verification code is required")
	}

	user, err := s.store.Users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, svcErr.NotFound("email not found, please sign up first")
		}
		return nil, svcErr.Upstream(err)
	}
	if user.OTPExpiresAt == nil || !s.appCtx.Now().Before(*user.OTPExpiresAt) {
		return nil, svcErr.Validation("verification code has expired, please request a new one")
	}
	if !codeMatches(user.OTPHash, code) {
		return nil, svcErr.Validation("invalid verification code")
	}
	if err := s.store.Users.ConsumeOTP(ctx, user.ID); err != nil {
		return nil, svcErr.Upstream(err)
	}
	if s.appCtx.RedisCache != nil {
		if err := s.appCtx.RedisCache.ResetOTPSends(ctx, email); err != nil {
			s.appCtx.Logger.Warn("otp throttle reset failed", "email", email, "err", err)
		}
	}

	token, claims, err := s.appCtx.Tokens.Issue(user.ID)
	if err != nil {
		return nil, svcErr.Upstream(err)
	}
	s.appCtx.Logger.Info("session opened", "user_id", user.ID)
	return &Session{Token: token, Claims: claims, UserID: user.ID, ProfileComplete: user.Complete()}, nil
}

// Authenticate resolves a session token to its claims. Revoked sessions are rejected.
func (s *Service) Authenticate(ctx context.Context, token string) (*auth.Claims, error) {
	if token == "" {
		return nil, svcErr.Authorization("please log in")
	}
	claims, err := s.appCtx.Tokens.Parse(token)
	if err != nil {
		if errors.Is(err, auth.ErrExpiredToken) {
			return nil, svcErr.Authorization("session expired, please log in again")
		}
		return nil, svcErr.Authorization("invalid session")
	}
	if s.appCtx.RedisCache != nil {
		revoked, err := s.appCtx.RedisCache.IsRevoked(ctx, claims.ID)
		if err != nil {
			return nil, svcErr.Upstream(err)
		}
		if revoked {
			return nil, svcErr.Authorization("session has been logged out")
		}
	}
	return claims, nil
}

// Logout revokes the session until it would have expired anyway.
func (s *Service) Logout(ctx context.Context, claims *auth.Claims) error {
	if claims == nil || claims.ExpiresAt == nil || s.appCtx.RedisCache == nil {
		return nil
	}
	ttl := claims.ExpiresAt.Sub(s.appCtx.Now())
	return svcErr.Upstream(s.appCtx.RedisCache.RevokeSession(ctx, claims.ID, ttl))
}

// Me returns the signed-in user's own profile.
func (s *Service) Me(ctx context.Context, userID string) (*view.Me, error) {
	user, err := s.findUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	prompts, err := s.store.Users.Prompts(ctx, userID)
	if err != nil {
		return nil, svcErr.Upstream(err)
	}
	return &view.Me{
		Profile:  *view.NewProfile(user, prompts),
		Email:    user.Email,
		Verified: user.IsVerified,
		Complete: user.Complete(),
	}, nil
}

// PublicProfile returns another user's profile and where the viewer stands with them.
func (s *Service) PublicProfile(ctx context.Context, viewer, userID string) (*view.UserDetail, error) {
	user, err := s.findUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !user.Complete() {
		return nil, svcErr.NotFound("user not found")
	}
	prompts, err := s.store.Users.Prompts(ctx, userID)
	if err != nil {
		return nil, svcErr.Upstream(err)
	}
	out := &view.UserDetail{Profile: *view.NewProfile(user, prompts)}
	if viewer != userID && s.rel != nil {
		if out.Relationship, err = s.rel.Relationship(ctx, viewer, userID); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (s *Service) findUser(ctx context.Context, id string) (*db.User, error) {
	if id == "" {
		return nil, svcErr.Validation("user id is required")
	}
	user, err := s.store.Users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, svcErr.NotFound("user not found")
		}
		return nil, svcErr.Upstream(err)
	}
	return user, nil
}

func validLookingFor(v string) bool {
	for _, lf := range LookingFor {
		if v == lf {
			return true
		}
	}
	return false
}

func (in *ProfileInput) normalize() error {
	in.Name = strings.TrimSpace(in.Name)
	in.Pronouns = strings.TrimSpace(in.Pronouns)
	in.Department = strings.TrimSpace(in.Department)
	in.Year = strings.TrimSpace(in.Year)
	in.LookingFor = strings.ToLower(strings.TrimSpace(in.LookingFor))
	in.Bio = strings.TrimSpace(in.Bio)

	switch {
	case in.Name == "":
		return svcErr.Validation("name is required")
	case utf8.RuneCountInString(in.Name) > maxNameLen:
		return svcErr.Validation("name is too long")
	case in.Age < minAge || in.Age > maxAge:
		return svcErr.Validation("age must be between 18 and 99")
	case in.LookingFor != "" && !validLookingFor(in.LookingFor):
		return svcErr.Validation("looking_for must be one of dating, relationship, friendship, casual")
	case utf8.RuneCountInString(in.Bio) > maxBioLen:
		return svcErr.Validation("bio is too long")
	}

	answers := make(map[string]string, len(db.ProfilePrompts))
	for _, q := range db.ProfilePrompts {
		a := strings.TrimSpace(in.Prompts[q])
		if utf8.RuneCountInString(a) > maxAnswer {
			return svcErr.Validation("prompt answer is too long")
		}
		answers[q] = a
	}
	in.Prompts = answers
	return nil
}

// UpdateProfile validates and stores the profile. A nil photo keeps the
// current one. Prompt answers are replaced wholesale.
func (s *Service) UpdateProfile(ctx context.Context, userID string, in ProfileInput, photo *PhotoUpload) (*view.Me, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}
	fields := repository.ProfileFields{
		Name:       in.Name,
		Age:        in.Age,
		Pronouns:   in.Pronouns,
		Department: in.Department,
		Year:       in.Year,
		LookingFor: in.LookingFor,
		Bio:        in.Bio,
	}
	if photo != nil && photo.Body != nil {
		encoded, err := media.EncodePhoto(photo.Body, photo.Filename, s.appCtx.Config.Upload.PhotoSize)
		if err != nil {
			return nil, err
		}
		fields.Photo = &encoded
	}

	err := s.store.Tx(ctx, func(tx *repository.Store) error {
		if err := tx.Users.UpdateProfile(ctx, userID, fields); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return svcErr.NotFound("user not found")
			}
			return svcErr.Upstream(err)
		}
		return svcErr.Upstream(tx.Users.ReplacePrompts(ctx, userID, in.Prompts, db.ProfilePrompts))
	})
	if err != nil {
		return nil, err
	}
	s.appCtx.Logger.Info("profile updated", "user_id", userID, "photo", fields.Photo != nil)
	return s.Me(ctx, userID)
}

// Discover suggests complete profiles the user has neither liked nor matched.
func (s *Service) Discover(ctx context.Context, userID string, limit int) ([]view.Profile, error) {
	if limit <= 0 || limit > DiscoverLimit {
		limit = DiscoverLimit
	}
	liked, err := s.store.Likes.LikedIDs(ctx, userID)
	if err != nil {
		return nil, svcErr.Upstream(err)
	}
	matched, err := s.store.Matches.PartnerIDs(ctx, userID)
	if err != nil {
		return nil, svcErr.Upstream(err)
	}

	users, err := s.store.Users.Discover(ctx, userID, append(liked, matched...), limit)
	if err != nil {
		return nil, svcErr.Upstream(err)
	}
	ids := make([]string, 0, len(users))
	for i := range users {
		ids = append(ids, users[i].ID)
	}
	prompts, err := s.store.Users.PromptsFor(ctx, ids)
	if err != nil {
		return nil, svcErr.Upstream(err)
	}

	out := make([]view.Profile, 0, len(users))
	for i := range users {
		out = append(out, *view.NewProfile(&users[i], prompts[users[i].ID]))
	}
	return out, nil
}
