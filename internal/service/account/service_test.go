package account_test

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oggyb/fall-in/internal/app/apptest"
	"github.com/oggyb/fall-in/internal/db"
	svcErr "github.com/oggyb/fall-in/internal/errors"
	"github.com/oggyb/fall-in/internal/service/account"
	"github.com/oggyb/fall-in/internal/service/ledger"
)

func setup(t *testing.T) (*apptest.Env, *account.Service, *ledger.Service) {
	t.Helper()
	env := apptest.New(t)
	l := ledger.NewService(env.App)
	return env, account.NewService(env.App, l), l
}

func TestNormalizeEmail(t *testing.T) {
	got, ok := account.NormalizeEmail("  Jane.Doe@Uni.EDU ")
	assert.True(t, ok)
	assert.Equal(t, "jane.doe@uni.edu", got)

	for _, bad := range []string{"", "jane", "@uni.edu", "jane@"} {
		_, ok := account.NormalizeEmail(bad)
		assert.False(t, ok, bad)
	}
}

func TestSignupVerifyFlow(t *testing.T) {
	ctx := context.Background()
	env, svc, _ := setup(t)

	require.NoError(t, svc.Signup(ctx, "New@Uni.edu"))
	code := env.Mail.Code("new@uni.edu")
	require.Len(t, code, 6)

	user, err := env.Store.Users.FindByEmail(ctx, "new@uni.edu")
	require.NoError(t, err)
	assert.False(t, user.IsVerified)
	assert.NotEqual(t, code, user.OTPHash)

	_, err = svc.VerifySignup(ctx, "new@uni.edu", "000000x")
	assert.True(t, svcErr.Is(err, svcErr.KindValidation))

	sess, err := svc.VerifySignup(ctx, "new@uni.edu", code)
	require.NoError(t, err)
	assert.Equal(t, user.ID, sess.UserID)
	assert.False(t, sess.ProfileComplete)
	assert.NotEmpty(t, sess.Token)

	// codes are single use
	_, err = svc.VerifySignup(ctx, "new@uni.edu", code)
	assert.True(t, svcErr.Is(err, svcErr.KindValidation))

	err = svc.Signup(ctx, "new@uni.edu")
	assert.True(t, svcErr.Is(err, svcErr.KindValidation))
	assert.Equal(t, "email already registered, please log in", svcErr.Message(err))
}

func TestVerifyRejectsExpiredCode(t *testing.T) {
	ctx := context.Background()
	env, svc, _ := setup(t)

	require.NoError(t, svc.Signup(ctx, "late@uni.edu"))
	code := env.Mail.Code("late@uni.edu")
	env.Clock.Advance(11 * time.Minute)

	_, err := svc.VerifySignup(ctx, "late@uni.edu", code)
	require.Error(t, err)
	assert.Contains(t, svcErr.Message(err), "expired")
}

func TestLogin(t *testing.T) {
	ctx := context.Background()
	env, svc, _ := setup(t)
	alice := env.User(t, "Alice")

	err := svc.Login(ctx, "nobody@uni.edu")
	assert.True(t, svcErr.Is(err, svcErr.KindNotFound))
	assert.Equal(t, "email not found, please sign up first", svcErr.Message(err))

	require.NoError(t, svc.Login(ctx, alice.Email))
	sess, err := svc.VerifyLogin(ctx, alice.Email, env.Mail.Code(alice.Email))
	require.NoError(t, err)
	assert.True(t, sess.ProfileComplete)
}

func TestMailFailureIsSwallowed(t *testing.T) {
	ctx := context.Background()
	env, svc, _ := setup(t)
	env.Mail.Err = errors.New("smtp down")

	require.NoError(t, svc.Signup(ctx, "quiet@uni.edu"))
	_, err := svc.VerifySignup(ctx, "quiet@uni.edu", env.Mail.Code("quiet@uni.edu"))
	require.NoError(t, err)
}

func TestCodeRequestsAreThrottled(t *testing.T) {
	ctx := context.Background()
	env, svc, _ := setup(t)
	alice := env.User(t, "Alice")

	for i := 0; i < env.App.Config.OTP.MaxSends; i++ {
		require.NoError(t, svc.Login(ctx, alice.Email))
	}
	err := svc.Login(ctx, alice.Email)
	assert.True(t, svcErr.Is(err, svcErr.KindValidation))

	env.Redis.FastForward(env.App.Config.OTP.Window + time.Second)
	require.NoError(t, svc.Login(ctx, alice.Email))
}

func TestAuthenticateAndLogout(t *testing.T) {
	ctx := context.Background()
	env, svc, _ := setup(t)
	alice := env.User(t, "Alice")

	token, _, err := env.App.Tokens.Issue(alice.ID)
	require.NoError(t, err)

	claims, err := svc.Authenticate(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, alice.ID, claims.UserID())

	_, err = svc.Authenticate(ctx, "")
	assert.True(t, svcErr.Is(err, svcErr.KindAuthorization))
	_, err = svc.Authenticate(ctx, token+"x")
	assert.True(t, svcErr.Is(err, svcErr.KindAuthorization))

	require.NoError(t, svc.Logout(ctx, claims))
	_, err = svc.Authenticate(ctx, token)
	assert.True(t, svcErr.Is(err, svcErr.KindAuthorization))
	assert.True(t, env.Redis.Exists(env.App.RedisCache.KeyForSession(claims.ID)))
}

func pngPhoto(t *testing.T, w, h int) *bytes.Buffer {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, x%h, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return &buf
}

func validInput() account.ProfileInput {
	return account.ProfileInput{
		Name:       " Jane ",
		Age:        20,
		Pronouns:   "she/her",
		Department: "Physics",
		Year:       "Student",
		LookingFor: "Friendship",
		Bio:        "Stargazer.",
		Prompts: map[string]string{
			db.ProfilePrompts[0]: "Puns",
			db.ProfilePrompts[2]: "The observatory",
			"Unknown question?":  "ignored",
		},
	}
}

func TestUpdateProfile(t *testing.T) {
	ctx := context.Background()
	env, svc, _ := setup(t)
	require.NoError(t, svc.Signup(ctx, "jane@uni.edu"))
	sess, err := svc.VerifySignup(ctx, "jane@uni.edu", env.Mail.Code("jane@uni.edu"))
	require.NoError(t, err)

	me, err := svc.UpdateProfile(ctx, sess.UserID, validInput(), &account.PhotoUpload{Filename: "me.png", Body: pngPhoto(t, 800, 600)})
	require.NoError(t, err)
	assert.Equal(t, "Jane", me.Name)
	assert.Equal(t, "friendship", me.LookingFor)
	assert.True(t, me.Complete)
	assert.True(t, strings.HasPrefix(me.Photo, "data:image/jpeg;base64,"))
	require.Len(t, me.Prompts, 2)
	assert.Equal(t, db.ProfilePrompts[0], me.Prompts[0].Question)

	// a second update without a photo keeps the old one and replaces prompts
	in := validInput()
	in.Prompts = map[string]string{db.ProfilePrompts[1]: "Someone with snacks"}
	again, err := svc.UpdateProfile(ctx, sess.UserID, in, nil)
	require.NoError(t, err)
	assert.Equal(t, me.Photo, again.Photo)
	require.Len(t, again.Prompts, 1)
	assert.Equal(t, "Someone with snacks", again.Prompts[0].Answer)
}

func TestUpdateProfileValidation(t *testing.T) {
	ctx := context.Background()
	env, svc, _ := setup(t)
	alice := env.User(t, "Alice")

	cases := map[string]func(*account.ProfileInput){
		"missing name": func(in *account.ProfileInput) { in.Name = "  " },
		"too young":    func(in *account.ProfileInput) { in.Age = 17 },
		"too old":      func(in *account.ProfileInput) { in.Age = 100 },
		"bad looking":  func(in *account.ProfileInput) { in.LookingFor = "pen pal" },
		"long bio":     func(in *account.ProfileInput) { in.Bio = strings.Repeat("b", 501) },
		"long name":    func(in *account.ProfileInput) { in.Name = strings.Repeat("n", 101) },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			in := validInput()
			mutate(&in)
			_, err := svc.UpdateProfile(ctx, alice.ID, in, nil)
			assert.True(t, svcErr.Is(err, svcErr.KindValidation))
		})
	}

	_, err := svc.UpdateProfile(ctx, alice.ID, validInput(), &account.PhotoUpload{Filename: "me.bmp", Body: pngPhoto(t, 10, 10)})
	assert.True(t, svcErr.Is(err, svcErr.KindValidation))

	_, err = svc.UpdateProfile(ctx, "missing", validInput(), nil)
	assert.True(t, svcErr.Is(err, svcErr.KindNotFound))
}

func TestDiscoverExcludesLikedAndMatched(t *testing.T) {
	ctx := context.Background()
	env, svc, l := setup(t)
	alice, bob, carol, dave := env.User(t, "Alice"), env.User(t, "Bob"), env.User(t, "Carol"), env.User(t, "Dave")
	_, err := env.Store.Users.FindOrCreateByEmail(ctx, "blank@uni.edu")
	require.NoError(t, err)

	_, err = l.RecordLike(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	_, _, err = l.FormMatch(ctx, alice.ID, carol.ID)
	require.NoError(t, err)

	found, err := svc.Discover(ctx, alice.ID, 0)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, dave.ID, found[0].ID)

	// being liked does not hide the liker
	found, err = svc.Discover(ctx, bob.ID, 0)
	require.NoError(t, err)
	assert.Len(t, found, 3)
}

func TestPublicProfile(t *testing.T) {
	ctx := context.Background()
	env, svc, l := setup(t)
	alice, bob := env.User(t, "Alice"), env.User(t, "Bob")
	blank, err := env.Store.Users.FindOrCreateByEmail(ctx, "blank@uni.edu")
	require.NoError(t, err)

	_, err = l.RecordLike(ctx, bob.ID, alice.ID)
	require.NoError(t, err)

	detail, err := svc.PublicProfile(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, "Bob", detail.Name)
	assert.True(t, detail.Relationship.LikedYou)
	assert.False(t, detail.Relationship.CanMessage)

	_, err = svc.PublicProfile(ctx, alice.ID, blank.ID)
	assert.True(t, svcErr.Is(err, svcErr.KindNotFound))

	me, err := svc.Me(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, alice.Email, me.Email)
}
