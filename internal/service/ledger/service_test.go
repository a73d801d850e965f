package ledger_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/oggyb/fall-in/internal/app/apptest"
	"github.com/oggyb/fall-in/internal/db"
	svcErr "github.com/oggyb/fall-in/internal/errors"
	"github.com/oggyb/fall-in/internal/service/ledger"
)

func types(ns []db.Notification) []string {
	out := make([]string, 0, len(ns))
	for _, n := range ns {
		out = append(out, n.Type)
	}
	return out
}

func TestRecordLikeFormsMatchOnReciprocation(t *testing.T) {
	ctx := context.Background()
	env := apptest.New(t)
	svc := ledger.NewService(env.App)
	alice, bob := env.User(t, "Alice"), env.User(t, "Bob")

	res, err := svc.RecordLike(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.False(t, res.Matched)
	assert.False(t, res.Duplicate)

	bobFeed := env.Notifications(t, bob.ID)
	require.Len(t, bobFeed, 1)
	assert.Equal(t, db.NotificationLike, bobFeed[0].Type)
	assert.Equal(t, "Alice liked your profile! 💖", bobFeed[0].Message)

	// repeating the like is tolerated and adds nothing
	res, err = svc.RecordLike(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.True(t, res.Duplicate)
	assert.Len(t, env.Notifications(t, bob.ID), 1)

	res, err = svc.RecordLike(ctx, bob.ID, alice.ID)
	require.NoError(t, err)
	assert.True(t, res.Matched)
	require.NotNil(t, res.Match)

	var count int64
	require.NoError(t, env.DB.Model(&db.Match{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	assert.Equal(t, []string{db.NotificationMatch}, types(env.Notifications(t, bob.ID)))
	aliceFeed := env.Notifications(t, alice.ID)
	require.Len(t, aliceFeed, 1)
	assert.Equal(t, "It's a match with Bob! 💖", aliceFeed[0].Message)

	ok, err := svc.CanMessage(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	// liking again after the match keeps exactly one match and no extra notifications
	res, err = svc.RecordLike(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.True(t, res.Duplicate)
	assert.True(t, res.Matched)
	require.NoError(t, env.DB.Model(&db.Match{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
	assert.Len(t, env.Notifications(t, alice.ID), 1)
}

func TestRecordLikeRejectsInvalidTargets(t *testing.T) {
	ctx := context.Background()
	env := apptest.New(t)
	svc := ledger.NewService(env.App)
	alice := env.User(t, "Alice")

	_, err := svc.RecordLike(ctx, alice.ID, alice.ID)
	assert.True(t, svcErr.Is(err, svcErr.KindValidation))

	_, err = svc.RecordLike(ctx, alice.ID, "")
	assert.True(t, svcErr.Is(err, svcErr.KindValidation))

	_, err = svc.RecordLike(ctx, alice.ID, "missing")
	assert.True(t, svcErr.Is(err, svcErr.KindNotFound))

	var likes int64
	require.NoError(t, env.DB.Model(&db.Like{}).Count(&likes).Error)
	assert.Zero(t, likes)
}

func TestFormMatchIsIdempotent(t *testing.T) {
	ctx := context.Background()
	env := apptest.New(t)
	svc := ledger.NewService(env.App)
	a, b := env.User(t, "Ann"), env.User(t, "Ben")

	m1, created, err := svc.FormMatch(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.True(t, created)

	m2, created, err := svc.FormMatch(ctx, b.ID, a.ID)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, m1.ID, m2.ID)
	assert.Less(t, m1.User1ID, m1.User2ID)

	assert.Len(t, env.Notifications(t, a.ID), 1)
	assert.Len(t, env.Notifications(t, b.ID), 1)
}

func TestChatRequestAccept(t *testing.T) {
	ctx := context.Background()
	env := apptest.New(t)
	svc := ledger.NewService(env.App)
	alice, carol := env.User(t, "Alice"), env.User(t, "Carol")

	ok, err := svc.CanMessage(ctx, alice.ID, carol.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	res, err := svc.RequestChat(ctx, alice.ID, carol.ID)
	require.NoError(t, err)
	assert.False(t, res.AlreadyRequested)
	assert.Equal(t, db.ChatPending, res.Request.Status)
	assert.Equal(t, []string{db.NotificationChatRequest}, types(env.Notifications(t, carol.ID)))

	again, err := svc.RequestChat(ctx, alice.ID, carol.ID)
	require.NoError(t, err)
	assert.True(t, again.AlreadyRequested)
	assert.Equal(t, res.Request.ID, again.Request.ID)
	assert.Len(t, env.Notifications(t, carol.ID), 1)

	pending, err := svc.PendingRequests(ctx, carol.ID)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "Alice", pending[0].Requester.Name)

	_, err = svc.RespondChat(ctx, res.Request.ID, alice.ID, true)
	assert.True(t, svcErr.Is(err, svcErr.KindAuthorization))

	_, err = svc.RespondChat(ctx, "missing", carol.ID, true)
	assert.True(t, svcErr.Is(err, svcErr.KindNotFound))

	req, err := svc.RespondChat(ctx, res.Request.ID, carol.ID, true)
	require.NoError(t, err)
	assert.Equal(t, db.ChatAccepted, req.Status)

	ok, err = svc.CanMessage(ctx, carol.ID, alice.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	matches, err := svc.Matches(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, carol.ID, matches[0].UserID)

	aliceFeed := env.Notifications(t, alice.ID)
	require.Len(t, aliceFeed, 1)
	assert.Equal(t, db.NotificationChatAccepted, aliceFeed[0].Type)
	assert.Equal(t, "Carol accepted your chat request! 💬", aliceFeed[0].Message)
	assert.Empty(t, env.Notifications(t, carol.ID))

	_, err = svc.RespondChat(ctx, res.Request.ID, carol.ID, false)
	assert.True(t, svcErr.Is(err, svcErr.KindValidation))
}

func TestChatRequestRejectAllowsNewRequest(t *testing.T) {
	ctx := context.Background()
	env := apptest.New(t)
	svc := ledger.NewService(env.App)
	alice, dave := env.User(t, "Alice"), env.User(t, "Dave")

	res, err := svc.RequestChat(ctx, alice.ID, dave.ID)
	require.NoError(t, err)

	req, err := svc.RespondChat(ctx, res.Request.ID, dave.ID, false)
	require.NoError(t, err)
	assert.Equal(t, db.ChatRejected, req.Status)

	var rows int64
	require.NoError(t, env.DB.Model(&db.ChatRequest{}).Count(&rows).Error)
	assert.Zero(t, rows)
	assert.Empty(t, env.Notifications(t, dave.ID))

	ok, err := svc.CanMessage(ctx, alice.ID, dave.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	res, err = svc.RequestChat(ctx, alice.ID, dave.ID)
	require.NoError(t, err)
	assert.False(t, res.AlreadyRequested)
}

func TestAcceptShortcuts(t *testing.T) {
	ctx := context.Background()
	env := apptest.New(t)
	svc := ledger.NewService(env.App)
	alice, bob, carol := env.User(t, "Alice"), env.User(t, "Bob"), env.User(t, "Carol")

	_, err := svc.AcceptLike(ctx, bob.ID, alice.ID)
	assert.True(t, svcErr.Is(err, svcErr.KindNotFound))

	_, err = svc.RecordLike(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	res, err := svc.AcceptLike(ctx, bob.ID, alice.ID)
	require.NoError(t, err)
	assert.True(t, res.Matched)

	_, err = svc.AcceptChatFrom(ctx, carol.ID, alice.ID)
	assert.True(t, svcErr.Is(err, svcErr.KindNotFound))

	_, err = svc.RequestChat(ctx, alice.ID, carol.ID)
	require.NoError(t, err)
	req, err := svc.AcceptChatFrom(ctx, carol.ID, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, db.ChatAccepted, req.Status)
}

func TestUnmatchClearsPair(t *testing.T) {
	ctx := context.Background()
	env := apptest.New(t)
	svc := ledger.NewService(env.App)
	alice, bob, carol := env.User(t, "Alice"), env.User(t, "Bob"), env.User(t, "Carol")

	_, err := svc.RecordLike(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	_, err = svc.RecordLike(ctx, bob.ID, alice.ID)
	require.NoError(t, err)
	_, err = svc.RequestChat(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	require.NoError(t, env.DB.Create(&db.Message{SenderID: alice.ID, ReceiverID: bob.ID, Content: "hi", SentAt: apptest.Start}).Error)
	_, err = svc.RecordLike(ctx, carol.ID, alice.ID)
	require.NoError(t, err)

	require.NoError(t, svc.Unmatch(ctx, bob.ID, alice.ID))

	ok, err := svc.CanMessage(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	for _, model := range []any{&db.Match{}, &db.ChatRequest{}, &db.Message{}} {
		var n int64
		require.NoError(t, env.DB.Model(model).Count(&n).Error)
		assert.Zero(t, n)
	}
	var likes int64
	require.NoError(t, env.DB.Model(&db.Like{}).Count(&likes).Error)
	assert.Equal(t, int64(1), likes, "unrelated like survives")
	assert.Equal(t, []string{db.NotificationLike}, types(env.Notifications(t, alice.ID)))
	assert.Empty(t, env.Notifications(t, bob.ID))

	err = svc.Unmatch(ctx, alice.ID, bob.ID)
	assert.True(t, svcErr.Is(err, svcErr.KindNotFound))
}

func TestRelationship(t *testing.T) {
	ctx := context.Background()
	env := apptest.New(t)
	svc := ledger.NewService(env.App)
	alice, bob := env.User(t, "Alice"), env.User(t, "Bob")

	_, err := svc.RecordLike(ctx, bob.ID, alice.ID)
	require.NoError(t, err)

	rel, err := svc.Relationship(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.False(t, rel.Liked)
	assert.True(t, rel.LikedYou)
	assert.False(t, rel.Matched)
	assert.False(t, rel.CanMessage)
}

func TestRecordLikeMatchesWhenReverseLikeCommitsLate(t *testing.T) {
	ctx := context.Background()
	env := apptest.New(t)
	svc := ledger.NewService(env.App)
	alice, bob := env.User(t, "Alice"), env.User(t, "Bob")

	// Bob's like becomes visible only after Alice's transaction looked for it.
	inserted := false
	require.NoError(t, env.DB.Callback().Query().After("gorm:query").Register("test:late_reverse_like", func(d *gorm.DB) {
		if inserted || d.Statement.Table != "likes" || len(d.Statement.Vars) < 2 {
			return
		}
		if d.Statement.Vars[0] != bob.ID || d.Statement.Vars[1] != alice.ID {
			return
		}
		inserted = true
		if err := d.Session(&gorm.Session{NewDB: true}).Create(&db.Like{LikerID: bob.ID, LikedID: alice.ID}).Error; err != nil {
			d.AddError(err)
		}
	}))

	res, err := svc.RecordLike(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	require.True(t, inserted)
	assert.True(t, res.Matched)
	require.NotNil(t, res.Match)

	var count int64
	require.NoError(t, env.DB.Model(&db.Match{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
	assert.Equal(t, []string{db.NotificationMatch}, types(env.Notifications(t, alice.ID)))
	assert.Equal(t, []string{db.NotificationMatch}, types(env.Notifications(t, bob.ID)))
}

func TestConcurrentOppositeLikesFormOneMatch(t *testing.T) {
	ctx := context.Background()
	env := apptest.New(t)
	svc := ledger.NewService(env.App)
	alice, bob := env.User(t, "Alice"), env.User(t, "Bob")

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, pair := range [][2]string{{alice.ID, bob.ID}, {bob.ID, alice.ID}} {
		wg.Add(1)
		go func(i int, actor, target string) {
			defer wg.Done()
			_, errs[i] = svc.RecordLike(ctx, actor, target)
		}(i, pair[0], pair[1])
	}
	wg.Wait()
	require.NoError(t, errs[0])
	require.NoError(t, errs[1])

	var count int64
	require.NoError(t, env.DB.Model(&db.Match{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
	ok, err := svc.CanMessage(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.True(t, ok)
}
