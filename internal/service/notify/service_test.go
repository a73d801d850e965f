package notify_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oggyb/fall-in/internal/app/apptest"
	"github.com/oggyb/fall-in/internal/db"
	svcErr "github.com/oggyb/fall-in/internal/errors"
	"github.com/oggyb/fall-in/internal/service/notify"
)

func TestCompose(t *testing.T) {
	tests := []struct {
		kind string
		want string
	}{
		{db.NotificationLike, "Sam liked your profile! 💖"},
		{db.NotificationMatch, "It's a match with Sam! 💖"},
		{db.NotificationChatRequest, "Sam wants to chat with you! 💬"},
		{db.NotificationChatAccepted, "Sam accepted your chat request! 💬"},
	}
	for _, tt := range tests {
		t.Run(tt.kind, func(t *testing.T) {
			assert.Equal(t, tt.want, notify.Compose(tt.kind, "Sam"))
		})
	}
}

func TestAppendValidates(t *testing.T) {
	ctx := context.Background()
	env := apptest.New(t)
	svc := notify.NewService(env.App)

	_, err := svc.Append(ctx, "", "u2", db.NotificationLike, "x")
	assert.True(t, svcErr.Is(err, svcErr.KindValidation))

	_, err = svc.Append(ctx, "u1", "u2", "poke", "x")
	assert.True(t, svcErr.Is(err, svcErr.KindValidation))
}

func TestNotifyUsesSomeoneForUnknownSource(t *testing.T) {
	ctx := context.Background()
	env := apptest.New(t)
	svc := notify.NewService(env.App)
	bob := env.User(t, "Bob")

	n, err := svc.Notify(ctx, bob.ID, "ghost", db.NotificationLike)
	require.NoError(t, err)
	assert.Equal(t, "Someone liked your profile! 💖", n.Message)
}

func TestListRecentNewestFirstThenMarksRead(t *testing.T) {
	ctx := context.Background()
	env := apptest.New(t)
	svc := notify.NewService(env.App)
	bob, alice := env.User(t, "Bob"), env.User(t, "Alice")

	for i := 0; i < 12; i++ {
		require.NoError(t, env.DB.Create(&db.Notification{
			UserID: bob.ID, FromUserID: alice.ID, Type: db.NotificationLike,
			Message:   fmt.Sprintf("n%02d", i),
			CreatedAt: apptest.Start.Add(time.Duration(i) * time.Minute),
		}).Error)
	}

	unread, err := svc.UnreadCount(ctx, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(12), unread)

	items, err := svc.ListRecent(ctx, bob.ID, 0)
	require.NoError(t, err)
	require.Len(t, items, notify.DefaultLimit)
	assert.Equal(t, "n11", items[0].Message)
	assert.Equal(t, "n02", items[9].Message)
	assert.False(t, items[0].Read, "items keep their pre-view read flag")
	require.NotNil(t, items[0].From)
	assert.Equal(t, "Alice", items[0].From.Name)

	unread, err = svc.UnreadCount(ctx, bob.ID)
	require.NoError(t, err)
	assert.Zero(t, unread)

	items, err = svc.ListRecent(ctx, bob.ID, 500)
	require.NoError(t, err)
	assert.Len(t, items, 12)
	assert.True(t, items[0].Read)
}

func TestDeleteOwnerOnly(t *testing.T) {
	ctx := context.Background()
	env := apptest.New(t)
	svc := notify.NewService(env.App)
	bob, alice := env.User(t, "Bob"), env.User(t, "Alice")

	n, err := svc.Notify(ctx, bob.ID, alice.ID, db.NotificationLike)
	require.NoError(t, err)

	err = svc.Delete(ctx, n.ID, alice.ID)
	assert.True(t, svcErr.Is(err, svcErr.KindNotFound))
	assert.Len(t, env.Notifications(t, bob.ID), 1)

	require.NoError(t, svc.Delete(ctx, n.ID, bob.ID))
	assert.Empty(t, env.Notifications(t, bob.ID))

	err = svc.Delete(ctx, n.ID, bob.ID)
	assert.True(t, svcErr.Is(err, svcErr.KindNotFound))
}

func TestOverview(t *testing.T) {
	ctx := context.Background()
	env := apptest.New(t)
	svc := notify.NewService(env.App)
	bob, alice, carol := env.User(t, "Bob"), env.User(t, "Alice"), env.User(t, "Carol")

	require.NoError(t, env.DB.Create(&db.ChatRequest{RequesterID: carol.ID, ReceiverID: bob.ID, Status: db.ChatPending}).Error)
	_, _, err := env.Store.Matches.Create(ctx, alice.ID, bob.ID, apptest.Start)
	require.NoError(t, err)
	_, err = svc.Notify(ctx, bob.ID, carol.ID, db.NotificationChatRequest)
	require.NoError(t, err)

	out, err := svc.Overview(ctx, bob.ID)
	require.NoError(t, err)
	require.Len(t, out.PendingRequests, 1)
	assert.Equal(t, "Carol", out.PendingRequests[0].Requester.Name)
	require.Len(t, out.Notifications, 1)
	assert.Equal(t, db.NotificationChatRequest, out.Notifications[0].Type)
	require.Len(t, out.RecentMatches, 1)
	assert.Equal(t, alice.ID, out.RecentMatches[0].UserID)
}
