package messaging_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oggyb/fall-in/internal/app/apptest"
	"github.com/oggyb/fall-in/internal/db"
	svcErr "github.com/oggyb/fall-in/internal/errors"
	"github.com/oggyb/fall-in/internal/service/ledger"
	"github.com/oggyb/fall-in/internal/service/messaging"
)

type fixture struct {
	env    *apptest.Env
	ledger *ledger.Service
	svc    *messaging.Service
	alice  *db.User
	bob    *db.User
}

func setup(t *testing.T) *fixture {
	t.Helper()
	env := apptest.New(t)
	l := ledger.NewService(env.App)
	f := &fixture{env: env, ledger: l, svc: messaging.NewService(env.App, l)}
	f.alice, f.bob = env.User(t, "Alice"), env.User(t, "Bob")
	return f
}

func (f *fixture) match(t *testing.T) {
	t.Helper()
	_, _, err := f.ledger.FormMatch(context.Background(), f.alice.ID, f.bob.ID)
	require.NoError(t, err)
}

func TestParseSince(t *testing.T) {
	want := time.Date(2025, 3, 1, 12, 0, 0, 500000000, time.UTC)
	for _, in := range []string{
		"2025-03-01T12:00:00.5Z",
		"2025-03-01T13:00:00.5+01:00",
		"2025-03-01T12:00:00.500000",
		"2025-03-01 12:00:00.5",
	} {
		got, ok := messaging.ParseSince(in)
		require.True(t, ok, in)
		assert.True(t, want.Equal(got), in)
		assert.Equal(t, time.UTC, got.Location())
	}

	for _, in := range []string{"", "   ", "yesterday", "2025-13-01T00:00:00Z"} {
		_, ok := messaging.ParseSince(in)
		assert.False(t, ok, in)
	}
}

func TestSendRequiresPermission(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	_, err := f.svc.Send(ctx, f.alice.ID, f.bob.ID, "hi")
	assert.True(t, svcErr.Is(err, svcErr.KindAuthorization))

	var n int64
	require.NoError(t, f.env.DB.Model(&db.Message{}).Count(&n).Error)
	assert.Zero(t, n)

	_, err = f.svc.ListAll(ctx, f.alice.ID, f.bob.ID)
	assert.True(t, svcErr.Is(err, svcErr.KindAuthorization))
}

func TestSendValidatesContent(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	f.match(t)

	_, err := f.svc.Send(ctx, f.alice.ID, f.bob.ID, "   ")
	assert.True(t, svcErr.Is(err, svcErr.KindValidation))

	_, err = f.svc.Send(ctx, f.alice.ID, f.bob.ID, strings.Repeat("x", messaging.MaxContentLength+1))
	assert.True(t, svcErr.Is(err, svcErr.KindValidation))

	_, err = f.svc.Send(ctx, f.alice.ID, f.alice.ID, "me")
	assert.True(t, svcErr.Is(err, svcErr.KindValidation))

	msg, err := f.svc.Send(ctx, f.alice.ID, f.bob.ID, "  hello  ")
	require.NoError(t, err)
	assert.Equal(t, "hello", msg.Content)
	assert.Equal(t, apptest.Start, msg.SentAt)
}

func TestSendTimestampsStrictlyIncrease(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	f.match(t)

	first, err := f.svc.Send(ctx, f.alice.ID, f.bob.ID, "one")
	require.NoError(t, err)
	second, err := f.svc.Send(ctx, f.bob.ID, f.alice.ID, "two")
	require.NoError(t, err)
	assert.True(t, first.SentAt.Add(time.Microsecond).Equal(second.SentAt))

	// a clock that steps backwards still yields increasing timestamps
	f.env.Clock.Set(apptest.Start.Add(-time.Hour))
	third, err := f.svc.Send(ctx, f.alice.ID, f.bob.ID, "three")
	require.NoError(t, err)
	assert.True(t, third.SentAt.After(second.SentAt))
}

func TestSendTimestampsSurviveStorePrecision(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	f.match(t)
	f.env.Clock.Set(apptest.Start.Add(1500 * time.Nanosecond))

	first, err := f.svc.Send(ctx, f.alice.ID, f.bob.ID, "one")
	require.NoError(t, err)
	second, err := f.svc.Send(ctx, f.alice.ID, f.bob.ID, "two")
	require.NoError(t, err)

	assert.True(t, first.SentAt.Equal(first.SentAt.Truncate(time.Microsecond)))
	assert.True(t, first.SentAt.Add(time.Microsecond).Equal(second.SentAt))

	var stored []db.Message
	require.NoError(t, f.env.DB.Order("sent_at ASC").Find(&stored).Error)
	require.Len(t, stored, 2)
	assert.True(t, first.SentAt.Equal(stored[0].SentAt))
	assert.True(t, second.SentAt.Equal(stored[1].SentAt))

	// a client that already has the first message still gets the second
	msgs, err := f.svc.ListSince(ctx, f.bob.ID, f.alice.ID, first.SentAt.Format(time.RFC3339Nano))
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "two", msgs[0].Content)
}

func TestListSinceAndListAll(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	f.match(t)

	for i, text := range []string{"a1", "b1", "a2"} {
		from, to := f.alice.ID, f.bob.ID
		if i == 1 {
			from, to = to, from
		}
		_, err := f.svc.Send(ctx, from, to, text)
		require.NoError(t, err)
		f.env.Clock.Advance(time.Second)
	}

	all, err := f.svc.ListAll(ctx, f.bob.ID, f.alice.ID)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"a1", "b1", "a2"}, []string{all[0].Content, all[1].Content, all[2].Content})

	since := all[0].SentAt.Format(time.RFC3339Nano)
	newer, err := f.svc.ListSince(ctx, f.alice.ID, f.bob.ID, since)
	require.NoError(t, err)
	require.Len(t, newer, 2)
	assert.Equal(t, "b1", newer[0].Content)

	empty, err := f.svc.ListSince(ctx, f.alice.ID, f.bob.ID, all[2].SentAt.Format(time.RFC3339Nano))
	require.NoError(t, err)
	assert.Empty(t, empty)

	bad, err := f.svc.ListSince(ctx, f.alice.ID, f.bob.ID, "not-a-time")
	require.NoError(t, err)
	assert.NotNil(t, bad)
	assert.Empty(t, bad)

	// bob read alice's messages through ListAll
	var unread int64
	require.NoError(t, f.env.DB.Model(&db.Message{}).Where("receiver_id = ? AND is_read = ?", f.bob.ID, false).Count(&unread).Error)
	assert.Zero(t, unread)
}

func TestAcceptedChatRequestAllowsMessaging(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	res, err := f.ledger.RequestChat(ctx, f.alice.ID, f.bob.ID)
	require.NoError(t, err)
	_, err = f.svc.Send(ctx, f.alice.ID, f.bob.ID, "too early")
	assert.True(t, svcErr.Is(err, svcErr.KindAuthorization))

	_, err = f.ledger.RespondChat(ctx, res.Request.ID, f.bob.ID, true)
	require.NoError(t, err)
	_, err = f.svc.Send(ctx, f.alice.ID, f.bob.ID, "hello")
	require.NoError(t, err)

	// unmatching revokes access immediately
	require.NoError(t, f.ledger.Unmatch(ctx, f.alice.ID, f.bob.ID))
	_, err = f.svc.Send(ctx, f.alice.ID, f.bob.ID, "still there?")
	assert.True(t, svcErr.Is(err, svcErr.KindAuthorization))
}

func TestConversations(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	carol := f.env.User(t, "Carol")
	f.match(t)

	res, err := f.ledger.RequestChat(ctx, carol.ID, f.alice.ID)
	require.NoError(t, err)
	_, err = f.ledger.RespondChat(ctx, res.Request.ID, f.alice.ID, true)
	require.NoError(t, err)

	f.env.Clock.Advance(time.Minute)
	_, err = f.svc.Send(ctx, f.bob.ID, f.alice.ID, "hey alice")
	require.NoError(t, err)
	_, err = f.svc.Send(ctx, f.bob.ID, f.alice.ID, "you there?")
	require.NoError(t, err)

	convs, err := f.svc.Conversations(ctx, f.alice.ID)
	require.NoError(t, err)
	require.Len(t, convs, 2)

	assert.Equal(t, f.bob.ID, convs[0].User.ID)
	require.NotNil(t, convs[0].LastMessage)
	assert.Equal(t, "you there?", convs[0].LastMessage.Content)
	assert.Equal(t, int64(2), convs[0].UnreadCount)
	assert.True(t, convs[0].IsMatch)

	assert.Equal(t, carol.ID, convs[1].User.ID)
	assert.Nil(t, convs[1].LastMessage)
	assert.True(t, convs[1].IsMatch, "accepting a chat request also forms a match")
}
