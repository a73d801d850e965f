package notify

import (
	"context"
	"fmt"

	"github.com/oggyb/fall-in/internal/app"
	"github.com/oggyb/fall-in/internal/db"
	svcErr "github.com/oggyb/fall-in/internal/errors"
	"github.com/oggyb/fall-in/internal/repository"
	"github.com/oggyb/fall-in/internal/service/view"
)

const (
	DefaultLimit = 10
	MaxLimit     = 50

	overviewMatches = 5
)

// Compose renders the text of a notification of kind sent by name.
func Compose(kind, name string) string {
	switch kind {
	case db.NotificationLike:
		return fmt.Sprintf("%s liked your profile! 💖", name)
	case db.NotificationMatch:
		return fmt.Sprintf("It's a match with %s! 💖", name)
	case db.NotificationChatRequest:
		return fmt.Sprintf("%s wants to chat with you! 💬", name)
	case db.NotificationChatAccepted:
		return fmt.Sprintf("%s accepted your chat request! 💬", name)
	default:
		return name
	}
}

func validKind(kind string) bool {
	switch kind {
	case db.NotificationLike, db.NotificationMatch, db.NotificationChatRequest, db.NotificationChatAccepted:
		return true
	}
	return false
}

// Service is the per-recipient notification feed.
type Service struct {
	appCtx *app.AppContext
	store  *repository.Store
}

func NewService(appCtx *app.AppContext) *Service {
	return &Service{appCtx: appCtx, store: appCtx.Store}
}

// In returns a copy of the feed writing through tx.
func (s *Service) In(tx *repository.Store) *Service {
	return &Service{appCtx: s.appCtx, store: tx}
}

// Append inserts one notification for recipient.
func (s *Service) Append(ctx context.Context, recipient, source, kind, message string) (*db.Notification, error) {
	if recipient == "" || source == "" {
		return nil, svcErr.Validation("recipient and source are required")
	}
	if !validKind(kind) {
		return nil, svcErr.Validation(fmt.Sprintf("unknown notification type %q", kind))
	}
	n := &db.Notification{UserID: recipient, FromUserID: source, Type: kind, Message: message}
	if err := s.store.Notifications.Create(ctx, n); err != nil {
		return nil, svcErr.Upstream(err)
	}
	return n, nil
}

// Notify appends a notification whose text is derived from the source's name.
func (s *Service) Notify(ctx context.Context, recipient, source, kind string) (*db.Notification, error) {
	return s.Append(ctx, recipient, source, kind, Compose(kind, s.store.Users.Name(ctx, source)))
}

// ClearBetween removes notifications exchanged by a and b, optionally only of the given kinds.
func (s *Service) ClearBetween(ctx context.Context, a, b string, kinds ...string) (int64, error) {
	n, err := s.store.Notifications.DeleteBetween(ctx, a, b, kinds...)
	return n, svcErr.Upstream(err)
}

// ListRecent returns the newest notifications of recipient and then marks
// every unread one as read. Items keep their pre-view read flag.
func (s *Service) ListRecent(ctx context.Context, recipient string, limit int) ([]view.Notification, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	rows, err := s.store.Notifications.Recent(ctx, recipient, limit)
	if err != nil {
		return nil, svcErr.Upstream(err)
	}
	out, err := s.decorate(ctx, rows)
	if err != nil {
		return nil, err
	}

	if marked, err := s.store.Notifications.MarkAllRead(ctx, recipient); err != nil {
		s.appCtx.Logger.Warn("mark notifications read failed", "user_id", recipient, "err", err)
	} else if marked > 0 {
		s.appCtx.Logger.Debug("notifications marked read", "user_id", recipient, "count", marked)
	}
	return out, nil
}

// Delete removes one notification. Rows owned by someone else look missing.
func (s *Service) Delete(ctx context.Context, id, owner string) error {
	n, err := s.store.Notifications.DeleteOwned(ctx, id, owner)
	if err != nil {
		return svcErr.Upstream(err)
	}
	if n == 0 {
		return svcErr.NotFound("notification not found")
	}
	return nil
}

func (s *Service) UnreadCount(ctx context.Context, recipient string) (int64, error) {
	n, err := s.store.Notifications.UnreadCount(ctx, recipient)
	return n, svcErr.Upstream(err)
}

// Overview gathers the notifications page: pending chat requests, the latest
// notifications (marked read as a side effect) and the most recent matches.
func (s *Service) Overview(ctx context.Context, userID string) (*view.Overview, error) {
	pending, err := s.store.ChatRequests.Pending(ctx, userID)
	if err != nil {
		return nil, svcErr.Upstream(err)
	}
	matches, err := s.store.Matches.ForUser(ctx, userID, overviewMatches)
	if err != nil {
		return nil, svcErr.Upstream(err)
	}

	ids := make([]string, 0, len(pending)+len(matches))
	for _, r := range pending {
		ids = append(ids, r.RequesterID)
	}
	for i := range matches {
		ids = append(ids, matches[i].Other(userID))
	}
	users, err := s.store.Users.FindByIDs(ctx, ids)
	if err != nil {
		return nil, svcErr.Upstream(err)
	}

	out := &view.Overview{
		PendingRequests: make([]view.ChatRequest, 0, len(pending)),
		RecentMatches:   make([]view.Match, 0, len(matches)),
	}
	for _, r := range pending {
		out.PendingRequests = append(out.PendingRequests, view.NewChatRequest(r, users[r.RequesterID]))
	}
	for i := range matches {
		other := matches[i].Other(userID)
		out.RecentMatches = append(out.RecentMatches, view.Match{
			UserID:    other,
			MatchedAt: matches[i].MatchedAt,
			User:      view.NewProfile(users[other], nil),
		})
	}

	out.Notifications, err = s.ListRecent(ctx, userID, DefaultLimit)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) decorate(ctx context.Context, rows []db.Notification) ([]view.Notification, error) {
	ids := make([]string, 0, len(rows))
	for _, n := range rows {
		ids = append(ids, n.FromUserID)
	}
	users, err := s.store.Users.FindByIDs(ctx, ids)
	if err != nil {
		return nil, svcErr.Upstream(err)
	}
	out := make([]view.Notification, 0, len(rows))
	for _, n := range rows {
		out = append(out, view.NewNotification(n, users[n.FromUserID]))
	}
	return out, nil
}
