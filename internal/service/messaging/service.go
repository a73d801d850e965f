package messaging

import (
	"context"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/oggyb/fall-in/internal/app"
	"github.com/oggyb/fall-in/internal/db"
	svcErr "github.com/oggyb/fall-in/internal/errors"
	"github.com/oggyb/fall-in/internal/repository"
	"github.com/oggyb/fall-in/internal/service/ledger"
	"github.com/oggyb/fall-in/internal/service/view"
)

const MaxContentLength = 2000

// sinceLayouts are tried in order when parsing a poll timestamp. Zone-less
// layouts are read as UTC.
var sinceLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
}

// ParseSince parses a poll timestamp. ok is false for empty or malformed input.
func ParseSince(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range sinceLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// Service is the per-pair message log, gated by the ledger.
type Service struct {
	appCtx *app.AppContext
	store  *repository.Store
	ledger *ledger.Service
}

func NewService(appCtx *app.AppContext, l *ledger.Service) *Service {
	return &Service{appCtx: appCtx, store: appCtx.Store, ledger: l}
}

func (s *Service) gate(ctx context.Context, a, b string) error {
	if a == "" || b == "" {
		return svcErr.Validation("user id is required")
	}
	if a == b {
		return svcErr.Validation("you cannot message yourself")
	}
	ok, err := s.ledger.CanMessage(ctx, a, b)
	if err != nil {
		return err
	}
	if !ok {
		return svcErr.Authorization("you can only message your matches or accepted chat requests")
	}
	return nil
}

// Send appends a message and returns the stored row. Its timestamp is strictly
// after every earlier message of the pair.
func (s *Service) Send(ctx context.Context, sender, receiver, content string) (*view.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, svcErr.Validation("message cannot be empty")
	}
	if utf8.RuneCountInString(content) > MaxContentLength {
		return nil, svcErr.Validation("message is too long")
	}
	if err := s.gate(ctx, sender, receiver); err != nil {
		return nil, err
	}

	var msg db.Message
	err := s.store.Tx(ctx, func(tx *repository.Store) error {
		// stored with microsecond precision
		now := s.appCtx.Now().UTC().Truncate(time.Microsecond)
		last, err := tx.Messages.Latest(ctx, sender, receiver)
		if err != nil {
			return svcErr.Upstream(err)
		}
		if last != nil && !now.After(last.SentAt) {
			now = last.SentAt.Add(time.Microsecond)
		}
		msg = db.Message{SenderID: sender, ReceiverID: receiver, Content: content, SentAt: now}
		return svcErr.Upstream(tx.Messages.Create(ctx, &msg))
	})
	if err != nil {
		return nil, err
	}
	out := view.NewMessage(msg)
	return &out, nil
}

// ListSince returns messages between viewer and other newer than since,
// oldest first. Empty or malformed since yields an empty page. Messages from
// other are marked read.
func (s *Service) ListSince(ctx context.Context, viewer, other, since string) ([]view.Message, error) {
	if err := s.gate(ctx, viewer, other); err != nil {
		return nil, err
	}
	t, ok := ParseSince(since)
	if !ok {
		return []view.Message{}, nil
	}
	msgs, err := s.store.Messages.Since(ctx, viewer, other, t)
	if err != nil {
		return nil, svcErr.Upstream(err)
	}
	s.markRead(ctx, other, viewer)
	return view.NewMessages(msgs), nil
}

// ListAll returns the full history between viewer and other and marks the
// other party's messages read.
func (s *Service) ListAll(ctx context.Context, viewer, other string) ([]view.Message, error) {
	if err := s.gate(ctx, viewer, other); err != nil {
		return nil, err
	}
	msgs, err := s.store.Messages.All(ctx, viewer, other)
	if err != nil {
		return nil, svcErr.Upstream(err)
	}
	s.markRead(ctx, other, viewer)
	return view.NewMessages(msgs), nil
}

func (s *Service) markRead(ctx context.Context, sender, receiver string) {
	if _, err := s.store.Messages.MarkRead(ctx, sender, receiver); err != nil {
		s.appCtx.Logger.Warn("mark messages read failed", "sender", sender, "receiver", receiver, "err", err)
	}
}

// Conversations lists everyone the user can message with the last message,
// unread count and whether the link is a match, most recent activity first.
func (s *Service) Conversations(ctx context.Context, userID string) ([]view.Conversation, error) {
	type partner struct {
		since   time.Time
		isMatch bool
	}
	partners := map[string]*partner{}

	matches, err := s.store.Matches.ForUser(ctx, userID, 0)
	if err != nil {
		return nil, svcErr.Upstream(err)
	}
	for i := range matches {
		partners[matches[i].Other(userID)] = &partner{since: matches[i].MatchedAt, isMatch: true}
	}

	accepted, err := s.store.ChatRequests.Accepted(ctx, userID)
	if err != nil {
		return nil, svcErr.Upstream(err)
	}
	for _, r := range accepted {
		other := r.RequesterID
		if other == userID {
			other = r.ReceiverID
		}
		if _, ok := partners[other]; !ok {
			partners[other] = &partner{since: r.UpdatedAt}
		}
	}

	ids := make([]string, 0, len(partners))
	for id := range partners {
		ids = append(ids, id)
	}
	users, err := s.store.Users.FindByIDs(ctx, ids)
	if err != nil {
		return nil, svcErr.Upstream(err)
	}

	out := make([]view.Conversation, 0, len(partners))
	for id, p := range partners {
		u, ok := users[id]
		if !ok {
			continue
		}
		conv := view.Conversation{User: view.NewProfile(u, nil), IsMatch: p.isMatch, LastActivity: p.since}

		last, err := s.store.Messages.Latest(ctx, userID, id)
		if err != nil {
			return nil, svcErr.Upstream(err)
		}
		if last != nil {
			m := view.NewMessage(*last)
			conv.LastMessage = &m
			conv.LastActivity = last.SentAt
		}
		if conv.UnreadCount, err = s.store.Messages.UnreadFrom(ctx, id, userID); err != nil {
			return nil, svcErr.Upstream(err)
		}
		out = append(out, conv)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].LastActivity.Equal(out[j].LastActivity) {
			return out[i].User.ID < out[j].User.ID
		}
		return out[i].LastActivity.After(out[j].LastActivity)
	})
	return out, nil
}
