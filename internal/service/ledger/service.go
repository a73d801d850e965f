package ledger

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/oggyb/fall-in/internal/app"
	"github.com/oggyb/fall-in/internal/db"
	svcErr "github.com/oggyb/fall-in/internal/errors"
	"github.com/oggyb/fall-in/internal/repository"
	"github.com/oggyb/fall-in/internal/service/notify"
	"github.com/oggyb/fall-in/internal/service/view"
)

// LikeResult describes what a like changed. A duplicate like is a success.
type LikeResult struct {
	Duplicate bool      `json:"duplicate"`
	Matched   bool      `json:"matched"`
	Match     *db.Match `json:"-"`
}

// ChatRequestResult carries the stored request. AlreadyRequested is set when
// nothing was written because the ordered pair already had a request.
type ChatRequestResult struct {
	Request          *db.ChatRequest
	AlreadyRequested bool
}

// Service owns likes, matches and chat requests, and decides who may message whom.
// Every mutation that touches more than one row runs in a single transaction.
type Service struct {
	appCtx *app.AppContext
	store  *repository.Store
	feed   *notify.Service
}

func NewService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx: appCtx,
		store:  appCtx.Store,
		feed:   notify.NewService(appCtx),
	}
}

func checkPair(a, b, selfMsg string) error {
	if strings.TrimSpace(a) == "" || strings.TrimSpace(b) == "" {
		return svcErr.Validation("user id is required")
	}
	if a == b {
		return svcErr.Validation(selfMsg)
	}
	return nil
}

func requireUser(ctx context.Context, tx *repository.Store, id string) error {
	if _, err := tx.Users.FindByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return svcErr.NotFound("user not found")
		}
		return svcErr.Upstream(err)
	}
	return nil
}

// RecordLike stores actor → target. If target already liked actor the pair
// becomes a match; otherwise target gets a like notification (first like only).
func (s *Service) RecordLike(ctx context.Context, actor, target string) (*LikeResult, error) {
	if err := checkPair(actor, target, "you cannot like yourself"); err != nil {
		return nil, err
	}
	s.appCtx.Logger.Debug("RecordLike called", "actor", actor, "target", target)

	res := &LikeResult{}
	err := s.store.Tx(ctx, func(tx *repository.Store) error {
		if err := requireUser(ctx, tx, target); err != nil {
			return err
		}
		created, err := tx.Likes.Create(ctx, actor, target)
		if err != nil {
			return svcErr.Upstream(err)
		}
		res.Duplicate = !created

		reverse, err := tx.Likes.Exists(ctx, target, actor)
		if err != nil {
			return svcErr.Upstream(err)
		}
		if reverse {
			m, _, err := s.formMatch(ctx, tx, actor, target)
			if err != nil {
				return err
			}
			res.Matched, res.Match = true, m
			return nil
		}
		if created {
			_, err = s.feed.In(tx).Notify(ctx, target, actor, db.NotificationLike)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	if !res.Matched {
		// a concurrent reverse like may have committed after our check
		if err := s.settleMatch(ctx, actor, target, res); err != nil {
			return nil, err
		}
	}
	s.appCtx.Logger.Debug("RecordLike result", "actor", actor, "target", target, "matched", res.Matched, "duplicate", res.Duplicate)
	return res, nil
}

// settleMatch re-reads the reverse like outside any transaction and forms the
// match if it is there.
func (s *Service) settleMatch(ctx context.Context, actor, target string, res *LikeResult) error {
	reverse, err := s.store.Likes.Exists(ctx, target, actor)
	if err != nil {
		return svcErr.Upstream(err)
	}
	if !reverse {
		return nil
	}
	m, _, err := s.FormMatch(ctx, actor, target)
	if err != nil {
		return err
	}
	res.Matched, res.Match = true, m
	return nil
}

// FormMatch creates the match for {a, b} if absent. On creation it clears
// every notification between the pair and notifies both sides.
func (s *Service) FormMatch(ctx context.Context, a, b string) (*db.Match, bool, error) {
	if err := checkPair(a, b, "you cannot match with yourself"); err != nil {
		return nil, false, err
	}
	var (
		m       *db.Match
		created bool
	)
	err := s.store.Tx(ctx, func(tx *repository.Store) error {
		var err error
		m, created, err = s.formMatch(ctx, tx, a, b)
		return err
	})
	return m, created, err
}

func (s *Service) formMatch(ctx context.Context, tx *repository.Store, a, b string) (*db.Match, bool, error) {
	m, created, err := tx.Matches.Create(ctx, a, b, s.appCtx.Now())
	if err != nil {
		return nil, false, svcErr.Upstream(err)
	}
	if !created {
		return m, false, nil
	}

	feed := s.feed.In(tx)
	if _, err := feed.ClearBetween(ctx, a, b); err != nil {
		return nil, false, err
	}
	if _, err := feed.Notify(ctx, a, b, db.NotificationMatch); err != nil {
		return nil, false, err
	}
	if _, err := feed.Notify(ctx, b, a, db.NotificationMatch); err != nil {
		return nil, false, err
	}
	s.appCtx.Logger.Info("match formed", "user1", m.User1ID, "user2", m.User2ID)
	return m, true, nil
}

// RequestChat opens a pending request requester → receiver. Any existing
// request for the ordered pair, whatever its status, makes this a no-op.
func (s *Service) RequestChat(ctx context.Context, requester, receiver string) (*ChatRequestResult, error) {
	if err := checkPair(requester, receiver, "you cannot request a chat with yourself"); err != nil {
		return nil, err
	}

	res := &ChatRequestResult{}
	err := s.store.Tx(ctx, func(tx *repository.Store) error {
		if err := requireUser(ctx, tx, receiver); err != nil {
			return err
		}
		req, created, err := tx.ChatRequests.Create(ctx, requester, receiver)
		if err != nil {
			return svcErr.Upstream(err)
		}
		res.Request, res.AlreadyRequested = req, !created
		if !created {
			return nil
		}
		_, err = s.feed.In(tx).Notify(ctx, receiver, requester, db.NotificationChatRequest)
		return err
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// RespondChat lets the receiver accept or reject a pending request.
//
// Accept: status → accepted, the pair is matched, notifications between the
// pair are cleared and the requester gets a chat_accepted notification.
// Reject: the request and its chat_request notifications are deleted, so the
// requester may ask again.
func (s *Service) RespondChat(ctx context.Context, requestID, caller string, accept bool) (*db.ChatRequest, error) {
	if requestID == "" {
		return nil, svcErr.Validation("request id is required")
	}

	var out *db.ChatRequest
	err := s.store.Tx(ctx, func(tx *repository.Store) error {
		req, err := tx.ChatRequests.FindByID(ctx, requestID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return svcErr.NotFound("chat request not found")
			}
			return svcErr.Upstream(err)
		}
		if req.ReceiverID != caller {
			return svcErr.Authorization("only the receiver can answer this chat request")
		}
		if req.Status != db.ChatPending {
			return svcErr.Validation("chat request was already answered")
		}

		if !accept {
			if err := tx.ChatRequests.Delete(ctx, req.ID); err != nil {
				return svcErr.Upstream(err)
			}
			if _, err := s.feed.In(tx).ClearBetween(ctx, req.RequesterID, req.ReceiverID, db.NotificationChatRequest); err != nil {
				return err
			}
			req.Status = db.ChatRejected
			out = req
			return nil
		}

		changed, err := tx.ChatRequests.SetStatus(ctx, req.ID, db.ChatPending, db.ChatAccepted)
		if err != nil {
			return svcErr.Upstream(err)
		}
		if !changed {
			return svcErr.Validation("chat request was already answered")
		}
		req.Status = db.ChatAccepted

		if _, _, err := s.formMatch(ctx, tx, req.RequesterID, req.ReceiverID); err != nil {
			return err
		}
		feed := s.feed.In(tx)
		if _, err := feed.ClearBetween(ctx, req.RequesterID, req.ReceiverID); err != nil {
			return err
		}
		if _, err := feed.Notify(ctx, req.RequesterID, req.ReceiverID, db.NotificationChatAccepted); err != nil {
			return err
		}
		out = req
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.appCtx.Logger.Debug("RespondChat done", "request", requestID, "accept", accept)
	return out, nil
}

// AcceptLike is the "like back" shortcut from a like notification. It needs
// an existing like from liker and ends with a match.
func (s *Service) AcceptLike(ctx context.Context, actor, liker string) (*LikeResult, error) {
	if err := checkPair(actor, liker, "you cannot like yourself"); err != nil {
		return nil, err
	}
	liked, err := s.store.Likes.Exists(ctx, liker, actor)
	if err != nil {
		return nil, svcErr.Upstream(err)
	}
	if !liked {
		return nil, svcErr.NotFound("this user has not liked you")
	}
	return s.RecordLike(ctx, actor, liker)
}

// AcceptChatFrom accepts the pending request sent by requester to actor.
func (s *Service) AcceptChatFrom(ctx context.Context, actor, requester string) (*db.ChatRequest, error) {
	if err := checkPair(actor, requester, "you cannot chat with yourself"); err != nil {
		return nil, err
	}
	req, err := s.store.ChatRequests.FindDirected(ctx, requester, actor)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, svcErr.NotFound("chat request not found")
		}
		return nil, svcErr.Upstream(err)
	}
	return s.RespondChat(ctx, req.ID, actor, true)
}

// CanMessage reports whether a and b are matched or share an accepted chat
// request. It always reads the store.
func (s *Service) CanMessage(ctx context.Context, a, b string) (bool, error) {
	if a == "" || b == "" || a == b {
		return false, nil
	}
	matched, err := s.store.Matches.Exists(ctx, a, b)
	if err != nil {
		return false, svcErr.Upstream(err)
	}
	if matched {
		return true, nil
	}
	accepted, err := s.store.ChatRequests.AcceptedBetween(ctx, a, b)
	if err != nil {
		return false, svcErr.Upstream(err)
	}
	return accepted, nil
}

// Unmatch resets the relationship between a and b: the match, notifications,
// chat requests, messages and likes between them are all deleted.
func (s *Service) Unmatch(ctx context.Context, a, b string) error {
	if err := checkPair(a, b, "you cannot unmatch yourself"); err != nil {
		return err
	}
	return s.store.Tx(ctx, func(tx *repository.Store) error {
		n, err := tx.Matches.DeletePair(ctx, a, b)
		if err != nil {
			return svcErr.Upstream(err)
		}
		if n == 0 {
			return svcErr.NotFound("no match with this user")
		}
		if _, err := tx.Notifications.DeleteBetween(ctx, a, b); err != nil {
			return svcErr.Upstream(err)
		}
		if _, err := tx.ChatRequests.DeletePair(ctx, a, b); err != nil {
			return svcErr.Upstream(err)
		}
		if _, err := tx.Messages.DeletePair(ctx, a, b); err != nil {
			return svcErr.Upstream(err)
		}
		if _, err := tx.Likes.DeletePair(ctx, a, b); err != nil {
			return svcErr.Upstream(err)
		}
		s.appCtx.Logger.Info("unmatched", "user", a, "other", b)
		return nil
	})
}

// Matches lists the user's matches newest first with the other profile.
func (s *Service) Matches(ctx context.Context, userID string) ([]view.Match, error) {
	matches, err := s.store.Matches.ForUser(ctx, userID, 0)
	if err != nil {
		return nil, svcErr.Upstream(err)
	}
	ids := make([]string, 0, len(matches))
	for i := range matches {
		ids = append(ids, matches[i].Other(userID))
	}
	users, err := s.store.Users.FindByIDs(ctx, ids)
	if err != nil {
		return nil, svcErr.Upstream(err)
	}
	out := make([]view.Match, 0, len(matches))
	for i := range matches {
		other := matches[i].Other(userID)
		out = append(out, view.Match{UserID: other, MatchedAt: matches[i].MatchedAt, User: view.NewProfile(users[other], nil)})
	}
	return out, nil
}

// PendingRequests lists chat requests waiting on userID.
func (s *Service) PendingRequests(ctx context.Context, userID string) ([]view.ChatRequest, error) {
	reqs, err := s.store.ChatRequests.Pending(ctx, userID)
	if err != nil {
		return nil, svcErr.Upstream(err)
	}
	ids := make([]string, 0, len(reqs))
	for _, r := range reqs {
		ids = append(ids, r.RequesterID)
	}
	users, err := s.store.Users.FindByIDs(ctx, ids)
	if err != nil {
		return nil, svcErr.Upstream(err)
	}
	out := make([]view.ChatRequest, 0, len(reqs))
	for _, r := range reqs {
		out = append(out, view.NewChatRequest(r, users[r.RequesterID]))
	}
	return out, nil
}

// Relationship summarizes the ledger between viewer and other.
func (s *Service) Relationship(ctx context.Context, viewer, other string) (view.Relationship, error) {
	var rel view.Relationship
	var err error
	if rel.Liked, err = s.store.Likes.Exists(ctx, viewer, other); err != nil {
		return rel, svcErr.Upstream(err)
	}
	if rel.LikedYou, err = s.store.Likes.Exists(ctx, other, viewer); err != nil {
		return rel, svcErr.Upstream(err)
	}
	if rel.Matched, err = s.store.Matches.Exists(ctx, viewer, other); err != nil {
		return rel, svcErr.Upstream(err)
	}
	if rel.CanMessage, err = s.CanMessage(ctx, viewer, other); err != nil {
		return rel, err
	}
	return rel, nil
}
