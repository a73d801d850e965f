package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/oggyb/fall-in/internal/middleware"
	"github.com/oggyb/fall-in/internal/response"
	"github.com/oggyb/fall-in/internal/service/ledger"
	"github.com/oggyb/fall-in/internal/service/view"
)

type likeResponse struct {
	Duplicate bool        `json:"duplicate"`
	Matched   bool        `json:"matched"`
	Match     *view.Match `json:"match,omitempty"`
}

func newLikeResponse(userID string, res *ledger.LikeResult) likeResponse {
	out := likeResponse{Duplicate: res.Duplicate, Matched: res.Matched}
	if res.Match != nil {
		out.Match = &view.Match{UserID: res.Match.Other(userID), MatchedAt: res.Match.MatchedAt}
	}
	return out
}

func (h *Handler) Like(c *gin.Context) {
	userID := middleware.UserID(c)
	res, err := h.ledger.RecordLike(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, newLikeResponse(userID, res))
}

func (h *Handler) AcceptLike(c *gin.Context) {
	userID := middleware.UserID(c)
	res, err := h.ledger.AcceptLike(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, newLikeResponse(userID, res))
}

func (h *Handler) RequestChat(c *gin.Context) {
	res, err := h.ledger.RequestChat(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, gin.H{
		"request":           view.NewChatRequest(*res.Request, nil),
		"already_requested": res.AlreadyRequested,
	})
}

func (h *Handler) AcceptChat(c *gin.Context) {
	req, err := h.ledger.AcceptChatFrom(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, view.NewChatRequest(*req, nil))
}

func (h *Handler) AcceptChatRequest(c *gin.Context) { h.respondChat(c, true) }

func (h *Handler) RejectChatRequest(c *gin.Context) { h.respondChat(c, false) }

func (h *Handler) respondChat(c *gin.Context, accept bool) {
	req, err := h.ledger.RespondChat(c.Request.Context(), c.Param("id"), middleware.UserID(c), accept)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, view.NewChatRequest(*req, nil))
}

func (h *Handler) Unmatch(c *gin.Context) {
	if err := h.ledger.Unmatch(c.Request.Context(), middleware.UserID(c), c.Param("id")); err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, gin.H{"message": "unmatched"})
}

func (h *Handler) Matches(c *gin.Context) {
	matches, err := h.ledger.Matches(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, matches)
}

func (h *Handler) ChatRequests(c *gin.Context) {
	reqs, err := h.ledger.PendingRequests(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, reqs)
}
