package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/oggyb/fall-in/internal/middleware"
	"github.com/oggyb/fall-in/internal/response"
)

type postConfessionRequest struct {
	Content  string `json:"content"`
	Category string `json:"category"`
}

type postCommentRequest struct {
	Content  string `json:"content"`
	ParentID string `json:"parent_id"`
}

func (h *Handler) ConfessionFeed(c *gin.Context) {
	page, err := h.confessions.Feed(c.Request.Context(), c.Query("category"), c.Query("cursor"), queryInt(c, "limit"))
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, page)
}

func (h *Handler) PostConfession(c *gin.Context) {
	var req postConfessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid confession payload")
		return
	}
	out, err := h.confessions.Post(c.Request.Context(), middleware.UserID(c), req.Content, req.Category)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Created(c, out)
}

func (h *Handler) GetConfession(c *gin.Context) {
	out, err := h.confessions.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, out)
}

func (h *Handler) LikeConfession(c *gin.Context) {
	n, err := h.confessions.Like(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, gin.H{"likes": n})
}

func (h *Handler) ConfessionComments(c *gin.Context) {
	out, err := h.confessions.Comments(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, out)
}

func (h *Handler) PostComment(c *gin.Context) {
	var req postCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid comment payload")
		return
	}
	out, err := h.confessions.Comment(c.Request.Context(), middleware.UserID(c), c.Param("id"), req.ParentID, req.Content)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Created(c, out)
}

func (h *Handler) LikeComment(c *gin.Context) {
	n, err := h.confessions.LikeComment(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, gin.H{"likes": n})
}
