package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/oggyb/fall-in/internal/middleware"
	"github.com/oggyb/fall-in/internal/response"
)

type sendMessageRequest struct {
	Content string `json:"content"`
}

func (h *Handler) Chats(c *gin.Context) {
	convs, err := h.messages.Conversations(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, convs)
}

func (h *Handler) Messages(c *gin.Context) {
	msgs, err := h.messages.ListAll(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, msgs)
}

func (h *Handler) PollMessages(c *gin.Context) {
	msgs, err := h.messages.ListSince(c.Request.Context(), middleware.UserID(c), c.Param("id"), c.Query("since"))
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, msgs)
}

func (h *Handler) SendMessage(c *gin.Context) {
	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid message payload")
		return
	}
	msg, err := h.messages.Send(c.Request.Context(), middleware.UserID(c), c.Param("id"), req.Content)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Created(c, msg)
}
