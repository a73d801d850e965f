package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/oggyb/fall-in/internal/middleware"
	"github.com/oggyb/fall-in/internal/response"
)

func (h *Handler) Notifications(c *gin.Context) {
	items, err := h.feed.ListRecent(c.Request.Context(), middleware.UserID(c), queryInt(c, "limit"))
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, items)
}

func (h *Handler) NotificationOverview(c *gin.Context) {
	out, err := h.feed.Overview(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, out)
}

func (h *Handler) UnreadCount(c *gin.Context) {
	n, err := h.feed.UnreadCount(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, gin.H{"count": n})
}

func (h *Handler) DeleteNotification(c *gin.Context) {
	if err := h.feed.Delete(c.Request.Context(), c.Param("id"), middleware.UserID(c)); err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, gin.H{"message": "notification deleted"})
}
