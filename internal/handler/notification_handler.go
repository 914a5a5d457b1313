package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/omar-ramo/yawm/pkg/response"
)

func (h *Handler) ListNotifications(c *gin.Context) {
	page, err := h.notifications.List(c.Request.Context(), viewerOf(c), pageOf(c))
	if err != nil {
		fail(c, err, "failed to list notifications")
		return
	}
	response.Success(c, page)
}

func (h *Handler) UnreadCount(c *gin.Context) {
	n, err := h.notifications.UnreadCount(c.Request.Context(), viewerOf(c))
	if err != nil {
		fail(c, err, "failed to count notifications")
		return
	}
	response.Success(c, gin.H{"unread": n})
}

func (h *Handler) MarkRead(c *gin.Context) {
	if err := h.notifications.MarkRead(c.Request.Context(), viewerOf(c), c.Param("id")); err != nil {
		fail(c, err, "failed to mark notification read")
		return
	}
	response.NoContent(c)
}

func (h *Handler) MarkAllRead(c *gin.Context) {
	n, err := h.notifications.MarkAllRead(c.Request.Context(), viewerOf(c))
	if err != nil {
		fail(c, err, "failed to mark notifications read")
		return
	}
	response.Success(c, gin.H{"marked": n})
}
