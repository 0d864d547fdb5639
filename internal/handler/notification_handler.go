package handler

import (
	"github.com/campus-venues/service-booking/internal/domain/notification"
	"github.com/campus-venues/service-booking/pkg/response"
	"github.com/gin-gonic/gin"
)

// NotificationHandler exposes the notifications that have not expired yet.
type NotificationHandler struct {
	buffer *notification.Buffer
}

// NewNotificationHandler creates a new NotificationHandler.
func NewNotificationHandler(buffer *notification.Buffer) *NotificationHandler {
	return &NotificationHandler{buffer: buffer}
}

// RegisterRoutes registers notification routes.
func (h *NotificationHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/api/v1/notifications", h.ListActive)
}

// ListActive handles GET /api/v1/notifications.
func (h *NotificationHandler) ListActive(c *gin.Context) {
	response.Success(c, h.buffer.Active())
}
