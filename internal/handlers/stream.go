package handlers

import (
	"io"
	"time"

	ginsse "github.com/gin-contrib/sse"
	"github.com/gin-gonic/gin"
	apierrors "github.com/taskhub/taskhub-api/internal/errors"
	"github.com/taskhub/taskhub-api/internal/services"
	"github.com/taskhub/taskhub-api/internal/sse"
)

// StreamHandler serves the live notification feed over Server-Sent Events.
type StreamHandler struct {
	authService         *services.AuthService
	notificationService *services.NotificationService
	hub                 *sse.Hub
	heartbeat           time.Duration
}

// NewStreamHandler creates a new StreamHandler.
func NewStreamHandler(authService *services.AuthService, notificationService *services.NotificationService, hub *sse.Hub, heartbeat time.Duration) *StreamHandler {
	return &StreamHandler{
		authService:         authService,
		notificationService: notificationService,
		hub:                 hub,
		heartbeat:           heartbeat,
	}
}

// Stream opens the long-lived event channel. EventSource cannot set custom
// headers, so the bearer token arrives as a query parameter here and
// nowhere else.
func (h *StreamHandler) Stream(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		apierrors.Unauthorized(c, "")
		return
	}

	identity, err := h.authService.Authenticate(token)
	if err != nil {
		apierrors.Unauthorized(c, "Invalid or expired token")
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	ch := h.hub.Register(identity.ID)
	defer h.hub.Unregister(identity.ID, ch)

	// Connected acknowledgement and current unread count, delivered through
	// the hub so ordering matches later pushes.
	h.hub.Push(identity.ID, ginsse.Event{
		Event: "connected",
		Data:  map[string]interface{}{"user_id": identity.ID},
	})
	h.notificationService.PushUnreadCount(identity.ID)

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	clientGone := c.Request.Context().Done()

	c.Stream(func(w io.Writer) bool {
		select {
		case <-clientGone:
			return false
		case event, ok := <-ch:
			if !ok {
				// Replaced by a newer connection for the same user.
				return false
			}
			c.SSEvent(event.Event, event.Data)
			return true
		case <-ticker.C:
			c.SSEvent("heartbeat", time.Now().UTC().Format(time.RFC3339))
			return true
		}
	})
}
