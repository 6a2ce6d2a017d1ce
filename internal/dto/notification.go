package dto

import (
	"time"

	"github.com/taskhub/taskhub-api/internal/models"
	"github.com/taskhub/taskhub-api/internal/utils"
)

// NotificationDTO represents a notification in API responses
type NotificationDTO struct {
	ID            uint64                  `json:"id"`
	TaskID        *uint64                 `json:"task_id,omitempty"`
	Type          models.NotificationType `json:"type"`
	Title         string                  `json:"title"`
	Message       string                  `json:"message"`
	Priority      models.TaskPriority     `json:"priority"`
	IsRead        bool                    `json:"is_read"`
	ReadAt        *time.Time              `json:"read_at,omitempty"`
	DueDate       *time.Time              `json:"due_date,omitempty"`
	HoursUntilDue *float64                `json:"hours_until_due,omitempty"`
	CreatedAt     time.Time               `json:"created_at"`
}

// NotificationListResponse represents a paginated list of notifications
// together with the owner's unread count.
type NotificationListResponse struct {
	Notifications []NotificationDTO        `json:"notifications"`
	UnreadCount   int64                    `json:"unread_count"`
	Pagination    utils.PaginationResponse `json:"pagination"`
}

// ToNotificationDTO converts a Notification model to NotificationDTO
func ToNotificationDTO(n models.Notification) NotificationDTO {
	return NotificationDTO{
		ID:            n.ID,
		TaskID:        n.TaskID,
		Type:          n.Type,
		Title:         n.Title,
		Message:       n.Message,
		Priority:      n.Priority,
		IsRead:        n.IsRead,
		ReadAt:        n.ReadAt,
		DueDate:       n.DueDate,
		HoursUntilDue: n.HoursUntilDue,
		CreatedAt:     n.CreatedAt,
	}
}

// ToNotificationListResponse converts notifications to a list response
func ToNotificationListResponse(notifications []models.Notification, unread int64, page, limit int, total int64) NotificationListResponse {
	items := make([]NotificationDTO, len(notifications))
	for i, n := range notifications {
		items[i] = ToNotificationDTO(n)
	}
	return NotificationListResponse{
		Notifications: items,
		UnreadCount:   unread,
		Pagination: utils.PaginationResponse{
			Page:  page,
			Limit: limit,
			Total: total,
		},
	}
}
