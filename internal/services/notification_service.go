package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	ginsse "github.com/gin-contrib/sse"
	"github.com/taskhub/taskhub-api/internal/models"
	"github.com/taskhub/taskhub-api/internal/repository"
	"github.com/taskhub/taskhub-api/internal/sse"
	"gorm.io/gorm"
)

var (
	ErrNotificationNotFound = errors.New("notification not found")
	ErrNotNotificationOwner = errors.New("notification belongs to another user")
)

// NotificationService persists notifications and fans them out to live SSE
// connections. The store write decides success; pushes and emails are
// best-effort.
type NotificationService struct {
	notificationRepo repository.NotificationRepository
	hub              *sse.Hub
	mailer           Mailer
}

// NewNotificationService creates a new NotificationService.
func NewNotificationService(notificationRepo repository.NotificationRepository, hub *sse.Hub, mailer Mailer) *NotificationService {
	return &NotificationService{
		notificationRepo: notificationRepo,
		hub:              hub,
		mailer:           mailer,
	}
}

// Create persists a notification, then pushes it and the recipient's new
// unread count to their live channel.
func (s *NotificationService) Create(notification *models.Notification) error {
	if err := s.notificationRepo.Create(notification); err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}

	s.hub.Push(notification.UserID, ginsse.Event{Event: "notification", Data: notification})
	s.PushUnreadCount(notification.UserID)
	return nil
}

// PushUnreadCount recomputes the user's unread count and pushes it. Failures
// are swallowed; the count is advisory.
func (s *NotificationService) PushUnreadCount(userID uint64) {
	count, err := s.notificationRepo.CountUnread(userID)
	if err != nil {
		return
	}
	s.hub.Push(userID, ginsse.Event{
		Event: "unread_count",
		Data:  map[string]int64{"count": count},
	})
}

// List returns a page of the user's notifications plus their unread count.
func (s *NotificationService) List(userID uint64, unreadOnly bool, page, pageSize int) ([]models.Notification, int64, int64, error) {
	notifications, total, err := s.notificationRepo.List(repository.NotificationFilter{
		UserID:     userID,
		UnreadOnly: unreadOnly,
		Page:       page,
		PageSize:   pageSize,
	})
	if err != nil {
		return nil, 0, 0, fmt.Errorf("failed to list notifications: %w", err)
	}

	unread, err := s.notificationRepo.CountUnread(userID)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}

	return notifications, total, unread, nil
}

// UnreadCount returns the user's unread notification count.
func (s *NotificationService) UnreadCount(userID uint64) (int64, error) {
	return s.notificationRepo.CountUnread(userID)
}

// MarkRead marks one notification as read. Only the owner may do so.
func (s *NotificationService) MarkRead(userID, notificationID uint64) (*models.Notification, error) {
	notification, err := s.notificationRepo.FindByID(notificationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotificationNotFound
		}
		return nil, fmt.Errorf("failed to find notification: %w", err)
	}

	if notification.UserID != userID {
		return nil, ErrNotNotificationOwner
	}

	if !notification.IsRead {
		now := time.Now()
		notification.IsRead = true
		notification.ReadAt = &now
		if err := s.notificationRepo.Update(notification); err != nil {
			return nil, fmt.Errorf("failed to mark notification read: %w", err)
		}
	}

	s.PushUnreadCount(userID)
	return notification, nil
}

// MarkAllRead marks every unread notification of the user as read and
// returns how many rows changed. Zero unread is not an error.
func (s *NotificationService) MarkAllRead(userID uint64) (int64, error) {
	updated, err := s.notificationRepo.MarkAllRead(userID, time.Now())
	if err != nil {
		return 0, fmt.Errorf("failed to mark notifications read: %w", err)
	}

	s.PushUnreadCount(userID)
	return updated, nil
}

// Delete removes one notification. Only the owner may do so.
func (s *NotificationService) Delete(userID, notificationID uint64) error {
	notification, err := s.notificationRepo.FindByID(notificationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotificationNotFound
		}
		return fmt.Errorf("failed to find notification: %w", err)
	}

	if notification.UserID != userID {
		return ErrNotNotificationOwner
	}

	if err := s.notificationRepo.Delete(notificationID); err != nil {
		return fmt.Errorf("failed to delete notification: %w", err)
	}

	s.PushUnreadCount(userID)
	return nil
}

// DeleteAll removes every notification belonging to the user.
func (s *NotificationService) DeleteAll(userID uint64) (int64, error) {
	deleted, err := s.notificationRepo.DeleteByUserID(userID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete notifications: %w", err)
	}

	s.PushUnreadCount(userID)
	return deleted, nil
}

// NotifyTaskAssigned records an assignment notification for the assignee.
// The row is persisted before this returns; the email is fire-and-forget.
func (s *NotificationService) NotifyTaskAssigned(task *models.Task, assignee *models.User) error {
	taskID := task.ID
	notification := &models.Notification{
		UserID:   assignee.ID,
		TaskID:   &taskID,
		Type:     models.NotificationTaskAssigned,
		Title:    "New task assigned",
		Message:  fmt.Sprintf("You have been assigned the task %q.", task.Title),
		Priority: task.Priority,
	}
	if err := s.Create(notification); err != nil {
		return err
	}

	sendAsync(s.mailer, assignee.Email, "New task assigned: "+task.Title,
		fmt.Sprintf("The task %q was assigned to you. It is due %s.", task.Title, task.DueDate.Format(time.RFC1123)))
	return nil
}

// NotifyTaskUpdated records an update notification for the recipient,
// naming the fields that changed. A status change to completed is reported
// as a completion instead.
func (s *NotificationService) NotifyTaskUpdated(task *models.Task, recipient *models.User, changedFields []string) error {
	taskID := task.ID
	notification := &models.Notification{
		UserID:   recipient.ID,
		TaskID:   &taskID,
		Type:     models.NotificationTaskUpdated,
		Title:    "Task updated",
		Message:  fmt.Sprintf("The task %q was updated (%s).", task.Title, strings.Join(changedFields, ", ")),
		Priority: task.Priority,
	}
	if task.Status == models.TaskStatusCompleted {
		notification.Type = models.NotificationTaskCompleted
		notification.Title = "Task completed"
		notification.Message = fmt.Sprintf("The task %q was marked completed.", task.Title)
	}
	return s.Create(notification)
}

// NotifyTaskReminder records a due-date reminder for the task's assignee.
// Priority escalates as the deadline approaches.
func (s *NotificationService) NotifyTaskReminder(task *models.Task, hoursUntilDue float64, thresholdHours int) error {
	if task.AssignedTo == nil {
		return nil
	}

	priority := models.TaskPriorityLow
	switch {
	case hoursUntilDue < 24:
		priority = models.TaskPriorityHigh
	case hoursUntilDue <= 48:
		priority = models.TaskPriorityMedium
	}

	taskID := task.ID
	dueDate := task.DueDate
	notification := &models.Notification{
		UserID:         *task.AssignedTo,
		TaskID:         &taskID,
		Type:           models.NotificationTaskReminder,
		Title:          "Task due soon",
		Message:        fmt.Sprintf("The task %q is due in about %d hours.", task.Title, thresholdHours),
		Priority:       priority,
		DueDate:        &dueDate,
		HoursUntilDue:  &hoursUntilDue,
		ThresholdHours: &thresholdHours,
	}
	if err := s.Create(notification); err != nil {
		return err
	}

	if task.Assignee != nil {
		sendAsync(s.mailer, task.Assignee.Email, "Reminder: "+task.Title,
			fmt.Sprintf("The task %q is due %s.", task.Title, task.DueDate.Format(time.RFC1123)))
	}
	return nil
}
