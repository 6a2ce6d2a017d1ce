package repository

import (
	"time"

	"github.com/taskhub/taskhub-api/internal/database"
	"github.com/taskhub/taskhub-api/internal/models"
	"gorm.io/gorm"
)

// GormNotificationRepository is a GORM implementation of NotificationRepository
type GormNotificationRepository struct {
	db *gorm.DB
}

// NewNotificationRepository creates a new NotificationRepository
func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &GormNotificationRepository{db: db}
}

// Create creates a new notification
func (r *GormNotificationRepository) Create(notification *models.Notification) error {
	return r.db.Create(notification).Error
}

// FindByID finds a notification by ID
func (r *GormNotificationRepository) FindByID(id uint64) (*models.Notification, error) {
	var notification models.Notification
	if err := r.db.First(&notification, id).Error; err != nil {
		return nil, err
	}
	return &notification, nil
}

// List retrieves a user's notifications, newest first
func (r *GormNotificationRepository) List(filter NotificationFilter) ([]models.Notification, int64, error) {
	var notifications []models.Notification

	query := r.db.Model(&models.Notification{}).Where("notifications.user_id = ?", filter.UserID)
	if filter.UnreadOnly {
		query = query.Where("notifications.is_read = ?", false)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	listQuery := query.Order("notifications.created_at DESC")
	if filter.Page > 0 && filter.PageSize > 0 {
		listQuery = listQuery.Scopes(database.Paginate(paginationParams(filter.Page, filter.PageSize)))
	}

	if err := listQuery.Find(&notifications).Error; err != nil {
		return nil, 0, err
	}

	return notifications, total, nil
}

// CountUnread counts a user's unread notifications
func (r *GormNotificationRepository) CountUnread(userID uint64) (int64, error) {
	var count int64
	err := r.db.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&count).Error
	return count, err
}

// Update persists changes to a notification
func (r *GormNotificationRepository) Update(notification *models.Notification) error {
	return r.db.Save(notification).Error
}

// MarkAllRead marks every unread notification of a user as read
func (r *GormNotificationRepository) MarkAllRead(userID uint64, now time.Time) (int64, error) {
	result := r.db.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Updates(map[string]interface{}{"is_read": true, "read_at": now})
	return result.RowsAffected, result.Error
}

// Delete deletes a notification
func (r *GormNotificationRepository) Delete(id uint64) error {
	return r.db.Delete(&models.Notification{}, id).Error
}

// DeleteByUserID deletes every notification belonging to a user
func (r *GormNotificationRepository) DeleteByUserID(userID uint64) (int64, error) {
	result := r.db.Where("user_id = ?", userID).Delete(&models.Notification{})
	return result.RowsAffected, result.Error
}

// ExistsReminder reports whether a reminder was already emitted for the
// given task, recipient and lead-time threshold
func (r *GormNotificationRepository) ExistsReminder(taskID, userID uint64, thresholdHours int) (bool, error) {
	var count int64
	err := r.db.Model(&models.Notification{}).
		Where("task_id = ? AND user_id = ?", taskID, userID).
		Where("type = ?", models.NotificationTaskReminder).
		Where("threshold_hours = ?", thresholdHours).
		Count(&count).Error
	return count > 0, err
}

// DeleteReadOlderThan removes read notifications created before the cutoff
func (r *GormNotificationRepository) DeleteReadOlderThan(cutoff time.Time) (int64, error) {
	result := r.db.
		Where("is_read = ? AND created_at < ?", true, cutoff).
		Delete(&models.Notification{})
	return result.RowsAffected, result.Error
}
