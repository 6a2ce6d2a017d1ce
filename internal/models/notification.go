package models

import "time"

type NotificationType string

const (
	NotificationTaskReminder  NotificationType = "task_reminder"
	NotificationTaskAssigned  NotificationType = "task_assigned"
	NotificationTaskUpdated   NotificationType = "task_updated"
	NotificationTaskCompleted NotificationType = "task_completed"
	NotificationSystem        NotificationType = "system"
)

type Notification struct {
	ID       uint64           `gorm:"primarykey" json:"id"`
	UserID   uint64           `gorm:"not null;index" json:"user_id"`
	TaskID   *uint64          `gorm:"index" json:"task_id,omitempty"`
	Type     NotificationType `gorm:"type:varchar(30);not null" json:"type"`
	Title    string           `gorm:"type:varchar(200);not null" json:"title"`
	Message  string           `gorm:"type:text" json:"message"`
	Priority TaskPriority     `gorm:"type:varchar(20);not null;default:'medium'" json:"priority"`

	IsRead bool       `gorm:"not null;default:false;index" json:"is_read"`
	ReadAt *time.Time `json:"read_at,omitempty"`

	// Reminder-only fields. ThresholdHours records which lead-time window
	// produced the reminder and keys the duplicate check.
	DueDate        *time.Time `json:"due_date,omitempty"`
	HoursUntilDue  *float64   `json:"hours_until_due,omitempty"`
	ThresholdHours *int       `gorm:"index" json:"-"`

	CreatedAt time.Time `json:"created_at"`

	// Relations
	User User  `gorm:"foreignKey:UserID" json:"-"`
	Task *Task `gorm:"foreignKey:TaskID" json:"task,omitempty"`
}
