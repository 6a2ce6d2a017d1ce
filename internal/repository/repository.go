package repository

import (
	"time"

	"github.com/taskhub/taskhub-api/internal/models"
	"github.com/taskhub/taskhub-api/internal/utils"
)

// paginationParams normalizes a page/size pair for the shared Paginate scope.
func paginationParams(page, pageSize int) utils.PaginationParams {
	return utils.PaginationParams{
		Page:   page,
		Limit:  pageSize,
		Offset: (page - 1) * pageSize,
	}
}

// UserRepository defines the interface for user data access
type UserRepository interface {
	// Create creates a new user
	Create(user *models.User) error

	// FindByID finds a user by ID
	FindByID(id uint64) (*models.User, error)

	// FindByUsername finds a user by username
	FindByUsername(username string) (*models.User, error)

	// FindByEmail finds a user by email
	FindByEmail(email string) (*models.User, error)

	// FindByVerificationToken finds a user whose verification token matches
	// and has not expired at the given time
	FindByVerificationToken(token string, now time.Time) (*models.User, error)

	// Update persists changes to a user
	Update(user *models.User) error

	// List retrieves users with pagination
	List(page, pageSize int) ([]models.User, int64, error)
}

// SessionRepository defines the interface for the issued-token ledger
type SessionRepository interface {
	// Create persists a new session row
	Create(session *models.Session) error

	// FindByToken finds a session by its exact token
	FindByToken(token string) (*models.Session, error)

	// DeleteByToken removes the session for a token. Deleting a missing
	// token is not an error.
	DeleteByToken(token string) error

	// DeleteByUserID removes every session belonging to a user
	DeleteByUserID(userID uint64) error

	// DeleteExpired removes sessions past their expiry
	DeleteExpired(now time.Time) (int64, error)
}

// TaskFilter holds filtering options for listing tasks. The visibility
// fields are mutually exclusive: CreatorOrAssigneeID expresses the manager
// rule (created OR assigned), AssigneeID the plain user rule.
type TaskFilter struct {
	CreatorOrAssigneeID *uint64
	AssigneeID          *uint64
	Status              *models.TaskStatus
	Priority            *models.TaskPriority
	AssignedTo          *uint64
	Page                int
	PageSize            int
}

// TaskRepository defines the interface for task data access
type TaskRepository interface {
	// Create creates a new task
	Create(task *models.Task) error

	// FindByID finds a task by ID with optional preloading
	FindByID(id uint64, preload ...string) (*models.Task, error)

	// List retrieves tasks with filtering and pagination, sorted by due date
	// ascending then creation time descending
	List(filter TaskFilter) ([]models.Task, int64, error)

	// Update updates a task
	Update(task *models.Task) error

	// Delete deletes a task
	Delete(id uint64) error

	// DueBetween returns open, assigned tasks whose due date falls in
	// (from, to], for the reminder scheduler
	DueBetween(from, to time.Time) ([]models.Task, error)
}

// NotificationFilter holds filtering options for listing notifications
type NotificationFilter struct {
	UserID     uint64
	UnreadOnly bool
	Page       int
	PageSize   int
}

// NotificationRepository defines the interface for notification data access
type NotificationRepository interface {
	// Create creates a new notification
	Create(notification *models.Notification) error

	// FindByID finds a notification by ID
	FindByID(id uint64) (*models.Notification, error)

	// List retrieves a user's notifications, newest first
	List(filter NotificationFilter) ([]models.Notification, int64, error)

	// CountUnread counts a user's unread notifications
	CountUnread(userID uint64) (int64, error)

	// Update persists changes to a notification
	Update(notification *models.Notification) error

	// MarkAllRead marks every unread notification of a user as read
	MarkAllRead(userID uint64, now time.Time) (int64, error)

	// Delete deletes a notification
	Delete(id uint64) error

	// DeleteByUserID deletes every notification belonging to a user
	DeleteByUserID(userID uint64) (int64, error)

	// ExistsReminder reports whether a reminder was already emitted for the
	// given task, recipient and lead-time threshold
	ExistsReminder(taskID, userID uint64, thresholdHours int) (bool, error)

	// DeleteReadOlderThan removes read notifications created before the cutoff
	DeleteReadOlderThan(cutoff time.Time) (int64, error)
}
