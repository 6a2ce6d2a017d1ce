package auth

import (
	"github.com/taskhub/taskhub-api/internal/models"
)

// Identity is the resolved, authenticated actor attached to a request.
type Identity struct {
	ID       uint64      `json:"id"`
	Username string      `json:"username"`
	Email    string      `json:"email"`
	Role     models.Role `json:"role"`
}

// TaskAction enumerates the operations the task policy decides on.
type TaskAction string

const (
	TaskActionView   TaskAction = "view"
	TaskActionUpdate TaskAction = "update"
	TaskActionDelete TaskAction = "delete"
)

// CanCreateTask reports whether the identity may create tasks.
func CanCreateTask(identity Identity) bool {
	return identity.Role == models.RoleAdmin || identity.Role == models.RoleManager
}

// CanActOnTask is the single task authorization policy. Route middleware and
// handlers both consult it so the rules cannot drift between layers.
//
// Visibility: admin sees all, manager sees created-or-assigned, user sees
// assigned only. Update follows visibility; delete is admin or the creating
// manager.
func CanActOnTask(identity Identity, task *models.Task, action TaskAction) bool {
	isCreator := task.CreatedBy == identity.ID
	isAssignee := task.AssignedTo != nil && *task.AssignedTo == identity.ID

	switch action {
	case TaskActionView, TaskActionUpdate:
		switch identity.Role {
		case models.RoleAdmin:
			return true
		case models.RoleManager:
			return isCreator || isAssignee
		default:
			return isAssignee
		}
	case TaskActionDelete:
		switch identity.Role {
		case models.RoleAdmin:
			return true
		case models.RoleManager:
			return isCreator
		default:
			return false
		}
	}
	return false
}

// UpdatableFields returns the set of task fields the identity may patch, or
// nil when the identity may patch any field. A user-role assignee may only
// change the status.
func UpdatableFields(identity Identity) []string {
	if identity.Role == models.RoleUser {
		return []string{"status"}
	}
	return nil
}

// CanRevokeSessions reports whether the actor may revoke every session of
// the target user.
func CanRevokeSessions(identity Identity, targetUserID uint64) bool {
	return identity.Role == models.RoleAdmin || identity.ID == targetUserID
}
