package services

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/taskhub/taskhub-api/internal/auth"
	"github.com/taskhub/taskhub-api/internal/constants"
	"github.com/taskhub/taskhub-api/internal/models"
	"github.com/taskhub/taskhub-api/internal/repository"
	"gorm.io/gorm"
)

var (
	ErrTaskNotFound         = errors.New("task not found")
	ErrTaskPermissionDenied = errors.New("user does not have permission for this task")
	ErrTitleRequired        = errors.New("title is required")
	ErrTitleTooLong         = errors.New("title is too long")
	ErrDescriptionTooLong   = errors.New("description is too long")
	ErrDueDateInPast        = errors.New("due date must be in the future")
	ErrInvalidStatus        = errors.New("invalid task status")
	ErrInvalidPriority      = errors.New("invalid task priority")
	ErrAssigneeNotFound     = errors.New("assigned user does not exist")
)

// TaskService handles task business logic and the RBAC rules over it.
type TaskService struct {
	taskRepo      repository.TaskRepository
	userRepo      repository.UserRepository
	notifications *NotificationService
}

// NewTaskService creates a new TaskService.
func NewTaskService(taskRepo repository.TaskRepository, userRepo repository.UserRepository, notifications *NotificationService) *TaskService {
	return &TaskService{
		taskRepo:      taskRepo,
		userRepo:      userRepo,
		notifications: notifications,
	}
}

// CreateTaskInput represents input for creating a task.
type CreateTaskInput struct {
	Title       string
	Description string
	Status      models.TaskStatus
	Priority    models.TaskPriority
	DueDate     time.Time
	AssignedTo  *uint64
}

// ListTasksInput represents the optional filters for listing tasks. Role
// visibility is applied before any of them.
type ListTasksInput struct {
	Status     *models.TaskStatus
	Priority   *models.TaskPriority
	AssignedTo *uint64
	Page       int
	PageSize   int
}

// UpdateTaskInput represents a partial task update. Fields lists the JSON
// keys present in the patch so field-level permissions can be enforced even
// for keys whose value matches the current one.
type UpdateTaskInput struct {
	Title         *string
	Description   *string
	Status        *models.TaskStatus
	Priority      *models.TaskPriority
	DueDate       *time.Time
	AssignedTo    *uint64
	ClearAssignee bool
	Fields        []string
}

// CreateTask creates a task. Only admins and managers may create; the
// assignment notification is persisted before this returns.
func (s *TaskService) CreateTask(identity auth.Identity, input CreateTaskInput) (*models.Task, error) {
	if !auth.CanCreateTask(identity) {
		return nil, ErrTaskPermissionDenied
	}

	if strings.TrimSpace(input.Title) == "" {
		return nil, ErrTitleRequired
	}
	if len(input.Title) > constants.MaxTitleLength {
		return nil, ErrTitleTooLong
	}
	if len(input.Description) > constants.MaxDescriptionLength {
		return nil, ErrDescriptionTooLong
	}
	if !input.DueDate.After(time.Now()) {
		return nil, ErrDueDateInPast
	}

	if input.Status == "" {
		input.Status = models.TaskStatusPending
	}
	if !input.Status.Valid() {
		return nil, ErrInvalidStatus
	}
	if input.Priority == "" {
		input.Priority = models.TaskPriorityMedium
	}
	if !input.Priority.Valid() {
		return nil, ErrInvalidPriority
	}

	var assignee *models.User
	if input.AssignedTo != nil {
		var err error
		assignee, err = s.findAssignee(*input.AssignedTo)
		if err != nil {
			return nil, err
		}
	}

	task := &models.Task{
		Title:       input.Title,
		Description: input.Description,
		Status:      input.Status,
		Priority:    input.Priority,
		DueDate:     input.DueDate,
		AssignedTo:  input.AssignedTo,
		CreatedBy:   identity.ID,
	}

	if err := s.taskRepo.Create(task); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	if assignee != nil {
		if err := s.notifications.NotifyTaskAssigned(task, assignee); err != nil {
			log.Printf("assignment notification for task %d failed: %v", task.ID, err)
		}
	}

	return s.taskRepo.FindByID(task.ID, "Creator", "Assignee")
}

// ListTasks returns the tasks visible to the identity, narrowed by the
// optional filters, sorted by due date then newest first.
func (s *TaskService) ListTasks(identity auth.Identity, input ListTasksInput) ([]models.Task, int64, error) {
	filter := repository.TaskFilter{
		Status:     input.Status,
		Priority:   input.Priority,
		AssignedTo: input.AssignedTo,
		Page:       input.Page,
		PageSize:   input.PageSize,
	}

	switch identity.Role {
	case models.RoleAdmin:
		// sees everything
	case models.RoleManager:
		id := identity.ID
		filter.CreatorOrAssigneeID = &id
	default:
		id := identity.ID
		filter.AssigneeID = &id
	}

	tasks, total, err := s.taskRepo.List(filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list tasks: %w", err)
	}

	return tasks, total, nil
}

// GetTask returns a task the identity is allowed to see.
func (s *TaskService) GetTask(identity auth.Identity, taskID uint64) (*models.Task, error) {
	task, err := s.taskRepo.FindByID(taskID, "Creator", "Assignee")
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}

	if !auth.CanActOnTask(identity, task, auth.TaskActionView) {
		return nil, ErrTaskPermissionDenied
	}

	return task, nil
}

// UpdateTask applies a partial update under the RBAC rules: a user-role
// assignee may only change the status, a manager must be creator or
// assignee, an admin is unrestricted.
func (s *TaskService) UpdateTask(identity auth.Identity, taskID uint64, input UpdateTaskInput) (*models.Task, error) {
	task, err := s.taskRepo.FindByID(taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}

	if !auth.CanActOnTask(identity, task, auth.TaskActionUpdate) {
		return nil, ErrTaskPermissionDenied
	}

	if allowed := auth.UpdatableFields(identity); allowed != nil {
		for _, field := range input.Fields {
			if !containsField(allowed, field) {
				return nil, ErrTaskPermissionDenied
			}
		}
	}

	previousAssignee := task.AssignedTo
	var changed []string

	if input.Title != nil {
		if strings.TrimSpace(*input.Title) == "" {
			return nil, ErrTitleRequired
		}
		if len(*input.Title) > constants.MaxTitleLength {
			return nil, ErrTitleTooLong
		}
		if task.Title != *input.Title {
			task.Title = *input.Title
			changed = append(changed, "title")
		}
	}
	if input.Description != nil {
		if len(*input.Description) > constants.MaxDescriptionLength {
			return nil, ErrDescriptionTooLong
		}
		if task.Description != *input.Description {
			task.Description = *input.Description
			changed = append(changed, "description")
		}
	}
	if input.Status != nil {
		if !input.Status.Valid() {
			return nil, ErrInvalidStatus
		}
		if task.Status != *input.Status {
			task.Status = *input.Status
			changed = append(changed, "status")
		}
	}
	if input.Priority != nil {
		if !input.Priority.Valid() {
			return nil, ErrInvalidPriority
		}
		if task.Priority != *input.Priority {
			task.Priority = *input.Priority
			changed = append(changed, "priority")
		}
	}
	if input.DueDate != nil {
		if !input.DueDate.After(time.Now()) {
			return nil, ErrDueDateInPast
		}
		if !task.DueDate.Equal(*input.DueDate) {
			task.DueDate = *input.DueDate
			changed = append(changed, "due_date")
		}
	}

	var newAssignee *models.User
	if input.ClearAssignee {
		if task.AssignedTo != nil {
			task.AssignedTo = nil
			changed = append(changed, "assigned_to")
		}
	} else if input.AssignedTo != nil {
		if previousAssignee == nil || *previousAssignee != *input.AssignedTo {
			newAssignee, err = s.findAssignee(*input.AssignedTo)
			if err != nil {
				return nil, err
			}
			assigneeID := *input.AssignedTo
			task.AssignedTo = &assigneeID
			changed = append(changed, "assigned_to")
		}
	}

	if err := s.taskRepo.Update(task); err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	s.notifyUpdate(identity, task, newAssignee, changed)

	return s.taskRepo.FindByID(task.ID, "Creator", "Assignee")
}

// DeleteTask removes a task. Admins always may; managers only their own.
func (s *TaskService) DeleteTask(identity auth.Identity, taskID uint64) error {
	task, err := s.taskRepo.FindByID(taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTaskNotFound
		}
		return fmt.Errorf("failed to find task: %w", err)
	}

	if !auth.CanActOnTask(identity, task, auth.TaskActionDelete) {
		return ErrTaskPermissionDenied
	}

	if err := s.taskRepo.Delete(taskID); err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}

	return nil
}

// notifyUpdate routes post-update notifications: a reassignment notifies the
// new assignee; any other change notifies the current assignee, unless they
// made the change themselves. Failures are logged, never propagated.
func (s *TaskService) notifyUpdate(identity auth.Identity, task *models.Task, newAssignee *models.User, changed []string) {
	if len(changed) == 0 {
		return
	}

	if newAssignee != nil {
		if err := s.notifications.NotifyTaskAssigned(task, newAssignee); err != nil {
			log.Printf("assignment notification for task %d failed: %v", task.ID, err)
		}
		return
	}

	if task.AssignedTo == nil || *task.AssignedTo == identity.ID {
		return
	}

	recipient, err := s.userRepo.FindByID(*task.AssignedTo)
	if err != nil {
		log.Printf("update notification for task %d skipped: %v", task.ID, err)
		return
	}
	if err := s.notifications.NotifyTaskUpdated(task, recipient, changed); err != nil {
		log.Printf("update notification for task %d failed: %v", task.ID, err)
	}
}

func (s *TaskService) findAssignee(userID uint64) (*models.User, error) {
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAssigneeNotFound
		}
		return nil, fmt.Errorf("failed to find assignee: %w", err)
	}
	return user, nil
}

func containsField(fields []string, field string) bool {
	for _, f := range fields {
		if f == field {
			return true
		}
	}
	return false
}
