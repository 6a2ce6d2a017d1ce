package scheduler

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/taskhub/taskhub-api/internal/repository"
	"github.com/taskhub/taskhub-api/internal/services"
)

// ReminderScheduler is the recurring job that emits due-date reminders,
// sweeps old read notifications and garbage-collects expired sessions. It
// keeps no state of its own; every tick rebuilds its view from the stores.
type ReminderScheduler struct {
	taskRepo         repository.TaskRepository
	notificationRepo repository.NotificationRepository
	sessionRepo      repository.SessionRepository
	notifications    *services.NotificationService

	interval   time.Duration
	thresholds []int
	retention  time.Duration

	now func() time.Time
}

// NewReminderScheduler creates a scheduler. Thresholds are lead times in
// hours, widest first.
func NewReminderScheduler(
	taskRepo repository.TaskRepository,
	notificationRepo repository.NotificationRepository,
	sessionRepo repository.SessionRepository,
	notifications *services.NotificationService,
	interval time.Duration,
	thresholds []int,
	retention time.Duration,
) *ReminderScheduler {
	return &ReminderScheduler{
		taskRepo:         taskRepo,
		notificationRepo: notificationRepo,
		sessionRepo:      sessionRepo,
		notifications:    notifications,
		interval:         interval,
		thresholds:       thresholds,
		retention:        retention,
		now:              time.Now,
	}
}

// Start runs the tick loop until the context is cancelled. A failed tick is
// logged; the next tick retries from scratch.
func (s *ReminderScheduler) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := s.RunTick(); err != nil {
					log.Printf("reminder tick failed: %v", err)
				}
			}
		}
	}()
}

// RunTick processes one scheduler pass. Exported so tests can drive the
// scheduler without waiting on the ticker.
func (s *ReminderScheduler) RunTick() error {
	now := s.now()
	maxThreshold := s.thresholds[0]

	tasks, err := s.taskRepo.DueBetween(now, now.Add(time.Duration(maxThreshold)*time.Hour))
	if err != nil {
		return fmt.Errorf("failed to query due tasks: %w", err)
	}

	emitted := 0
	for i := range tasks {
		task := &tasks[i]
		hoursUntilDue := task.DueDate.Sub(now).Hours()

		for _, threshold := range s.thresholds {
			// One-hour qualification window per threshold: fire once as the
			// task crosses into it, tolerate the tick interval.
			if hoursUntilDue <= float64(threshold-1) || hoursUntilDue > float64(threshold) {
				continue
			}

			exists, err := s.notificationRepo.ExistsReminder(task.ID, *task.AssignedTo, threshold)
			if err != nil {
				return fmt.Errorf("failed to check reminder dedup: %w", err)
			}
			if exists {
				break
			}

			// Email failure inside must not abort the rest of the batch.
			if err := s.notifications.NotifyTaskReminder(task, hoursUntilDue, threshold); err != nil {
				log.Printf("reminder for task %d failed: %v", task.ID, err)
			} else {
				emitted++
			}
			break
		}
	}

	if emitted > 0 {
		log.Printf("reminder tick emitted %d reminders", emitted)
	}

	if deleted, err := s.notificationRepo.DeleteReadOlderThan(now.Add(-s.retention)); err != nil {
		log.Printf("notification retention sweep failed: %v", err)
	} else if deleted > 0 {
		log.Printf("retention sweep removed %d notifications", deleted)
	}

	if deleted, err := s.sessionRepo.DeleteExpired(now); err != nil {
		log.Printf("session gc failed: %v", err)
	} else if deleted > 0 {
		log.Printf("session gc removed %d sessions", deleted)
	}

	return nil
}
