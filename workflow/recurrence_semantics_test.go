package workflow

import (
	"errors"
	"testing"
	"time"

	"bitbucket.org/mmdatafocus/chores_backend/models"
)

// DB-free check of the reset run's semantics: every due task is attempted,
// one task's failure never aborts the run, and non-due tasks are untouched.

func runFakeReset(tasks []*models.Task, now time.Time, reset func(*models.Task) error) (count int, failures int) {
	for _, task := range tasks {
		if !models.ShouldReset(task, now) {
			continue
		}
		if err := reset(task); err != nil {
			failures++
			continue
		}
		count++
	}
	return count, failures
}

func TestRecurrenceRun_SkipsFailedTasksAndContinues(t *testing.T) {
	monday := time.Date(2023, time.November, 6, 0, 5, 0, 0, time.UTC)
	mon, wed := 1, 3

	broken := &models.Task{ID: 2, Type: models.TaskTypeDaily, Status: models.TaskStatusApproved}
	tasks := []*models.Task{
		{ID: 1, Type: models.TaskTypeDaily, Status: models.TaskStatusCompleted},
		broken,
		{ID: 3, Type: models.TaskTypeWeekly, Status: models.TaskStatusApproved, DayOfWeek: &mon},
		{ID: 4, Type: models.TaskTypeWeekly, Status: models.TaskStatusApproved, DayOfWeek: &wed},
		{ID: 5, Type: models.TaskTypeDaily, Status: models.TaskStatusPending},
	}

	count, failures := runFakeReset(tasks, monday, func(task *models.Task) error {
		if task.ID == broken.ID {
			return errors.New("deadlock found when trying to get lock")
		}
		task.Status = models.TaskStatusPending
		task.Acknowledged = false
		return nil
	})

	if count != 2 {
		t.Fatalf("expected 2 resets (daily + monday weekly), got %d", count)
	}
	if failures != 1 {
		t.Fatalf("expected 1 skipped failure, got %d", failures)
	}
	if tasks[0].Status != models.TaskStatusPending {
		t.Fatalf("due daily task should be pending, got %s", tasks[0].Status)
	}
	if tasks[3].Status != models.TaskStatusApproved {
		t.Fatalf("wednesday task must be untouched on a monday, got %s", tasks[3].Status)
	}
	if broken.Status != models.TaskStatusApproved {
		t.Fatalf("failed task must keep its previous status, got %s", broken.Status)
	}
}
