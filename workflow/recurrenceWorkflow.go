package workflow

import (
	"context"
	"time"

	"bitbucket.org/mmdatafocus/chores_backend/config"
	"bitbucket.org/mmdatafocus/chores_backend/models"
	"github.com/bsm/redislock"
)

// ResetRecurringTasks is the daily recurrence run: every DAILY task and
// every WEEKLY task due today is driven back to PENDING with its
// acknowledgement and AI validation cleared. Per-task failures are logged
// and skipped; one corrupt record must not block the reset for everyone
// else. The whole run is idempotent, so retrying it is safe.
func ResetRecurringTasks(ctx context.Context) (int, error) {
	logger := config.GetLogger()
	now := time.Now()

	// best-effort cross-instance guard; correctness does not depend on it
	// because each reset is a status-guarded single-row update
	if locker := config.GetRedisLock(); locker != nil {
		lock, err := locker.Obtain(ctx, "RecurringTaskReset", 10*time.Minute, nil)
		if err == redislock.ErrNotObtained {
			config.LogInfo(logger, "recurrenceWorkflow.go", "ResetRecurringTasks", "reset already running elsewhere; skipping", nil)
			return 0, nil
		}
		if err == nil {
			defer lock.Release(ctx)
		}
	}

	resetCount := 0
	for _, taskType := range []models.TaskType{models.TaskTypeDaily, models.TaskTypeWeekly} {
		tasks, err := models.FindRecurringTasks(ctx, taskType)
		if err != nil {
			config.LogError(logger, "recurrenceWorkflow.go", "ResetRecurringTasks", "FindRecurringTasks", taskType, err)
			return resetCount, err
		}
		for _, task := range tasks {
			if !models.ShouldReset(task, now) {
				continue
			}
			if err := resetTask(ctx, task); err != nil {
				config.LogError(logger, "recurrenceWorkflow.go", "ResetRecurringTasks", "resetTask", task.ID, err)
				continue
			}
			resetCount++
		}
	}

	config.LogInfo(logger, "recurrenceWorkflow.go", "ResetRecurringTasks", "recurring task reset run finished", resetCount)
	return resetCount, nil
}

// resetTask drives one recurring task back to PENDING. The status guard
// makes the write a compare-and-swap: if a child completed the task
// between our read and this write, the update affects zero rows and the
// newer state wins.
func resetTask(ctx context.Context, task *models.Task) error {
	db := config.GetDB()
	return db.WithContext(ctx).Model(&models.Task{}).
		Where("id = ? AND status = ?", task.ID, task.Status).
		Updates(map[string]interface{}{
			"Status":       models.TaskStatusPending,
			"Acknowledged": false,
			"AiValidated":  false,
		}).Error
}
