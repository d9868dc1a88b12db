package workflow

import (
	"context"
	"fmt"
	"time"

	"bitbucket.org/mmdatafocus/chores_backend/config"
	"bitbucket.org/mmdatafocus/chores_backend/models"
	"bitbucket.org/mmdatafocus/chores_backend/utils"
	"gorm.io/gorm"
)

// ApproveTask is the parent approval step: it flips the task to APPROVED
// and credits the child's ledger with the task's prorated value for the
// current month. The credit snapshots the value; the task row itself is
// not the durable copy.
func ApproveTask(ctx context.Context, parentId int, childId int, taskId int) (*models.Task, error) {
	logger := config.GetLogger()

	child, err := models.GetChildOfParent(ctx, parentId, childId)
	if err != nil {
		return nil, err
	}
	task, err := models.GetTask(ctx, childId, taskId)
	if err != nil {
		return nil, err
	}
	if err := models.ValidateTaskTransition(task, models.TaskStatusApproved); err != nil {
		return nil, err
	}

	tasks, err := models.GetTasks(ctx, childId)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	active := models.ActiveTasksForMonth(tasks, now.Year(), now.Month())
	value := models.CalculateTaskValue(task, child.MonthlyAllowance, active, now.Year(), now.Month())

	db := config.GetDB()
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// guard on the current status so a concurrent reset or second
		// approval loses cleanly instead of double-crediting
		result := tx.Model(&models.Task{}).
			Where("id = ? AND status IN ?", taskId, []models.TaskStatus{models.TaskStatusCompleted, models.TaskStatusPendingApproval}).
			Updates(map[string]interface{}{
				"Status": models.TaskStatusApproved,
				"Value":  value,
			})
		if result.Error != nil {
			config.LogError(logger, "taskWorkflow.go", "ApproveTask", "UpdateTask", taskId, result.Error)
			return result.Error
		}
		if result.RowsAffected == 0 {
			return utils.ErrorInvalidState
		}

		if !value.IsPositive() {
			return nil
		}

		if err := AcquireAccountPostingLock(tx, childId); err != nil {
			config.LogError(logger, "taskWorkflow.go", "ApproveTask", "AcquireAccountPostingLock", childId, err)
			return err
		}
		defer ReleaseAccountPostingLock(tx, childId)

		var account models.User
		if err := tx.First(&account, childId).Error; err != nil {
			return utils.ErrorRecordNotFound
		}

		earning := models.Transaction{
			UserId:      childId,
			Amount:      value,
			Description: fmt.Sprintf("Task earning: %s", task.Description),
			Date:        time.Now().UTC(),
			Type:        models.TransactionTypeTaskEarning,
			Status:      models.TransactionStatusCompleted,
		}
		if err := tx.Create(&earning).Error; err != nil {
			config.LogError(logger, "taskWorkflow.go", "ApproveTask", "CreateEarning", earning, err)
			return err
		}

		newBalance := account.Balance.Add(earning.Amount)
		if err := tx.Model(&account).Update("balance", newBalance).Error; err != nil {
			config.LogError(logger, "taskWorkflow.go", "ApproveTask", "UpdateBalance", childId, err)
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	task.Status = models.TaskStatusApproved
	task.Value = &value
	return task, nil
}
