package models

import (
	"context"
	"errors"
	"os"
	"strconv"
	"time"

	"bitbucket.org/mmdatafocus/chores_backend/config"
	"bitbucket.org/mmdatafocus/chores_backend/utils"
	"github.com/shopspring/decimal"
)

type Task struct {
	ID            int              `gorm:"primary_key" json:"id"`
	UserId        int              `gorm:"index;not null" json:"user_id"`
	Description   string           `gorm:"size:255;not null" json:"description"`
	Type          TaskType         `gorm:"size:20;not null" json:"type"`
	Weight        TaskWeight       `gorm:"size:10;not null" json:"weight"`
	Value         *decimal.Decimal `gorm:"type:decimal(20,4)" json:"value"`
	Status        TaskStatus       `gorm:"size:20;not null;default:PENDING" json:"status"`
	RequiresProof bool             `gorm:"not null;default:false" json:"requires_proof"`
	DayOfWeek     *int             `json:"day_of_week"`
	ScheduledDate *time.Time       `json:"scheduled_date"`
	ProofUrl      *string          `gorm:"size:500" json:"proof_url"`
	Acknowledged  bool             `gorm:"not null;default:false" json:"acknowledged"`
	AiValidated   *bool            `json:"ai_validated"`
	CreatedAt     time.Time        `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time        `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewTask struct {
	Description   string     `json:"description" binding:"required"`
	Type          TaskType   `json:"type" binding:"required"`
	Weight        TaskWeight `json:"weight" binding:"required"`
	RequiresProof bool       `json:"requires_proof"`
	DayOfWeek     *int       `json:"day_of_week"`
	ScheduledDate *time.Time `json:"scheduled_date"`
}

// IsRecurring reports whether the task resets on a cadence.
func (t *Task) IsRecurring() bool {
	return t.Type == TaskTypeDaily || t.Type == TaskTypeWeekly
}

// schedule fields are meaningful only for the matching type
func (input *NewTask) validate() error {
	switch input.Type {
	case TaskTypeDaily:
		input.DayOfWeek = nil
		input.ScheduledDate = nil
	case TaskTypeWeekly:
		if input.DayOfWeek == nil || *input.DayOfWeek < 1 || *input.DayOfWeek > 7 {
			return errors.New("weekly task requires day_of_week between 1 and 7")
		}
		input.ScheduledDate = nil
	case TaskTypeOneTime:
		if input.ScheduledDate == nil {
			return errors.New("one-time task requires scheduled_date")
		}
		input.DayOfWeek = nil
	default:
		return errors.New("invalid task type")
	}
	return nil
}

// SubscriptionGate limits how many recurring tasks an account may carry.
// The real enforcement lives in the billing service; this is the hook it
// plugs into.
type SubscriptionGate interface {
	CanCreateRecurringTask(parent *User, currentRecurringCount int) bool
}

type envSubscriptionGate struct{}

func (envSubscriptionGate) CanCreateRecurringTask(parent *User, currentRecurringCount int) bool {
	limit, err := strconv.Atoi(os.Getenv("RECURRING_TASK_LIMIT"))
	if err != nil || limit <= 0 {
		return true
	}
	return currentRecurringCount < limit
}

var ActiveSubscriptionGate SubscriptionGate = envSubscriptionGate{}

// CreateTask creates a chore for the child, status PENDING. Parent only.
func CreateTask(ctx context.Context, childId int, input *NewTask) (*Task, error) {
	parentId, ok := utils.GetUserIdFromContext(ctx)
	if !ok || parentId == 0 {
		return nil, utils.ErrorInvalidArgument
	}
	parent, err := utils.FetchSingleModel[User](ctx, parentId)
	if err != nil {
		return nil, err
	}
	if _, err := GetChildOfParent(ctx, parentId, childId); err != nil {
		return nil, err
	}
	if err := input.validate(); err != nil {
		return nil, err
	}

	db := config.GetDB()

	if input.Type == TaskTypeDaily || input.Type == TaskTypeWeekly {
		var recurringCount int64
		err := db.WithContext(ctx).Model(&Task{}).
			Where("user_id = ? AND type IN ?", childId, []TaskType{TaskTypeDaily, TaskTypeWeekly}).
			Count(&recurringCount).Error
		if err != nil {
			return nil, err
		}
		if !ActiveSubscriptionGate.CanCreateRecurringTask(parent, int(recurringCount)) {
			return nil, errors.New("recurring task limit reached for the current plan")
		}
	}

	task := Task{
		UserId:        childId,
		Description:   input.Description,
		Type:          input.Type,
		Weight:        input.Weight,
		Status:        TaskStatusPending,
		RequiresProof: input.RequiresProof,
		DayOfWeek:     input.DayOfWeek,
		ScheduledDate: input.ScheduledDate,
	}
	if err := db.WithContext(ctx).Create(&task).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

func GetTask(ctx context.Context, childId int, taskId int) (*Task, error) {
	return utils.FetchOwnedModel[Task](ctx, childId, taskId)
}

func GetTasks(ctx context.Context, childId int) ([]*Task, error) {
	return utils.FetchAllOwnedModels[Task](ctx, childId)
}

func UpdateTask(ctx context.Context, childId int, taskId int, input *NewTask) (*Task, error) {
	parentId, ok := utils.GetUserIdFromContext(ctx)
	if !ok || parentId == 0 {
		return nil, utils.ErrorInvalidArgument
	}
	if _, err := GetChildOfParent(ctx, parentId, childId); err != nil {
		return nil, err
	}
	task, err := utils.FetchOwnedModel[Task](ctx, childId, taskId)
	if err != nil {
		return nil, err
	}
	if err := input.validate(); err != nil {
		return nil, err
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Model(task).Updates(map[string]interface{}{
		"Description":   input.Description,
		"Type":          input.Type,
		"Weight":        input.Weight,
		"RequiresProof": input.RequiresProof,
		"DayOfWeek":     input.DayOfWeek,
		"ScheduledDate": input.ScheduledDate,
	}).Error; err != nil {
		return nil, err
	}
	return task, nil
}

func DeleteTask(ctx context.Context, childId int, taskId int) (*Task, error) {
	parentId, ok := utils.GetUserIdFromContext(ctx)
	if !ok || parentId == 0 {
		return nil, utils.ErrorInvalidArgument
	}
	if _, err := GetChildOfParent(ctx, parentId, childId); err != nil {
		return nil, err
	}
	task, err := utils.FetchOwnedModel[Task](ctx, childId, taskId)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Delete(task).Error; err != nil {
		return nil, err
	}
	return task, nil
}

// ValidateTaskTransition enforces the chore lifecycle:
// PENDING -> COMPLETED -> PENDING_APPROVAL (proof only) -> APPROVED.
// The recurrence reset back to PENDING is handled separately.
func ValidateTaskTransition(task *Task, to TaskStatus) error {
	switch to {
	case TaskStatusCompleted:
		if task.Status != TaskStatusPending {
			return utils.ErrorInvalidState
		}
	case TaskStatusPendingApproval:
		if task.Status != TaskStatusCompleted || !task.RequiresProof {
			return utils.ErrorInvalidState
		}
	case TaskStatusApproved:
		if task.Status != TaskStatusCompleted && task.Status != TaskStatusPendingApproval {
			return utils.ErrorInvalidState
		}
	default:
		return utils.ErrorInvalidState
	}
	return nil
}

// CompleteTask is the child-facing completion endpoint.
func CompleteTask(ctx context.Context, childId int, taskId int) (*Task, error) {
	task, err := utils.FetchOwnedModel[Task](ctx, childId, taskId)
	if err != nil {
		return nil, err
	}
	if err := ValidateTaskTransition(task, TaskStatusCompleted); err != nil {
		return nil, err
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Model(task).
		Where("status = ?", TaskStatusPending).
		Update("status", TaskStatusCompleted).Error; err != nil {
		return nil, err
	}
	task.Status = TaskStatusCompleted
	return task, nil
}

// SubmitTaskProof records the proof reference from the validation
// callback and parks the task for parental approval.
func SubmitTaskProof(ctx context.Context, childId int, taskId int, proofUrl string, aiValidated *bool) (*Task, error) {
	task, err := utils.FetchOwnedModel[Task](ctx, childId, taskId)
	if err != nil {
		return nil, err
	}
	if err := ValidateTaskTransition(task, TaskStatusPendingApproval); err != nil {
		return nil, err
	}
	// a proof submitted without a verdict is stored as not validated so
	// the parent view can tell it apart from a never-checked one
	if aiValidated == nil {
		aiValidated = utils.NewFalse()
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Model(task).
		Where("status = ?", TaskStatusCompleted).
		Updates(map[string]interface{}{
			"Status":      TaskStatusPendingApproval,
			"ProofUrl":    proofUrl,
			"AiValidated": aiValidated,
		}).Error; err != nil {
		return nil, err
	}
	task.Status = TaskStatusPendingApproval
	task.ProofUrl = &proofUrl
	task.AiValidated = aiValidated
	return task, nil
}

// AcknowledgeTask lets the child mark an approved chore as seen.
func AcknowledgeTask(ctx context.Context, childId int, taskId int) (*Task, error) {
	task, err := utils.FetchOwnedModel[Task](ctx, childId, taskId)
	if err != nil {
		return nil, err
	}
	if task.Status != TaskStatusApproved {
		return nil, utils.ErrorInvalidState
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Model(task).Update("acknowledged", true).Error; err != nil {
		return nil, err
	}
	task.Acknowledged = true
	return task, nil
}

// FindRecurringTasks scans tasks of the given type across all accounts.
// Used only by the recurrence reset run.
func FindRecurringTasks(ctx context.Context, taskType TaskType) ([]*Task, error) {
	db := config.GetDB()
	var tasks []*Task
	err := db.WithContext(ctx).Where("type = ?", taskType).Find(&tasks).Error
	if err != nil {
		return nil, err
	}
	return tasks, nil
}

// IsoWeekday returns 1=Mon..7=Sun for t.
func IsoWeekday(t time.Time) int {
	wd := int(t.Weekday())
	if wd == 0 {
		return 7
	}
	return wd
}

// ShouldReset reports whether the recurrence run should drive the task
// back to PENDING at the given time. Resetting an already-PENDING task is
// a no-op, so the guard is about avoiding pointless writes, not safety.
func ShouldReset(task *Task, now time.Time) bool {
	if task.Status == TaskStatusPending {
		return false
	}
	switch task.Type {
	case TaskTypeDaily:
		return true
	case TaskTypeWeekly:
		return task.DayOfWeek != nil && *task.DayOfWeek == IsoWeekday(now)
	default:
		return false
	}
}
