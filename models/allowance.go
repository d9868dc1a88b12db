package models

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Allowance proration: each chore carries a point weight, the monthly
// budget is split over the total points expected in the month, and a
// chore is worth its points times the per-point value. All rounding is
// banker's (half to even): per-point value at 4 fraction digits, final
// task value at 2.

const (
	pointsLow    int64 = 1
	pointsMedium int64 = 5
	pointsHigh   int64 = 20
)

// WeightPoints maps a chore weight to its point value. Unknown weights
// are worth nothing rather than failing the whole calculation.
func WeightPoints(w TaskWeight) int64 {
	switch w {
	case TaskWeightLow:
		return pointsLow
	case TaskWeightMedium:
		return pointsMedium
	case TaskWeightHigh:
		return pointsHigh
	default:
		return 0
	}
}

func daysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// OccurrencesInMonth is the number of times the task is expected to
// happen within the given calendar month. Weekly counting iterates the
// month's days so months with 4 vs 5 of a weekday come out exact.
func OccurrencesInMonth(task *Task, year int, month time.Month) int {
	switch task.Type {
	case TaskTypeDaily:
		return daysInMonth(year, month)
	case TaskTypeWeekly:
		if task.DayOfWeek == nil {
			return 0
		}
		count := 0
		for day := 1; day <= daysInMonth(year, month); day++ {
			date := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
			if IsoWeekday(date) == *task.DayOfWeek {
				count++
			}
		}
		return count
	case TaskTypeOneTime:
		if task.ScheduledDate == nil {
			return 0
		}
		if task.ScheduledDate.Year() == year && task.ScheduledDate.Month() == month {
			return 1
		}
		return 0
	default:
		return 0
	}
}

// ActiveTasksForMonth filters to the tasks that count toward the month:
// every recurring task plus one-time tasks scheduled inside it.
func ActiveTasksForMonth(tasks []*Task, year int, month time.Month) []*Task {
	active := make([]*Task, 0, len(tasks))
	for _, task := range tasks {
		if task.IsRecurring() {
			active = append(active, task)
			continue
		}
		if task.Type == TaskTypeOneTime && task.ScheduledDate != nil &&
			task.ScheduledDate.Year() == year && task.ScheduledDate.Month() == month {
			active = append(active, task)
		}
	}
	return active
}

// TotalPointsPossible sums points x expected occurrences over the active set.
func TotalPointsPossible(activeTasks []*Task, year int, month time.Month) int64 {
	var total int64
	for _, task := range activeTasks {
		total += WeightPoints(task.Weight) * int64(OccurrencesInMonth(task, year, month))
	}
	return total
}

// CalculateTaskValue converts the task's weight into its monetary share
// of the monthly budget, relative to the whole active set. Pure; callers
// decide whether to persist the result anywhere.
func CalculateTaskValue(task *Task, monthlyBudget *decimal.Decimal, activeTasks []*Task, year int, month time.Month) decimal.Decimal {
	zero := decimal.Zero.RoundBank(2)
	if task == nil || monthlyBudget == nil || !monthlyBudget.IsPositive() {
		return zero
	}
	if len(activeTasks) == 0 {
		return zero
	}
	totalPoints := TotalPointsPossible(activeTasks, year, month)
	if totalPoints == 0 {
		return zero
	}
	points := WeightPoints(task.Weight)
	if points == 0 {
		return zero
	}
	// a task that cannot occur this month is worth nothing, even when
	// other tasks keep the total positive
	if OccurrencesInMonth(task, year, month) == 0 {
		return zero
	}

	valuePerPoint := monthlyBudget.Div(decimal.NewFromInt(totalPoints)).RoundBank(4)
	return valuePerPoint.Mul(decimal.NewFromInt(points)).RoundBank(2)
}

// PredictAllowance sums task values over COMPLETED and APPROVED tasks in
// the active set. The per-task value is always relative to the entire
// month's roster, not just what has been done so far.
func PredictAllowance(tasks []*Task, monthlyBudget *decimal.Decimal, year int, month time.Month) decimal.Decimal {
	active := ActiveTasksForMonth(tasks, year, month)
	total := decimal.Zero
	for _, task := range active {
		if task.Status != TaskStatusCompleted && task.Status != TaskStatusApproved {
			continue
		}
		total = total.Add(CalculateTaskValue(task, monthlyBudget, active, year, month))
	}
	return total.RoundBank(2)
}

// CalculatePredictedAllowance is the stored-data entry point: predicted
// allowance for the child's current month.
func CalculatePredictedAllowance(ctx context.Context, childId int) (decimal.Decimal, error) {
	child, err := GetUser(ctx, childId)
	if err != nil {
		return decimal.Zero, err
	}
	tasks, err := GetTasks(ctx, childId)
	if err != nil {
		return decimal.Zero, err
	}
	now := time.Now()
	return PredictAllowance(tasks, child.MonthlyAllowance, now.Year(), now.Month()), nil
}
