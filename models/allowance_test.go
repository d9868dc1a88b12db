package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

// NOTE: These tests are intentionally DB-free. The proration math is pure;
// the stored-data entry points are thin wrappers over it.

func budget(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func dailyTask(weight TaskWeight) *Task {
	return &Task{Type: TaskTypeDaily, Weight: weight, Status: TaskStatusPending}
}

func weeklyTask(weight TaskWeight, dayOfWeek int) *Task {
	return &Task{Type: TaskTypeWeekly, Weight: weight, Status: TaskStatusPending, DayOfWeek: &dayOfWeek}
}

func oneTimeTask(weight TaskWeight, scheduled time.Time) *Task {
	return &Task{Type: TaskTypeOneTime, Weight: weight, Status: TaskStatusPending, ScheduledDate: &scheduled}
}

func TestOccurrencesInMonth_ExactCounts(t *testing.T) {
	// November 2023: 30 days, 4 Mondays (6, 13, 20, 27), 5 Wednesdays (1, 8, 15, 22, 29).
	cases := []struct {
		name     string
		task     *Task
		expected int
	}{
		{"daily", dailyTask(TaskWeightLow), 30},
		{"weekly monday", weeklyTask(TaskWeightMedium, 1), 4},
		{"weekly wednesday", weeklyTask(TaskWeightMedium, 3), 5},
		{"weekly sunday", weeklyTask(TaskWeightLow, 7), 4},
		{"one-time in month", oneTimeTask(TaskWeightHigh, time.Date(2023, time.November, 15, 0, 0, 0, 0, time.UTC)), 1},
		{"one-time other month", oneTimeTask(TaskWeightHigh, time.Date(2023, time.December, 15, 0, 0, 0, 0, time.UTC)), 0},
		{"weekly without day", &Task{Type: TaskTypeWeekly, Weight: TaskWeightLow}, 0},
	}
	for _, tc := range cases {
		if got := OccurrencesInMonth(tc.task, 2023, time.November); got != tc.expected {
			t.Fatalf("%s: expected %d occurrences, got %d", tc.name, tc.expected, got)
		}
	}
}

func TestCalculateTaskValue_SingleDailyTask(t *testing.T) {
	task := dailyTask(TaskWeightLow)
	active := []*Task{task}

	// 300.00 over 30 LOW occurrences: 10.00 per occurrence.
	got := CalculateTaskValue(task, budget("300.00"), active, 2023, time.November)
	if got.StringFixedBank(2) != "10.00" {
		t.Fatalf("expected 10.00, got %s", got.StringFixedBank(2))
	}
}

func TestCalculateTaskValue_WeeklyOccurrencesAreExact(t *testing.T) {
	// Same task, same budget; only the weekday differs. Four Mondays vs
	// five Wednesdays in November 2023 changes the per-point value.
	monday := weeklyTask(TaskWeightMedium, 1)
	got := CalculateTaskValue(monday, budget("100.00"), []*Task{monday}, 2023, time.November)
	if got.StringFixedBank(2) != "25.00" {
		t.Fatalf("monday: expected 25.00, got %s", got.StringFixedBank(2))
	}

	wednesday := weeklyTask(TaskWeightMedium, 3)
	got = CalculateTaskValue(wednesday, budget("100.00"), []*Task{wednesday}, 2023, time.November)
	if got.StringFixedBank(2) != "20.00" {
		t.Fatalf("wednesday: expected 20.00, got %s", got.StringFixedBank(2))
	}
}

func TestCalculateTaskValue_MixedProration(t *testing.T) {
	daily := dailyTask(TaskWeightLow)                                                              // 30 pts
	weekly := weeklyTask(TaskWeightMedium, 1)                                                      // 20 pts
	oneTime := oneTimeTask(TaskWeightHigh, time.Date(2023, time.November, 10, 0, 0, 0, 0, time.UTC)) // 20 pts
	active := []*Task{daily, weekly, oneTime}

	if total := TotalPointsPossible(active, 2023, time.November); total != 70 {
		t.Fatalf("expected 70 total points, got %d", total)
	}

	// 700.00 / 70 pts = 10.00 per point.
	b := budget("700.00")
	cases := []struct {
		task     *Task
		expected string
	}{
		{daily, "10.00"},
		{weekly, "50.00"},
		{oneTime, "200.00"},
	}
	for _, tc := range cases {
		got := CalculateTaskValue(tc.task, b, active, 2023, time.November)
		if got.StringFixedBank(2) != tc.expected {
			t.Fatalf("%s %s: expected %s, got %s", tc.task.Type, tc.task.Weight, tc.expected, got.StringFixedBank(2))
		}
	}
}

func TestCalculateTaskValue_BankersRounding(t *testing.T) {
	task := dailyTask(TaskWeightLow)
	// 100/30 = 3.3333... rounds to 3.3333 per point, then 3.33 final.
	got := CalculateTaskValue(task, budget("100.00"), []*Task{task}, 2023, time.November)
	if got.StringFixedBank(2) != "3.33" {
		t.Fatalf("expected 3.33, got %s", got.StringFixedBank(2))
	}
}

func TestCalculateTaskValue_HalfEvenBoundaries(t *testing.T) {
	// Midpoint digits round to the even neighbor. Half-up rounding would
	// land one cent (or one ten-thousandth) higher in both cases.
	monday := weeklyTask(TaskWeightMedium, 1) // 4 Mondays x 5 pts = 20 pts
	// 8.50 / 20 = 0.4250 per point; 0.4250 * 5 = 2.125 -> 2.12, not 2.13.
	got := CalculateTaskValue(monday, budget("8.50"), []*Task{monday}, 2023, time.November)
	if got.StringFixedBank(2) != "2.12" {
		t.Fatalf("expected 2.12, got %s", got.StringFixedBank(2))
	}

	high := weeklyTask(TaskWeightHigh, 1) // 4 Mondays x 20 pts = 80 pts
	// 8.10 / 80 = 0.10125, which rounds to 0.1012 per point, not 0.1013;
	// 0.1012 * 20 = 2.024 -> 2.02, where half-up would give 2.03.
	got = CalculateTaskValue(high, budget("8.10"), []*Task{high}, 2023, time.November)
	if got.StringFixedBank(2) != "2.02" {
		t.Fatalf("expected 2.02, got %s", got.StringFixedBank(2))
	}
}

func TestCalculateTaskValue_DegenerateInputs(t *testing.T) {
	task := dailyTask(TaskWeightLow)
	active := []*Task{task}

	// a task that cannot occur must stay worthless even when other tasks
	// in the set keep the total points positive
	noDay := &Task{Type: TaskTypeWeekly, Weight: TaskWeightMedium, Status: TaskStatusPending}
	mixed := []*Task{task, noDay}

	cases := []struct {
		name   string
		task   *Task
		budget *decimal.Decimal
		active []*Task
	}{
		{"nil budget", task, nil, active},
		{"zero budget", task, budget("0"), active},
		{"negative budget", task, budget("-50.00"), active},
		{"empty active set", task, budget("300.00"), nil},
		{"nil task", nil, budget("300.00"), active},
		{"unknown weight", &Task{Type: TaskTypeDaily, Weight: TaskWeight("BOGUS")}, budget("300.00"), active},
		{"weekly without day in mixed set", noDay, budget("300.00"), mixed},
		{"unknown type in mixed set", &Task{Type: TaskType("BOGUS"), Weight: TaskWeightHigh}, budget("300.00"), mixed},
	}
	for _, tc := range cases {
		got := CalculateTaskValue(tc.task, tc.budget, tc.active, 2023, time.November)
		if got.StringFixedBank(2) != "0.00" {
			t.Fatalf("%s: expected 0.00, got %s", tc.name, got.StringFixedBank(2))
		}
	}
}

func TestCalculateTaskValue_ZeroTotalPoints(t *testing.T) {
	// A one-time task outside the month keeps the active set non-empty
	// but contributes no points.
	outside := oneTimeTask(TaskWeightHigh, time.Date(2023, time.December, 1, 0, 0, 0, 0, time.UTC))
	got := CalculateTaskValue(outside, budget("300.00"), []*Task{outside}, 2023, time.November)
	if got.StringFixedBank(2) != "0.00" {
		t.Fatalf("expected 0.00, got %s", got.StringFixedBank(2))
	}
}

func TestPredictAllowance_CountsCompletedAndApprovedOnly(t *testing.T) {
	daily := dailyTask(TaskWeightLow)
	daily.Status = TaskStatusApproved
	weekly := weeklyTask(TaskWeightMedium, 1)
	weekly.Status = TaskStatusCompleted
	oneTime := oneTimeTask(TaskWeightHigh, time.Date(2023, time.November, 10, 0, 0, 0, 0, time.UTC))
	oneTime.Status = TaskStatusPending

	// Per-task values stay relative to the whole roster (70 pts), so the
	// pending HIGH task still dilutes what the others are worth.
	got := PredictAllowance([]*Task{daily, weekly, oneTime}, budget("700.00"), 2023, time.November)
	if got.StringFixedBank(2) != "60.00" {
		t.Fatalf("expected 60.00, got %s", got.StringFixedBank(2))
	}
}

func TestActiveTasksForMonth_FiltersOneTimeByMonth(t *testing.T) {
	daily := dailyTask(TaskWeightLow)
	inMonth := oneTimeTask(TaskWeightHigh, time.Date(2023, time.November, 10, 0, 0, 0, 0, time.UTC))
	otherMonth := oneTimeTask(TaskWeightHigh, time.Date(2023, time.October, 10, 0, 0, 0, 0, time.UTC))

	active := ActiveTasksForMonth([]*Task{daily, inMonth, otherMonth}, 2023, time.November)
	if len(active) != 2 {
		t.Fatalf("expected 2 active tasks, got %d", len(active))
	}
}
