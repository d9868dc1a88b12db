package models

import (
	"testing"
	"time"

	"bitbucket.org/mmdatafocus/chores_backend/utils"
)

func TestValidateTaskTransition(t *testing.T) {
	cases := []struct {
		name   string
		from   TaskStatus
		proof  bool
		to     TaskStatus
		wantOk bool
	}{
		{"pending to completed", TaskStatusPending, false, TaskStatusCompleted, true},
		{"completed to completed", TaskStatusCompleted, false, TaskStatusCompleted, false},
		{"approved to completed", TaskStatusApproved, false, TaskStatusCompleted, false},
		{"completed to pending approval with proof", TaskStatusCompleted, true, TaskStatusPendingApproval, true},
		{"completed to pending approval without proof", TaskStatusCompleted, false, TaskStatusPendingApproval, false},
		{"pending to pending approval", TaskStatusPending, true, TaskStatusPendingApproval, false},
		{"completed to approved", TaskStatusCompleted, false, TaskStatusApproved, true},
		{"pending approval to approved", TaskStatusPendingApproval, true, TaskStatusApproved, true},
		{"pending to approved", TaskStatusPending, false, TaskStatusApproved, false},
		{"approved to approved", TaskStatusApproved, false, TaskStatusApproved, false},
		{"unknown target", TaskStatusPending, false, TaskStatus("BOGUS"), false},
	}
	for _, tc := range cases {
		task := &Task{Status: tc.from, RequiresProof: tc.proof}
		err := ValidateTaskTransition(task, tc.to)
		if tc.wantOk && err != nil {
			t.Fatalf("%s: unexpected error %v", tc.name, err)
		}
		if !tc.wantOk && err != utils.ErrorInvalidState {
			t.Fatalf("%s: expected ErrorInvalidState, got %v", tc.name, err)
		}
	}
}

func TestIsoWeekday(t *testing.T) {
	// 2023-11-06 is a Monday, 2023-11-12 a Sunday.
	monday := time.Date(2023, time.November, 6, 0, 0, 0, 0, time.UTC)
	if got := IsoWeekday(monday); got != 1 {
		t.Fatalf("expected monday=1, got %d", got)
	}
	sunday := time.Date(2023, time.November, 12, 0, 0, 0, 0, time.UTC)
	if got := IsoWeekday(sunday); got != 7 {
		t.Fatalf("expected sunday=7, got %d", got)
	}
}

func TestShouldReset(t *testing.T) {
	monday := time.Date(2023, time.November, 6, 8, 0, 0, 0, time.UTC)
	mon, wed := 1, 3

	cases := []struct {
		name     string
		task     *Task
		expected bool
	}{
		{"daily completed", &Task{Type: TaskTypeDaily, Status: TaskStatusCompleted}, true},
		{"daily approved", &Task{Type: TaskTypeDaily, Status: TaskStatusApproved}, true},
		{"daily pending approval", &Task{Type: TaskTypeDaily, Status: TaskStatusPendingApproval}, true},
		{"daily already pending", &Task{Type: TaskTypeDaily, Status: TaskStatusPending}, false},
		{"weekly on its day", &Task{Type: TaskTypeWeekly, Status: TaskStatusApproved, DayOfWeek: &mon}, true},
		{"weekly on another day", &Task{Type: TaskTypeWeekly, Status: TaskStatusApproved, DayOfWeek: &wed}, false},
		{"weekly without day", &Task{Type: TaskTypeWeekly, Status: TaskStatusApproved}, false},
		{"one-time never resets", &Task{Type: TaskTypeOneTime, Status: TaskStatusApproved}, false},
	}
	for _, tc := range cases {
		if got := ShouldReset(tc.task, monday); got != tc.expected {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.expected, got)
		}
	}
}

func TestNewTaskValidate_ScheduleFields(t *testing.T) {
	dow := 3
	scheduled := time.Date(2023, time.November, 10, 0, 0, 0, 0, time.UTC)

	daily := &NewTask{Description: "dishes", Type: TaskTypeDaily, Weight: TaskWeightLow, DayOfWeek: &dow, ScheduledDate: &scheduled}
	if err := daily.validate(); err != nil {
		t.Fatalf("daily: unexpected error %v", err)
	}
	if daily.DayOfWeek != nil || daily.ScheduledDate != nil {
		t.Fatalf("daily: schedule fields should be cleared")
	}

	weekly := &NewTask{Description: "laundry", Type: TaskTypeWeekly, Weight: TaskWeightMedium}
	if err := weekly.validate(); err == nil {
		t.Fatalf("weekly without day_of_week should fail")
	}
	badDay := 8
	weekly.DayOfWeek = &badDay
	if err := weekly.validate(); err == nil {
		t.Fatalf("weekly with day_of_week=8 should fail")
	}

	oneTime := &NewTask{Description: "car wash", Type: TaskTypeOneTime, Weight: TaskWeightHigh}
	if err := oneTime.validate(); err == nil {
		t.Fatalf("one-time without scheduled_date should fail")
	}
	oneTime.ScheduledDate = &scheduled
	oneTime.DayOfWeek = &dow
	if err := oneTime.validate(); err != nil {
		t.Fatalf("one-time: unexpected error %v", err)
	}
	if oneTime.DayOfWeek != nil {
		t.Fatalf("one-time: day_of_week should be cleared")
	}
}
