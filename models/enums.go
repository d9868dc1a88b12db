package models

import (
	"encoding/json"
	"errors"
)

type TaskType string

const (
	TaskTypeDaily   TaskType = "DAILY"
	TaskTypeWeekly  TaskType = "WEEKLY"
	TaskTypeOneTime TaskType = "ONE_TIME"
)

// convert input to enum type
func (t *TaskType) UnmarshalJSON(b []byte) error {
	var str string
	if err := json.Unmarshal(b, &str); err != nil {
		return errors.New("task type must be string")
	}
	switch str {
	case "DAILY":
		*t = TaskTypeDaily
	case "WEEKLY":
		*t = TaskTypeWeekly
	case "ONE_TIME":
		*t = TaskTypeOneTime
	default:
		return errors.New("invalid task type")
	}
	return nil
}

type TaskWeight string

const (
	TaskWeightLow    TaskWeight = "LOW"
	TaskWeightMedium TaskWeight = "MEDIUM"
	TaskWeightHigh   TaskWeight = "HIGH"
)

func (t *TaskWeight) UnmarshalJSON(b []byte) error {
	var str string
	if err := json.Unmarshal(b, &str); err != nil {
		return errors.New("task weight must be string")
	}
	switch str {
	case "LOW":
		*t = TaskWeightLow
	case "MEDIUM":
		*t = TaskWeightMedium
	case "HIGH":
		*t = TaskWeightHigh
	default:
		return errors.New("invalid task weight")
	}
	return nil
}

type TaskStatus string

const (
	TaskStatusPending         TaskStatus = "PENDING"
	TaskStatusCompleted       TaskStatus = "COMPLETED"
	TaskStatusPendingApproval TaskStatus = "PENDING_APPROVAL"
	TaskStatusApproved        TaskStatus = "APPROVED"
)

func (t *TaskStatus) UnmarshalJSON(b []byte) error {
	var str string
	if err := json.Unmarshal(b, &str); err != nil {
		return errors.New("task status must be string")
	}
	taskStatuses := map[string]TaskStatus{
		"PENDING":          TaskStatusPending,
		"COMPLETED":        TaskStatusCompleted,
		"PENDING_APPROVAL": TaskStatusPendingApproval,
		"APPROVED":         TaskStatusApproved,
	}
	var ok bool
	*t, ok = taskStatuses[str]
	if !ok {
		return errors.New("invalid task status")
	}
	return nil
}

type TransactionType string

const (
	TransactionTypeCredit      TransactionType = "CREDIT"
	TransactionTypeDebit       TransactionType = "DEBIT"
	TransactionTypeWithdrawal  TransactionType = "WITHDRAWAL"
	TransactionTypeTaskEarning TransactionType = "TASK_EARNING"
)

func (t *TransactionType) UnmarshalJSON(b []byte) error {
	var str string
	if err := json.Unmarshal(b, &str); err != nil {
		return errors.New("transaction type must be string")
	}
	transactionTypes := map[string]TransactionType{
		"CREDIT":       TransactionTypeCredit,
		"DEBIT":        TransactionTypeDebit,
		"WITHDRAWAL":   TransactionTypeWithdrawal,
		"TASK_EARNING": TransactionTypeTaskEarning,
	}
	var ok bool
	*t, ok = transactionTypes[str]
	if !ok {
		return errors.New("invalid transaction type")
	}
	return nil
}

// IsCredit reports whether the type adds to the owning account's balance.
func (t TransactionType) IsCredit() bool {
	return t == TransactionTypeCredit || t == TransactionTypeTaskEarning
}

type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "PENDING"
	TransactionStatusPaid      TransactionStatus = "PAID"
	TransactionStatusRejected  TransactionStatus = "REJECTED"
	TransactionStatusCompleted TransactionStatus = "COMPLETED"
)

func (t *TransactionStatus) UnmarshalJSON(b []byte) error {
	var str string
	if err := json.Unmarshal(b, &str); err != nil {
		return errors.New("transaction status must be string")
	}
	transactionStatuses := map[string]TransactionStatus{
		"PENDING":   TransactionStatusPending,
		"PAID":      TransactionStatusPaid,
		"REJECTED":  TransactionStatusRejected,
		"COMPLETED": TransactionStatusCompleted,
	}
	var ok bool
	*t, ok = transactionStatuses[str]
	if !ok {
		return errors.New("invalid transaction status")
	}
	return nil
}

// IsTerminal reports whether the status permits no further writes.
func (t TransactionStatus) IsTerminal() bool {
	return t == TransactionStatusPaid || t == TransactionStatusRejected || t == TransactionStatusCompleted
}

type UserRole string

const (
	UserRoleParent UserRole = "PARENT"
	UserRoleChild  UserRole = "CHILD"
)

func (t *UserRole) UnmarshalJSON(b []byte) error {
	var str string
	if err := json.Unmarshal(b, &str); err != nil {
		return errors.New("user role must be string")
	}
	switch str {
	case "PARENT":
		*t = UserRoleParent
	case "CHILD":
		*t = UserRoleChild
	default:
		return errors.New("invalid user role")
	}
	return nil
}
