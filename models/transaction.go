package models

import (
	"context"
	"time"

	"bitbucket.org/mmdatafocus/chores_backend/config"
	"github.com/shopspring/decimal"
)

// Transaction is one row of the append-only ledger. Amount is always a
// non-negative magnitude; the sign comes from Type. Once Status is
// terminal the row is immutable.
type Transaction struct {
	ID           int               `gorm:"primary_key" json:"id"`
	UserId       int               `gorm:"index;not null" json:"user_id"`
	Amount       decimal.Decimal   `gorm:"type:decimal(20,4);not null" json:"amount"`
	Description  string            `gorm:"size:255" json:"description"`
	Date         time.Time         `gorm:"index;not null" json:"date"`
	Type         TransactionType   `gorm:"size:20;not null" json:"type"`
	Status       TransactionStatus `gorm:"size:20;not null" json:"status"`
	PaymentProof *string           `gorm:"size:500" json:"payment_proof"`
	CreatedAt    time.Time         `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time         `gorm:"autoUpdateTime" json:"updated_at"`
}

// SignedAmount is the transaction's contribution to the owning account's
// balance: positive for credits, negative for debits. A rejected
// withdrawal keeps its debit; the refund credit posted at rejection is
// the compensating entry, so the sum over all rows stays equal to the
// cached balance.
func (t *Transaction) SignedAmount() decimal.Decimal {
	if t.Type.IsCredit() {
		return t.Amount
	}
	return t.Amount.Neg()
}

// AnnotateRejection appends the rejection reason to a withdrawal's
// description. The amount itself is never touched on rejection.
func AnnotateRejection(description string, reason string) string {
	if reason == "" {
		return description + " (rejected)"
	}
	return description + " (rejected: " + reason + ")"
}

// ListTransactions returns the child's ledger, newest first.
func ListTransactions(ctx context.Context, userId int) ([]*Transaction, error) {
	db := config.GetDB()
	var transactions []*Transaction
	err := db.WithContext(ctx).
		Where("user_id = ?", userId).
		Order("date DESC").
		Find(&transactions).Error
	if err != nil {
		return nil, err
	}
	return transactions, nil
}

func GetTransaction(ctx context.Context, id int) (*Transaction, error) {
	db := config.GetDB()
	var transaction Transaction
	err := db.WithContext(ctx).First(&transaction, id).Error
	if err != nil {
		return nil, err
	}
	return &transaction, nil
}
