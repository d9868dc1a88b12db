package workflow

import (
	"context"
	"fmt"
	"time"

	"bitbucket.org/mmdatafocus/chores_backend/config"
	"bitbucket.org/mmdatafocus/chores_backend/models"
	"bitbucket.org/mmdatafocus/chores_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// RequestWithdrawal records a pending withdrawal and debits the balance
// immediately (pessimistic hold): the money is unavailable from the
// moment of request, not only after approval.
func RequestWithdrawal(ctx context.Context, childId int, amount decimal.Decimal) (*models.Transaction, error) {
	logger := config.GetLogger()

	if !amount.IsPositive() {
		return nil, utils.ErrorInvalidArgument
	}

	child, err := models.GetUser(ctx, childId)
	if err != nil {
		return nil, err
	}
	if child.Role != models.UserRoleChild {
		return nil, utils.ErrorInvalidArgument
	}

	db := config.GetDB()
	var transaction models.Transaction
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := AcquireAccountPostingLock(tx, childId); err != nil {
			config.LogError(logger, "withdrawalWorkflow.go", "RequestWithdrawal", "AcquireAccountPostingLock", childId, err)
			return err
		}
		defer ReleaseAccountPostingLock(tx, childId)

		var account models.User
		if err := tx.First(&account, childId).Error; err != nil {
			return utils.ErrorRecordNotFound
		}
		if account.Balance.LessThan(amount) {
			return utils.ErrorInsufficientBalance
		}

		transaction = models.Transaction{
			UserId:      childId,
			Amount:      amount,
			Description: "Withdrawal request",
			Date:        time.Now().UTC(),
			Type:        models.TransactionTypeWithdrawal,
			Status:      models.TransactionStatusPending,
		}
		if err := tx.Create(&transaction).Error; err != nil {
			config.LogError(logger, "withdrawalWorkflow.go", "RequestWithdrawal", "CreateTransaction", transaction, err)
			return err
		}

		newBalance := account.Balance.Sub(amount)
		if err := tx.Model(&account).Update("balance", newBalance).Error; err != nil {
			config.LogError(logger, "withdrawalWorkflow.go", "RequestWithdrawal", "UpdateBalance", childId, err)
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// notify the parent outside the transaction; a notification failure
	// must not roll back the withdrawal
	if child.ParentId != 0 {
		if parent, perr := models.GetUser(ctx, child.ParentId); perr == nil {
			go func(txnId int) {
				if nerr := ActiveNotifier.NotifyWithdrawalRequested(ctx, parent, child, amount, txnId); nerr != nil {
					config.LogError(logger, "withdrawalWorkflow.go", "RequestWithdrawal", "NotifyWithdrawalRequested", txnId, nerr)
				}
			}(transaction.ID)
		}
	}

	return &transaction, nil
}

// fetch the withdrawal and enforce that the caller is the parent who owns
// the child on the transaction and that it is still pending
func fetchPendingWithdrawal(ctx context.Context, tx *gorm.DB, parentId int, transactionId int) (*models.Transaction, *models.User, error) {
	var transaction models.Transaction
	if err := tx.First(&transaction, transactionId).Error; err != nil {
		return nil, nil, utils.ErrorRecordNotFound
	}
	if transaction.Type != models.TransactionTypeWithdrawal {
		return nil, nil, utils.ErrorInvalidState
	}

	child, err := models.GetChildOfParent(ctx, parentId, transaction.UserId)
	if err != nil {
		return nil, nil, err
	}

	if transaction.Status != models.TransactionStatusPending {
		return nil, nil, utils.ErrorInvalidState
	}
	return &transaction, child, nil
}

// ApproveWithdrawal marks a pending withdrawal PAID and attaches the
// payment proof. The balance was already debited at request time.
func ApproveWithdrawal(ctx context.Context, parentId int, transactionId int, paymentProof string) (*models.Transaction, error) {
	logger := config.GetLogger()

	db := config.GetDB()
	var transaction *models.Transaction
	var child *models.User
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		transaction, child, err = fetchPendingWithdrawal(ctx, tx, parentId, transactionId)
		if err != nil {
			return err
		}

		// guard on status so a concurrent approve/reject loses cleanly
		result := tx.Model(&models.Transaction{}).
			Where("id = ? AND status = ?", transactionId, models.TransactionStatusPending).
			Updates(map[string]interface{}{
				"Status":       models.TransactionStatusPaid,
				"PaymentProof": paymentProof,
			})
		if result.Error != nil {
			config.LogError(logger, "withdrawalWorkflow.go", "ApproveWithdrawal", "UpdateTransaction", transactionId, result.Error)
			return result.Error
		}
		if result.RowsAffected == 0 {
			return utils.ErrorInvalidState
		}
		transaction.Status = models.TransactionStatusPaid
		transaction.PaymentProof = &paymentProof
		return nil
	})
	if err != nil {
		return nil, err
	}

	go func(amount decimal.Decimal, txnId int) {
		if nerr := ActiveNotifier.NotifyWithdrawalPaid(ctx, child, amount, txnId); nerr != nil {
			config.LogError(logger, "withdrawalWorkflow.go", "ApproveWithdrawal", "NotifyWithdrawalPaid", txnId, nerr)
		}
	}(transaction.Amount, transaction.ID)

	return transaction, nil
}

// RejectWithdrawal marks the withdrawal REJECTED and refunds the held
// amount through a new CREDIT transaction. The original amount is never
// mutated; the refund is its own ledger row plus the one balance change.
func RejectWithdrawal(ctx context.Context, parentId int, transactionId int, reason string) (*models.Transaction, error) {
	logger := config.GetLogger()

	db := config.GetDB()
	var transaction *models.Transaction
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		transaction, _, err = fetchPendingWithdrawal(ctx, tx, parentId, transactionId)
		if err != nil {
			return err
		}

		if err := AcquireAccountPostingLock(tx, transaction.UserId); err != nil {
			config.LogError(logger, "withdrawalWorkflow.go", "RejectWithdrawal", "AcquireAccountPostingLock", transaction.UserId, err)
			return err
		}
		defer ReleaseAccountPostingLock(tx, transaction.UserId)

		annotated := models.AnnotateRejection(transaction.Description, reason)
		result := tx.Model(&models.Transaction{}).
			Where("id = ? AND status = ?", transactionId, models.TransactionStatusPending).
			Updates(map[string]interface{}{
				"Status":      models.TransactionStatusRejected,
				"Description": annotated,
			})
		if result.Error != nil {
			config.LogError(logger, "withdrawalWorkflow.go", "RejectWithdrawal", "UpdateTransaction", transactionId, result.Error)
			return result.Error
		}
		if result.RowsAffected == 0 {
			return utils.ErrorInvalidState
		}

		refund := models.Transaction{
			UserId:      transaction.UserId,
			Amount:      transaction.Amount,
			Description: fmt.Sprintf("Withdrawal refund (rejected: %s)", reason),
			Date:        time.Now().UTC(),
			Type:        models.TransactionTypeCredit,
			Status:      models.TransactionStatusCompleted,
		}
		if err := tx.Create(&refund).Error; err != nil {
			config.LogError(logger, "withdrawalWorkflow.go", "RejectWithdrawal", "CreateRefund", refund, err)
			return err
		}

		var account models.User
		if err := tx.First(&account, transaction.UserId).Error; err != nil {
			return utils.ErrorRecordNotFound
		}
		newBalance := account.Balance.Add(refund.Amount)
		if err := tx.Model(&account).Update("balance", newBalance).Error; err != nil {
			config.LogError(logger, "withdrawalWorkflow.go", "RejectWithdrawal", "UpdateBalance", transaction.UserId, err)
			return err
		}

		transaction.Status = models.TransactionStatusRejected
		transaction.Description = annotated
		return nil
	})
	if err != nil {
		return nil, err
	}

	return transaction, nil
}
