package workflow

import (
	"context"
	"time"

	"bitbucket.org/mmdatafocus/chores_backend/config"
	"bitbucket.org/mmdatafocus/chores_backend/models"
	"bitbucket.org/mmdatafocus/chores_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// AddTransaction appends one ledger row and applies its signed amount to
// the account balance. The row and the balance mutation commit together;
// posting is serialized per account so concurrent adds cannot lose an
// update.
func AddTransaction(ctx context.Context, accountId int, amount decimal.Decimal, description string, txnType models.TransactionType, status models.TransactionStatus) (*models.Transaction, error) {
	logger := config.GetLogger()

	if amount.IsNegative() {
		return nil, utils.ErrorInvalidArgument
	}

	db := config.GetDB()
	var transaction models.Transaction
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := AcquireAccountPostingLock(tx, accountId); err != nil {
			config.LogError(logger, "ledgerWorkflow.go", "AddTransaction", "AcquireAccountPostingLock", accountId, err)
			return err
		}
		defer ReleaseAccountPostingLock(tx, accountId)

		var account models.User
		if err := tx.First(&account, accountId).Error; err != nil {
			return utils.ErrorRecordNotFound
		}

		transaction = models.Transaction{
			UserId:      accountId,
			Amount:      amount,
			Description: description,
			Date:        time.Now().UTC(),
			Type:        txnType,
			Status:      status,
		}
		if err := tx.Create(&transaction).Error; err != nil {
			config.LogError(logger, "ledgerWorkflow.go", "AddTransaction", "CreateTransaction", transaction, err)
			return err
		}

		newBalance := account.Balance.Add(transaction.SignedAmount())
		if err := tx.Model(&account).Update("balance", newBalance).Error; err != nil {
			config.LogError(logger, "ledgerWorkflow.go", "AddTransaction", "UpdateBalance", accountId, err)
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &transaction, nil
}

// ListTransactions returns the account's ledger, newest first.
func ListTransactions(ctx context.Context, accountId int) ([]*models.Transaction, error) {
	if _, err := models.GetUser(ctx, accountId); err != nil {
		return nil, err
	}
	return models.ListTransactions(ctx, accountId)
}
