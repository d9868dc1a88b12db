package workflow

import (
	"fmt"

	"gorm.io/gorm"
)

// AcquireAccountPostingLock serializes ledger posting per account across
// instances using MySQL advisory locks.
// NOTE: GET_LOCK is connection-scoped, so this must be called on the same
// *gorm.DB that will do the posting transaction.
func AcquireAccountPostingLock(tx *gorm.DB, accountId int) error {
	lockName := fmt.Sprintf("posting:%d", accountId)
	var ok int
	if err := tx.Raw("SELECT GET_LOCK(?, 30)", lockName).Scan(&ok).Error; err != nil {
		return err
	}
	if ok != 1 {
		return fmt.Errorf("could not acquire posting lock for account_id=%d", accountId)
	}
	return nil
}

func ReleaseAccountPostingLock(tx *gorm.DB, accountId int) {
	lockName := fmt.Sprintf("posting:%d", accountId)
	var _ok int
	_ = tx.Raw("SELECT RELEASE_LOCK(?)", lockName).Scan(&_ok).Error
}
