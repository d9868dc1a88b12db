package workflow

import (
	"context"
	"strconv"
	"time"

	"bitbucket.org/mmdatafocus/chores_backend/config"
	"bitbucket.org/mmdatafocus/chores_backend/models"
	"bitbucket.org/mmdatafocus/chores_backend/utils"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Notifier delivers withdrawal events to the out-of-scope chat service.
// Calls are best-effort: callers log failures and move on, and must never
// invoke a notifier while holding a posting lock.
type Notifier interface {
	NotifyWithdrawalRequested(ctx context.Context, parent *models.User, child *models.User, amount decimal.Decimal, transactionId int) error
	NotifyWithdrawalPaid(ctx context.Context, child *models.User, amount decimal.Decimal, transactionId int) error
}

var ActiveNotifier Notifier = pubSubNotifier{}

type pubSubNotifier struct{}

func correlationIdFromContextOrNew(ctx context.Context) string {
	if ctx != nil {
		if v, ok := utils.GetCorrelationIdFromContext(ctx); ok && v != "" {
			return v
		}
	}
	return uuid.NewString()
}

func (pubSubNotifier) NotifyWithdrawalRequested(ctx context.Context, parent *models.User, child *models.User, amount decimal.Decimal, transactionId int) error {
	publishCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := config.PublishNotification(publishCtx, config.NotificationMessage{
		Event:         "WithdrawalRequested",
		UserId:        parent.ID,
		ChildId:       child.ID,
		ChildName:     child.Name,
		Amount:        amount.StringFixedBank(2),
		TransactionId: strconv.Itoa(transactionId),
		OccurredAt:    time.Now().UTC(),
		CorrelationId: correlationIdFromContextOrNew(ctx),
	})
	return err
}

func (pubSubNotifier) NotifyWithdrawalPaid(ctx context.Context, child *models.User, amount decimal.Decimal, transactionId int) error {
	publishCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := config.PublishNotification(publishCtx, config.NotificationMessage{
		Event:         "WithdrawalPaid",
		UserId:        child.ID,
		ChildId:       child.ID,
		ChildName:     child.Name,
		Amount:        amount.StringFixedBank(2),
		TransactionId: strconv.Itoa(transactionId),
		OccurredAt:    time.Now().UTC(),
		CorrelationId: correlationIdFromContextOrNew(ctx),
	})
	return err
}
