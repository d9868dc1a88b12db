package workflow

import (
	"sync"
	"testing"

	"github.com/shopspring/decimal"

	"bitbucket.org/mmdatafocus/chores_backend/models"
	"bitbucket.org/mmdatafocus/chores_backend/utils"
)

// NOTE: These tests are intentionally DB-free. They validate the posting
// semantics the workflows rely on:
// - the cached balance always equals the sum of signed transaction amounts
// - withdrawals hold funds at request time, not at approval
// - rejection refunds via a new credit row; the original row only changes status
// - status transitions are compare-and-swap so concurrent approvals cannot double-fire
//
// Full DB integration tests need an environment that can run MySQL + Redis.

type fakeAccount struct {
	mu           sync.Mutex
	balance      decimal.Decimal
	transactions []*models.Transaction
	nextId       int
}

func newFakeAccount(opening string) *fakeAccount {
	a := &fakeAccount{balance: decimal.Zero}
	a.post(decimal.RequireFromString(opening), "Opening balance", models.TransactionTypeCredit, models.TransactionStatusCompleted)
	return a
}

// post appends a row and applies its signed amount, serialized the way
// AcquireAccountPostingLock serializes real postings.
func (a *fakeAccount) post(amount decimal.Decimal, description string, txnType models.TransactionType, status models.TransactionStatus) *models.Transaction {
	a.nextId++
	txn := &models.Transaction{
		ID:          a.nextId,
		Amount:      amount,
		Description: description,
		Type:        txnType,
		Status:      status,
	}
	a.transactions = append(a.transactions, txn)
	a.balance = a.balance.Add(txn.SignedAmount())
	return txn
}

func (a *fakeAccount) signedSum() decimal.Decimal {
	total := decimal.Zero
	for _, txn := range a.transactions {
		total = total.Add(txn.SignedAmount())
	}
	return total
}

func (a *fakeAccount) requestWithdrawal(amount decimal.Decimal) (*models.Transaction, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.balance.LessThan(amount) {
		return nil, utils.ErrorInsufficientBalance
	}
	return a.post(amount, "Withdrawal request", models.TransactionTypeWithdrawal, models.TransactionStatusPending), nil
}

// compare-and-swap on status, like the guarded UPDATE in the workflow
func (a *fakeAccount) casStatus(txn *models.Transaction, from, to models.TransactionStatus) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if txn.Status != from {
		return false
	}
	txn.Status = to
	return true
}

func (a *fakeAccount) reject(txn *models.Transaction, reason string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if txn.Status != models.TransactionStatusPending {
		return false
	}
	txn.Status = models.TransactionStatusRejected
	txn.Description = models.AnnotateRejection(txn.Description, reason)
	// the rejected row keeps its debit; the refund credit compensates
	a.post(txn.Amount, "Withdrawal refund (rejected: "+reason+")", models.TransactionTypeCredit, models.TransactionStatusCompleted)
	return true
}

func TestLedger_BalanceMatchesSignedSum_UnderConcurrency(t *testing.T) {
	a := newFakeAccount("1000.00")

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			a.mu.Lock()
			defer a.mu.Unlock()
			if i%2 == 0 {
				a.post(decimal.NewFromInt(7), "Task earning: dishes", models.TransactionTypeTaskEarning, models.TransactionStatusCompleted)
			} else {
				a.post(decimal.NewFromInt(3), "Spent at store", models.TransactionTypeDebit, models.TransactionStatusCompleted)
			}
		}(i)
	}
	wg.Wait()

	// 1000 + 25*7 - 25*3 = 1100
	if !a.balance.Equal(decimal.NewFromInt(1100)) {
		t.Fatalf("expected balance 1100, got %s", a.balance)
	}
	if !a.balance.Equal(a.signedSum()) {
		t.Fatalf("balance %s diverged from signed sum %s", a.balance, a.signedSum())
	}
}

func TestWithdrawal_HoldsFundsAtRequest(t *testing.T) {
	a := newFakeAccount("50.00")

	txn, err := a.requestWithdrawal(decimal.RequireFromString("30.00"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if txn.Status != models.TransactionStatusPending {
		t.Fatalf("expected PENDING, got %s", txn.Status)
	}
	if a.balance.StringFixedBank(2) != "20.00" {
		t.Fatalf("expected held balance 20.00, got %s", a.balance.StringFixedBank(2))
	}

	// a second request beyond the remaining balance must fail
	if _, err := a.requestWithdrawal(decimal.RequireFromString("25.00")); err != utils.ErrorInsufficientBalance {
		t.Fatalf("expected ErrorInsufficientBalance, got %v", err)
	}
}

func TestWithdrawal_ApproveKeepsBalanceUnchanged(t *testing.T) {
	a := newFakeAccount("50.00")
	txn, _ := a.requestWithdrawal(decimal.RequireFromString("30.00"))

	if !a.casStatus(txn, models.TransactionStatusPending, models.TransactionStatusPaid) {
		t.Fatalf("approve should succeed on a pending withdrawal")
	}
	// the debit already happened at request time
	if a.balance.StringFixedBank(2) != "20.00" {
		t.Fatalf("expected balance 20.00 after approval, got %s", a.balance.StringFixedBank(2))
	}
	if !a.balance.Equal(a.signedSum()) {
		t.Fatalf("balance %s diverged from signed sum %s", a.balance, a.signedSum())
	}
}

func TestWithdrawal_RejectRefundsViaNewCreditRow(t *testing.T) {
	a := newFakeAccount("50.00")
	txn, _ := a.requestWithdrawal(decimal.RequireFromString("30.00"))

	if !a.reject(txn, "not this week") {
		t.Fatalf("reject should succeed on a pending withdrawal")
	}
	if txn.Status != models.TransactionStatusRejected {
		t.Fatalf("expected REJECTED, got %s", txn.Status)
	}
	if !txn.Amount.Equal(decimal.RequireFromString("30.00")) {
		t.Fatalf("rejected row's amount must be untouched, got %s", txn.Amount)
	}
	if txn.Description != "Withdrawal request (rejected: not this week)" {
		t.Fatalf("unexpected description %q", txn.Description)
	}
	// refund restores the opening balance through a separate credit row
	if a.balance.StringFixedBank(2) != "50.00" {
		t.Fatalf("expected balance 50.00 after refund, got %s", a.balance.StringFixedBank(2))
	}
	if !a.balance.Equal(a.signedSum()) {
		t.Fatalf("balance %s diverged from signed sum %s", a.balance, a.signedSum())
	}
	if len(a.transactions) != 3 {
		t.Fatalf("expected opening + withdrawal + refund rows, got %d", len(a.transactions))
	}
}

func TestWithdrawal_ConcurrentApprovalsFireOnce(t *testing.T) {
	for run := 0; run < 100; run++ {
		a := newFakeAccount("50.00")
		txn, _ := a.requestWithdrawal(decimal.RequireFromString("30.00"))

		var wg sync.WaitGroup
		var succeeded int32
		var mu sync.Mutex
		for i := 0; i < 25; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if a.casStatus(txn, models.TransactionStatusPending, models.TransactionStatusPaid) {
					mu.Lock()
					succeeded++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()

		if succeeded != 1 {
			t.Fatalf("run %d: expected exactly one approval to win, got %d", run, succeeded)
		}
	}
}

func TestWithdrawal_RejectAfterApproveFails(t *testing.T) {
	a := newFakeAccount("50.00")
	txn, _ := a.requestWithdrawal(decimal.RequireFromString("30.00"))

	a.casStatus(txn, models.TransactionStatusPending, models.TransactionStatusPaid)
	if a.reject(txn, "changed my mind") {
		t.Fatalf("reject must fail once the withdrawal is paid")
	}
	if a.balance.StringFixedBank(2) != "20.00" {
		t.Fatalf("paid withdrawal must stay debited, got %s", a.balance.StringFixedBank(2))
	}
}
