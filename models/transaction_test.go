package models

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestSignedAmount(t *testing.T) {
	thirty := decimal.RequireFromString("30.00")

	cases := []struct {
		name     string
		txn      Transaction
		expected string
	}{
		{"credit", Transaction{Amount: thirty, Type: TransactionTypeCredit, Status: TransactionStatusCompleted}, "30.00"},
		{"task earning", Transaction{Amount: thirty, Type: TransactionTypeTaskEarning, Status: TransactionStatusCompleted}, "30.00"},
		{"debit", Transaction{Amount: thirty, Type: TransactionTypeDebit, Status: TransactionStatusCompleted}, "-30.00"},
		{"pending withdrawal holds funds", Transaction{Amount: thirty, Type: TransactionTypeWithdrawal, Status: TransactionStatusPending}, "-30.00"},
		{"paid withdrawal", Transaction{Amount: thirty, Type: TransactionTypeWithdrawal, Status: TransactionStatusPaid}, "-30.00"},
		{"rejected withdrawal keeps its debit", Transaction{Amount: thirty, Type: TransactionTypeWithdrawal, Status: TransactionStatusRejected}, "-30.00"},
	}
	for _, tc := range cases {
		if got := tc.txn.SignedAmount().StringFixedBank(2); got != tc.expected {
			t.Fatalf("%s: expected %s, got %s", tc.name, tc.expected, got)
		}
	}
}

func TestSignedAmount_RejectionPairNetsToZero(t *testing.T) {
	// A rejection leaves two rows behind: the withdrawal, now REJECTED,
	// and the compensating refund credit. Their signed amounts must
	// cancel so the derived sum matches the restored balance.
	thirty := decimal.RequireFromString("30.00")
	rejected := Transaction{Amount: thirty, Type: TransactionTypeWithdrawal, Status: TransactionStatusRejected}
	refund := Transaction{Amount: thirty, Type: TransactionTypeCredit, Status: TransactionStatusCompleted}

	net := rejected.SignedAmount().Add(refund.SignedAmount())
	if !net.IsZero() {
		t.Fatalf("rejection pair should net to zero, got %s", net)
	}
}

func TestAnnotateRejection(t *testing.T) {
	if got := AnnotateRejection("Withdrawal request", "not this week"); got != "Withdrawal request (rejected: not this week)" {
		t.Fatalf("unexpected %q", got)
	}
	if got := AnnotateRejection("Withdrawal request", ""); got != "Withdrawal request (rejected)" {
		t.Fatalf("unexpected %q", got)
	}
}
