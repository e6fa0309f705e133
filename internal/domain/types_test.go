package domain

import (
	"testing"
	"time"
)

func TestValidateAccountKind(t *testing.T) {
	valid := []AccountKind{AccountChecking, AccountCash, AccountCreditCard, AccountConsolidated}
	for _, k := range valid {
		if !ValidateAccountKind(k) {
			t.Errorf("ValidateAccountKind(%q) = false, want true", k)
		}
	}
	if ValidateAccountKind("savings") {
		t.Error("ValidateAccountKind(savings) = true, want false")
	}
	if ValidateAccountKind("") {
		t.Error("ValidateAccountKind(empty) = true, want false")
	}
}

func TestTransactionValidate(t *testing.T) {
	base := Transaction{
		ID:               "abc-1",
		Kind:             KindExpense,
		Amount:           50,
		AccountKey:       "carteira",
		InstallmentCount: 1,
		InstallmentIndex: 1,
		PostedDate:       time.Now(),
	}

	if err := base.Validate(); err != nil {
		t.Fatalf("valid transaction failed validation: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Transaction)
	}{
		{"empty id", func(tx *Transaction) { tx.ID = "" }},
		{"bad kind", func(tx *Transaction) { tx.Kind = "refund" }},
		{"zero amount", func(tx *Transaction) { tx.Amount = 0 }},
		{"negative amount", func(tx *Transaction) { tx.Amount = -10 }},
		{"empty account", func(tx *Transaction) { tx.AccountKey = "" }},
		{"zero installments", func(tx *Transaction) { tx.InstallmentCount = 0 }},
		{"index past count", func(tx *Transaction) { tx.InstallmentIndex = 2 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := base
			tt.mutate(&tx)
			if err := tx.Validate(); err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}
}

func TestSnapshotBalance(t *testing.T) {
	checking := Snapshot{Kind: AccountChecking, RunningBalance: 120.5, TotalPending: 999}
	if got := checking.Balance(); got != 120.5 {
		t.Errorf("checking Balance() = %f, want 120.5", got)
	}

	card := Snapshot{Kind: AccountCreditCard, RunningBalance: 999, TotalPending: 312.4}
	if got := card.Balance(); got != 312.4 {
		t.Errorf("card Balance() = %f, want 312.4", got)
	}

	group := Snapshot{Kind: AccountConsolidated, TotalPending: 650}
	if got := group.Balance(); got != 650 {
		t.Errorf("consolidated Balance() = %f, want 650", got)
	}
}

func TestCandidateHelpers(t *testing.T) {
	empty := Candidate{}
	if empty.BaseID() != "" {
		t.Error("empty candidate BaseID should be empty")
	}
	if empty.IsTransfer() {
		t.Error("empty candidate should not be a transfer")
	}

	pair := Candidate{Legs: []Transaction{{ID: "xyz-1"}, {ID: "xyz-2"}}}
	if pair.BaseID() != "xyz-1" {
		t.Errorf("BaseID = %q, want xyz-1", pair.BaseID())
	}
	if !pair.IsTransfer() {
		t.Error("two-leg candidate should be a transfer")
	}
}
