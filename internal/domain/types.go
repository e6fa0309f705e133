// Package domain defines the core records of the finance assistant: accounts,
// ledger transactions, pending candidates, and payable bills.
package domain

import (
	"fmt"
	"time"
)

// AccountKind represents the account type enum.
// Use ValidateAccountKind to ensure validity before use.
type AccountKind string

const (
	AccountChecking     AccountKind = "checking"
	AccountCash         AccountKind = "cash"
	AccountCreditCard   AccountKind = "credit-card"
	AccountConsolidated AccountKind = "consolidated-invoice"
)

// TransactionKind discriminates ledger rows.
type TransactionKind string

const (
	KindExpense TransactionKind = "expense"
	KindIncome  TransactionKind = "income"
)

// Transfer legs are stored as ordinary expense/income rows (direction must
// survive replay); they are recognizable by the transfer payment method and
// the fixed transfer category below.
const (
	PaymentMethodTransfer = "transfer"
	TransferCategory      = "Transferência"
	TransferSubcategory   = "Entre Contas"
)

// BillPaymentSubcategory marks card rows that pay an invoice; reconciliation
// subtracts them from the card's pending balance instead of adding.
const BillPaymentSubcategory = "Pagamento de Fatura"

// ClosingPolicy controls how a purchase date maps onto a card statement.
type ClosingPolicy string

const (
	// ClosingStandard rolls purchases made after the closing day into the
	// next month's statement.
	ClosingStandard ClosingPolicy = "standard"
	// ClosingThisMonth behaves like ClosingStandard (kept distinct because
	// account configuration names it explicitly).
	ClosingThisMonth ClosingPolicy = "close-this-month"
	// ClosingPreviousMonth treats every purchase as already rolled: it always
	// closes in the purchase's own calendar month regardless of day.
	ClosingPreviousMonth ClosingPolicy = "close-previous-month"
)

var (
	validAccountKinds = map[AccountKind]struct{}{
		AccountChecking: {}, AccountCash: {},
		AccountCreditCard: {}, AccountConsolidated: {},
	}

	validTransactionKinds = map[TransactionKind]struct{}{
		KindExpense: {}, KindIncome: {},
	}
)

// ValidateAccountKind reports whether k is a known account kind.
func ValidateAccountKind(k AccountKind) bool {
	_, ok := validAccountKinds[k]
	return ok
}

// ValidateTransactionKind reports whether k is a known transaction kind.
func ValidateTransactionKind(k TransactionKind) bool {
	_, ok := validTransactionKinds[k]
	return ok
}

// Account is one configured account. Static fields come from the accounts
// table and are read-only to the engine; the derived fields are recomputed
// wholesale on every reconciliation pass and written back.
type Account struct {
	Name           string
	NormalizedName string // lookup key, see textnorm.Normalize
	Kind           AccountKind
	OpeningBalance float64
	CreditLimit    float64
	DueDay         int // 1-31
	ClosingDay     int // 1-31
	ClosingPolicy  ClosingPolicy
	ParentGroupKey string // normalized name of a consolidated-invoice account, or ""

	// Aliases are alternative keywords configured for this account. A match
	// on Name itself outranks an alias match.
	Aliases []string
}

// Snapshot holds the derived view of one account after a reconciliation pass.
type Snapshot struct {
	AccountKey string
	Kind       AccountKind

	// RunningBalance is meaningful for checking/cash accounts.
	RunningBalance float64
	// CurrentCycleInvoice is card spend whose due date falls in the calendar
	// month immediately following the reconciliation moment.
	CurrentCycleInvoice float64
	// TotalPending is cumulative unpaid card spend minus bill payments.
	TotalPending float64
}

// Balance returns the externally visible balance column for this account:
// running balance for checking/cash, total pending for cards and
// consolidated groups.
func (s Snapshot) Balance() float64 {
	switch s.Kind {
	case AccountCreditCard, AccountConsolidated:
		return s.TotalPending
	default:
		return s.RunningBalance
	}
}

// Transaction is one ledger row. An N-installment purchase produces N rows
// sharing a base id with "-1".."-N" suffixes; a transfer produces exactly two
// rows (one expense leg, one income leg) sharing the base id.
type Transaction struct {
	ID               string
	PostedDate       time.Time
	Description      string
	Category         string
	Subcategory      string
	Kind             TransactionKind
	Amount           float64 // this installment's share
	PaymentMethod    string
	AccountKey       string
	InstallmentCount int
	InstallmentIndex int // 1-based
	DueDate          time.Time
	Owner            string
	Status           string
	RegisteredAt     time.Time
}

// Validate checks the invariants a row must satisfy before it is written.
func (t *Transaction) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("transaction id cannot be empty")
	}
	if !ValidateTransactionKind(t.Kind) {
		return fmt.Errorf("invalid transaction kind %q", t.Kind)
	}
	if t.Amount <= 0 {
		return fmt.Errorf("transaction amount must be positive, got %f", t.Amount)
	}
	if t.AccountKey == "" {
		return fmt.Errorf("transaction account cannot be empty")
	}
	if t.InstallmentCount < 1 {
		return fmt.Errorf("installment count must be >= 1, got %d", t.InstallmentCount)
	}
	if t.InstallmentIndex < 1 || t.InstallmentIndex > t.InstallmentCount {
		return fmt.Errorf("installment index %d out of range 1..%d", t.InstallmentIndex, t.InstallmentCount)
	}
	return nil
}

// StatusActive is the status assigned to rows on creation.
const StatusActive = "active"

// Candidate is an interpreted-but-unconfirmed transaction awaiting user
// approval. Transfers carry both legs so confirm commits them atomically.
type Candidate struct {
	ChatID    int64
	CreatedAt time.Time

	// Legs holds one transaction for a plain expense/income, or the two legs
	// of a transfer sharing a base id.
	Legs []Transaction
}

// BaseID returns the shared id root of the candidate's legs.
func (c *Candidate) BaseID() string {
	if len(c.Legs) == 0 {
		return ""
	}
	return c.Legs[0].ID
}

// IsTransfer reports whether the candidate is a two-leg transfer pair.
func (c *Candidate) IsTransfer() bool {
	return len(c.Legs) == 2
}

// Bill is a payable-bill record. When the ledger row that paid a bill is
// deleted, the bill reverts to pending and the linkage is cleared.
type Bill struct {
	ID                  string
	Description         string
	Amount              float64
	DueDate             time.Time
	Status              string // "pending" or "paid"
	LinkedTransactionID string
}

// Bill statuses.
const (
	BillPending = "pending"
	BillPaid    = "paid"
)
