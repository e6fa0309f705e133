package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/brenocwb02/contasbot/internal/billing"
	"github.com/brenocwb02/contasbot/internal/domain"
	"github.com/rs/zerolog"
)

// Reconciler recomputes and persists every account's derived balances. The
// writer invokes it synchronously after each mutation; the engine acquires
// the lock itself.
type Reconciler interface {
	RecomputeAndPersist(ctx context.Context) (map[string]domain.Snapshot, error)
}

// Writer expands confirmed candidates into ledger rows and applies direct
// row edits and deletions, all under the store-wide lock.
type Writer struct {
	repo        *Repo
	lock        *Lock
	reconciler  Reconciler
	lockTimeout time.Duration
	logger      zerolog.Logger
	now         func() time.Time // injectable clock for tests
}

// NewWriter creates a writer. A zero lockTimeout uses DefaultLockTimeout.
func NewWriter(repo *Repo, lock *Lock, reconciler Reconciler, lockTimeout time.Duration, logger zerolog.Logger) *Writer {
	return &Writer{
		repo:        repo,
		lock:        lock,
		reconciler:  reconciler,
		lockTimeout: lockTimeout,
		logger:      logger,
		now:         time.Now,
	}
}

// Commit writes every row of a confirmed candidate and then reconciles.
//
// A transfer pair produces its two legs verbatim with "-1"/"-2" suffixed ids.
// A plain candidate is split into installmentCount rows: the amount is
// divided equally (plain float division, drift for non-divisible totals is
// accepted), each row's due date is re-derived from the billing cycle even
// though the candidate carried a first due date, and ids are suffixed "-i"
// unless there is a single installment.
func (w *Writer) Commit(ctx context.Context, candidate *domain.Candidate, user string) error {
	if len(candidate.Legs) == 0 {
		return fmt.Errorf("candidate %s has no legs", candidate.BaseID())
	}

	rows, err := w.expand(ctx, candidate, user)
	if err != nil {
		return err
	}

	if err := w.lock.Acquire(ctx, w.lockTimeout); err != nil {
		return err
	}
	writeErr := func() error {
		defer w.lock.Release()
		for _, row := range rows {
			if err := w.repo.AppendTransaction(ctx, row); err != nil {
				return fmt.Errorf("failed to append row %s: %w", row.ID, err)
			}
			// An invoice payment settles the matching open bill, so a later
			// deletion of this row can revert it.
			if row.Kind == domain.KindExpense && row.Subcategory == domain.BillPaymentSubcategory {
				if err := w.repo.settleBillForPayment(ctx, row); err != nil {
					return fmt.Errorf("failed to settle bill for row %s: %w", row.ID, err)
				}
			}
		}
		return nil
	}()
	if writeErr != nil {
		return writeErr
	}

	w.logger.Info().
		Str("base_id", candidate.BaseID()).
		Int("rows", len(rows)).
		Str("user", user).
		Msg("ledger rows written")

	if _, err := w.reconciler.RecomputeAndPersist(ctx); err != nil {
		return fmt.Errorf("rows written but reconciliation failed: %w", err)
	}
	return nil
}

// expand turns the candidate into concrete ledger rows without touching the
// store, so nothing is half-written when a referenced account is missing.
func (w *Writer) expand(ctx context.Context, candidate *domain.Candidate, user string) ([]*domain.Transaction, error) {
	now := w.now()

	if candidate.IsTransfer() {
		rows := make([]*domain.Transaction, 0, 2)
		for i, leg := range candidate.Legs {
			row := leg
			row.ID = fmt.Sprintf("%s-%d", candidate.BaseID(), i+1)
			row.Owner = user
			row.Status = domain.StatusActive
			row.RegisteredAt = now
			rows = append(rows, &row)
		}
		return rows, nil
	}

	leg := candidate.Legs[0]
	count := leg.InstallmentCount
	if count < 1 {
		count = 1
	}
	share := leg.Amount / float64(count)

	// Re-derive due dates from account metadata so replayed and freshly
	// written rows always agree. Rows on an unrecognized account settle on
	// the posted date.
	firstDue := leg.PostedDate
	account, err := w.repo.AccountByKey(ctx, leg.AccountKey)
	switch {
	case err == nil && account.Kind == domain.AccountCreditCard:
		firstDue = billing.DueDateForPurchase(account, leg.PostedDate)
	case err != nil && !errors.Is(err, ErrNotFound):
		return nil, err
	}

	rows := make([]*domain.Transaction, 0, count)
	for i := 1; i <= count; i++ {
		row := leg
		if count == 1 {
			row.ID = candidate.BaseID()
		} else {
			row.ID = fmt.Sprintf("%s-%d", candidate.BaseID(), i)
		}
		row.Amount = share
		row.InstallmentCount = count
		row.InstallmentIndex = i
		row.DueDate = billing.DueDateForInstallment(firstDue, i)
		row.Owner = user
		row.Status = domain.StatusActive
		row.RegisteredAt = now
		rows = append(rows, &row)
	}
	return rows, nil
}
