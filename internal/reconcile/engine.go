// Package reconcile recomputes every account's derived balances from the
// full transaction ledger. The engine trusts no incremental state: each run
// replays the whole ledger, so it can be invoked arbitrarily often with no
// cumulative drift.
package reconcile

import (
	"context"
	"time"

	"github.com/brenocwb02/contasbot/internal/domain"
	"github.com/brenocwb02/contasbot/internal/ledger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

var recomputeDuration = promauto.NewHistogram(prometheus.HistogramOpts{
	Name:    "contasbot_reconcile_duration_seconds",
	Help:    "Time spent replaying the ledger and persisting derived columns.",
	Buckets: prometheus.DefBuckets,
})

// Publisher receives the reconciled snapshot after it is persisted, e.g. to
// mirror it into Firestore for dashboard reads. Publish failures are logged,
// not propagated: the ledger is the source of truth.
type Publisher interface {
	Publish(ctx context.Context, snapshots map[string]domain.Snapshot) error
}

// Engine is the balance reconciliation engine.
type Engine struct {
	repo        *ledger.Repo
	lock        *ledger.Lock
	lockTimeout time.Duration
	publisher   Publisher // optional
	logger      zerolog.Logger
	now         func() time.Time // injectable clock: "current cycle" is relative to it
}

// New creates an engine. publisher may be nil.
func New(repo *ledger.Repo, lock *ledger.Lock, lockTimeout time.Duration, publisher Publisher, logger zerolog.Logger) *Engine {
	return &Engine{
		repo:        repo,
		lock:        lock,
		lockTimeout: lockTimeout,
		publisher:   publisher,
		logger:      logger,
		now:         time.Now,
	}
}

// Recompute replays the ledger and returns the derived snapshot per account
// key. It reads without the lock, so a caller racing a writer may observe a
// transient pre-reconciliation state; that is accepted eventual consistency
// for read paths.
func (e *Engine) Recompute(ctx context.Context) (map[string]domain.Snapshot, error) {
	accounts, err := e.repo.Accounts(ctx)
	if err != nil {
		return nil, err
	}
	transactions, err := e.repo.Transactions(ctx)
	if err != nil {
		return nil, err
	}
	return e.replay(accounts, transactions), nil
}

// replay is the pure core: accounts + ledger in, snapshots out.
func (e *Engine) replay(accounts []*domain.Account, transactions []*domain.Transaction) map[string]domain.Snapshot {
	byKey := make(map[string]*domain.Account, len(accounts))
	snapshots := make(map[string]domain.Snapshot, len(accounts))

	// Pass 1: derived fields start from static metadata only.
	for _, acc := range accounts {
		byKey[acc.NormalizedName] = acc
		snapshots[acc.NormalizedName] = domain.Snapshot{
			AccountKey:     acc.NormalizedName,
			Kind:           acc.Kind,
			RunningBalance: acc.OpeningBalance,
		}
	}

	// "Current cycle" means: due in the calendar month immediately following
	// today. This is a point-in-time view relative to the reconciliation
	// moment, not a property of the row. The target month is computed from
	// the first of the month, never by day arithmetic: AddDate would
	// normalize Jan 31 + 1 month into March.
	now := e.now()
	nextMonth := time.Date(now.Year(), now.Month()+1, 1, 0, 0, 0, 0, now.Location())
	cycleYear, cycleMonth := nextMonth.Year(), nextMonth.Month()

	// Pass 2: replay every ledger row once. Rows naming an unknown account
	// are skipped; their accounts keep whatever was stored before.
	for _, tx := range transactions {
		acc, ok := byKey[tx.AccountKey]
		if !ok {
			continue
		}
		snapshot := snapshots[acc.NormalizedName]

		switch acc.Kind {
		case domain.AccountChecking, domain.AccountCash:
			if tx.Kind == domain.KindIncome {
				snapshot.RunningBalance += tx.Amount
			} else {
				snapshot.RunningBalance -= tx.Amount
			}

		case domain.AccountCreditCard:
			if tx.Kind != domain.KindExpense {
				break
			}
			if tx.Subcategory == domain.BillPaymentSubcategory {
				// Paying the invoice reduces what is owed.
				snapshot.TotalPending -= tx.Amount
				break
			}
			snapshot.TotalPending += tx.Amount
			if tx.DueDate.Year() == cycleYear && tx.DueDate.Month() == cycleMonth {
				snapshot.CurrentCycleInvoice += tx.Amount
			}
		}
		// Consolidated-invoice accounts never appear in the per-row replay;
		// they only aggregate in pass 3.

		snapshots[acc.NormalizedName] = snapshot
	}

	// Pass 3: roll cards up into their consolidated parent groups.
	for _, acc := range accounts {
		if acc.Kind != domain.AccountCreditCard || acc.ParentGroupKey == "" {
			continue
		}
		parent, ok := snapshots[acc.ParentGroupKey]
		if !ok {
			continue
		}
		card := snapshots[acc.NormalizedName]
		parent.TotalPending += card.TotalPending
		parent.CurrentCycleInvoice += card.CurrentCycleInvoice
		snapshots[acc.ParentGroupKey] = parent
	}

	return snapshots
}

// RecomputeAndPersist recomputes and writes the derived columns back to the
// accounts table under the store-wide lock, then hands the snapshot to the
// publisher when one is configured.
func (e *Engine) RecomputeAndPersist(ctx context.Context) (map[string]domain.Snapshot, error) {
	if err := e.lock.Acquire(ctx, e.lockTimeout); err != nil {
		return nil, err
	}

	started := time.Now()
	snapshots, err := func() (map[string]domain.Snapshot, error) {
		defer e.lock.Release()

		snapshots, err := e.Recompute(ctx)
		if err != nil {
			return nil, err
		}
		if err := e.repo.WriteSnapshots(ctx, snapshots); err != nil {
			return nil, err
		}
		return snapshots, nil
	}()
	if err != nil {
		return nil, err
	}

	recomputeDuration.Observe(time.Since(started).Seconds())
	e.logger.Debug().
		Int("accounts", len(snapshots)).
		Dur("elapsed", time.Since(started)).
		Msg("reconciliation complete")

	if e.publisher != nil {
		if err := e.publisher.Publish(ctx, snapshots); err != nil {
			e.logger.Error().Err(err).Msg("snapshot publish failed")
		}
	}
	return snapshots, nil
}
