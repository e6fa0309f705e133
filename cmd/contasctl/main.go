package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"sort"

	"github.com/brenocwb02/contasbot/internal/config"
	"github.com/brenocwb02/contasbot/internal/domain"
	"github.com/brenocwb02/contasbot/internal/keyword"
	"github.com/brenocwb02/contasbot/internal/ledger"
	"github.com/brenocwb02/contasbot/internal/logger"
	"github.com/brenocwb02/contasbot/internal/money"
	"github.com/brenocwb02/contasbot/internal/reconcile"
	"github.com/brenocwb02/contasbot/internal/rowstore"
	"github.com/brenocwb02/contasbot/internal/snapshot"
	"github.com/brenocwb02/contasbot/internal/ui"
)

var (
	configPath = flag.String("config", "", "Path to the YAML configuration file")
	persist    = flag.Bool("persist", false, "Write recomputed balances back to the store (recompute)")
)

func main() {
	flag.Usage = func() {
		fmt.Fprint(os.Stderr, `contasctl - operations CLI for the finance assistant

Usage:
  contasctl [flags] <command>

Commands:
  recompute   replay the ledger and show derived balances
  summary     show accounts, balances and recent ledger rows
  rules       validate the configured keyword rules

Flags:
`)
		flag.PrintDefaults()
	}

	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(1)
	}

	if err := run(flag.Arg(0)); err != nil {
		ui.Error(err.Error())
		os.Exit(1)
	}
}

func run(command string) error {
	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	log := logger.NewConsole()
	ctx := context.Background()

	store, cleanup, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	tables := ledger.Tables{
		Accounts:     cfg.Tables.Accounts,
		Transactions: cfg.Tables.Transactions,
		Keywords:     cfg.Tables.Keywords,
		Bills:        cfg.Tables.Bills,
	}
	repo := ledger.NewRepo(store, tables)
	reconciler := reconcile.New(repo, ledger.NewLock(), cfg.LockTimeout.Std(), nil, log)

	switch command {
	case "recompute":
		return runRecompute(ctx, reconciler)
	case "summary":
		return runSummary(ctx, cfg, repo, reconciler)
	case "rules":
		return runRules(ctx, cfg, repo)
	}
	return fmt.Errorf("unknown command %q", command)
}

func openStore(ctx context.Context, cfg config.Config) (rowstore.Store, func(), error) {
	switch cfg.Store.Backend {
	case config.StoreSheets:
		s, err := rowstore.NewSheets(ctx, cfg.Store.SpreadsheetID, cfg.Firestore.CredentialsFile)
		if err != nil {
			return nil, nil, err
		}
		return s, func() {}, nil
	case config.StoreSQLite:
		s, err := rowstore.OpenSQLite(cfg.Store.Path)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { s.Close() }, nil
	case config.StoreMemory:
		return nil, nil, errors.New("the memory backend holds no data to inspect")
	}
	return nil, nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
}

func runRecompute(ctx context.Context, reconciler *reconcile.Engine) error {
	ui.Header("Balance Recomputation")

	ui.Step(1, 2, "Replaying ledger")
	var snapshots map[string]domain.Snapshot
	var err error
	if *persist {
		snapshots, err = reconciler.RecomputeAndPersist(ctx)
	} else {
		snapshots, err = reconciler.Recompute(ctx)
	}
	if err != nil {
		return err
	}

	ui.Step(2, 2, "Derived balances")
	printSnapshots(snapshots)

	if *persist {
		ui.Success("balances written back to the store")
	} else {
		ui.Info("dry run: pass -persist to write balances back")
	}
	return nil
}

func runSummary(ctx context.Context, cfg config.Config, repo *ledger.Repo, reconciler *reconcile.Engine) error {
	ui.Header("Ledger Summary")

	accounts, err := repo.Accounts(ctx)
	if err != nil {
		return err
	}
	transactions, err := repo.Transactions(ctx)
	if err != nil {
		return err
	}
	snapshots, err := reconciler.Recompute(ctx)
	if err != nil {
		return err
	}

	ui.BlueText(fmt.Sprintf("%d accounts, %d ledger rows", len(accounts), len(transactions)))
	printSnapshots(snapshots)

	tail := transactions
	if len(tail) > 10 {
		tail = tail[len(tail)-10:]
	}
	if len(tail) > 0 {
		ui.Info("")
		ui.BlueText("Recent rows:")
		for _, tx := range tail {
			ui.Info(fmt.Sprintf("  %s  %s  %-8s %12s  %s",
				tx.ID, tx.PostedDate.Format(ledger.DateLayout), tx.Kind,
				money.FormatBRL(tx.Amount), tx.Description))
		}
	}

	if cfg.Firestore.ProjectID != "" {
		return printMirror(ctx, cfg)
	}
	return nil
}

// printMirror reads the published Firestore snapshots back, so an operator
// can compare the dashboard mirror against the fresh recompute above.
func printMirror(ctx context.Context, cfg config.Config) error {
	client, err := snapshot.NewClient(ctx, cfg.Firestore.ProjectID, cfg.Firestore.CredentialsFile)
	if err != nil {
		return err
	}
	defer client.Close()

	records, err := client.Records(ctx)
	if err != nil {
		return err
	}

	ui.Info("")
	ui.BlueText(fmt.Sprintf("Firestore mirror (%d accounts):", len(records)))
	for _, rec := range records {
		ui.Info(fmt.Sprintf("  %-24s %12s  atualizado %s",
			rec.AccountKey, money.FormatBRL(rec.Balance),
			rec.UpdatedAt.Format("02/01/2006 15:04")))
	}
	return nil
}

// runRules checks both the embedded/default rule file and the user rules in
// the keyword table, reporting each invalid rule without aborting.
func runRules(ctx context.Context, cfg config.Config, repo *ledger.Repo) error {
	ui.Header("Keyword Rules Check")

	var engine *keyword.Engine
	var err error
	if cfg.KeywordRulesFile != "" {
		ui.Step(1, 2, fmt.Sprintf("Loading %s", cfg.KeywordRulesFile))
		engine, err = keyword.LoadFromFile(cfg.KeywordRulesFile)
	} else {
		ui.Step(1, 2, "Loading embedded default rules")
		engine, err = keyword.LoadEmbedded()
	}
	if err != nil {
		return err
	}

	ui.Step(2, 2, "Merging user rules from the keyword table")
	userRules, err := repo.KeywordRules(ctx)
	if err != nil {
		if errors.Is(err, rowstore.ErrTableNotFound) {
			ui.Warning("keyword-rules table missing, nothing to merge")
			ui.Success("default rules are valid")
			return nil
		}
		return err
	}

	invalid := engine.AddRules(userRules)
	for _, ruleErr := range invalid {
		ui.Warning(ruleErr.Error())
	}
	if len(invalid) > 0 {
		return fmt.Errorf("%d of %d user rules are invalid", len(invalid), len(userRules))
	}
	ui.Success(fmt.Sprintf("all %d user rules merged cleanly", len(userRules)))
	return nil
}

func printSnapshots(snapshots map[string]domain.Snapshot) {
	keys := make([]string, 0, len(snapshots))
	for key := range snapshots {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		snapshot := snapshots[key]
		switch snapshot.Kind {
		case domain.AccountCreditCard, domain.AccountConsolidated:
			ui.Info(fmt.Sprintf("  💳 %-24s %12s em aberto (fatura atual %s)",
				key, money.FormatBRL(snapshot.Balance()), money.FormatBRL(snapshot.CurrentCycleInvoice)))
		default:
			ui.Info(fmt.Sprintf("  🏦 %-24s %12s", key, money.FormatBRL(snapshot.Balance())))
		}
	}
}
