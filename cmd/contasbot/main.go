package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/brenocwb02/contasbot/internal/bot"
	"github.com/brenocwb02/contasbot/internal/config"
	"github.com/brenocwb02/contasbot/internal/interpret"
	"github.com/brenocwb02/contasbot/internal/keyword"
	"github.com/brenocwb02/contasbot/internal/ledger"
	"github.com/brenocwb02/contasbot/internal/logger"
	"github.com/brenocwb02/contasbot/internal/middleware"
	"github.com/brenocwb02/contasbot/internal/pending"
	"github.com/brenocwb02/contasbot/internal/reconcile"
	"github.com/brenocwb02/contasbot/internal/rowstore"
	"github.com/brenocwb02/contasbot/internal/server"
	"github.com/brenocwb02/contasbot/internal/snapshot"
	"github.com/brenocwb02/contasbot/internal/telegram"
)

const version = "0.1.0"

var (
	versionFlag = flag.Bool("version", false, "Show version")
	configPath  = flag.String("config", "", "Path to the YAML configuration file")
)

func main() {
	flag.Usage = func() {
		fmt.Fprint(os.Stderr, `contasbot - conversational personal-finance assistant (webhook daemon)

Usage:
  contasbot [flags]

Flags:
`)
		flag.PrintDefaults()
	}

	flag.Parse()

	if *versionFlag {
		fmt.Printf("contasbot version %s\n", version)
		os.Exit(0)
	}

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if cfg.Telegram.Token == "" {
		return fmt.Errorf("%w: TELEGRAM_BOT_TOKEN is not set", config.ErrConfiguration)
	}

	log := logger.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

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

	engine, err := loadKeywordEngine(ctx, cfg, repo, log)
	if err != nil {
		return err
	}

	var publisher reconcile.Publisher
	var verifier middleware.TokenVerifier
	if cfg.Firestore.ProjectID != "" {
		client, err := snapshot.NewClient(ctx, cfg.Firestore.ProjectID, cfg.Firestore.CredentialsFile)
		if err != nil {
			return fmt.Errorf("%w: firestore: %v", config.ErrConfiguration, err)
		}
		defer client.Close()
		publisher = client
		verifier = client.Auth
	}

	lock := ledger.NewLock()
	reconciler := reconcile.New(repo, lock, cfg.LockTimeout.Std(), publisher, log)
	writer := ledger.NewWriter(repo, lock, reconciler, cfg.LockTimeout.Std(), log)

	cache := pending.NewMemoryCache()
	candidates := pending.NewStore(cache, cfg.CandidateTTL.Std())
	deduper := pending.NewDeduper(cache, cfg.DedupTTL.Std())

	sender := telegram.NewClient(cfg.Telegram.Token)
	b := bot.New(interpret.New(engine), candidates, deduper, repo, writer, reconciler, sender, log)

	srv := server.New(b, repo, reconciler, verifier, cfg.Telegram.WebhookSecret, log)
	httpServer := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.ListenAddr).Str("version", version).Msg("listening")
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

// openStore builds the configured row-store backend, bootstrapping table
// headers for the local backends.
func openStore(ctx context.Context, cfg config.Config) (rowstore.Store, func(), error) {
	tables := ledger.Tables{
		Accounts:     cfg.Tables.Accounts,
		Transactions: cfg.Tables.Transactions,
		Keywords:     cfg.Tables.Keywords,
		Bills:        cfg.Tables.Bills,
	}
	headers := ledger.TableHeaders(tables)

	switch cfg.Store.Backend {
	case config.StoreSheets:
		s, err := rowstore.NewSheets(ctx, cfg.Store.SpreadsheetID, cfg.Firestore.CredentialsFile)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: sheets: %v", config.ErrConfiguration, err)
		}
		return s, func() {}, nil

	case config.StoreSQLite:
		s, err := rowstore.OpenSQLite(cfg.Store.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: sqlite: %v", config.ErrConfiguration, err)
		}
		for table, header := range headers {
			if _, err := s.GetAllRows(ctx, table); errors.Is(err, rowstore.ErrTableNotFound) {
				if err := s.CreateTable(ctx, table, header); err != nil {
					s.Close()
					return nil, nil, fmt.Errorf("bootstrapping table %s: %w", table, err)
				}
			}
		}
		return s, func() { s.Close() }, nil

	case config.StoreMemory:
		s := rowstore.NewMemory()
		for table, header := range headers {
			s.Seed(table, [][]string{header})
		}
		return s, func() {}, nil
	}
	return nil, nil, fmt.Errorf("%w: unknown store backend %q", config.ErrConfiguration, cfg.Store.Backend)
}

// loadKeywordEngine merges the default rules with the user-configured rules
// from the keyword table. Individually invalid user rules are logged and
// skipped, never fatal.
func loadKeywordEngine(ctx context.Context, cfg config.Config, repo *ledger.Repo, log zerolog.Logger) (*keyword.Engine, error) {
	var engine *keyword.Engine
	var err error
	if cfg.KeywordRulesFile != "" {
		engine, err = keyword.LoadFromFile(cfg.KeywordRulesFile)
	} else {
		engine, err = keyword.LoadEmbedded()
	}
	if err != nil {
		return nil, fmt.Errorf("%w: keyword rules: %v", config.ErrConfiguration, err)
	}

	userRules, err := repo.KeywordRules(ctx)
	if err != nil {
		if errors.Is(err, rowstore.ErrTableNotFound) {
			log.Warn().Msg("keyword-rules table missing, using defaults only")
			return engine, nil
		}
		return nil, err
	}
	for _, ruleErr := range engine.AddRules(userRules) {
		log.Warn().Err(ruleErr).Msg("skipping invalid keyword rule")
	}
	return engine, nil
}
