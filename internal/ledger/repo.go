// Package ledger provides typed access to the row-store tables (accounts,
// transactions, keyword rules, payable bills) and the write path that expands
// confirmed candidates into ledger rows under the store-wide lock.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/brenocwb02/contasbot/internal/domain"
	"github.com/brenocwb02/contasbot/internal/keyword"
	"github.com/brenocwb02/contasbot/internal/money"
	"github.com/brenocwb02/contasbot/internal/rowstore"
	"github.com/brenocwb02/contasbot/internal/textnorm"
)

// ErrNotFound indicates an unknown account, transaction, or bill id.
var ErrNotFound = errors.New("not found")

// DateLayout is how dates are stored in the grid.
const DateLayout = "02/01/2006"

// timestampLayout is how registration instants are stored.
const timestampLayout = "02/01/2006 15:04:05"

// Tables names the sheets/tabs backing each record type.
type Tables struct {
	Accounts     string
	Transactions string
	Keywords     string
	Bills        string
}

// DefaultTables matches the spreadsheet layout the assistant expects.
func DefaultTables() Tables {
	return Tables{
		Accounts:     "Contas",
		Transactions: "Transacoes",
		Keywords:     "PalavrasChave",
		Bills:        "ContasAPagar",
	}
}

// Column names of the accounts table.
const (
	colAccountName    = "nome"
	colAccountKind    = "tipo"
	colAccountOpening = "saldo_inicial"
	colAccountLimit   = "limite"
	colAccountDueDay  = "dia_vencimento"
	colAccountClose   = "dia_fechamento"
	colAccountPolicy  = "politica_fechamento"
	colAccountGroup   = "grupo"
	colAccountAliases = "apelidos"
	colAccountBalance = "saldo"
	colAccountInvoice = "fatura_atual"
)

// Column names of the transactions table.
const (
	colTxID          = "id"
	colTxDate        = "data"
	colTxDescription = "descricao"
	colTxCategory    = "categoria"
	colTxSubcategory = "subcategoria"
	colTxKind        = "tipo"
	colTxAmount      = "valor"
	colTxMethod      = "metodo_pagamento"
	colTxAccount     = "conta"
	colTxParcels     = "parcelas_total"
	colTxParcel      = "parcela"
	colTxDueDate     = "data_vencimento"
	colTxOwner       = "usuario"
	colTxStatus      = "status"
	colTxRegistered  = "registrado_em"
)

// Column names of the keyword-rules table.
const (
	colRuleType     = "tipo_regra"
	colRuleKeyword  = "palavra"
	colRuleValue    = "valor"
	colRuleWhenType = "tipo_transacao"
)

// Column names of the payable-bills table.
const (
	colBillID     = "id"
	colBillDesc   = "descricao"
	colBillAmount = "valor"
	colBillDue    = "data_vencimento"
	colBillStatus = "status"
	colBillTxID   = "id_transacao"
)

// TableHeaders returns the canonical header row per table, keyed by table
// name. Used to bootstrap empty local backends; a spreadsheet deployment is
// expected to carry these headers already.
func TableHeaders(tables Tables) map[string][]string {
	return map[string][]string{
		tables.Accounts: {
			colAccountName, colAccountKind, colAccountOpening, colAccountLimit,
			colAccountDueDay, colAccountClose, colAccountPolicy, colAccountGroup,
			colAccountAliases, colAccountBalance, colAccountInvoice,
		},
		tables.Transactions: {
			colTxID, colTxDate, colTxDescription, colTxCategory, colTxSubcategory,
			colTxKind, colTxAmount, colTxMethod, colTxAccount, colTxParcels,
			colTxParcel, colTxDueDate, colTxOwner, colTxStatus, colTxRegistered,
		},
		tables.Keywords: {colRuleType, colRuleKeyword, colRuleValue, colRuleWhenType},
		tables.Bills:    {colBillID, colBillDesc, colBillAmount, colBillDue, colBillStatus, colBillTxID},
	}
}

// Repo reads and writes typed records over the generic row store. Rows are
// addressed through a header-to-index map built per table load, never by
// hard-coded position.
type Repo struct {
	store  rowstore.Store
	tables Tables
}

// NewRepo creates a repo over the given store.
func NewRepo(store rowstore.Store, tables Tables) *Repo {
	return &Repo{store: store, tables: tables}
}

// Store exposes the underlying row store for collaborators that need raw
// access (the sqlite bootstrap, tests).
func (r *Repo) Store() rowstore.Store {
	return r.store
}

func (r *Repo) load(ctx context.Context, table string) (rowstore.Header, [][]string, error) {
	grid, err := r.store.GetAllRows(ctx, table)
	if err != nil {
		return nil, nil, err
	}
	if len(grid) == 0 {
		return nil, nil, fmt.Errorf("table %s has no header row", table)
	}
	return rowstore.NewHeader(grid[0]), grid[1:], nil
}

// parseFloatCell reads a numeric cell in either the dot-decimal form the
// writer stores or the Brazilian form a user types into the spreadsheet
// ("1.234,56"). Empty cells are 0.
func parseFloatCell(s string) float64 {
	if strings.TrimSpace(s) == "" {
		return 0
	}
	v, err := money.ParseBRL(s)
	if err != nil {
		return 0
	}
	return v
}

func parseIntCell(s string) int {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return v
}

func parseDateCell(s string) time.Time {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}
	}
	return t
}

func formatFloatCell(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Accounts loads every configured account. Malformed rows (no name) are
// skipped; the account table is configuration and read-mostly.
func (r *Repo) Accounts(ctx context.Context) ([]*domain.Account, error) {
	header, rows, err := r.load(ctx, r.tables.Accounts)
	if err != nil {
		return nil, err
	}

	accounts := make([]*domain.Account, 0, len(rows))
	for _, row := range rows {
		name := strings.TrimSpace(header.Cell(row, colAccountName))
		if name == "" {
			continue
		}

		acc := &domain.Account{
			Name:           name,
			NormalizedName: textnorm.Normalize(name),
			Kind:           domain.AccountKind(header.Cell(row, colAccountKind)),
			OpeningBalance: parseFloatCell(header.Cell(row, colAccountOpening)),
			CreditLimit:    parseFloatCell(header.Cell(row, colAccountLimit)),
			DueDay:         parseIntCell(header.Cell(row, colAccountDueDay)),
			ClosingDay:     parseIntCell(header.Cell(row, colAccountClose)),
			ClosingPolicy:  domain.ClosingPolicy(header.Cell(row, colAccountPolicy)),
			ParentGroupKey: textnorm.Normalize(header.Cell(row, colAccountGroup)),
		}
		if aliases := strings.TrimSpace(header.Cell(row, colAccountAliases)); aliases != "" {
			for _, alias := range strings.Split(aliases, ",") {
				if alias = strings.TrimSpace(alias); alias != "" {
					acc.Aliases = append(acc.Aliases, alias)
				}
			}
		}
		accounts = append(accounts, acc)
	}
	return accounts, nil
}

// AccountByKey resolves one account by normalized name.
func (r *Repo) AccountByKey(ctx context.Context, key string) (*domain.Account, error) {
	accounts, err := r.Accounts(ctx)
	if err != nil {
		return nil, err
	}
	for _, acc := range accounts {
		if acc.NormalizedName == key {
			return acc, nil
		}
	}
	return nil, fmt.Errorf("account %q: %w", key, ErrNotFound)
}

func (r *Repo) transactionFromRow(header rowstore.Header, row []string) *domain.Transaction {
	registered, _ := time.Parse(timestampLayout, header.Cell(row, colTxRegistered))
	return &domain.Transaction{
		ID:               header.Cell(row, colTxID),
		PostedDate:       parseDateCell(header.Cell(row, colTxDate)),
		Description:      header.Cell(row, colTxDescription),
		Category:         header.Cell(row, colTxCategory),
		Subcategory:      header.Cell(row, colTxSubcategory),
		Kind:             domain.TransactionKind(header.Cell(row, colTxKind)),
		Amount:           parseFloatCell(header.Cell(row, colTxAmount)),
		PaymentMethod:    header.Cell(row, colTxMethod),
		AccountKey:       textnorm.Normalize(header.Cell(row, colTxAccount)),
		InstallmentCount: parseIntCell(header.Cell(row, colTxParcels)),
		InstallmentIndex: parseIntCell(header.Cell(row, colTxParcel)),
		DueDate:          parseDateCell(header.Cell(row, colTxDueDate)),
		Owner:            header.Cell(row, colTxOwner),
		Status:           header.Cell(row, colTxStatus),
		RegisteredAt:     registered,
	}
}

// Transactions replays the full ledger in row order.
func (r *Repo) Transactions(ctx context.Context) ([]*domain.Transaction, error) {
	header, rows, err := r.load(ctx, r.tables.Transactions)
	if err != nil {
		return nil, err
	}

	txs := make([]*domain.Transaction, 0, len(rows))
	for _, row := range rows {
		if header.Cell(row, colTxID) == "" {
			continue
		}
		txs = append(txs, r.transactionFromRow(header, row))
	}
	return txs, nil
}

// TransactionsByOwner returns the owner's most recent rows, newest last,
// capped at limit.
func (r *Repo) TransactionsByOwner(ctx context.Context, owner string, limit int) ([]*domain.Transaction, error) {
	all, err := r.Transactions(ctx)
	if err != nil {
		return nil, err
	}

	var mine []*domain.Transaction
	for _, tx := range all {
		if tx.Owner == owner {
			mine = append(mine, tx)
		}
	}
	if limit > 0 && len(mine) > limit {
		mine = mine[len(mine)-limit:]
	}
	return mine, nil
}

// AppendTransaction writes one ledger row.
func (r *Repo) AppendTransaction(ctx context.Context, tx *domain.Transaction) error {
	if err := tx.Validate(); err != nil {
		return fmt.Errorf("refusing to write invalid ledger row: %w", err)
	}

	header, _, err := r.load(ctx, r.tables.Transactions)
	if err != nil {
		return err
	}

	cells := map[string]string{
		colTxID:          tx.ID,
		colTxDate:        tx.PostedDate.Format(DateLayout),
		colTxDescription: tx.Description,
		colTxCategory:    tx.Category,
		colTxSubcategory: tx.Subcategory,
		colTxKind:        string(tx.Kind),
		colTxAmount:      formatFloatCell(tx.Amount),
		colTxMethod:      tx.PaymentMethod,
		colTxAccount:     tx.AccountKey,
		colTxParcels:     strconv.Itoa(tx.InstallmentCount),
		colTxParcel:      strconv.Itoa(tx.InstallmentIndex),
		colTxDueDate:     tx.DueDate.Format(DateLayout),
		colTxOwner:       tx.Owner,
		colTxStatus:      tx.Status,
		colTxRegistered:  tx.RegisteredAt.Format(timestampLayout),
	}

	row := make([]string, len(header))
	for name, value := range cells {
		idx, err := header.Col(name)
		if err != nil {
			return fmt.Errorf("transactions table: %w", err)
		}
		row[idx] = value
	}
	return r.store.AppendRow(ctx, r.tables.Transactions, row)
}

// KeywordRules loads user-configured rules from the keyword table. Rows with
// an unknown rule type are returned as-is; the keyword engine rejects them
// individually on merge.
func (r *Repo) KeywordRules(ctx context.Context) ([]keyword.Rule, error) {
	header, rows, err := r.load(ctx, r.tables.Keywords)
	if err != nil {
		return nil, err
	}

	rules := make([]keyword.Rule, 0, len(rows))
	for _, row := range rows {
		if header.Cell(row, colRuleKeyword) == "" {
			continue
		}
		rules = append(rules, keyword.Rule{
			Type:     keyword.RuleType(header.Cell(row, colRuleType)),
			Keyword:  header.Cell(row, colRuleKeyword),
			Value:    header.Cell(row, colRuleValue),
			WhenType: header.Cell(row, colRuleWhenType),
		})
	}
	return rules, nil
}

// Bills loads every payable-bill record.
func (r *Repo) Bills(ctx context.Context) ([]*domain.Bill, error) {
	header, rows, err := r.load(ctx, r.tables.Bills)
	if err != nil {
		return nil, err
	}

	bills := make([]*domain.Bill, 0, len(rows))
	for _, row := range rows {
		if header.Cell(row, colBillID) == "" {
			continue
		}
		bills = append(bills, &domain.Bill{
			ID:                  header.Cell(row, colBillID),
			Description:         header.Cell(row, colBillDesc),
			Amount:              parseFloatCell(header.Cell(row, colBillAmount)),
			DueDate:             parseDateCell(header.Cell(row, colBillDue)),
			Status:              header.Cell(row, colBillStatus),
			LinkedTransactionID: header.Cell(row, colBillTxID),
		})
	}
	return bills, nil
}

// MarkBillPaid links a bill to the ledger row that paid it.
func (r *Repo) MarkBillPaid(ctx context.Context, billID, transactionID string) error {
	return r.updateBill(ctx, billID, domain.BillPaid, transactionID)
}

// settleBillForPayment matches an invoice-payment ledger row against the
// open bills and marks the first pending bill naming the paid account. No
// match is normal: not every invoice payment has a tracked bill.
func (r *Repo) settleBillForPayment(ctx context.Context, tx *domain.Transaction) error {
	header, rows, err := r.load(ctx, r.tables.Bills)
	if err != nil {
		// The bills table is optional in minimal deployments.
		if errors.Is(err, rowstore.ErrTableNotFound) {
			return nil
		}
		return err
	}

	for _, row := range rows {
		if header.Cell(row, colBillStatus) != domain.BillPending {
			continue
		}
		desc := textnorm.Normalize(header.Cell(row, colBillDesc))
		if !strings.Contains(desc, tx.AccountKey) {
			continue
		}
		return r.MarkBillPaid(ctx, header.Cell(row, colBillID), tx.ID)
	}
	return nil
}

// revertBillForTransaction finds the bill linked to a deleted ledger row and
// reverts it to pending, clearing the linkage. Not finding one is normal.
func (r *Repo) revertBillForTransaction(ctx context.Context, transactionID string) error {
	header, rows, err := r.load(ctx, r.tables.Bills)
	if err != nil {
		// The bills table is optional in minimal deployments.
		if errors.Is(err, rowstore.ErrTableNotFound) {
			return nil
		}
		return err
	}

	for i, row := range rows {
		if header.Cell(row, colBillTxID) != transactionID {
			continue
		}
		gridRow := i + 1 // header offset
		statusCol, err := header.Col(colBillStatus)
		if err != nil {
			return fmt.Errorf("bills table: %w", err)
		}
		linkCol, err := header.Col(colBillTxID)
		if err != nil {
			return fmt.Errorf("bills table: %w", err)
		}
		if err := r.store.SetCell(ctx, r.tables.Bills, gridRow, statusCol, domain.BillPending); err != nil {
			return err
		}
		return r.store.SetCell(ctx, r.tables.Bills, gridRow, linkCol, "")
	}
	return nil
}

func (r *Repo) updateBill(ctx context.Context, billID, status, transactionID string) error {
	header, rows, err := r.load(ctx, r.tables.Bills)
	if err != nil {
		return err
	}

	for i, row := range rows {
		if header.Cell(row, colBillID) != billID {
			continue
		}
		gridRow := i + 1
		statusCol, err := header.Col(colBillStatus)
		if err != nil {
			return fmt.Errorf("bills table: %w", err)
		}
		linkCol, err := header.Col(colBillTxID)
		if err != nil {
			return fmt.Errorf("bills table: %w", err)
		}
		if err := r.store.SetCell(ctx, r.tables.Bills, gridRow, statusCol, status); err != nil {
			return err
		}
		return r.store.SetCell(ctx, r.tables.Bills, gridRow, linkCol, transactionID)
	}
	return fmt.Errorf("bill %q: %w", billID, ErrNotFound)
}

// WriteSnapshots persists reconciliation output to the accounts table:
// the balance column gets the account's externally visible balance and the
// invoice column gets the current-cycle total. Accounts absent from the
// snapshot keep their stored values unchanged.
func (r *Repo) WriteSnapshots(ctx context.Context, snapshots map[string]domain.Snapshot) error {
	header, rows, err := r.load(ctx, r.tables.Accounts)
	if err != nil {
		return err
	}
	balanceCol, err := header.Col(colAccountBalance)
	if err != nil {
		return fmt.Errorf("accounts table: %w", err)
	}
	invoiceCol, err := header.Col(colAccountInvoice)
	if err != nil {
		return fmt.Errorf("accounts table: %w", err)
	}

	for i, row := range rows {
		key := textnorm.Normalize(header.Cell(row, colAccountName))
		snapshot, ok := snapshots[key]
		if !ok {
			continue
		}
		gridRow := i + 1
		if err := r.store.SetCell(ctx, r.tables.Accounts, gridRow, balanceCol, formatFloatCell(snapshot.Balance())); err != nil {
			return err
		}
		if err := r.store.SetCell(ctx, r.tables.Accounts, gridRow, invoiceCol, formatFloatCell(snapshot.CurrentCycleInvoice)); err != nil {
			return err
		}
	}
	return nil
}
