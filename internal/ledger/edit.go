package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/brenocwb02/contasbot/internal/money"
)

// ErrUnknownField is returned for an edit on a field users cannot change.
var ErrUnknownField = errors.New("unknown edit field")

// ErrInvalidValue is returned when an edit value does not parse for the
// target field (bad amount, bad date).
var ErrInvalidValue = errors.New("invalid field value")

// editableFields maps the user-facing field names of the edit command to
// ledger columns, with a parser that canonicalizes the raw value.
var editableFields = map[string]struct {
	column string
	parse  func(string) (string, error)
}{
	"descricao":    {colTxDescription, parseAsText},
	"categoria":    {colTxCategory, parseAsText},
	"subcategoria": {colTxSubcategory, parseAsText},
	"valor":        {colTxAmount, parseAsAmount},
	"data":         {colTxDate, parseAsDate},
	"vencimento":   {colTxDueDate, parseAsDate},
	"conta":        {colTxAccount, parseAsText},
	"status":       {colTxStatus, parseAsText},
}

func parseAsText(v string) (string, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return "", fmt.Errorf("%w: empty value", ErrInvalidValue)
	}
	return v, nil
}

func parseAsAmount(v string) (string, error) {
	parsed, err := money.ParseBRL(v)
	if err != nil || parsed <= 0 {
		return "", fmt.Errorf("%w: amount %q", ErrInvalidValue, v)
	}
	return formatFloatCell(parsed), nil
}

func parseAsDate(v string) (string, error) {
	parsed, err := time.Parse(DateLayout, strings.TrimSpace(v))
	if err != nil {
		return "", fmt.Errorf("%w: date %q (expected DD/MM/YYYY)", ErrInvalidValue, v)
	}
	return parsed.Format(DateLayout), nil
}

// findTransactionRow locates a ledger row by exact id. The returned index is
// grid-absolute (header is row 0).
func (r *Repo) findTransactionRow(ctx context.Context, id string) (int, []string, error) {
	header, rows, err := r.load(ctx, r.tables.Transactions)
	if err != nil {
		return 0, nil, err
	}
	for i, row := range rows {
		if header.Cell(row, colTxID) == id {
			return i + 1, row, nil
		}
	}
	return 0, nil, fmt.Errorf("transaction %q: %w", id, ErrNotFound)
}

// EditField updates one field of one ledger row and reconciles, under the
// store-wide lock.
func (w *Writer) EditField(ctx context.Context, id, field, value string) error {
	spec, ok := editableFields[strings.ToLower(strings.TrimSpace(field))]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	canonical, err := spec.parse(value)
	if err != nil {
		return err
	}

	if err := w.lock.Acquire(ctx, w.lockTimeout); err != nil {
		return err
	}
	editErr := func() error {
		defer w.lock.Release()

		gridRow, _, err := w.repo.findTransactionRow(ctx, id)
		if err != nil {
			return err
		}
		header, _, err := w.repo.load(ctx, w.repo.tables.Transactions)
		if err != nil {
			return err
		}
		col, err := header.Col(spec.column)
		if err != nil {
			return fmt.Errorf("transactions table: %w", err)
		}
		return w.repo.store.SetCell(ctx, w.repo.tables.Transactions, gridRow, col, canonical)
	}()
	if editErr != nil {
		return editErr
	}

	w.logger.Info().Str("id", id).Str("field", field).Msg("ledger row edited")

	if _, err := w.reconciler.RecomputeAndPersist(ctx); err != nil {
		return fmt.Errorf("row edited but reconciliation failed: %w", err)
	}
	return nil
}

// Delete removes a whole ledger row and reconciles. If the row was linked to
// a payable bill, the bill reverts to pending and the linkage is cleared.
func (w *Writer) Delete(ctx context.Context, id string) error {
	if err := w.lock.Acquire(ctx, w.lockTimeout); err != nil {
		return err
	}
	deleteErr := func() error {
		defer w.lock.Release()

		gridRow, _, err := w.repo.findTransactionRow(ctx, id)
		if err != nil {
			return err
		}
		if err := w.repo.store.DeleteRow(ctx, w.repo.tables.Transactions, gridRow); err != nil {
			return err
		}
		return w.repo.revertBillForTransaction(ctx, id)
	}()
	if deleteErr != nil {
		return deleteErr
	}

	w.logger.Info().Str("id", id).Msg("ledger row deleted")

	if _, err := w.reconciler.RecomputeAndPersist(ctx); err != nil {
		return fmt.Errorf("row deleted but reconciliation failed: %w", err)
	}
	return nil
}
