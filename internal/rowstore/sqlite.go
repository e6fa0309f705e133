package rowstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "modernc.org/sqlite"
)

// SQLite is a Store over a local sqlite file, for running the assistant
// without Google credentials. The whole grid lives in one table keyed by
// (logical table, row index); each row's cells are stored as a JSON array so
// the grid stays schemaless like a spreadsheet.
type SQLite struct {
	db *sql.DB
}

// No uniqueness on (tbl, idx): the renumbering UPDATE in DeleteRow shifts a
// range of indices in one statement, which would trip a unique constraint
// mid-update.
var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS grid (
	tbl   TEXT    NOT NULL,
	idx   INTEGER NOT NULL,
	cells TEXT    NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS grid_tbl_idx ON grid (tbl, idx)`,
}

// OpenSQLite opens (creating if needed) a sqlite-backed store at path. Use
// ":memory:" for an ephemeral store.
func OpenSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite store at %q: %w", path, err)
	}
	// The grid is accessed under the ledger's coarse lock; a single
	// connection avoids sqlite's multi-writer contention entirely.
	db.SetMaxOpenConns(1)

	for _, stmt := range sqliteSchema {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to create grid schema: %w", err)
		}
	}
	return &SQLite{db: db}, nil
}

// Close releases the underlying database handle.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// CreateTable seeds a logical table with its header row if it does not exist.
func (s *SQLite) CreateTable(ctx context.Context, table string, header []string) error {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM grid WHERE tbl = ?`, table).Scan(&count); err != nil {
		return fmt.Errorf("failed to probe table %s: %w", table, err)
	}
	if count > 0 {
		return nil
	}
	return s.insertRow(ctx, table, 0, header)
}

func (s *SQLite) insertRow(ctx context.Context, table string, idx int, row []string) error {
	cells, err := json.Marshal(row)
	if err != nil {
		return fmt.Errorf("failed to encode row for %s: %w", table, err)
	}
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO grid (tbl, idx, cells) VALUES (?, ?, ?)`, table, idx, string(cells)); err != nil {
		return fmt.Errorf("failed to insert row into %s: %w", table, err)
	}
	return nil
}

// GetAllRows returns the table's grid in row order, header first.
func (s *SQLite) GetAllRows(ctx context.Context, table string) ([][]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT cells FROM grid WHERE tbl = ? ORDER BY idx`, table)
	if err != nil {
		return nil, fmt.Errorf("failed to read table %s: %w", table, err)
	}
	defer rows.Close()

	var grid [][]string
	for rows.Next() {
		var cells string
		if err := rows.Scan(&cells); err != nil {
			return nil, fmt.Errorf("failed to scan row from %s: %w", table, err)
		}
		var row []string
		if err := json.Unmarshal([]byte(cells), &row); err != nil {
			return nil, fmt.Errorf("corrupt row in table %s: %w", table, err)
		}
		grid = append(grid, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate table %s: %w", table, err)
	}
	if len(grid) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrTableNotFound, table)
	}
	return grid, nil
}

// AppendRow adds a row after the table's last row.
func (s *SQLite) AppendRow(ctx context.Context, table string, row []string) error {
	var next sql.NullInt64
	if err := s.db.QueryRowContext(ctx,
		`SELECT MAX(idx) FROM grid WHERE tbl = ?`, table).Scan(&next); err != nil {
		return fmt.Errorf("failed to find last row of %s: %w", table, err)
	}
	if !next.Valid {
		return fmt.Errorf("%w: %s", ErrTableNotFound, table)
	}
	return s.insertRow(ctx, table, int(next.Int64)+1, row)
}

// SetCell overwrites one cell of one row.
func (s *SQLite) SetCell(ctx context.Context, table string, rowIndex, colIndex int, value string) error {
	var cells string
	err := s.db.QueryRowContext(ctx,
		`SELECT cells FROM grid WHERE tbl = ? AND idx = ?`, table, rowIndex).Scan(&cells)
	if err == sql.ErrNoRows {
		return fmt.Errorf("row %d out of range in table %s", rowIndex, table)
	}
	if err != nil {
		return fmt.Errorf("failed to read row %d of %s: %w", rowIndex, table, err)
	}

	var row []string
	if err := json.Unmarshal([]byte(cells), &row); err != nil {
		return fmt.Errorf("corrupt row %d in table %s: %w", rowIndex, table, err)
	}
	for len(row) <= colIndex {
		row = append(row, "")
	}
	row[colIndex] = value

	updated, err := json.Marshal(row)
	if err != nil {
		return fmt.Errorf("failed to encode row for %s: %w", table, err)
	}
	if _, err := s.db.ExecContext(ctx,
		`UPDATE grid SET cells = ? WHERE tbl = ? AND idx = ?`, string(updated), table, rowIndex); err != nil {
		return fmt.Errorf("failed to update row %d of %s: %w", rowIndex, table, err)
	}
	return nil
}

// DeleteRow removes a row and renumbers later rows so indices stay dense,
// matching spreadsheet semantics.
func (s *SQLite) DeleteRow(ctx context.Context, table string, rowIndex int) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin delete of row %d in %s: %w", rowIndex, table, err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`DELETE FROM grid WHERE tbl = ? AND idx = ?`, table, rowIndex)
	if err != nil {
		return fmt.Errorf("failed to delete row %d of %s: %w", rowIndex, table, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to confirm delete in %s: %w", table, err)
	}
	if affected == 0 {
		return fmt.Errorf("row %d out of range in table %s", rowIndex, table)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE grid SET idx = idx - 1 WHERE tbl = ? AND idx > ?`, table, rowIndex); err != nil {
		return fmt.Errorf("failed to renumber rows of %s: %w", table, err)
	}
	return tx.Commit()
}
