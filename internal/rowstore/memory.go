package rowstore

import (
	"context"
	"fmt"
	"sync"
)

// Memory is an in-memory Store used by tests and local dry runs.
type Memory struct {
	mu     sync.RWMutex
	tables map[string][][]string
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{tables: make(map[string][][]string)}
}

// Seed replaces a table's contents wholesale. The first row is the header.
func (m *Memory) Seed(table string, rows [][]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := make([][]string, len(rows))
	for i, row := range rows {
		copied[i] = append([]string(nil), row...)
	}
	m.tables[table] = copied
}

// GetAllRows returns a copy of the table's grid.
func (m *Memory) GetAllRows(_ context.Context, table string) ([][]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rows, ok := m.tables[table]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTableNotFound, table)
	}

	out := make([][]string, len(rows))
	for i, row := range rows {
		out[i] = append([]string(nil), row...)
	}
	return out, nil
}

// AppendRow adds a row to the end of the table.
func (m *Memory) AppendRow(_ context.Context, table string, row []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.tables[table]; !ok {
		return fmt.Errorf("%w: %s", ErrTableNotFound, table)
	}
	m.tables[table] = append(m.tables[table], append([]string(nil), row...))
	return nil
}

// SetCell overwrites one cell, growing the row when the spreadsheet had
// trimmed trailing empties.
func (m *Memory) SetCell(_ context.Context, table string, rowIndex, colIndex int, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	rows, ok := m.tables[table]
	if !ok {
		return fmt.Errorf("%w: %s", ErrTableNotFound, table)
	}
	if rowIndex < 0 || rowIndex >= len(rows) {
		return fmt.Errorf("row %d out of range in table %s", rowIndex, table)
	}

	row := rows[rowIndex]
	for len(row) <= colIndex {
		row = append(row, "")
	}
	row[colIndex] = value
	rows[rowIndex] = row
	return nil
}

// DeleteRow removes a row and shifts later rows up.
func (m *Memory) DeleteRow(_ context.Context, table string, rowIndex int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	rows, ok := m.tables[table]
	if !ok {
		return fmt.Errorf("%w: %s", ErrTableNotFound, table)
	}
	if rowIndex < 0 || rowIndex >= len(rows) {
		return fmt.Errorf("row %d out of range in table %s", rowIndex, table)
	}
	m.tables[table] = append(rows[:rowIndex], rows[rowIndex+1:]...)
	return nil
}
