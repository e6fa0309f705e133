// Package rowstore abstracts the tabular storage engine as a generic grid of
// rows with a header: get-all, append, set-cell, and delete-row operations.
//
// Three backends share the interface: a Google Sheets spreadsheet
// (production), a local sqlite file, and an in-memory grid for tests. Row
// indices are zero-based over the full grid, so the header is row 0 and the
// first data row is row 1.
package rowstore

import (
	"context"
	"errors"
	"fmt"
)

// ErrTableNotFound indicates the named table does not exist in the store.
// This is a configuration defect, not a user error.
var ErrTableNotFound = errors.New("table not found")

// Store is the row-store collaborator. All operations are synchronous and
// strongly consistent within one process.
type Store interface {
	// GetAllRows returns the full grid including the header row.
	GetAllRows(ctx context.Context, table string) ([][]string, error)
	// AppendRow adds a row after the last existing row.
	AppendRow(ctx context.Context, table string, row []string) error
	// SetCell overwrites one cell. rowIndex 0 is the header.
	SetCell(ctx context.Context, table string, rowIndex, colIndex int, value string) error
	// DeleteRow removes a whole row, shifting later rows up.
	DeleteRow(ctx context.Context, table string, rowIndex int) error
}

// Header maps column names to their index, built once per table load so
// business logic never addresses cells positionally.
type Header map[string]int

// NewHeader builds a Header from the grid's first row.
func NewHeader(headerRow []string) Header {
	h := make(Header, len(headerRow))
	for i, name := range headerRow {
		h[name] = i
	}
	return h
}

// Col returns the index of a named column. A missing column means the stored
// table does not have the shape the code expects.
func (h Header) Col(name string) (int, error) {
	idx, ok := h[name]
	if !ok {
		return 0, fmt.Errorf("missing expected column %q", name)
	}
	return idx, nil
}

// Cell returns the named column's value from a row, tolerating short rows
// (spreadsheet APIs trim trailing empty cells).
func (h Header) Cell(row []string, name string) string {
	idx, ok := h[name]
	if !ok || idx >= len(row) {
		return ""
	}
	return row[idx]
}
