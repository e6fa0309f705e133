package rowstore

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// storeUnderTest lets the memory and sqlite backends share one conformance
// suite, since the ledger treats them interchangeably.
func storesUnderTest(t *testing.T) map[string]Store {
	t.Helper()

	sqlite, err := OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { sqlite.Close() })

	ctx := context.Background()
	require.NoError(t, sqlite.CreateTable(ctx, "contas", []string{"nome", "tipo", "saldo"}))

	memory := NewMemory()
	memory.Seed("contas", [][]string{{"nome", "tipo", "saldo"}})

	return map[string]Store{"memory": memory, "sqlite": sqlite}
}

func TestStore_AppendAndGet(t *testing.T) {
	for name, store := range storesUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			require.NoError(t, store.AppendRow(ctx, "contas", []string{"Carteira", "cash", "100"}))
			require.NoError(t, store.AppendRow(ctx, "contas", []string{"Cartao X", "credit-card", "0"}))

			grid, err := store.GetAllRows(ctx, "contas")
			require.NoError(t, err)
			require.Len(t, grid, 3)
			assert.Equal(t, []string{"nome", "tipo", "saldo"}, grid[0])
			assert.Equal(t, "Carteira", grid[1][0])
			assert.Equal(t, "Cartao X", grid[2][0])
		})
	}
}

func TestStore_SetCell(t *testing.T) {
	for name, store := range storesUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, store.AppendRow(ctx, "contas", []string{"Carteira", "cash", "100"}))

			require.NoError(t, store.SetCell(ctx, "contas", 1, 2, "250.5"))

			grid, err := store.GetAllRows(ctx, "contas")
			require.NoError(t, err)
			assert.Equal(t, "250.5", grid[1][2])

			// Writing past the stored row width grows the row.
			require.NoError(t, store.SetCell(ctx, "contas", 1, 4, "extra"))
			grid, err = store.GetAllRows(ctx, "contas")
			require.NoError(t, err)
			assert.Equal(t, "extra", grid[1][4])
		})
	}
}

func TestStore_DeleteRow(t *testing.T) {
	for name, store := range storesUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, store.AppendRow(ctx, "contas", []string{"a", "cash", "1"}))
			require.NoError(t, store.AppendRow(ctx, "contas", []string{"b", "cash", "2"}))
			require.NoError(t, store.AppendRow(ctx, "contas", []string{"c", "cash", "3"}))

			require.NoError(t, store.DeleteRow(ctx, "contas", 2))

			grid, err := store.GetAllRows(ctx, "contas")
			require.NoError(t, err)
			require.Len(t, grid, 3)
			assert.Equal(t, "a", grid[1][0])
			assert.Equal(t, "c", grid[2][0])

			// Appending after a delete lands after the last remaining row.
			require.NoError(t, store.AppendRow(ctx, "contas", []string{"d", "cash", "4"}))
			grid, err = store.GetAllRows(ctx, "contas")
			require.NoError(t, err)
			assert.Equal(t, "d", grid[3][0])

			assert.Error(t, store.DeleteRow(ctx, "contas", 99))
		})
	}
}

func TestStore_UnknownTable(t *testing.T) {
	for name, store := range storesUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			_, err := store.GetAllRows(ctx, "nope")
			assert.True(t, errors.Is(err, ErrTableNotFound), "GetAllRows error = %v", err)

			err = store.AppendRow(ctx, "nope", []string{"x"})
			assert.True(t, errors.Is(err, ErrTableNotFound), "AppendRow error = %v", err)
		})
	}
}

func TestHeader(t *testing.T) {
	h := NewHeader([]string{"id", "descricao", "valor"})

	idx, err := h.Col("valor")
	require.NoError(t, err)
	assert.Equal(t, 2, idx)

	_, err = h.Col("inexistente")
	assert.Error(t, err)

	// Short rows read as empty cells
	assert.Equal(t, "", h.Cell([]string{"abc"}, "valor"))
	assert.Equal(t, "abc", h.Cell([]string{"abc"}, "id"))
}

func TestColumnLetter(t *testing.T) {
	tests := []struct {
		col  int
		want string
	}{
		{0, "A"}, {1, "B"}, {25, "Z"}, {26, "AA"}, {27, "AB"}, {51, "AZ"}, {52, "BA"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, columnLetter(tt.col), "columnLetter(%d)", tt.col)
	}
}
