package rowstore

import (
	"context"
	"fmt"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// Sheets is the production Store: each logical table is one sheet (tab) of a
// Google Spreadsheet.
type Sheets struct {
	svc           *sheets.Service
	spreadsheetID string

	// sheet title → numeric sheet id, needed for row deletion requests
	sheetIDs map[string]int64
}

// NewSheets creates a Sheets store for one spreadsheet, using Application
// Default Credentials unless a credentials file is given.
func NewSheets(ctx context.Context, spreadsheetID, credentialsFile string) (*Sheets, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	svc, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}

	s := &Sheets{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		sheetIDs:      make(map[string]int64),
	}
	if err := s.loadSheetIDs(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Sheets) loadSheetIDs(ctx context.Context) error {
	meta, err := s.svc.Spreadsheets.Get(s.spreadsheetID).Context(ctx).Fields("sheets.properties").Do()
	if err != nil {
		return fmt.Errorf("failed to read spreadsheet metadata: %w", err)
	}
	for _, sheet := range meta.Sheets {
		if sheet.Properties != nil {
			s.sheetIDs[sheet.Properties.Title] = sheet.Properties.SheetId
		}
	}
	return nil
}

func (s *Sheets) sheetID(table string) (int64, error) {
	id, ok := s.sheetIDs[table]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrTableNotFound, table)
	}
	return id, nil
}

// GetAllRows reads the whole sheet including the header row.
func (s *Sheets) GetAllRows(ctx context.Context, table string) ([][]string, error) {
	if _, err := s.sheetID(table); err != nil {
		return nil, err
	}

	resp, err := s.svc.Spreadsheets.Values.Get(s.spreadsheetID, table).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to read table %s: %w", table, err)
	}

	grid := make([][]string, len(resp.Values))
	for i, row := range resp.Values {
		cells := make([]string, len(row))
		for j, v := range row {
			cells[j] = fmt.Sprint(v)
		}
		grid[i] = cells
	}
	return grid, nil
}

// AppendRow appends a row after the sheet's last data row.
func (s *Sheets) AppendRow(ctx context.Context, table string, row []string) error {
	if _, err := s.sheetID(table); err != nil {
		return err
	}

	values := make([]interface{}, len(row))
	for i, cell := range row {
		values[i] = cell
	}

	_, err := s.svc.Spreadsheets.Values.Append(s.spreadsheetID, table, &sheets.ValueRange{
		Values: [][]interface{}{values},
	}).ValueInputOption("RAW").InsertDataOption("INSERT_ROWS").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to append row to %s: %w", table, err)
	}
	return nil
}

// SetCell overwrites one cell. rowIndex and colIndex are zero-based over the
// grid; the A1 range is built from them.
func (s *Sheets) SetCell(ctx context.Context, table string, rowIndex, colIndex int, value string) error {
	if _, err := s.sheetID(table); err != nil {
		return err
	}

	cellRange := fmt.Sprintf("%s!%s%d", table, columnLetter(colIndex), rowIndex+1)
	_, err := s.svc.Spreadsheets.Values.Update(s.spreadsheetID, cellRange, &sheets.ValueRange{
		Values: [][]interface{}{{value}},
	}).ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to set cell %s: %w", cellRange, err)
	}
	return nil
}

// DeleteRow removes a whole row; the spreadsheet shifts later rows up.
func (s *Sheets) DeleteRow(ctx context.Context, table string, rowIndex int) error {
	id, err := s.sheetID(table)
	if err != nil {
		return err
	}

	_, err = s.svc.Spreadsheets.BatchUpdate(s.spreadsheetID, &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{{
			DeleteDimension: &sheets.DeleteDimensionRequest{
				Range: &sheets.DimensionRange{
					SheetId:    id,
					Dimension:  "ROWS",
					StartIndex: int64(rowIndex),
					EndIndex:   int64(rowIndex + 1),
				},
			},
		}},
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to delete row %d of %s: %w", rowIndex, table, err)
	}
	return nil
}

// columnLetter converts a zero-based column index to A1 notation (0 → A,
// 25 → Z, 26 → AA).
func columnLetter(col int) string {
	letters := ""
	for col >= 0 {
		letters = string(rune('A'+col%26)) + letters
		col = col/26 - 1
	}
	return letters
}
