package source

import (
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/ppiankov/crmimport/internal/model"
)

// XLSX reads one sheet of an Excel workbook
type XLSX struct {
	Path    string
	Sheet   string
	Columns model.Columns
}

// Rows returns every non-empty row below the header. The header is the
// first row with any content.
func (x *XLSX) Rows(ctx context.Context) ([]model.Row, error) {
	f, err := excelize.OpenFile(x.Path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer func() { _ = f.Close() }()

	sheet := x.Sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("workbook %s has no sheets", x.Path)
		}
		sheet = sheets[0]
	}

	records, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}

	var (
		t    *table
		rows []model.Row
	)
	for i, record := range records {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if blank(record) {
			continue
		}
		if t == nil {
			t, err = newTable(x.Columns, record)
			if err != nil {
				return nil, fmt.Errorf("sheet %q: %w", sheet, err)
			}
			continue
		}
		if row, ok := t.row(i+1, record); ok {
			rows = append(rows, row)
		}
	}
	if t == nil {
		return nil, fmt.Errorf("sheet %q is empty", sheet)
	}
	return rows, nil
}
