package parser

import (
	"context"

	"github.com/xuri/excelize/v2"
)

// ExcelSource reads every sheet of an XLSX workbook as a table.
type ExcelSource struct {
	Locator
}

// NewExcelSource creates an XLSX table source.
func NewExcelSource() *ExcelSource {
	return &ExcelSource{}
}

// LoadTables implements TableSource.
func (s *ExcelSource) LoadTables(ctx context.Context, path string) ([]*Table, error) {
	if err := checkFile(path); err != nil {
		return nil, err
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, &TableLoadError{Path: path, Err: err}
	}
	defer f.Close()

	var tables []*Table
	for i, sheet := range f.GetSheetList() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rows, err := f.GetRows(sheet)
		if err != nil {
			return nil, &TableLoadError{Path: path, Err: err}
		}
		if len(rows) == 0 {
			continue
		}
		t := FromGrid(rows)
		t.Page = i + 1
		tables = append(tables, t)
	}
	return tables, nil
}
