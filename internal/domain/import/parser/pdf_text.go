package parser

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"
)

const (
	// Horizontal gap, in multiples of the font size, that starts a new cell.
	cellGapFactor = 1.5
	// Gap that separates two words inside a cell.
	wordGapFactor = 0.15
)

// PDFTextSource rebuilds tables from positioned text without an external
// tool. Each page becomes one table and cells are split on wide horizontal
// gaps, which is good enough for the ruled invoice layouts.
type PDFTextSource struct {
	Locator
}

// NewPDFTextSource creates a pure-Go PDF source.
func NewPDFTextSource() *PDFTextSource {
	return &PDFTextSource{}
}

// LoadTables implements TableSource.
func (s *PDFTextSource) LoadTables(ctx context.Context, path string) (tables []*Table, err error) {
	if err := checkFile(path); err != nil {
		return nil, err
	}

	// The pdf package panics on some malformed files.
	defer func() {
		if r := recover(); r != nil {
			tables, err = nil, &TableLoadError{Path: path, Err: fmt.Errorf("malformed pdf: %v", r)}
		}
	}()

	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, &TableLoadError{Path: path, Err: err}
	}
	defer f.Close()

	for i := 1; i <= reader.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		rows, err := page.GetTextByRow()
		if err != nil {
			return nil, &TableLoadError{Path: path, Err: fmt.Errorf("page %d: %w", i, err)}
		}

		grid := make([][]string, 0, len(rows))
		for _, row := range rows {
			if cells := splitCells(row.Content); len(cells) > 0 {
				grid = append(grid, cells)
			}
		}
		if len(grid) == 0 {
			continue
		}
		t := FromGrid(grid)
		t.Page = i
		tables = append(tables, t)
	}
	return tables, nil
}

func splitCells(texts []pdf.Text) []string {
	sorted := make([]pdf.Text, 0, len(texts))
	for _, t := range texts {
		if strings.TrimSpace(t.S) != "" {
			sorted = append(sorted, t)
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].X < sorted[j].X })

	var cells []string
	var cur strings.Builder
	end := 0.0
	for i, t := range sorted {
		size := t.FontSize
		if size <= 0 {
			size = 1
		}
		gap := t.X - end
		switch {
		case i == 0:
		case gap > cellGapFactor*size:
			cells = append(cells, strings.TrimSpace(cur.String()))
			cur.Reset()
		case gap > wordGapFactor*size:
			cur.WriteByte(' ')
		}
		cur.WriteString(t.S)
		end = t.X + t.W
	}
	if cur.Len() > 0 {
		cells = append(cells, strings.TrimSpace(cur.String()))
	}
	return cells
}
