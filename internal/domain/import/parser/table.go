// Package parser loads the tables of a document into a uniform grid and
// locates the table that holds the billing history.
package parser

import (
	"fmt"
	"strings"
)

// Table is one extracted table: a header row and its data rows.
// An empty cell stands for a missing value. Rows may be ragged.
type Table struct {
	Page    int // 1-based page the table came from, 0 when unknown
	Columns []string
	Rows    [][]string
}

// NewTable builds a table from a header and data rows.
func NewTable(columns []string, rows ...[]string) *Table {
	return &Table{Columns: columns, Rows: rows}
}

// FromGrid uses the first row of grid as the header, the way
// table-extraction tools infer it.
func FromGrid(grid [][]string) *Table {
	if len(grid) == 0 {
		return &Table{}
	}
	return &Table{Columns: grid[0], Rows: append([][]string(nil), grid[1:]...)}
}

// Width is the number of columns, counting cells of ragged rows.
func (t *Table) Width() int {
	w := len(t.Columns)
	for _, r := range t.Rows {
		if len(r) > w {
			w = len(r)
		}
	}
	return w
}

// NumRows is the number of data rows.
func (t *Table) NumRows() int {
	return len(t.Rows)
}

// Cell returns the trimmed cell or "" when out of range.
func (t *Table) Cell(row, col int) string {
	if row < 0 || row >= len(t.Rows) || col < 0 || col >= len(t.Rows[row]) {
		return ""
	}
	return strings.TrimSpace(t.Rows[row][col])
}

// Header returns the trimmed header of col, or "" when out of range.
func (t *Table) Header(col int) string {
	if col < 0 || col >= len(t.Columns) {
		return ""
	}
	return strings.TrimSpace(t.Columns[col])
}

// Column returns every cell of col, one per row.
func (t *Table) Column(col int) []string {
	out := make([]string, len(t.Rows))
	for i := range t.Rows {
		out[i] = t.Cell(i, col)
	}
	return out
}

// ColumnIndex finds a header by exact name. It returns -1 when absent.
func (t *Table) ColumnIndex(name string) int {
	for i := range t.Columns {
		if t.Header(i) == name {
			return i
		}
	}
	return -1
}

// RowText joins the cells of row i with single spaces.
func (t *Table) RowText(i int) string {
	if i < 0 || i >= len(t.Rows) {
		return ""
	}
	return strings.Join(t.Rows[i], " ")
}

// Grid returns the header followed by the data rows, padded to Width.
func (t *Table) Grid() [][]string {
	w := t.Width()
	grid := make([][]string, 0, len(t.Rows)+1)
	grid = append(grid, pad(t.Columns, w))
	for _, r := range t.Rows {
		grid = append(grid, pad(r, w))
	}
	return grid
}

// DropEmptyColumns returns a copy without columns whose data cells are all empty.
func (t *Table) DropEmptyColumns() *Table {
	w := t.Width()
	keep := make([]int, 0, w)
	for c := 0; c < w; c++ {
		for r := range t.Rows {
			if t.Cell(r, c) != "" {
				keep = append(keep, c)
				break
			}
		}
	}

	out := &Table{Page: t.Page, Columns: make([]string, len(keep)), Rows: make([][]string, len(t.Rows))}
	for i, c := range keep {
		out.Columns[i] = t.Header(c)
	}
	for r := range t.Rows {
		row := make([]string, len(keep))
		for i, c := range keep {
			row[i] = t.Cell(r, c)
		}
		out.Rows[r] = row
	}
	return out
}

// String summarizes the table shape, e.g. "page 2: 4 rows x 3 columns".
func (t *Table) String() string {
	return fmt.Sprintf("page %d: %d rows x %d columns", t.Page, t.NumRows(), t.Width())
}

func pad(row []string, w int) []string {
	out := make([]string, w)
	copy(out, row)
	return out
}
