// Package extractor reshapes the raw tables of a utility invoice into
// canonical {reference, amount} rows, one heuristic per provider layout.
package extractor

import (
	"fmt"
	"io"

	"github.com/gocarina/gocsv"

	"github.com/FACorreiaa/utility-bill-sync/internal/domain/import/parser"
)

// Canonical column names.
const (
	ColumnDate            = "Date"
	ColumnDocument        = "Document"
	ColumnNumberReference = "Number-Reference"
	ColumnReference       = "Reference"
	ColumnDueDate         = "Due Date"
	ColumnTotalAmount     = "Total Amount"
	ColumnWaterAmount     = "Amount (R$)"
)

// CanonicalRow is one billing period as printed on the invoice, before
// value-object validation.
type CanonicalRow struct {
	Reference string `csv:"reference" json:"reference"`
	Amount    string `csv:"amount" json:"amount"`
}

// CanonicalRows reads the reference and amount columns of an extracted table.
func CanonicalRows(t *parser.Table, referenceColumn, amountColumn string) ([]CanonicalRow, error) {
	ref := t.ColumnIndex(referenceColumn)
	if ref < 0 {
		return nil, fmt.Errorf("%w: %q", ErrColumnMissing, referenceColumn)
	}
	amount := t.ColumnIndex(amountColumn)
	if amount < 0 {
		return nil, fmt.Errorf("%w: %q", ErrColumnMissing, amountColumn)
	}

	rows := make([]CanonicalRow, 0, t.NumRows())
	for i := 0; i < t.NumRows(); i++ {
		rows = append(rows, CanonicalRow{
			Reference: t.Cell(i, ref),
			Amount:    t.Cell(i, amount),
		})
	}
	return rows, nil
}

// WriteCSV writes rows with a header line.
func WriteCSV(w io.Writer, rows []CanonicalRow) error {
	if err := gocsv.Marshal(rows, w); err != nil {
		return fmt.Errorf("failed to write CSV: %w", err)
	}
	return nil
}

// WriteTableCSV writes the full extracted table, header first.
func WriteTableCSV(w io.Writer, t *parser.Table) error {
	writer := gocsv.DefaultCSVWriter(w)
	for _, row := range t.Grid() {
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV: %w", err)
		}
	}
	writer.Flush()
	return writer.Error()
}
