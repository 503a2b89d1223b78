package extractor

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/FACorreiaa/utility-bill-sync/internal/domain/import/normalizer"
	"github.com/FACorreiaa/utility-bill-sync/internal/domain/import/parser"
)

// ElectricKeywords locate the billing history table of a CELESC invoice.
var ElectricKeywords = []string{"Data", "Documento", "Número", "Referência"}

var electricHeaderTerms = []string{"data", "documento", "numero", "referencia"}

// Row indices used when no header row can be detected.
const (
	DefaultHeaderRow = 4
	DefaultDataRow   = 5
)

// Electric extracts every billing period from a CELESC invoice.
type Electric struct {
	source  parser.TableSource
	headers *normalizer.HeaderNormalizer

	autoDetect bool
	headerRow  int
	dataRow    int
}

// ElectricOption configures an Electric extractor.
type ElectricOption func(*Electric)

// WithFixedRows disables header detection and uses the given row indices.
func WithFixedRows(headerRow, dataRow int) ElectricOption {
	return func(e *Electric) {
		e.autoDetect = false
		e.headerRow = headerRow
		e.dataRow = dataRow
	}
}

// NewElectric creates an extractor reading tables from source.
func NewElectric(source parser.TableSource, opts ...ElectricOption) *Electric {
	e := &Electric{
		source:     source,
		headers:    normalizer.NewHeaderNormalizer(),
		autoDetect: true,
		headerRow:  DefaultHeaderRow,
		dataRow:    DefaultDataRow,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract loads the document and returns the reshaped history table with
// Date, Document and Number-Reference first, followed by the untouched
// columns under their canonical names.
func (e *Electric) Extract(ctx context.Context, path string) (*parser.Table, error) {
	tables, err := loadTables(ctx, e.source, path)
	if err != nil {
		return nil, err
	}

	target := e.source.LocateTable(tables, ElectricKeywords, parser.DefaultLocateOptions)
	if target == nil {
		return nil, fmt.Errorf("%w: no table with %s in %s", ErrTargetTableNotFound, strings.Join(ElectricKeywords, ", "), path)
	}
	return e.Reshape(target)
}

// ExtractRows returns the Reference and Total Amount of every period.
func (e *Electric) ExtractRows(ctx context.Context, path string) ([]CanonicalRow, error) {
	t, err := e.Extract(ctx, path)
	if err != nil {
		return nil, err
	}
	return CanonicalRows(t, ColumnReference, ColumnTotalAmount)
}

// Reshape turns a located raw table into the canonical electric table.
func (e *Electric) Reshape(raw *parser.Table) (*parser.Table, error) {
	width := raw.Width()
	rows := make([][]string, raw.NumRows())
	for i := range rows {
		rows[i] = make([]string, width)
		for c := 0; c < width; c++ {
			rows[i][c] = raw.Cell(i, c)
		}
	}

	headerRow, dataRow := e.headerRow, e.dataRow
	if e.autoDetect {
		headerRow, dataRow = detectHeaderRow(rows)
	}
	if headerRow < 0 || headerRow >= len(rows) {
		return nil, fmt.Errorf("%w: row %d of %d", ErrHeaderRowMissing, headerRow, len(rows))
	}

	header := rows[headerRow]
	var data [][]string
	if dataRow >= 0 && dataRow < len(rows) {
		data = rows[dataRow:]
	}

	best := bestComposite(data, width)
	fields := decompose(best.values)

	consumed := make(map[int]bool, len(best.columns))
	for _, c := range best.columns {
		consumed[c] = true
	}
	var rest []int
	for c := 0; c < width; c++ {
		if !consumed[c] {
			rest = append(rest, c)
		}
	}

	columns := []string{ColumnDate, ColumnDocument, ColumnNumberReference}
	for _, c := range rest {
		columns = append(columns, e.columnName(header[c]))
	}

	out := &parser.Table{Page: raw.Page, Columns: columns}
	for r, f := range fields {
		if f.Date == "" {
			continue
		}
		row := []string{f.Date, f.Document, f.NumberReference}
		for _, c := range rest {
			row = append(row, data[r][c])
		}
		out.Rows = append(out.Rows, row)
	}

	stripTotalAmount(out)
	return out, nil
}

// columnName canonicalizes a header and folds any "Total Due" variant into
// Total Amount.
func (e *Electric) columnName(raw string) string {
	name := e.headers.Canonical(raw)
	if strings.Contains(name, "Total Due") {
		return ColumnTotalAmount
	}
	return name
}

func stripTotalAmount(t *parser.Table) {
	for c := range t.Columns {
		if t.Columns[c] != ColumnTotalAmount {
			continue
		}
		for r := range t.Rows {
			t.Rows[r][c] = strings.TrimSpace(strings.ReplaceAll(t.Rows[r][c], "R$", ""))
		}
	}
}

// detectHeaderRow finds the first row naming date, document, number and
// reference. The row after it must exist for the match to count.
func detectHeaderRow(rows [][]string) (int, int) {
	for i, row := range rows {
		text := normalizer.Fold(strings.Join(row, " "))
		if !containsAll(text, electricHeaderTerms) {
			continue
		}
		if i+1 < len(rows) {
			return i, i + 1
		}
		break
	}
	return DefaultHeaderRow, DefaultDataRow
}

func containsAll(text string, terms []string) bool {
	for _, t := range terms {
		if !strings.Contains(text, t) {
			return false
		}
	}
	return true
}

// ValidateElectricTable checks that an extracted table carries the canonical
// columns, has rows, and that Total Amount uses the comma decimal separator.
func ValidateElectricTable(t *parser.Table) error {
	var missing []string
	for _, name := range []string{ColumnDate, ColumnDocument, ColumnNumberReference, ColumnReference, ColumnDueDate, ColumnTotalAmount} {
		if t.ColumnIndex(name) < 0 {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing columns %s", ErrInvalidTable, strings.Join(missing, ", "))
	}
	if t.NumRows() == 0 {
		return fmt.Errorf("%w: no rows", ErrInvalidTable)
	}

	total := t.ColumnIndex(ColumnTotalAmount)
	for _, v := range t.Column(total) {
		if strings.Contains(v, ",") {
			return nil
		}
	}
	return fmt.Errorf("%w: %s has no comma decimal values", ErrInvalidTable, ColumnTotalAmount)
}

// loadTables wraps any source failure as a TableLoadError.
func loadTables(ctx context.Context, source parser.TableSource, path string) ([]*parser.Table, error) {
	tables, err := source.LoadTables(ctx, path)
	if err == nil {
		return tables, nil
	}
	if errors.Is(err, parser.ErrTableLoad) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil, err
	}
	return nil, &parser.TableLoadError{Path: path, Err: err}
}
