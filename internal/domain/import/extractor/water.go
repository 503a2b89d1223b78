package extractor

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/FACorreiaa/utility-bill-sync/internal/domain/billing"
	"github.com/FACorreiaa/utility-bill-sync/internal/domain/import/normalizer"
	"github.com/FACorreiaa/utility-bill-sync/internal/domain/import/parser"
)

// WaterKeywords locate the consumption history table of a SAMAE invoice.
var WaterKeywords = []string{"HISTÓRICO", "CONSUMO", "VALOR"}

// CurrentMarker is appended to the reference of the selected row.
const CurrentMarker = " (Atual)"

// currencyRatio is the share of currency-looking cells that makes the
// last column the amount column.
const currencyRatio = 0.3

var (
	currencyRe  = regexp.MustCompile(`\d{1,3}(?:\.\d{3})*,\d{2}`)
	monthYearRe = regexp.MustCompile(`\b\d{2}/\d{4}\b`)
)

// Water extracts the current billing period from a SAMAE invoice.
type Water struct {
	source parser.TableSource
}

// NewWater creates an extractor reading tables from source.
func NewWater(source parser.TableSource) *Water {
	return &Water{source: source}
}

// Extract returns a one-row table with Reference and Amount (R$).
func (w *Water) Extract(ctx context.Context, path string) (*parser.Table, error) {
	tables, err := loadTables(ctx, w.source, path)
	if err != nil {
		return nil, err
	}

	target := w.source.LocateTable(tables, WaterKeywords, parser.LocateOptions{Normalize: true})
	if target == nil {
		for _, t := range tables {
			if amountColumn(t) >= 0 {
				target = t
				break
			}
		}
	}
	if target == nil {
		return nil, fmt.Errorf("%w: consumption table not found in %s", ErrTargetTableNotFound, path)
	}
	return w.Reshape(target)
}

// ExtractRows returns the single current row.
func (w *Water) ExtractRows(ctx context.Context, path string) ([]CanonicalRow, error) {
	t, err := w.Extract(ctx, path)
	if err != nil {
		return nil, err
	}
	return CanonicalRows(t, ColumnReference, ColumnWaterAmount)
}

// Reshape selects the current row of a located history table.
func (w *Water) Reshape(raw *parser.Table) (*parser.Table, error) {
	t := raw.DropEmptyColumns()

	amountCol := amountColumn(t)
	if amountCol < 0 {
		return nil, ErrAmountColumnNotFound
	}

	row, err := currentRow(t)
	if err != nil {
		return nil, err
	}

	ref := monthYearRe.FindString(t.Cell(row, 0))
	if ref == "" {
		return nil, fmt.Errorf("%w: %q", ErrReferenceNotFound, t.Cell(row, 0))
	}

	amount := t.Cell(row, amountCol)
	if normalizer.IsBlank(amount) {
		amount = currencyRe.FindString(t.RowText(row))
		if amount == "" {
			return nil, fmt.Errorf("%w: reference %s", ErrAmountNotFound, ref)
		}
	}

	return parser.NewTable(
		[]string{ColumnReference, ColumnWaterAmount},
		[]string{ref + CurrentMarker, amount},
	), nil
}

// amountColumn finds the amount column by header name, falling back to
// the last column when enough of its cells look like currency.
// It returns -1 when neither applies.
func amountColumn(t *parser.Table) int {
	for c := range t.Columns {
		key := normalizer.Key(t.Columns[c])
		if strings.Contains(key, "valor") || strings.HasPrefix(key, "amount") {
			return c
		}
	}

	last := t.Width() - 1
	if last < 0 || t.NumRows() == 0 {
		return -1
	}
	hits := 0
	for _, v := range t.Column(last) {
		if currencyRe.MatchString(v) {
			hits++
		}
	}
	if float64(hits)/float64(t.NumRows()) > currencyRatio {
		return last
	}
	return -1
}

// currentRow prefers the first row marked "(atual)" or "(current)" and
// otherwise picks the latest MM/YYYY in the first column.
func currentRow(t *parser.Table) (int, error) {
	for r := 0; r < t.NumRows(); r++ {
		folded := normalizer.Fold(t.Cell(r, 0))
		if strings.Contains(folded, "(atual)") || strings.Contains(folded, "(current)") {
			return r, nil
		}
	}

	best, bestKey := -1, 0
	for r := 0; r < t.NumRows(); r++ {
		ref, err := billing.ParseReferenceMonth(monthYearRe.FindString(t.Cell(r, 0)))
		if err != nil {
			continue
		}
		if best < 0 || ref.Key() > bestKey {
			best, bestKey = r, ref.Key()
		}
	}
	if best < 0 {
		return -1, ErrNoCurrentReference
	}
	return best, nil
}
