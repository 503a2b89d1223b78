package parser

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"os"

	"github.com/FACorreiaa/utility-bill-sync/internal/domain/import/sniffer"
)

// CSVSource reads a delimited export as a single table. Metadata lines
// before the header are skipped.
type CSVSource struct {
	Locator
}

// NewCSVSource creates a CSV table source.
func NewCSVSource() *CSVSource {
	return &CSVSource{}
}

// LoadTables implements TableSource.
func (s *CSVSource) LoadTables(ctx context.Context, path string) ([]*Table, error) {
	if err := checkFile(path); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &TableLoadError{Path: path, Err: err}
	}

	cfg, err := sniffer.DetectConfig(data)
	if err != nil {
		return nil, &TableLoadError{Path: path, Err: err}
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = cfg.Delimiter
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1 // Variable field count

	records, err := reader.ReadAll()
	if err != nil {
		return nil, &TableLoadError{Path: path, Err: fmt.Errorf("failed to parse CSV: %w", err)}
	}

	// Blank lines are dropped by the csv reader but counted by the sniffer.
	grid := records
	if skip := nonBlankBefore(data, cfg.SkipLines); skip < len(records) {
		grid = records[skip:]
	}
	return []*Table{FromGrid(grid)}, nil
}

// nonBlankBefore counts non-blank lines among the first n lines of data.
func nonBlankBefore(data []byte, n int) int {
	count := 0
	for i, line := range bytes.Split(data, []byte("\n")) {
		if i >= n {
			break
		}
		if len(bytes.TrimSpace(line)) > 0 {
			count++
		}
	}
	return count
}
