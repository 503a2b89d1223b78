package parser

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrTableLoad is matched by every TableLoadError.
var ErrTableLoad = errors.New("failed to load tables")

// TableLoadError reports that a document could not be read into tables:
// the file is missing or unreadable, or the extraction backend failed.
type TableLoadError struct {
	Path string
	Err  error
}

func (e *TableLoadError) Error() string {
	return fmt.Sprintf("failed to load tables from %s: %v", e.Path, e.Err)
}

func (e *TableLoadError) Unwrap() []error {
	return []error{ErrTableLoad, e.Err}
}

// TableSource loads the tables of a document and finds the one of interest.
type TableSource interface {
	LoadTables(ctx context.Context, path string) ([]*Table, error)
	LocateTable(tables []*Table, keywords []string, opts LocateOptions) *Table
}

// Locator provides LocateTable for sources that use the default keyword scan.
type Locator struct{}

// LocateTable delegates to Locate.
func (Locator) LocateTable(tables []*Table, keywords []string, opts LocateOptions) *Table {
	return Locate(tables, keywords, opts)
}

// checkFile fails unless path is an existing regular file.
func checkFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return &TableLoadError{Path: path, Err: err}
	}
	if !info.Mode().IsRegular() {
		return &TableLoadError{Path: path, Err: fmt.Errorf("not a regular file")}
	}
	return nil
}

// ============================================================================
// MultiSource
// ============================================================================

// MultiSource dispatches to a source registered for the file extension.
type MultiSource struct {
	Locator
	sources map[string]TableSource
}

// NewMultiSource registers pdf for ".pdf" plus the CSV and XLSX readers.
func NewMultiSource(pdf TableSource) *MultiSource {
	m := &MultiSource{sources: make(map[string]TableSource)}
	m.Register(".pdf", pdf)
	m.Register(".csv", NewCSVSource())
	m.Register(".xlsx", NewExcelSource())
	return m
}

// Register maps an extension such as ".pdf" to src.
func (m *MultiSource) Register(ext string, src TableSource) {
	m.sources[strings.ToLower(ext)] = src
}

// LoadTables implements TableSource.
func (m *MultiSource) LoadTables(ctx context.Context, path string) ([]*Table, error) {
	src, ok := m.sources[strings.ToLower(filepath.Ext(path))]
	if !ok || src == nil {
		return nil, &TableLoadError{Path: path, Err: fmt.Errorf("unsupported file type %q", filepath.Ext(path))}
	}
	return src.LoadTables(ctx, path)
}

// ============================================================================
// StaticSource
// ============================================================================

// StaticSource serves tables from memory. It backs tests and dry runs.
type StaticSource struct {
	// Tables is returned for any path not in ByPath.
	Tables []*Table
	ByPath map[string][]*Table
	// Errors makes LoadTables fail for the given paths.
	Errors map[string]error
	// Target, when set, is returned by LocateTable regardless of keywords.
	Target *Table
}

// LoadTables implements TableSource.
func (s *StaticSource) LoadTables(ctx context.Context, path string) ([]*Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err, ok := s.Errors[path]; ok {
		return nil, &TableLoadError{Path: path, Err: err}
	}
	if tables, ok := s.ByPath[path]; ok {
		return tables, nil
	}
	return s.Tables, nil
}

// LocateTable implements TableSource.
func (s *StaticSource) LocateTable(tables []*Table, keywords []string, opts LocateOptions) *Table {
	if s.Target != nil {
		return s.Target
	}
	return Locate(tables, keywords, opts)
}
