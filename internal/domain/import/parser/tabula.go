package parser

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// Tabula extraction modes.
const (
	TabulaLattice = "lattice"
	TabulaStream  = "stream"
	TabulaGuess   = "guess"
)

// TabulaConfig locates the tabula-java CLI.
type TabulaConfig struct {
	JavaPath string // defaults to "java"
	JarPath  string
	Mode     string // TabulaLattice, TabulaStream, or TabulaGuess ("" also guesses)
	Timeout  time.Duration
}

// CommandRunner runs an external command and returns its stdout.
type CommandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

// TabulaSource extracts tables from PDFs with the tabula-java CLI.
type TabulaSource struct {
	Locator
	cfg TabulaConfig
	run CommandRunner
}

// TabulaOption configures a TabulaSource.
type TabulaOption func(*TabulaSource)

// WithCommandRunner replaces process execution, typically in tests.
func WithCommandRunner(run CommandRunner) TabulaOption {
	return func(s *TabulaSource) {
		s.run = run
	}
}

// NewTabulaSource creates a tabula-backed source.
func NewTabulaSource(cfg TabulaConfig, opts ...TabulaOption) *TabulaSource {
	if cfg.JavaPath == "" {
		cfg.JavaPath = "java"
	}
	s := &TabulaSource{cfg: cfg, run: execCommand}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// LoadTables implements TableSource.
func (s *TabulaSource) LoadTables(ctx context.Context, path string) ([]*Table, error) {
	if err := checkFile(path); err != nil {
		return nil, err
	}
	if s.cfg.JarPath == "" {
		return nil, &TableLoadError{Path: path, Err: errors.New("tabula jar path is not configured")}
	}

	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}

	out, err := s.run(ctx, s.cfg.JavaPath, s.args(path)...)
	if err != nil {
		return nil, &TableLoadError{Path: path, Err: err}
	}

	tables, err := decodeTabula(out)
	if err != nil {
		return nil, &TableLoadError{Path: path, Err: err}
	}
	return tables, nil
}

func (s *TabulaSource) args(path string) []string {
	args := []string{"-Dfile.encoding=UTF8", "-jar", s.cfg.JarPath, "--pages", "all", "--format", "JSON"}
	switch s.cfg.Mode {
	case TabulaLattice:
		args = append(args, "--lattice")
	case TabulaStream:
		args = append(args, "--stream")
	default:
		args = append(args, "--guess")
	}
	return append(args, path)
}

type tabulaTable struct {
	ExtractionMethod string         `json:"extraction_method"`
	PageNumber       int            `json:"page_number"`
	Data             [][]tabulaCell `json:"data"`
}

type tabulaCell struct {
	Text string `json:"text"`
}

func decodeTabula(data []byte) ([]*Table, error) {
	var raw []tabulaTable
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode tabula output: %w", err)
	}

	tables := make([]*Table, 0, len(raw))
	for _, rt := range raw {
		if len(rt.Data) == 0 {
			continue
		}
		grid := make([][]string, len(rt.Data))
		for i, row := range rt.Data {
			cells := make([]string, len(row))
			for j, c := range row {
				cells[j] = strings.TrimSpace(strings.ReplaceAll(c.Text, "\r", " "))
			}
			grid[i] = cells
		}
		t := FromGrid(grid)
		t.Page = rt.PageNumber
		tables = append(tables, t)
	}
	return tables, nil
}

func execCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("%s: %w: %s", name, err, msg)
		}
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return stdout.Bytes(), nil
}
