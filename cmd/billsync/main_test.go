package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/utility-bill-sync/internal/domain/import/extractor"
	"github.com/FACorreiaa/utility-bill-sync/internal/domain/import/parser"
)

func TestRootCommands(t *testing.T) {
	root := newRootCmd()

	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.ElementsMatch(t, []string{"serve", "sync", "extract", "diagnose", "migrate"}, names)
}

func TestArgumentValidation(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"sync without provider", []string{"sync"}},
		{"extract without file", []string{"extract", "electric"}},
		{"diagnose without files", []string{"diagnose"}},
		{"diagnose unknown provider", []string{"diagnose", "--provider", "gas", "x.pdf"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := newRootCmd()
			root.SetArgs(tt.args)
			root.SetOut(&bytes.Buffer{})
			root.SetErr(&bytes.Buffer{})
			assert.Error(t, root.Execute())
		})
	}
}

func TestWriteRows(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeRows(&buf, []extractor.CanonicalRow{
		{Reference: "08/2025", Amount: "123,45"},
		{Reference: "09/2025", Amount: "98,10"},
	}))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "REFERENCE")
	assert.Contains(t, lines[2], "09/2025")
	assert.Contains(t, lines[2], "98,10")
}

func TestWriteCSVFile(t *testing.T) {
	table := parser.NewTable([]string{"Reference", "Total Amount"}, []string{"09/2025", "42,20"})
	writeTable := func(w io.Writer) error { return extractor.WriteTableCSV(w, table) }

	var stdout bytes.Buffer
	require.NoError(t, writeCSVFile(&stdout, "-", writeTable))
	assert.Equal(t, "Reference,Total Amount\n09/2025,\"42,20\"\n", stdout.String())

	path := filepath.Join(t.TempDir(), "out.csv")
	require.NoError(t, writeCSVFile(&stdout, path, writeTable))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "09/2025")
}

func TestWriteCSVFile_Rows(t *testing.T) {
	rows := []extractor.CanonicalRow{{Reference: "09/2025", Amount: "42,20"}}

	var stdout bytes.Buffer
	require.NoError(t, writeCSVFile(&stdout, "-", func(w io.Writer) error {
		return extractor.WriteCSV(w, rows)
	}))
	assert.Equal(t, "reference,amount\n09/2025,\"42,20\"\n", stdout.String())
}
