package extractor

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/utility-bill-sync/internal/domain/import/parser"
)

func historyTable(rows ...[]string) *parser.Table {
	return parser.NewTable([]string{"Mês/Ano", "Consumo (m³)", "Valor (R$)"}, rows...)
}

func TestWater_Reshape(t *testing.T) {
	tests := []struct {
		name    string
		table   *parser.Table
		wantRef string
		wantAmt string
	}{
		{
			name: "explicit current marker",
			table: historyTable(
				[]string{"08/2025", "10", "39,10"},
				[]string{"09/2025 (Atual)", "12", "42,20"},
			),
			wantRef: "09/2025 (Atual)",
			wantAmt: "42,20",
		},
		{
			name: "latest month without marker",
			table: historyTable(
				[]string{"07/2025", "9", "35,00"},
				[]string{"08/2025", "10", "39,10"},
				[]string{"09/2025", "12", "42,20"},
			),
			wantRef: "09/2025 (Atual)",
			wantAmt: "42,20",
		},
		{
			name: "latest month is not the last row",
			table: historyTable(
				[]string{"12/2024", "9", "35,00"},
				[]string{"01/2025", "10", "1.039,10"},
				[]string{"11/2024", "12", "42,20"},
			),
			wantRef: "01/2025 (Atual)",
			wantAmt: "1.039,10",
		},
		{
			name: "marker wins over a later month",
			table: historyTable(
				[]string{"10/2025", "9", "35,00"},
				[]string{"09/2025 (ATUAL)", "12", "42,20"},
			),
			wantRef: "09/2025 (Atual)",
			wantAmt: "42,20",
		},
		{
			name: "english marker",
			table: historyTable(
				[]string{"09/2025 (current)", "12", "42,20"},
				[]string{"10/2025", "9", "35,00"},
			),
			wantRef: "09/2025 (Atual)",
			wantAmt: "42,20",
		},
		{
			name: "invalid months are ignored",
			table: historyTable(
				[]string{"13/2025", "9", "35,00"},
				[]string{"08/2025", "12", "42,20"},
			),
			wantRef: "08/2025 (Atual)",
			wantAmt: "42,20",
		},
		{
			name: "blank amount falls back to row text",
			table: historyTable(
				[]string{"08/2025", "10", "39,10"},
				[]string{"09/2025 (Atual)", "12 R$ 42,20", "nan"},
			),
			wantRef: "09/2025 (Atual)",
			wantAmt: "42,20",
		},
		{
			name: "last column looks like currency",
			table: parser.NewTable([]string{"", "", ""},
				[]string{"08/2025", "10", "39,10"},
				[]string{"09/2025 (Atual)", "12", "42,20"},
			),
			wantRef: "09/2025 (Atual)",
			wantAmt: "42,20",
		},
		{
			name: "empty columns are dropped first",
			table: parser.NewTable([]string{"Mês", "", "Valor"},
				[]string{"08/2025", "", "39,10"},
				[]string{"09/2025 (Atual)", "", "42,20"},
			),
			wantRef: "09/2025 (Atual)",
			wantAmt: "42,20",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewWater(nil).Reshape(tt.table)
			require.NoError(t, err)

			assert.Equal(t, []string{ColumnReference, ColumnWaterAmount}, got.Columns)
			require.Equal(t, 1, got.NumRows())
			assert.Equal(t, tt.wantRef, got.Cell(0, 0))
			assert.Equal(t, tt.wantAmt, got.Cell(0, 1))
		})
	}
}

func TestWater_ReshapeErrors(t *testing.T) {
	tests := []struct {
		name    string
		table   *parser.Table
		wantErr error
	}{
		{
			name:    "no amount column",
			table:   parser.NewTable([]string{"Mês", "Obs"}, []string{"09/2025", "leitura normal"}),
			wantErr: ErrAmountColumnNotFound,
		},
		{
			name:    "no rows",
			table:   parser.NewTable([]string{"", ""}),
			wantErr: ErrAmountColumnNotFound,
		},
		{
			name:    "no month anywhere",
			table:   historyTable([]string{"setembro", "12", "42,20"}),
			wantErr: ErrNoCurrentReference,
		},
		{
			name:    "marked row without month",
			table:   historyTable([]string{"Mês (atual)", "12", "42,20"}, []string{"08/2025", "10", "39,10"}),
			wantErr: ErrReferenceNotFound,
		},
		{
			name:    "no amount in row",
			table:   historyTable([]string{"08/2025", "10", "39,10"}, []string{"09/2025 (Atual)", "12", ""}),
			wantErr: ErrAmountNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewWater(nil).Reshape(tt.table)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestWater_Extract(t *testing.T) {
	ctx := context.Background()
	header := parser.NewTable([]string{"SAMAE", "Matrícula"}, []string{"Rua das Flores", "123"})
	history := parser.NewTable([]string{"", "", ""},
		[]string{"HISTÓRICO DE CONSUMO", "", ""},
		[]string{"08/2025", "10", "39,10"},
		[]string{"09/2025 (Atual)", "12", "42,20"},
	)

	w := NewWater(&parser.StaticSource{Tables: []*parser.Table{header, history}})

	rows, err := w.ExtractRows(ctx, "agua.pdf")
	require.NoError(t, err)
	assert.Equal(t, []CanonicalRow{{Reference: "09/2025 (Atual)", Amount: "42,20"}}, rows)
}

func TestWater_ExtractFallsBackToAmountColumn(t *testing.T) {
	noise := parser.NewTable([]string{"Cliente"}, []string{"Fulano"})
	history := historyTable([]string{"09/2025", "12", "42,20"})

	got, err := NewWater(&parser.StaticSource{Tables: []*parser.Table{noise, history}}).
		Extract(context.Background(), "agua.pdf")
	require.NoError(t, err)
	assert.Equal(t, "09/2025 (Atual)", got.Cell(0, 0))
}

func TestWater_ExtractNotFound(t *testing.T) {
	noise := parser.NewTable([]string{"Cliente"}, []string{"Fulano"})

	_, err := NewWater(&parser.StaticSource{Tables: []*parser.Table{noise}}).
		Extract(context.Background(), "agua.pdf")
	assert.ErrorIs(t, err, ErrTargetTableNotFound)

	src := &parser.StaticSource{Errors: map[string]error{"agua.pdf": assert.AnError}}
	_, err = NewWater(src).Extract(context.Background(), "agua.pdf")
	assert.ErrorIs(t, err, parser.ErrTableLoad)
}
