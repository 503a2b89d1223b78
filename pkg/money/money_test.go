package money

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustAmount(t *testing.T, value any) Amount {
	t.Helper()
	a, err := FromRaw(value)
	require.NoError(t, err)
	return a
}

// ============================================================================
// Construction Tests
// ============================================================================

func TestFromRaw_Strings(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
		cents int64
	}{
		{"brazilian with thousands and marker", "R$ 1.234,56", "1234.56", 123456},
		{"comma decimal only", "1234,56", "1234.56", 123456},
		{"plain decimal", "10.5", "10.50", 1050},
		{"integer text", "  42 ", "42.00", 4200},
		{"marker without space", "R$39,10", "39.10", 3910},
		{"inner spaces", "R$ 1 234,00", "1234.00", 123400},
		{"negative", "-12,30", "-12.30", -1230},
		{"half even rounds down", "0.125", "0.12", 12},
		{"half even rounds up", "0.135", "0.14", 14},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := FromRaw(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, a.String())
			assert.Equal(t, tt.cents, a.MinorUnits())
		})
	}
}

func TestFromRaw_Numbers(t *testing.T) {
	tests := []struct {
		name  string
		input any
		want  string
	}{
		{"int", 7, "7.00"},
		{"int64", int64(-3), "-3.00"},
		{"float64", 12.345, "12.34"},
		{"float64 half even", 2.675, "2.68"},
		{"float32", float32(1.5), "1.50"},
		{"decimal", decimal.RequireFromString("99.999"), "100.00"},
		{"amount", FromMinorUnits(101), "1.01"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := FromRaw(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, a.String())
		})
	}
}

func TestFromRaw_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		input any
	}{
		{"letters", "abc"},
		{"empty", ""},
		{"only marker", "R$"},
		{"two decimal points", "1.2.3"},
		{"unsupported type", []int{1}},
		{"nil", nil},
		{"nil decimal pointer", (*decimal.Decimal)(nil)},
		{"NaN", math.NaN()},
		{"positive infinity", math.Inf(1)},
		{"negative infinity", math.Inf(-1)},
		{"float32 NaN", float32(math.NaN())},
		{"float32 infinity", float32(math.Inf(1))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromRaw(tt.input)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidAmount)
		})
	}
}

func TestFromMinorUnits(t *testing.T) {
	a := FromMinorUnits(987)
	assert.Equal(t, "9.87", a.String())
	assert.True(t, a.Decimal().Equal(decimal.RequireFromString("9.87")))
	assert.Equal(t, int64(987), a.MinorUnits())
	assert.True(t, a.IsNormalized())
}

func TestZero(t *testing.T) {
	var a Amount
	assert.True(t, a.IsZero())
	assert.True(t, a.Equal(Zero()))
	assert.Equal(t, "0.00", a.String())
}

// ============================================================================
// Arithmetic Tests
// ============================================================================

func TestIncrementDecrement(t *testing.T) {
	base := mustAmount(t, "10,00")

	up := base.Increment(decimal.RequireFromString("0.505"))
	assert.Equal(t, "10.50", up.String())
	assert.Equal(t, "10.00", base.String(), "original must not change")

	down := base.Decrement(decimal.NewFromInt(3))
	assert.Equal(t, "7.00", down.String())
}

func TestUpdate(t *testing.T) {
	base := mustAmount(t, "1,00")

	updated, err := base.Update("R$ 2,50")
	require.NoError(t, err)
	assert.Equal(t, "2.50", updated.String())
	assert.Equal(t, "1.00", base.String())

	_, err = base.Update("x")
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestEqual(t *testing.T) {
	assert.True(t, mustAmount(t, "1,5").Equal(mustAmount(t, 1.50)))
	assert.False(t, mustAmount(t, "1,5").Equal(mustAmount(t, "1,51")))
}

func TestDisplay(t *testing.T) {
	assert.Contains(t, mustAmount(t, "1234,56").Display(), "1.234,56")
	assert.Contains(t, mustAmount(t, "1234,56").Display(), "R$")
}

// ============================================================================
// Serialization Tests
// ============================================================================

func TestJSON(t *testing.T) {
	data, err := json.Marshal(FromMinorUnits(4220))
	require.NoError(t, err)
	assert.JSONEq(t, `"42.20"`, string(data))

	var fromString Amount
	require.NoError(t, json.Unmarshal([]byte(`"R$ 10,00"`), &fromString))
	assert.Equal(t, "10.00", fromString.String())

	var fromNumber Amount
	require.NoError(t, json.Unmarshal([]byte(`12.5`), &fromNumber))
	assert.Equal(t, "12.50", fromNumber.String())

	var bad Amount
	assert.Error(t, json.Unmarshal([]byte(`true`), &bad))
	assert.Error(t, json.Unmarshal([]byte(`"abc"`), &bad))
}

func TestScanValue(t *testing.T) {
	tests := []struct {
		name  string
		input interface{}
		want  string
	}{
		{"string", "42.20", "42.20"},
		{"bytes", []byte("123.45"), "123.45"},
		{"float", 1.5, "1.50"},
		{"int", int64(3), "3.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var a Amount
			require.NoError(t, a.Scan(tt.input))
			assert.Equal(t, tt.want, a.String())

			v, err := a.Value()
			require.NoError(t, err)
			assert.Equal(t, tt.want, v)
		})
	}

	var a Amount
	assert.Error(t, a.Scan("abc"))
	assert.ErrorIs(t, a.Scan(math.NaN()), ErrInvalidAmount)
}

// ============================================================================
// Round-trip Tests
// ============================================================================

func TestMinorUnitsRoundTrip(t *testing.T) {
	gen := NewTestDataGeneratorWithSeed(42)

	for i := 0; i < 200; i++ {
		original := gen.UtilityBill()
		text := gen.InvoiceText(original)

		parsed, err := FromRaw(text)
		require.NoError(t, err, text)
		assert.True(t, parsed.Equal(original), "%s parsed as %s", text, parsed)

		back := FromMinorUnits(parsed.MinorUnits())
		assert.True(t, back.Equal(parsed), "%s round-tripped to %s", parsed, back)
	}
}

func TestInvoiceRows(t *testing.T) {
	gen := NewTestDataGeneratorWithSeed(7)
	rows := gen.InvoiceRows(time.Date(2025, time.September, 1, 0, 0, 0, 0, time.UTC), 3)

	require.Len(t, rows, 3)
	assert.Equal(t, "07/2025", rows[0].Reference)
	assert.Equal(t, "08/2025", rows[1].Reference)
	assert.Equal(t, "09/2025", rows[2].Reference)
	for _, r := range rows {
		parsed, err := Parse(r.Amount)
		require.NoError(t, err)
		assert.True(t, parsed.Equal(r.Value))
	}
}
