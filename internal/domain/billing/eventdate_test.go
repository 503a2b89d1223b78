package billing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEventDate(t *testing.T) {
	tests := []struct {
		name  string
		input string
		text  string
		iso   string
	}{
		{"single digits", "1/9/2025", "01/09/2025", "2025-09-01"},
		{"leap day", "29/02/2024", "29/02/2024", "2024-02-29"},
		{"surrounded", "  Vencimento: 10/09/2025  ", "10/09/2025", "2025-09-10"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := ParseEventDate(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.text, d.String())
			assert.Equal(t, tt.iso, d.ISO())
		})
	}
}

func TestParseEventDate_Invalid(t *testing.T) {
	tests := []string{
		"29/02/2021",
		"31/02/2021",
		"32/01/2020",
		"00/12/2020",
		"12/13/2020",
		"1/1/20",
		"abc",
		"2020-01-01",
	}

	for _, input := range tests {
		t.Run(input, func(t *testing.T) {
			_, err := ParseEventDate(input)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidDate)
		})
	}
}

func TestEventDate_Components(t *testing.T) {
	d, err := NewEventDate(1, 9, 2025)
	require.NoError(t, err)
	assert.Equal(t, 1, d.Day())
	assert.Equal(t, 9, d.Month())
	assert.Equal(t, 2025, d.Year())
	assert.Equal(t, "09/2025", d.ReferenceMonth().String())

	fromTime := EventDateFromTime(time.Date(2025, time.September, 1, 23, 59, 0, 0, time.UTC))
	assert.Equal(t, d, fromTime)
}
