// Package money provides the monetary value object used by every bill:
// a fixed-point amount quantized to two decimal places (Brazilian Real),
// parsed from invoice text and round-tripped through integer cents.
package money

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// BRL is the only currency invoices are issued in.
const BRL = "BRL"

// Scale is the number of fractional digits every Amount carries.
const Scale = 2

// ErrInvalidAmount is returned when a raw value cannot be read as money.
var ErrInvalidAmount = errors.New("invalid amount")

var hundred = decimal.NewFromInt(100)

// Amount is an immutable monetary value. The zero value is R$ 0.00.
// Operations that "change" an Amount return a new one.
type Amount struct {
	d decimal.Decimal
}

// Zero returns R$ 0.00.
func Zero() Amount {
	return Amount{d: decimal.Zero}
}

// FromDecimal quantizes d to two places using banker's rounding.
func FromDecimal(d decimal.Decimal) Amount {
	return Amount{d: d.RoundBank(Scale)}
}

// FromMinorUnits builds an Amount from an integer number of cents.
func FromMinorUnits(cents int64) Amount {
	return Amount{d: decimal.New(cents, -Scale)}
}

// FromRaw accepts a decimal, an integer, a float or a string.
//
// Strings follow the Brazilian convention: whitespace and the "R$" marker
// are removed, then "1.234,56" and "1234,56" are both read as 1234.56.
// Text without a comma is parsed as-is.
func FromRaw(value any) (Amount, error) {
	switch v := value.(type) {
	case Amount:
		return v, nil
	case decimal.Decimal:
		return FromDecimal(v), nil
	case *decimal.Decimal:
		if v == nil {
			return Amount{}, fmt.Errorf("%w: nil decimal", ErrInvalidAmount)
		}
		return FromDecimal(*v), nil
	case int:
		return FromDecimal(decimal.NewFromInt(int64(v))), nil
	case int32:
		return FromDecimal(decimal.NewFromInt32(v)), nil
	case int64:
		return FromDecimal(decimal.NewFromInt(v)), nil
	case float32:
		if !isFinite(float64(v)) {
			return Amount{}, fmt.Errorf("%w: %v", ErrInvalidAmount, v)
		}
		return FromDecimal(decimal.NewFromFloat32(v)), nil
	case float64:
		if !isFinite(v) {
			return Amount{}, fmt.Errorf("%w: %v", ErrInvalidAmount, v)
		}
		return FromDecimal(decimal.NewFromFloat(v)), nil
	case string:
		return Parse(v)
	default:
		return Amount{}, fmt.Errorf("%w: unsupported type %T", ErrInvalidAmount, value)
	}
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// Parse reads invoice text such as "R$ 1.234,56".
func Parse(text string) (Amount, error) {
	cleaned := clean(text)
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return Amount{}, fmt.Errorf("%w: %q", ErrInvalidAmount, text)
	}
	return FromDecimal(d), nil
}

func clean(text string) string {
	s := strings.ReplaceAll(text, "R$", "")
	s = strings.Join(strings.Fields(s), "")

	switch {
	case strings.Contains(s, ",") && strings.Contains(s, "."):
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	case strings.Contains(s, ","):
		s = strings.ReplaceAll(s, ",", ".")
	}
	return s
}

// Decimal returns the quantized value.
func (a Amount) Decimal() decimal.Decimal {
	return a.d
}

// MinorUnits converts to cents, rounding half to even.
func (a Amount) MinorUnits() int64 {
	return a.d.Mul(hundred).RoundBank(0).IntPart()
}

// IsNormalized reports whether the value has no more than two decimal places.
func (a Amount) IsNormalized() bool {
	return a.d.Equal(a.d.RoundBank(Scale))
}

// Increment returns a + delta.
func (a Amount) Increment(delta decimal.Decimal) Amount {
	return FromDecimal(a.d.Add(delta))
}

// Decrement returns a - delta.
func (a Amount) Decrement(delta decimal.Decimal) Amount {
	return FromDecimal(a.d.Sub(delta))
}

// Update parses raw and returns it as a new Amount.
func (a Amount) Update(raw any) (Amount, error) {
	return FromRaw(raw)
}

// Equal compares by value.
func (a Amount) Equal(other Amount) bool {
	return a.d.Equal(other.d)
}

// IsZero reports whether the amount is zero.
func (a Amount) IsZero() bool {
	return a.d.IsZero()
}

// String renders the amount with two decimals, e.g. "1234.56".
func (a Amount) String() string {
	return a.d.StringFixed(Scale)
}

// Display renders the amount the way invoices print it, e.g. "R$1.234,56".
func (a Amount) Display() string {
	return money.New(a.MinorUnits(), BRL).Display()
}

// MarshalJSON encodes the amount as a decimal string to avoid float drift.
func (a Amount) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

// UnmarshalJSON accepts either a JSON string or a JSON number.
func (a *Amount) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		parsed, err := Parse(s)
		if err != nil {
			return err
		}
		*a = parsed
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidAmount, string(data))
	}
	d, err := decimal.NewFromString(n.String())
	if err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidAmount, string(data))
	}
	*a = FromDecimal(d)
	return nil
}

// Scan implements sql.Scanner for NUMERIC(12,2) columns.
func (a *Amount) Scan(value interface{}) error {
	if f, ok := value.(float64); ok && !isFinite(f) {
		return fmt.Errorf("failed to scan amount: %w: %v", ErrInvalidAmount, f)
	}
	var d decimal.Decimal
	if err := d.Scan(value); err != nil {
		return fmt.Errorf("failed to scan amount: %w", err)
	}
	*a = FromDecimal(d)
	return nil
}

// Value implements driver.Valuer.
func (a Amount) Value() (driver.Value, error) {
	return a.String(), nil
}
