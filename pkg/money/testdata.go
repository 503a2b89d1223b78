package money

import (
	"fmt"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v6"
)

// TestDataGenerator generates realistic invoice data using gofakeit.
type TestDataGenerator struct {
	faker *gofakeit.Faker
}

// NewTestDataGenerator creates a new test data generator with a random seed.
func NewTestDataGenerator() *TestDataGenerator {
	return &TestDataGenerator{
		faker: gofakeit.New(0), // Random seed
	}
}

// NewTestDataGeneratorWithSeed creates a generator with a specific seed for reproducibility.
func NewTestDataGeneratorWithSeed(seed int64) *TestDataGenerator {
	return &TestDataGenerator{
		faker: gofakeit.New(seed),
	}
}

// ============================================================================
// Amount Generation
// ============================================================================

// RandomAmount generates a random Amount within a cent range.
func (g *TestDataGenerator) RandomAmount(minCents, maxCents int64) Amount {
	if maxCents <= minCents {
		return FromMinorUnits(minCents)
	}
	cents := minCents + int64(g.faker.IntRange(0, int(maxCents-minCents)))
	return FromMinorUnits(cents)
}

// UtilityBill generates a typical residential bill amount (R$20 - R$800).
func (g *TestDataGenerator) UtilityBill() Amount {
	return g.RandomAmount(2000, 80000)
}

// InvoiceText renders an amount the way the utility invoices print it,
// randomly choosing between "R$ 1.234,56", "1.234,56" and "1234,56".
func (g *TestDataGenerator) InvoiceText(a Amount) string {
	cents := a.MinorUnits()
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	whole := groupThousands(cents / 100)
	text := fmt.Sprintf("%s%s,%02d", sign, whole, cents%100)

	switch g.faker.IntRange(0, 2) {
	case 0:
		return "R$ " + text
	case 1:
		return text
	default:
		return strings.ReplaceAll(text, ".", "")
	}
}

func groupThousands(n int64) string {
	s := fmt.Sprintf("%d", n)
	if len(s) <= 3 {
		return s
	}
	var b strings.Builder
	pre := len(s) % 3
	if pre > 0 {
		b.WriteString(s[:pre])
	}
	for i := pre; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte('.')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}

// ============================================================================
// Invoice Row Generation
// ============================================================================

// InvoiceRow is a generated {reference, amount} pair as printed on a bill.
type InvoiceRow struct {
	Reference string
	Amount    string
	Value     Amount
}

// ReferenceText returns a random "MM/YYYY" billing period between 2015 and now.
func (g *TestDataGenerator) ReferenceText() string {
	d := g.faker.DateRange(time.Date(2015, 1, 1, 0, 0, 0, 0, time.UTC), time.Now())
	return d.Format("01/2006")
}

// InvoiceRows generates count rows with distinct consecutive references
// ending at the given month.
func (g *TestDataGenerator) InvoiceRows(last time.Time, count int) []InvoiceRow {
	rows := make([]InvoiceRow, 0, count)
	start := time.Date(last.Year(), last.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -(count - 1), 0)
	for i := 0; i < count; i++ {
		value := g.UtilityBill()
		rows = append(rows, InvoiceRow{
			Reference: start.AddDate(0, i, 0).Format("01/2006"),
			Amount:    g.InvoiceText(value),
			Value:     value,
		})
	}
	return rows
}
