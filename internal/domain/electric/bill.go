// Package electric holds the CELESC electricity bill entity and wires its
// extraction, sync and persistence.
package electric

import (
	"github.com/FACorreiaa/utility-bill-sync/internal/domain/billing"
	"github.com/FACorreiaa/utility-bill-sync/internal/domain/import/extractor"
)

const (
	// Provider labels logs, metrics and routes.
	Provider = "electric"
	// Table is the Postgres table holding electric bills.
	Table = "electric_bills"
)

// Bill is one electricity billing period.
type Bill struct {
	billing.Bill
}

// State implements billing.Entity.
func (b *Bill) State() *billing.Bill { return &b.Bill }

// Describe renders e.g. "Electric bill 09/2025: R$ 42.20".
func (b *Bill) Describe() string {
	return billing.Describe("Electric", b.Reference, b.Amount)
}

// Wrap turns shared bill state into an electric bill.
func Wrap(b billing.Bill) *Bill { return &Bill{Bill: b} }

// NewBill validates the invoice period and amount.
func NewBill(referenceText string, rawAmount any) (*Bill, error) {
	b, err := billing.NewBill(referenceText, rawAmount)
	if err != nil {
		return nil, err
	}
	return Wrap(b), nil
}

// NewBillFromMinorUnits builds a bill from cents.
func NewBillFromMinorUnits(referenceText string, cents int64) (*Bill, error) {
	b, err := billing.NewBillFromMinorUnits(referenceText, cents)
	if err != nil {
		return nil, err
	}
	return Wrap(b), nil
}

// FromRow converts an extracted row.
func FromRow(row extractor.CanonicalRow) (*Bill, error) {
	return NewBill(row.Reference, row.Amount)
}
