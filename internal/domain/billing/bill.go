package billing

import (
	"fmt"

	"github.com/FACorreiaa/utility-bill-sync/pkg/money"
)

// Bill is the state every provider bill shares: identity, the billing
// period and the amount due. Value fields are replaced, never mutated.
type Bill struct {
	Record
	Reference ReferenceMonth `json:"reference"`
	Amount    money.Amount   `json:"amount"`
}

// Entity is implemented by provider bills wrapping a Bill.
type Entity interface {
	Keyed
	State() *Bill
}

// NewBill validates the invoice text for the period and amount.
func NewBill(referenceText string, rawAmount any) (Bill, error) {
	ref, err := ParseReferenceMonth(referenceText)
	if err != nil {
		return Bill{}, err
	}
	amount, err := money.FromRaw(rawAmount)
	if err != nil {
		return Bill{}, err
	}
	return Bill{Record: NewRecord(), Reference: ref, Amount: amount}, nil
}

// NewBillFromMinorUnits builds a bill from an integer amount of cents.
func NewBillFromMinorUnits(referenceText string, cents int64) (Bill, error) {
	return NewBill(referenceText, money.FromMinorUnits(cents))
}

// Period implements Keyed.
func (b *Bill) Period() ReferenceMonth {
	return b.Reference
}

// Update applies p. Deleted bills cannot change.
func (b *Bill) Update(p Patch) error {
	if b.IsDeleted() {
		return ErrBillDeleted
	}
	if p.IsEmpty() {
		return nil
	}
	ref, amount, err := p.Apply(b.Reference, b.Amount)
	if err != nil {
		return err
	}
	b.Reference, b.Amount = ref, amount
	b.Touch()
	return nil
}

// SetAmountMinorUnits replaces the amount with cents / 100.
func (b *Bill) SetAmountMinorUnits(cents int64) error {
	if b.IsDeleted() {
		return ErrBillDeleted
	}
	b.Amount = money.FromMinorUnits(cents)
	b.Touch()
	return nil
}

// AmountMinorUnits returns the amount in cents.
func (b *Bill) AmountMinorUnits() int64 {
	return b.Amount.MinorUnits()
}

// Validate checks the invariants a persisted bill must hold.
func (b *Bill) Validate() error {
	if b.Reference.IsZero() {
		return fmt.Errorf("%w: empty", ErrInvalidReference)
	}
	if !b.Amount.IsNormalized() {
		return fmt.Errorf("%w: more than two decimal places", money.ErrInvalidAmount)
	}
	return nil
}
