package billing

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/FACorreiaa/utility-bill-sync/pkg/money"
)

// Record carries identity and lifecycle timestamps shared by every bill.
// Bills are never physically removed; Delete stamps DeletedAt.
type Record struct {
	ID        uuid.UUID  `json:"id"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
}

// NewRecord returns a record with a time-ordered id.
func NewRecord() Record {
	return Record{
		ID:        uuid.Must(uuid.NewV7()),
		CreatedAt: time.Now().UTC(),
	}
}

// IsDeleted reports whether the record was soft-deleted.
func (r Record) IsDeleted() bool {
	return r.DeletedAt != nil
}

// Touch stamps UpdatedAt.
func (r *Record) Touch() {
	now := time.Now().UTC()
	r.UpdatedAt = &now
}

// Delete soft-deletes the record. Deleting twice keeps the first timestamp.
func (r *Record) Delete() {
	if r.DeletedAt != nil {
		return
	}
	now := time.Now().UTC()
	r.DeletedAt = &now
	r.UpdatedAt = &now
}

// Keyed is implemented by anything identified by its billing period.
type Keyed interface {
	Period() ReferenceMonth
}

// Patch is a partial update. Nil fields are left unchanged.
type Patch struct {
	Reference *string `json:"reference,omitempty"`
	Amount    any     `json:"amount,omitempty"`
}

// IsEmpty reports whether the patch changes nothing.
func (p Patch) IsEmpty() bool {
	return p.Reference == nil && p.Amount == nil
}

// Apply validates the patch through the value objects and returns the new
// values. Inputs are never modified.
func (p Patch) Apply(ref ReferenceMonth, amount money.Amount) (ReferenceMonth, money.Amount, error) {
	if p.Reference != nil {
		parsed, err := ParseReferenceMonth(*p.Reference)
		if err != nil {
			return ref, amount, err
		}
		ref = parsed
	}
	if p.Amount != nil {
		parsed, err := money.FromRaw(p.Amount)
		if err != nil {
			return ref, amount, err
		}
		amount = parsed
	}
	return ref, amount, nil
}

// Describe renders a one-line label such as "Electric bill 09/2025: R$ 42.20".
func Describe(kind string, ref ReferenceMonth, amount money.Amount) string {
	return fmt.Sprintf("%s bill %s: R$ %s", kind, ref, amount)
}
