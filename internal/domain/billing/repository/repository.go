// Package repository provides PostgreSQL persistence for bills. Every
// provider stores the same columns in its own table.
package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/FACorreiaa/utility-bill-sync/internal/domain/billing"
)

// BillRepository defines data access for one provider's bills.
type BillRepository[B billing.Entity] interface {
	// ListExistingReferences returns "MM/YYYY" for every live bill.
	ListExistingReferences(ctx context.Context) (map[string]struct{}, error)
	// AddMany inserts bills, skipping periods that already have a live
	// bill, and returns the bills actually inserted.
	AddMany(ctx context.Context, bills []B) ([]B, error)
	List(ctx context.Context, params billing.ListParams) ([]B, error)
	// GetByID returns billing.ErrNotFound when id is unknown.
	GetByID(ctx context.Context, id uuid.UUID) (B, error)
	// Put inserts or replaces the bill with the same id.
	Put(ctx context.Context, bill B) (B, error)
}
