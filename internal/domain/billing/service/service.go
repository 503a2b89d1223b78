// Package service implements the query and maintenance operations on
// persisted bills: paging, lookup, creation, patching and soft deletion.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/FACorreiaa/utility-bill-sync/internal/domain/billing"
	"github.com/FACorreiaa/utility-bill-sync/internal/domain/billing/repository"
)

// BillService manages one provider's bills.
type BillService[B billing.Entity] struct {
	repo   repository.BillRepository[B]
	wrap   func(billing.Bill) B
	logger *slog.Logger
}

// NewBillService creates a service. wrap builds the provider entity.
func NewBillService[B billing.Entity](repo repository.BillRepository[B], wrap func(billing.Bill) B, logger *slog.Logger) *BillService[B] {
	return &BillService[B]{repo: repo, wrap: wrap, logger: logger}
}

// List returns one page of bills.
func (s *BillService[B]) List(ctx context.Context, params billing.ListParams) ([]B, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return s.repo.List(ctx, params)
}

// Get returns the bill with id, including soft-deleted ones.
func (s *BillService[B]) Get(ctx context.Context, id uuid.UUID) (B, error) {
	return s.repo.GetByID(ctx, id)
}

// Create validates the raw period and amount and stores a new bill.
func (s *BillService[B]) Create(ctx context.Context, referenceText string, amount any) (B, error) {
	bill, err := billing.NewBill(referenceText, amount)
	if err != nil {
		var zero B
		return zero, err
	}
	return s.repo.Put(ctx, s.wrap(bill))
}

// Put stores the bill under id. An unknown id creates a new bill and
// reports created; a known one has its reference and amount replaced.
func (s *BillService[B]) Put(ctx context.Context, id uuid.UUID, referenceText string, amount any) (B, bool, error) {
	var zero B
	_, err := s.repo.GetByID(ctx, id)
	switch {
	case errors.Is(err, billing.ErrNotFound):
		bill, err := billing.NewBill(referenceText, amount)
		if err != nil {
			return zero, false, err
		}
		bill.ID = id
		stored, err := s.repo.Put(ctx, s.wrap(bill))
		if err != nil {
			return zero, false, err
		}
		return stored, true, nil
	case err != nil:
		return zero, false, err
	}

	stored, err := s.Update(ctx, id, billing.Patch{Reference: &referenceText, Amount: amount})
	return stored, false, err
}

// Update applies a patch to a live bill.
func (s *BillService[B]) Update(ctx context.Context, id uuid.UUID, patch billing.Patch) (B, error) {
	var zero B
	bill, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return zero, err
	}
	if err := bill.State().Update(patch); err != nil {
		return zero, err
	}
	stored, err := s.repo.Put(ctx, bill)
	if err != nil {
		return zero, fmt.Errorf("failed to update bill %s: %w", id, err)
	}
	return stored, nil
}

// Delete soft-deletes a bill. Deleting a deleted bill returns it unchanged.
func (s *BillService[B]) Delete(ctx context.Context, id uuid.UUID) (B, error) {
	var zero B
	bill, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return zero, err
	}
	if bill.State().IsDeleted() {
		return bill, nil
	}

	bill.State().Delete()
	stored, err := s.repo.Put(ctx, bill)
	if err != nil {
		return zero, fmt.Errorf("failed to delete bill %s: %w", id, err)
	}
	s.logger.Info("bill deleted", "id", id, "reference", bill.Period().String())
	return stored, nil
}
