package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/FACorreiaa/utility-bill-sync/internal/domain/billing"
	"github.com/FACorreiaa/utility-bill-sync/pkg/db"
	"github.com/FACorreiaa/utility-bill-sync/pkg/money"
)

const billColumns = "id, created_at, updated_at, deleted_at, reference_month, amount"

// PostgresBillRepository implements BillRepository for one table.
type PostgresBillRepository[B billing.Entity] struct {
	db    db.Querier
	table string
	wrap  func(billing.Bill) B
}

// NewPostgresBillRepository creates a repository over table. wrap turns the
// shared bill state into the provider entity.
func NewPostgresBillRepository[B billing.Entity](q db.Querier, table string, wrap func(billing.Bill) B) *PostgresBillRepository[B] {
	return &PostgresBillRepository[B]{db: q, table: table, wrap: wrap}
}

// ListExistingReferences returns the periods of all live bills.
func (r *PostgresBillRepository[B]) ListExistingReferences(ctx context.Context) (map[string]struct{}, error) {
	query := fmt.Sprintf(`SELECT reference_month FROM %s WHERE deleted_at IS NULL`, r.table)

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list references: %w", err)
	}
	defer rows.Close()

	refs := make(map[string]struct{})
	for rows.Next() {
		var month time.Time
		if err := rows.Scan(&month); err != nil {
			return nil, fmt.Errorf("failed to scan reference: %w", err)
		}
		refs[billing.ReferenceMonthFromDate(month).String()] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate references: %w", err)
	}
	return refs, nil
}

// AddMany inserts every bill in one transaction. Rows whose period already
// has a live bill are skipped by the partial unique index and left out of
// the result.
func (r *PostgresBillRepository[B]) AddMany(ctx context.Context, bills []B) ([]B, error) {
	if len(bills) == 0 {
		return nil, nil
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (%s)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (reference_month) WHERE deleted_at IS NULL DO NOTHING
		RETURNING reference_month
	`, r.table, billColumns)

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var inserted []B
	for _, b := range bills {
		s := b.State()
		if err := s.Validate(); err != nil {
			return nil, err
		}
		var month time.Time
		err := tx.QueryRow(ctx, query, insertArgs(s)...).Scan(&month)
		if errors.Is(err, pgx.ErrNoRows) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to insert bill %s: %w", s.Reference, err)
		}
		inserted = append(inserted, b)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit bills: %w", err)
	}
	return inserted, nil
}

// List pages through bills by creation time.
func (r *PostgresBillRepository[B]) List(ctx context.Context, params billing.ListParams) ([]B, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	direction := "ASC"
	if params.OrderDesc {
		direction = "DESC"
	}

	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE ($1 OR deleted_at IS NULL)
		ORDER BY created_at %s, id %s
		LIMIT $2 OFFSET $3
	`, billColumns, r.table, direction, direction)

	rows, err := r.db.Query(ctx, query, params.IncludeDeleted, params.Limit, params.Offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list bills: %w", err)
	}
	defer rows.Close()

	var out []B
	for rows.Next() {
		b, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate bills: %w", err)
	}
	return out, nil
}

// GetByID fetches one bill, deleted or not.
func (r *PostgresBillRepository[B]) GetByID(ctx context.Context, id uuid.UUID) (B, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, billColumns, r.table)

	b, err := r.scan(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		var zero B
		return zero, billing.ErrNotFound
	}
	return b, err
}

// Put upserts by id and returns the stored row.
func (r *PostgresBillRepository[B]) Put(ctx context.Context, bill B) (B, error) {
	var zero B
	s := bill.State()
	if err := s.Validate(); err != nil {
		return zero, err
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (%s)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			updated_at = EXCLUDED.updated_at,
			deleted_at = EXCLUDED.deleted_at,
			reference_month = EXCLUDED.reference_month,
			amount = EXCLUDED.amount
		RETURNING %s
	`, r.table, billColumns, billColumns)

	stored, err := r.scan(r.db.QueryRow(ctx, query, insertArgs(s)...))
	if err != nil {
		if db.IsUniqueViolation(err) {
			return zero, fmt.Errorf("%w: %s", billing.ErrDuplicateReference, s.Reference)
		}
		return zero, err
	}
	return stored, nil
}

func insertArgs(s *billing.Bill) []any {
	return []any{s.ID, s.CreatedAt, s.UpdatedAt, s.DeletedAt, s.Reference.Date(), s.Amount.String()}
}

func (r *PostgresBillRepository[B]) scan(row pgx.Row) (B, error) {
	var (
		zero   B
		b      billing.Bill
		month  time.Time
		amount money.Amount
	)
	err := row.Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt, &b.DeletedAt, &month, &amount)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return zero, err
		}
		return zero, fmt.Errorf("failed to scan bill: %w", err)
	}
	b.Reference = billing.ReferenceMonthFromDate(month)
	b.Amount = amount
	return r.wrap(b), nil
}
