// Package service provides the sync orchestration shared by every provider:
// extract each document, keep the billing periods not yet persisted, and
// store them in one batch.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/utility-bill-sync/internal/domain/billing"
	"github.com/FACorreiaa/utility-bill-sync/internal/domain/import/extractor"
	"github.com/FACorreiaa/utility-bill-sync/pkg/logger"
	"github.com/FACorreiaa/utility-bill-sync/pkg/metrics"
)

var tracer = otel.Tracer("github.com/FACorreiaa/utility-bill-sync/import")

// Reader turns one document into bills.
type Reader[B billing.Keyed] interface {
	Read(ctx context.Context, path string) ([]B, error)
}

// Store is the persistence boundary a sync run needs.
type Store[B billing.Keyed] interface {
	// ListExistingReferences returns the "MM/YYYY" of every live bill.
	ListExistingReferences(ctx context.Context) (map[string]struct{}, error)
	// AddMany inserts bills and returns the ones actually stored.
	AddMany(ctx context.Context, bills []B) ([]B, error)
}

// RowExtractor produces canonical rows from a document.
type RowExtractor interface {
	ExtractRows(ctx context.Context, path string) ([]extractor.CanonicalRow, error)
}

// RowReader adapts a RowExtractor into a Reader by converting every row.
// A row that fails conversion fails the whole document.
type RowReader[B billing.Keyed] struct {
	Extractor RowExtractor
	Convert   func(extractor.CanonicalRow) (B, error)
}

// Read implements Reader.
func (r RowReader[B]) Read(ctx context.Context, path string) ([]B, error) {
	rows, err := r.Extractor.ExtractRows(ctx, path)
	if err != nil {
		return nil, err
	}
	bills := make([]B, 0, len(rows))
	for i, row := range rows {
		b, err := r.Convert(row)
		if err != nil {
			return nil, fmt.Errorf("row %d (%q, %q): %w", i+1, row.Reference, row.Amount, err)
		}
		bills = append(bills, b)
	}
	return bills, nil
}

// Syncer runs sync batches for one provider.
type Syncer[B billing.Keyed] struct {
	provider string
	reader   Reader[B]
	store    Store[B]
	logger   *slog.Logger
	metrics  *metrics.Metrics
	workers  int
}

// NewSyncer creates a sequential syncer.
func NewSyncer[B billing.Keyed](provider string, reader Reader[B], store Store[B], logger *slog.Logger) *Syncer[B] {
	return &Syncer[B]{
		provider: provider,
		reader:   reader,
		store:    store,
		logger:   logger,
		workers:  1,
	}
}

// WithWorkers extracts up to n documents at once. Results are still merged
// in input order, so the outcome does not depend on n.
func (s *Syncer[B]) WithWorkers(n int) *Syncer[B] {
	if n < 1 {
		n = 1
	}
	s.workers = n
	return s
}

// WithMetrics records run and document metrics.
func (s *Syncer[B]) WithMetrics(m *metrics.Metrics) *Syncer[B] {
	s.metrics = m
	return s
}

// Provider returns the provider label, e.g. "electric".
func (s *Syncer[B]) Provider() string {
	return s.provider
}

type extraction[B any] struct {
	bills []B
	err   error
}

// SyncFromDocuments extracts every path and persists the periods not yet
// known. A document that cannot be extracted is reported in FailedFiles and
// never aborts the batch. Persistence errors abort it.
//
// When the same period appears more than once the last one in path order
// wins. If ctx is cancelled mid-batch the remaining documents are reported
// as failed, nothing is persisted and ctx.Err() is returned with the
// partial summary.
func (s *Syncer[B]) SyncFromDocuments(ctx context.Context, paths []string) (summary *billing.SyncSummary, err error) {
	start := time.Now()
	log := logger.FromContext(ctx, s.logger).With("provider", s.provider)

	ctx, span := tracer.Start(ctx, "sync."+s.provider, trace.WithAttributes(
		attribute.String("provider", s.provider),
		attribute.Int("documents", len(paths)),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()

		created, skipped := 0, 0
		if summary != nil {
			created, skipped = summary.Created, summary.Skipped
		}
		s.metrics.ObserveSync(s.provider, created, skipped, err, time.Since(start))
	}()

	known, err := s.store.ListExistingReferences(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list existing references: %w", err)
	}

	summary = billing.NewSyncSummary(len(paths))
	results := s.extractAll(ctx, paths)

	collected := make(map[string]B)
	var order []string
	for i, path := range paths {
		res := results[i]
		if res.err != nil {
			summary.FilesFailed++
			summary.FailedFiles = append(summary.FailedFiles, path)
			log.Warn("failed to extract document", "path", path, "error", res.err)
			continue
		}

		summary.FilesProcessed++
		summary.RowsParsed += len(res.bills)
		for _, b := range res.bills {
			key := b.Period().String()
			if _, seen := collected[key]; !seen {
				order = append(order, key)
			}
			collected[key] = b
		}
	}
	summary.DistinctReferencesFound = len(collected)

	if err := ctx.Err(); err != nil {
		log.Warn("sync cancelled before persisting", "failed", summary.FilesFailed)
		summary.Skipped = summary.DistinctReferencesFound
		return summary, err
	}

	var fresh []B
	for _, key := range order {
		if _, ok := known[key]; ok {
			continue
		}
		fresh = append(fresh, collected[key])
	}

	if len(fresh) > 0 {
		inserted, err := s.store.AddMany(ctx, fresh)
		if err != nil {
			return nil, fmt.Errorf("failed to persist %d bills: %w", len(fresh), err)
		}
		summary.Created = len(inserted)
		for _, b := range inserted {
			summary.CreatedReferences = append(summary.CreatedReferences, b.Period().String())
		}
	}
	summary.Skipped = summary.DistinctReferencesFound - summary.Created

	log.Info("sync finished",
		"documents", summary.PDFCount,
		"processed", summary.FilesProcessed,
		"failed", summary.FilesFailed,
		"rows", summary.RowsParsed,
		"created", summary.Created,
		"skipped", summary.Skipped,
		"duration", time.Since(start),
	)
	return summary, nil
}

// extractAll returns one result per path, in path order.
func (s *Syncer[B]) extractAll(ctx context.Context, paths []string) []extraction[B] {
	results := make([]extraction[B], len(paths))

	workers := s.workers
	if workers > len(paths) {
		workers = len(paths)
	}
	if workers <= 1 {
		for i, path := range paths {
			results[i] = s.extractOne(ctx, path)
		}
		return results
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i] = s.extractOne(ctx, paths[i])
			}
		}()
	}
	for i := range paths {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	return results
}

func (s *Syncer[B]) extractOne(ctx context.Context, path string) extraction[B] {
	if err := ctx.Err(); err != nil {
		return extraction[B]{err: err}
	}

	start := time.Now()
	ctx, span := tracer.Start(ctx, "extract", trace.WithAttributes(attribute.String("path", path)))
	defer span.End()

	bills, err := s.reader.Read(ctx, path)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	s.metrics.ObserveDocument(s.provider, err, time.Since(start))

	return extraction[B]{bills: bills, err: err}
}
