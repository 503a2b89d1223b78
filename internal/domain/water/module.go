package water

import (
	"log/slog"

	"github.com/FACorreiaa/utility-bill-sync/internal/domain/billing/repository"
	billservice "github.com/FACorreiaa/utility-bill-sync/internal/domain/billing/service"
	"github.com/FACorreiaa/utility-bill-sync/internal/domain/import/extractor"
	"github.com/FACorreiaa/utility-bill-sync/internal/domain/import/parser"
	"github.com/FACorreiaa/utility-bill-sync/internal/domain/import/service"
	"github.com/FACorreiaa/utility-bill-sync/pkg/db"
	"github.com/FACorreiaa/utility-bill-sync/pkg/metrics"
)

// Module groups the water components built over one database handle.
type Module struct {
	Repository *repository.PostgresBillRepository[*Bill]
	Extractor  *extractor.Water
	Syncer     *service.Syncer[*Bill]
	Bills      *billservice.BillService[*Bill]
}

// NewModule wires the water extractor, sync engine and bill service.
func NewModule(q db.Querier, source parser.TableSource, logger *slog.Logger, m *metrics.Metrics, workers int) *Module {
	repo := repository.NewPostgresBillRepository(q, Table, Wrap)
	ext := extractor.NewWater(source)
	reader := service.RowReader[*Bill]{Extractor: ext, Convert: FromRow}

	return &Module{
		Repository: repo,
		Extractor:  ext,
		Syncer: service.NewSyncer[*Bill](Provider, reader, repo, logger).
			WithWorkers(workers).
			WithMetrics(m),
		Bills: billservice.NewBillService(repo, Wrap, logger),
	}
}
