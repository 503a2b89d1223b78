package api

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	billhandler "github.com/FACorreiaa/utility-bill-sync/internal/domain/billing/handler"
	"github.com/FACorreiaa/utility-bill-sync/internal/domain/electric"
	importhandler "github.com/FACorreiaa/utility-bill-sync/internal/domain/import/handler"
	"github.com/FACorreiaa/utility-bill-sync/internal/domain/import/parser"
	"github.com/FACorreiaa/utility-bill-sync/internal/domain/water"
	"github.com/FACorreiaa/utility-bill-sync/pkg/config"
	"github.com/FACorreiaa/utility-bill-sync/pkg/cron"
	"github.com/FACorreiaa/utility-bill-sync/pkg/db"
	"github.com/FACorreiaa/utility-bill-sync/pkg/metrics"
	"github.com/FACorreiaa/utility-bill-sync/pkg/storage"
)

// Dependencies holds all application dependencies
type Dependencies struct {
	Config   *config.Config
	DB       *db.DB
	Logger   *slog.Logger
	Registry *prometheus.Registry
	Metrics  *metrics.Metrics

	// Extraction, one table source per provider
	ElectricSource parser.TableSource
	WaterSource    parser.TableSource
	Spool          storage.Storage

	// Providers
	Electric *electric.Module
	Water    *water.Module

	// Handlers
	ElectricBills   *billhandler.BillHandler[*electric.Bill]
	WaterBills      *billhandler.BillHandler[*water.Bill]
	ElectricImports *importhandler.ImportHandler
	WaterImports    *importhandler.ImportHandler

	Scheduler *cron.Scheduler
}

// InitDependencies initializes all application dependencies
func InitDependencies(cfg *config.Config, logger *slog.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}

	deps.initMetrics()

	// Initialize database
	if err := deps.initDatabase(); err != nil {
		return nil, fmt.Errorf("failed to init database: %w", err)
	}

	// Initialize extraction backend and upload spool
	if err := deps.initExtraction(); err != nil {
		deps.Cleanup()
		return nil, fmt.Errorf("failed to init extraction: %w", err)
	}

	deps.wire(deps.DB.Pool)

	logger.Info("all dependencies initialized successfully",
		slog.String("backend", cfg.Extraction.Backend),
		slog.Int("workers", cfg.Extraction.Workers),
	)

	return deps, nil
}

func (d *Dependencies) initMetrics() {
	d.Registry = prometheus.NewRegistry()
	d.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	d.Metrics = metrics.New(d.Registry)
}

// initDatabase opens the pool and, when INIT_DB_SCHEMA is set, runs migrations
func (d *Dependencies) initDatabase() error {
	database, err := OpenDatabase(d.Config, d.Logger)
	if err != nil {
		return err
	}
	d.DB = database

	if d.Config.Database.InitSchema {
		if err := d.DB.RunMigrations(); err != nil {
			d.DB.Close()
			return fmt.Errorf("failed to run migrations: %w", err)
		}
		d.Logger.Info("database connected and migrations completed successfully")
	}
	return nil
}

// OpenDatabase connects using the database settings of cfg.
func OpenDatabase(cfg *config.Config, logger *slog.Logger) (*db.DB, error) {
	return db.New(db.Config{
		DSN:             cfg.Database.DSN(),
		MaxConns:        int32(cfg.Database.MaxConns),
		MinConns:        int32(cfg.Database.MinConns),
		MaxConnLifetime: 5 * time.Minute,
		MaxConnIdleTime: 10 * time.Minute,
	}, logger)
}

func (d *Dependencies) initExtraction() error {
	d.ElectricSource = NewTableSource(d.Config.Extraction, electric.Provider)
	d.WaterSource = NewTableSource(d.Config.Extraction, water.Provider)

	spool, err := storage.New(&storage.Config{
		Type:      storage.StorageTypeLocal,
		LocalPath: d.Config.Storage.UploadDir,
	})
	if err != nil {
		return err
	}
	d.Spool = spool
	return nil
}

// NewTableSource builds the configured PDF backend for provider behind a
// dispatcher that also reads CSV and XLSX tables.
func NewTableSource(cfg config.ExtractionConfig, provider string) parser.TableSource {
	var pdf parser.TableSource
	switch cfg.Backend {
	case config.BackendPDFText:
		pdf = parser.NewPDFTextSource()
	default:
		pdf = parser.NewTabulaSource(parser.TabulaConfig{
			JavaPath: cfg.JavaPath,
			JarPath:  cfg.TabulaJar,
			Mode:     cfg.TabulaModeFor(provider),
			Timeout:  cfg.Timeout,
		})
	}
	return parser.NewMultiSource(pdf)
}

// wire builds the provider modules, handlers and scheduler over q.
func (d *Dependencies) wire(q db.Querier) {
	d.initServices(q)
	d.initHandlers()
	d.initScheduler()
}

func (d *Dependencies) initServices(q db.Querier) {
	workers := d.Config.Extraction.Workers
	d.Electric = electric.NewModule(q, d.ElectricSource, d.Logger, d.Metrics, workers)
	d.Water = water.NewModule(q, d.WaterSource, d.Logger, d.Metrics, workers)
}

func (d *Dependencies) initHandlers() {
	maxUpload := d.Config.Server.MaxUploadBytes

	d.ElectricBills = billhandler.NewBillHandler(d.Electric.Bills, d.Logger)
	d.WaterBills = billhandler.NewBillHandler(d.Water.Bills, d.Logger)
	d.ElectricImports = importhandler.NewImportHandler(d.Electric.Syncer, d.Config.Sync.ElectricDir, d.Spool, maxUpload, d.Logger)
	d.WaterImports = importhandler.NewImportHandler(d.Water.Syncer, d.Config.Sync.WaterDir, d.Spool, maxUpload, d.Logger)
}

func (d *Dependencies) initScheduler() {
	if d.Config.Sync.Schedule == "" {
		return
	}
	d.Scheduler = cron.NewScheduler(d.Config.Sync.Schedule, []cron.Job{
		{Syncer: d.Electric.Syncer, Dir: d.Config.Sync.ElectricDir, Recursive: true},
		{Syncer: d.Water.Syncer, Dir: d.Config.Sync.WaterDir, Recursive: true},
	}, d.Logger)
}

// Syncer returns the sync engine for provider, "electric" or "water".
func (d *Dependencies) Syncer(provider string) (importhandler.Syncer, error) {
	switch provider {
	case electric.Provider:
		return d.Electric.Syncer, nil
	case water.Provider:
		return d.Water.Syncer, nil
	default:
		return nil, fmt.Errorf("unknown provider %q: use %s or %s", provider, electric.Provider, water.Provider)
	}
}

// Cleanup releases resources
func (d *Dependencies) Cleanup() {
	if d.DB != nil {
		d.DB.Close()
	}
	d.Logger.Info("cleanup completed")
}
