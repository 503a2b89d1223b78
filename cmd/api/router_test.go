package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/utility-bill-sync/internal/domain/import/parser"
	"github.com/FACorreiaa/utility-bill-sync/pkg/config"
	"github.com/FACorreiaa/utility-bill-sync/pkg/httpx"
	"github.com/FACorreiaa/utility-bill-sync/pkg/logger"
	"github.com/FACorreiaa/utility-bill-sync/pkg/storage"
)

func newTestDependencies(t *testing.T) (*Dependencies, pgxmock.PgxPoolIface) {
	t.Helper()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)

	spool, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	d := &Dependencies{
		Config: &config.Config{
			Server: config.ServerConfig{
				AllowedOrigins: []string{"*"},
				MaxUploadBytes: 1 << 20,
			},
			Extraction: config.ExtractionConfig{Workers: 1},
			Metrics:    config.MetricsConfig{Enabled: true, Path: "/metrics"},
		},
		Logger:         logger.Discard(),
		ElectricSource: &parser.StaticSource{},
		WaterSource:    &parser.StaticSource{},
		Spool:          spool,
	}
	d.initMetrics()
	d.wire(mock)
	return d, mock
}

func TestRouter_Healthz(t *testing.T) {
	d, _ := newTestDependencies(t)

	rec := httptest.NewRecorder()
	NewRouter(d).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get(httpx.RequestIDHeader))
}

func TestRouter_Metrics(t *testing.T) {
	d, _ := newTestDependencies(t)
	router := NewRouter(d)

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
	assert.Contains(t, rec.Body.String(), "/healthz")
}

func TestRouter_MetricsDisabled(t *testing.T) {
	d, _ := newTestDependencies(t)
	d.Config.Metrics.Enabled = false

	rec := httptest.NewRecorder()
	NewRouter(d).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouter_WaterBillsList(t *testing.T) {
	d, mock := newTestDependencies(t)

	id := uuid.New()
	mock.ExpectQuery(`SELECT .* FROM water_bills`).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at", "updated_at", "deleted_at", "reference_month", "amount"}).
			AddRow(id, time.Now(), nil, nil, time.Date(2025, time.May, 1, 0, 0, 0, 0, time.UTC), "87.10"))

	rec := httptest.NewRecorder()
	NewRouter(d).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/water-bills/", nil))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), id.String())
	assert.Contains(t, rec.Body.String(), "05/2025")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRouter_ElectricImportWithoutDocuments(t *testing.T) {
	d, _ := newTestDependencies(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/electric-bills/imports", strings.NewReader(`{"pdf_paths": []}`))
	req.Header.Set("Content-Type", "application/json")
	NewRouter(d).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "error")
}

func TestRouter_UnknownRoute(t *testing.T) {
	d, _ := newTestDependencies(t)

	rec := httptest.NewRecorder()
	NewRouter(d).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/gas-bills", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"route not found"}`, rec.Body.String())
}

func TestSyncerByProvider(t *testing.T) {
	d, _ := newTestDependencies(t)

	s, err := d.Syncer("water")
	require.NoError(t, err)
	assert.Equal(t, "water", s.Provider())

	_, err = d.Syncer("gas")
	assert.Error(t, err)
}

func TestNewTableSource(t *testing.T) {
	assert.NotNil(t, NewTableSource(config.ExtractionConfig{Backend: config.BackendPDFText}, "electric"))
	assert.NotNil(t, NewTableSource(config.ExtractionConfig{Backend: config.BackendTabula}, "water"))
}
