package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"DATABASE_URL", "EXTRACTION_BACKEND", "SERVER_PORT", "INIT_DB_SCHEMA", "SYNC_SCHEDULE", "SERVER_ALLOWED_ORIGINS", "ELECTRIC_TABULA_MODE", "WATER_TABULA_MODE"} {
		t.Setenv(k, "")
	}

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0:8080", cfg.Server.Addr())
	assert.Equal(t, []string{"*"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, BackendTabula, cfg.Extraction.Backend)
	assert.Equal(t, 1, cfg.Extraction.Workers)
	assert.Equal(t, "guess", cfg.Extraction.TabulaModeFor("electric"))
	assert.Equal(t, "stream", cfg.Extraction.TabulaModeFor("water"))
	assert.False(t, cfg.Database.InitSchema)
	assert.Empty(t, cfg.Sync.Schedule)
	assert.Contains(t, cfg.Database.DSN(), "dbname=billsync")
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://u:p@db:5432/bills")
	t.Setenv("SERVER_PORT", "9000")
	t.Setenv("SERVER_ALLOWED_ORIGINS", "http://a.test, ,http://b.test")
	t.Setenv("EXTRACTION_BACKEND", "PDFTEXT")
	t.Setenv("EXTRACTION_TIMEOUT", "45s")
	t.Setenv("INIT_DB_SCHEMA", "true")
	t.Setenv("SERVER_RATE_LIMIT_PER_SECOND", "2.5")
	t.Setenv("ELECTRIC_TABULA_MODE", "Lattice")
	t.Setenv("WATER_TABULA_MODE", "guess")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "postgres://u:p@db:5432/bills", cfg.Database.DSN())
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, BackendPDFText, cfg.Extraction.Backend)
	assert.Equal(t, 45*time.Second, cfg.Extraction.Timeout)
	assert.True(t, cfg.Database.InitSchema)
	assert.Equal(t, 2.5, cfg.Server.RateLimitPerSecond)
	assert.Equal(t, "lattice", cfg.Extraction.TabulaModeFor("electric"))
	assert.Equal(t, "guess", cfg.Extraction.TabulaModeFor("water"))
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("SERVER_PORT", "not-a-number")
	t.Setenv("EXTRACTION_TIMEOUT", "soon")
	t.Setenv("EXTRACTION_BACKEND", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 2*time.Minute, cfg.Extraction.Timeout)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"unknown backend", map[string]string{"EXTRACTION_BACKEND": "ocr"}},
		{"bad electric tabula mode", map[string]string{"EXTRACTION_BACKEND": "tabula", "ELECTRIC_TABULA_MODE": "auto"}},
		{"bad water tabula mode", map[string]string{"EXTRACTION_BACKEND": "tabula", "WATER_TABULA_MODE": "grid"}},
		{"zero workers", map[string]string{"EXTRACTION_WORKERS": "0"}},
		{"port out of range", map[string]string{"SERVER_PORT": "70000"}},
		{"min above max", map[string]string{"POSTGRES_MIN_CONNS": "20", "POSTGRES_MAX_CONNS": "5"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
