package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	// Load environment variables from .env files when present.
	_ "github.com/joho/godotenv/autoload"
)

// Extraction backends.
const (
	BackendTabula  = "tabula"
	BackendPDFText = "pdftext"
)

// Config holds all application configuration
type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Extraction ExtractionConfig
	Sync       SyncConfig
	Storage    StorageConfig
	Log        LogConfig
	Metrics    MetricsConfig
}

type ServerConfig struct {
	Host               string
	Port               int
	ReadTimeout        time.Duration
	WriteTimeout       time.Duration
	IdleTimeout        time.Duration
	ShutdownTimeout    time.Duration
	AllowedOrigins     []string
	RateLimitPerSecond float64
	RateLimitBurst     int
	MaxUploadBytes     int64
}

// Addr returns host:port for the HTTP listener.
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type DatabaseConfig struct {
	URL        string
	Host       string
	Port       int
	User       string
	Password   string
	Database   string
	SSLMode    string
	MaxConns   int
	MinConns   int
	InitSchema bool
}

type ExtractionConfig struct {
	Backend   string
	JavaPath  string
	TabulaJar string
	// Tabula modes per provider: lattice, stream or guess.
	ElectricTabulaMode string
	WaterTabulaMode    string
	Timeout            time.Duration
	Workers            int
}

// TabulaModeFor returns the tabula mode configured for provider.
func (c ExtractionConfig) TabulaModeFor(provider string) string {
	if provider == "water" {
		return c.WaterTabulaMode
	}
	return c.ElectricTabulaMode
}

type SyncConfig struct {
	ElectricDir string
	WaterDir    string
	// Schedule is a cron expression; empty disables scheduled syncs.
	Schedule string
}

type StorageConfig struct {
	UploadDir string
}

type LogConfig struct {
	Level  string
	Format string
}

type MetricsConfig struct {
	Enabled bool
	Path    string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host:               getEnv("SERVER_HOST", "0.0.0.0"),
			Port:               getEnvAsInt("SERVER_PORT", 8080),
			ReadTimeout:        getEnvAsDuration("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:       getEnvAsDuration("SERVER_WRITE_TIMEOUT", 5*time.Minute),
			IdleTimeout:        getEnvAsDuration("SERVER_IDLE_TIMEOUT", 2*time.Minute),
			ShutdownTimeout:    getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second),
			AllowedOrigins:     getEnvAsList("SERVER_ALLOWED_ORIGINS", []string{"*"}),
			RateLimitPerSecond: getEnvAsFloat("SERVER_RATE_LIMIT_PER_SECOND", 20),
			RateLimitBurst:     getEnvAsInt("SERVER_RATE_LIMIT_BURST", 40),
			MaxUploadBytes:     int64(getEnvAsInt("SERVER_MAX_UPLOAD_BYTES", 64<<20)),
		},
		Database: DatabaseConfig{
			URL:        getEnv("DATABASE_URL", ""),
			Host:       getEnv("POSTGRES_HOST", "localhost"),
			Port:       getEnvAsInt("POSTGRES_PORT", 5432),
			User:       getEnv("POSTGRES_USER", "postgres"),
			Password:   getEnv("POSTGRES_PASSWORD", "postgres"),
			Database:   getEnv("POSTGRES_DB", "billsync"),
			SSLMode:    getEnv("POSTGRES_SSLMODE", "disable"),
			MaxConns:   getEnvAsInt("POSTGRES_MAX_CONNS", 10),
			MinConns:   getEnvAsInt("POSTGRES_MIN_CONNS", 1),
			InitSchema: getEnvAsBool("INIT_DB_SCHEMA", false),
		},
		Extraction: ExtractionConfig{
			Backend:            strings.ToLower(getEnv("EXTRACTION_BACKEND", BackendTabula)),
			JavaPath:           getEnv("JAVA_PATH", "java"),
			TabulaJar:          getEnv("TABULA_JAR", ""),
			ElectricTabulaMode: strings.ToLower(getEnv("ELECTRIC_TABULA_MODE", "guess")),
			WaterTabulaMode:    strings.ToLower(getEnv("WATER_TABULA_MODE", "stream")),
			Timeout:            getEnvAsDuration("EXTRACTION_TIMEOUT", 2*time.Minute),
			Workers:            getEnvAsInt("EXTRACTION_WORKERS", 1),
		},
		Sync: SyncConfig{
			ElectricDir: getEnv("ELECTRIC_PDF_DIR", ""),
			WaterDir:    getEnv("WATER_PDF_DIR", ""),
			Schedule:    getEnv("SYNC_SCHEDULE", ""),
		},
		Storage: StorageConfig{
			UploadDir: getEnv("UPLOAD_DIR", ""),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Metrics: MetricsConfig{
			Enabled: getEnvAsBool("METRICS_ENABLED", true),
			Path:    getEnv("METRICS_PATH", "/metrics"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the rest of the program cannot work with.
func (c *Config) Validate() error {
	var errs []error
	switch c.Extraction.Backend {
	case BackendTabula:
		for key, mode := range map[string]string{
			"ELECTRIC_TABULA_MODE": c.Extraction.ElectricTabulaMode,
			"WATER_TABULA_MODE":    c.Extraction.WaterTabulaMode,
		} {
			switch mode {
			case "lattice", "stream", "guess", "":
			default:
				errs = append(errs, fmt.Errorf("%s must be lattice, stream or guess, got %q", key, mode))
			}
		}
	case BackendPDFText:
	default:
		errs = append(errs, fmt.Errorf("EXTRACTION_BACKEND must be %s or %s, got %q", BackendTabula, BackendPDFText, c.Extraction.Backend))
	}
	if c.Extraction.Workers < 1 {
		errs = append(errs, errors.New("EXTRACTION_WORKERS must be at least 1"))
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("SERVER_PORT out of range: %d", c.Server.Port))
	}
	if c.Database.MinConns > c.Database.MaxConns {
		errs = append(errs, errors.New("POSTGRES_MIN_CONNS exceeds POSTGRES_MAX_CONNS"))
	}
	return errors.Join(errs...)
}

// DSN returns the database connection string, preferring DATABASE_URL.
func (c *DatabaseConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsList splits a comma separated value, dropping blanks.
func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	var out []string
	for _, v := range strings.Split(valueStr, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
