// Package storage spools uploaded documents to disk so extractors, which
// work on paths, can read them. Each request gets its own batch directory.
package storage

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
)

// FileInfo describes one spooled file.
type FileInfo struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Size        int64     `json:"size"`
	ContentType string    `json:"content_type"`
	Path        string    `json:"path"` // absolute path on disk
	CreatedAt   time.Time `json:"created_at"`
}

// Storage defines the spool operations.
type Storage interface {
	// Upload writes r under batch and returns where it landed.
	Upload(ctx context.Context, batch uuid.UUID, filename string, contentType string, r io.Reader) (*FileInfo, error)

	// List returns the files of a batch.
	List(ctx context.Context, batch uuid.UUID) ([]*FileInfo, error)

	// Discard removes a batch and everything in it.
	Discard(ctx context.Context, batch uuid.UUID) error
}

// StorageType identifies the storage backend
type StorageType string

const (
	StorageTypeLocal StorageType = "local"
)

// Config holds storage configuration
type Config struct {
	Type StorageType

	// LocalPath is the spool root. Empty means a directory under os.TempDir.
	LocalPath string
}

// New creates a Storage for cfg.
func New(cfg *Config) (Storage, error) {
	switch cfg.Type {
	case StorageTypeLocal, "":
		return NewLocalStorage(cfg.LocalPath)
	default:
		return nil, fmt.Errorf("unsupported storage type %q", cfg.Type)
	}
}
