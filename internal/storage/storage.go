// Package storage persists uploaded files (business logos, document
// attachments) behind a mode-switched backend: local disk for development,
// Azure Blob Storage for hosted environments.
package storage

import (
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/fakturo/billing-api/internal/config"
)

// Storage defines the interface for file storage operations
type Storage interface {
	Upload(ctx context.Context, filename string, contentType string, data io.Reader) (string, int64, error)
	Download(ctx context.Context, storagePath string) (io.ReadCloser, error)
	Delete(ctx context.Context, storagePath string) error
}

// NewStorage creates a storage backend based on configuration
func NewStorage(cfg *config.StorageConfig, logger *zap.Logger) (Storage, error) {
	switch cfg.Mode {
	case "local":
		return NewLocalStorage(cfg.LocalBasePath)
	case "cloud", "azure":
		if cfg.CloudConnectionString == "" {
			return nil, fmt.Errorf("cloud connection string required for azure storage")
		}
		return NewAzureBlobStorage(cfg.CloudConnectionString, cfg.CloudContainer, logger)
	default:
		return nil, fmt.Errorf("unsupported storage mode: %s", cfg.Mode)
	}
}
