package storage

import (
	"context"
	"io"

	"github.com/dukerupert/folio/internal"
)

// Storage is the durable key/value store holding the shopper's device
// state: the anonymous cart, bearer credentials and saved addresses.
// Implementations can use the local filesystem or an S3-compatible bucket.
type Storage interface {
	// Put stores the content under key, replacing any previous value.
	// Keys are slash-separated (e.g., "addresses/42.json").
	Put(ctx context.Context, key string, content io.Reader, contentType string) error

	// Get retrieves the value stored under key.
	// Returns an io.ReadCloser that must be closed by the caller.
	// Returns an error matching IsNotFound when the key is absent.
	Get(ctx context.Context, key string) (io.ReadCloser, error)

	// Delete removes a key.
	// Returns nil if the key doesn't exist (idempotent).
	Delete(ctx context.Context, key string) error

	// Exists checks if a value is stored at the given key.
	Exists(ctx context.Context, key string) (bool, error)
}

// NewStorage creates a Storage implementation based on configuration.
// Returns LocalStorage for "local" provider, R2Storage for "r2" provider.
func NewStorage(cfg internal.StorageConfig) (Storage, error) {
	switch cfg.Provider {
	case "local", "":
		return NewLocalStorage(cfg.DataDir)
	case "r2":
		return NewR2Storage(R2Config{
			AccountID:   cfg.R2AccountID,
			AccessKeyID: cfg.R2AccessKeyID,
			SecretKey:   cfg.R2SecretKey,
			BucketName:  cfg.R2BucketName,
			Prefix:      cfg.R2Prefix,
		})
	default:
		return nil, ErrUnknownProvider(cfg.Provider)
	}
}
