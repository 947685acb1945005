// Package memorystorage adapts jsondb into a purely in-memory storage
// with no file behind it. It backs tests and the default no-config run.
package memorystorage

import (
	"context"

	"github.com/patric-chuzhbe/shortling/internal/db/jsondb"
)

// MemoryStorage is a jsondb without persistence.
type MemoryStorage struct {
	*jsondb.JSONDB
}

// New returns an empty in-memory storage.
func New() (*MemoryStorage, error) {
	return &MemoryStorage{
		JSONDB: jsondb.NewDetached(),
	}, nil
}

// Close discards the cache instead of flushing it anywhere.
func (theStorage *MemoryStorage) Close() error {
	return nil
}

// Ping always succeeds.
func (theStorage *MemoryStorage) Ping(ctx context.Context) error {
	return nil
}
