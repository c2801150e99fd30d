// Package cache persists computed embeddings across runs so unchanged
// files are not re-embedded. Entries are keyed per model: vectors from
// different models never mix.
package cache

import (
	"context"
	"fmt"
	"os"
)

// Cache stores embedding vectors by model and file key.
type Cache interface {
	// Get returns the cached vector, or nil when absent.
	Get(ctx context.Context, model, key string) ([]float32, error)

	// Put stores a vector. Existing entries for the same model and key
	// are left untouched.
	Put(ctx context.Context, model, key string, vec []float32) error

	// Close releases the underlying storage.
	Close() error
}

// FileKey builds the cache identity for a file from its path, size and
// modification time. Any change to the file invalidates the key.
func FileKey(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("stat %s: %w", path, err)
	}
	return fmt.Sprintf("%s|%d|%d", path, info.Size(), info.ModTime().UnixNano()), nil
}
