// Package storage defines the blob persistence contract for catalog
// artifacts, with local filesystem, in-memory, and GCS backends.
package storage

import "context"

// Provider persists named artifacts.
type Provider interface {
	Save(ctx context.Context, name string, data []byte) error
}
