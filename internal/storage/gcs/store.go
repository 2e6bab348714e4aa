// Package gcs mirrors catalog artifacts to a Google Cloud Storage
// bucket.
package gcs

import (
	"context"
	"fmt"

	"cloud.google.com/go/storage"
)

// Store uploads artifacts to a bucket. Authentication uses
// Application Default Credentials.
type Store struct {
	client *storage.Client
	bucket string
}

// New creates the client and fails fast if the bucket is unreachable.
func New(ctx context.Context, bucket string) (*Store, error) {
	if bucket == "" {
		return nil, fmt.Errorf("bucket name is required")
	}
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create gcs client: %w", err)
	}
	if _, err := client.Bucket(bucket).Attrs(ctx); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("check bucket %q: %w", bucket, err)
	}
	return &Store{client: client, bucket: bucket}, nil
}

// Save uploads data as the named object.
func (s *Store) Save(ctx context.Context, name string, data []byte) error {
	w := s.client.Bucket(s.bucket).Object(name).NewWriter(ctx)
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return fmt.Errorf("write gcs object %s: %w", name, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("finalize gcs object %s: %w", name, err)
	}
	return nil
}

// Close releases the underlying client.
func (s *Store) Close() error {
	if err := s.client.Close(); err != nil {
		return fmt.Errorf("close gcs client: %w", err)
	}
	return nil
}
