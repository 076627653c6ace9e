// Package storage persists the client session in a gocloud blob bucket.
package storage

import (
	"context"

	"wallet/internal/errors"

	"gocloud.dev/blob"
	_ "gocloud.dev/blob/fileblob" // file:// buckets
	_ "gocloud.dev/blob/memblob"  // mem:// buckets
	"gocloud.dev/gcerrors"
)

// Session storage keys.
const (
	KeyToken    = "token"
	KeyUserData = "userData"
)

// BlobStore is a string key/value store backed by a blob bucket.
type BlobStore struct {
	bucket *blob.Bucket
}

// Open opens the bucket at url, e.g. "mem://" or "file:///home/me/.wallet?create_dir=true".
func Open(ctx context.Context, url string) (*BlobStore, error) {
	bucket, err := blob.OpenBucket(ctx, url)
	if err != nil {
		return nil, errors.Wrapf(err, "open session bucket %q", url)
	}

	return New(bucket), nil
}

// New wraps an open bucket. The store owns it from now on.
func New(bucket *blob.Bucket) *BlobStore {
	return &BlobStore{bucket: bucket}
}

// Get returns the value under key; ok is false when the key is absent.
func (s *BlobStore) Get(ctx context.Context, key string) (value string, ok bool, err error) {
	data, err := s.bucket.ReadAll(ctx, key)
	if gcerrors.Code(err) == gcerrors.NotFound {
		return "", false, nil
	}
	if err != nil {
		return "", false, errors.Wrapf(err, "read %s", key)
	}

	return string(data), true, nil
}

// Set stores value under key.
func (s *BlobStore) Set(ctx context.Context, key, value string) error {
	if err := s.bucket.WriteAll(ctx, key, []byte(value), nil); err != nil {
		return errors.Wrapf(err, "write %s", key)
	}

	return nil
}

// Delete removes key. Absent keys are not an error.
func (s *BlobStore) Delete(ctx context.Context, key string) error {
	err := s.bucket.Delete(ctx, key)
	if err != nil && gcerrors.Code(err) != gcerrors.NotFound {
		return errors.Wrapf(err, "delete %s", key)
	}

	return nil
}

// Close releases the bucket.
func (s *BlobStore) Close() error {
	return errors.WithStack(s.bucket.Close())
}
