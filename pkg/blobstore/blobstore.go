// Package blobstore archives large inputs — parser payloads and
// benchmark corpora too big to keep in Postgres rows — in an object
// store, adapted from the teacher's pkg/storage/minio.go down to the
// plain put/get/delete/stat surface this module needs. The teacher's
// presigned-upload/download URL methods are dropped: nothing here
// hands a URL to an external client, every caller is in-process (see
// DESIGN.md's dropped-teacher-surface notes).
package blobstore

import (
	"context"
	"fmt"
	"io"

	"github.com/hsn0918/codegraph/pkg/codegraph"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Store archives corpus fixtures and benchmark artifacts.
type Store interface {
	Put(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// Config describes how to reach the object store.
type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// MinIOStore is the Config-backed Store implementation.
type MinIOStore struct {
	client *minio.Client
	bucket string
}

var _ Store = (*MinIOStore)(nil)

// New connects to the object store and ensures the configured bucket
// exists, same idiom as the teacher's NewMinIOClient.
func New(ctx context.Context, cfg Config) (*MinIOStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: blobstore connect: %v", codegraph.ErrStorageUnavailable, err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("%w: blobstore bucket check: %v", codegraph.ErrStorageUnavailable, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("%w: blobstore bucket create: %v", codegraph.ErrStorageUnavailable, err)
		}
	}

	return &MinIOStore{client: client, bucket: cfg.Bucket}, nil
}

// Put uploads a fixture or corpus artifact under key.
func (s *MinIOStore) Put(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error {
	_, err := s.client.PutObject(ctx, s.bucket, key, reader, size, minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return fmt.Errorf("%w: blobstore put %s: %v", codegraph.ErrStorageUnavailable, key, err)
	}
	return nil
}

// Get opens the object stored under key. Callers must close it.
func (s *MinIOStore) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("%w: blobstore get %s: %v", codegraph.ErrStorageUnavailable, key, err)
	}
	return obj, nil
}

// Delete removes the object stored under key.
func (s *MinIOStore) Delete(ctx context.Context, key string) error {
	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("%w: blobstore delete %s: %v", codegraph.ErrStorageUnavailable, key, err)
	}
	return nil
}

// Exists reports whether key is present in the bucket.
func (s *MinIOStore) Exists(ctx context.Context, key string) (bool, error) {
	_, err := s.client.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{})
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return false, nil
		}
		return false, fmt.Errorf("%w: blobstore stat %s: %v", codegraph.ErrStorageUnavailable, key, err)
	}
	return true, nil
}
