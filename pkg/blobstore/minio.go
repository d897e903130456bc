package blobstore

import (
	"context"
	"fmt"
	"io"
	"path"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioBlobStore implements BlobStore on MinIO/S3 compatible storage.
// Each book's content is one object under a fixed prefix.
type MinioBlobStore struct {
	client *minio.Client
	bucket string
	prefix string
}

const objectPrefix = "books/"

// NewMinioBlobStore connects to MinIO and runs the bucket migration.
func NewMinioBlobStore(endpoint, accessKey, secretKey, bucket string, useSSL bool) (*MinioBlobStore, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: init client: %w", ErrUnavailable, err)
	}
	s := &MinioBlobStore{client: client, bucket: bucket, prefix: objectPrefix}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.Migrate(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// Migrate ensures the bucket exists. Additive only and safe to run against
// an already-migrated store; existing objects are never touched.
func (s *MinioBlobStore) Migrate(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("%w: check bucket: %w", ErrUnavailable, err)
	}
	if !exists {
		if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("%w: create bucket: %w", ErrUnavailable, err)
		}
	}
	return nil
}

// Put uploads the blob and verifies it by an immediate stat read-back.
func (s *MinioBlobStore) Put(ctx context.Context, bookID string, r io.Reader, size int64, contentType string) error {
	key := s.key(bookID)
	if _, err := s.client.PutObject(ctx, s.bucket, key, r, size, minio.PutObjectOptions{ContentType: contentType}); err != nil {
		return fmt.Errorf("%w: put object: %w", ErrWriteFailed, err)
	}
	stat, err := s.client.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{})
	if err != nil {
		return fmt.Errorf("%w: verify object: %w", ErrWriteFailed, err)
	}
	if size >= 0 && stat.Size != size {
		return fmt.Errorf("%w: verify object: wrote %d bytes, stored %d", ErrWriteFailed, size, stat.Size)
	}
	return nil
}

// Get downloads the blob for a book ID.
func (s *MinioBlobStore) Get(ctx context.Context, bookID string) ([]byte, bool, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, s.key(bookID), minio.GetObjectOptions{})
	if err != nil {
		return nil, false, fmt.Errorf("get object: %w", err)
	}
	defer obj.Close()
	data, err := io.ReadAll(obj)
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("read object: %w", err)
	}
	return data, true, nil
}

// Delete removes the blob for a book ID.
func (s *MinioBlobStore) Delete(ctx context.Context, bookID string) error {
	if err := s.client.RemoveObject(ctx, s.bucket, s.key(bookID), minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("delete object: %w", err)
	}
	return nil
}

// List returns the book IDs of all stored blobs.
func (s *MinioBlobStore) List(ctx context.Context) ([]string, error) {
	var ids []string
	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{Prefix: s.prefix}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("list objects: %w", obj.Err)
		}
		ids = append(ids, path.Base(obj.Key))
	}
	return ids, nil
}

func (s *MinioBlobStore) key(bookID string) string {
	return s.prefix + bookID
}
