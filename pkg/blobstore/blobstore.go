// Package blobstore persists one binary blob per book, independent of the
// metadata snapshot: book metadata is small and serialized wholesale on
// every mutation, while file content is large and must never travel with
// it. The two sides are joined only by book ID.
package blobstore

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
)

var (
	// ErrUnavailable means the backing storage cannot be reached or set up.
	ErrUnavailable = errors.New("blob storage unavailable")
	// ErrWriteFailed means a write did not complete or did not verify.
	ErrWriteFailed = errors.New("blob write failed")
)

// BlobStore stores raw book content keyed by book ID.
//
// Get returns (nil, false, nil) when no blob exists for the ID: absence is
// a normal "not uploaded yet / evicted" state, not a failure, and callers
// are expected to prompt for re-upload.
type BlobStore interface {
	Put(ctx context.Context, bookID string, r io.Reader, size int64, contentType string) error
	Get(ctx context.Context, bookID string) ([]byte, bool, error)
	Delete(ctx context.Context, bookID string) error
	List(ctx context.Context) ([]string, error)
}

// MemoryBlobStore keeps blobs in-process. Used in tests and as a
// non-durable fallback.
type MemoryBlobStore struct {
	mu    sync.RWMutex
	blobs map[string][]byte

	// FailPuts makes every Put fail, for exercising callers' atomicity.
	FailPuts bool
}

// NewMemoryBlobStore initializes an empty in-memory blob store.
func NewMemoryBlobStore() *MemoryBlobStore {
	s := &MemoryBlobStore{}
	_ = s.Migrate(context.Background())
	return s
}

// Migrate creates the record container if absent. Safe to run repeatedly.
func (s *MemoryBlobStore) Migrate(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.blobs == nil {
		s.blobs = make(map[string][]byte)
	}
	return nil
}

// Put stores the blob under the book ID.
func (s *MemoryBlobStore) Put(_ context.Context, bookID string, r io.Reader, size int64, _ string) error {
	if s.FailPuts {
		return ErrWriteFailed
	}
	var buf bytes.Buffer
	if size > 0 {
		buf.Grow(int(size))
	}
	if _, err := buf.ReadFrom(r); err != nil {
		return errors.Join(ErrWriteFailed, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.blobs == nil {
		return ErrUnavailable
	}
	s.blobs[bookID] = buf.Bytes()
	return nil
}

// Get retrieves the blob for a book ID.
func (s *MemoryBlobStore) Get(_ context.Context, bookID string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.blobs[bookID]
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, true, nil
}

// Delete removes the blob for a book ID. Absence is not an error.
func (s *MemoryBlobStore) Delete(_ context.Context, bookID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.blobs, bookID)
	return nil
}

// List returns all stored book IDs.
func (s *MemoryBlobStore) List(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.blobs))
	for id := range s.blobs {
		ids = append(ids, id)
	}
	return ids, nil
}
