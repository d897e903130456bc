package store

import (
	"context"
	"sync"

	"readkeeper/pkg/domain"
)

// Projection is the serializable snapshot of every collection, written
// wholesale to a single slot after each mutation and read once at startup.
// It carries metadata only: book content never appears here, timestamps
// serialize as RFC 3339 through encoding/json.
type Projection struct {
	Books            []domain.Book           `json:"books"`
	Sessions         []domain.ReadingSession `json:"sessions"`
	Notes            []domain.Note           `json:"notes"`
	Highlights       []domain.Highlight      `json:"highlights"`
	Goals            []domain.ReadingGoal    `json:"goals"`
	CurrentBookID    string                  `json:"currentBookId,omitempty"`
	CurrentSessionID string                  `json:"currentSessionId,omitempty"`
}

// SnapshotStore persists the projection under one fixed logical key.
// There is a single writer; the last write wins.
//
// Load returns (Projection{}, false, nil) when no projection has been
// saved yet, which is the normal first-run state.
type SnapshotStore interface {
	Save(ctx context.Context, p Projection) error
	Load(ctx context.Context) (Projection, bool, error)
}

// MemorySnapshotStore keeps the projection in-process. Used in tests.
type MemorySnapshotStore struct {
	mu    sync.Mutex
	p     Projection
	saved bool

	// FailSaves makes every Save fail.
	FailSaves bool
	// Saves counts successful writes.
	Saves int
}

// NewMemorySnapshotStore initializes an empty snapshot store.
func NewMemorySnapshotStore() *MemorySnapshotStore {
	return &MemorySnapshotStore{}
}

// Save overwrites the stored projection.
func (s *MemorySnapshotStore) Save(_ context.Context, p Projection) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailSaves {
		return ErrSnapshotWrite
	}
	s.p = p
	s.saved = true
	s.Saves++
	return nil
}

// Load returns the last stored projection.
func (s *MemorySnapshotStore) Load(_ context.Context) (Projection, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.p, s.saved, nil
}
