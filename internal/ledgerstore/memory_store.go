package ledgerstore

import (
	"context"
	"sync"
)

// MemoryStore keeps the snapshot in process. Tests use it to observe saves
// and to inject load or save failures.
type MemoryStore struct {
	mu       sync.Mutex
	snapshot Snapshot
	saves    int

	// LoadErr, when set, is returned by Load.
	LoadErr error
	// SaveErr, when set, is returned by Save and the snapshot is left unchanged.
	SaveErr error
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{snapshot: NewSnapshot()}
}

// NewMemoryStoreWith creates a MemoryStore preloaded with snapshot.
func NewMemoryStoreWith(snapshot Snapshot) *MemoryStore {
	return &MemoryStore{snapshot: snapshot.Clone()}
}

// Initialize is a no-op.
func (s *MemoryStore) Initialize(string) error {
	return nil
}

// Load returns a copy of the stored snapshot.
func (s *MemoryStore) Load(ctx context.Context) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.LoadErr != nil {
		return NewSnapshot(), s.LoadErr
	}
	return s.snapshot.Clone(), nil
}

// Save stores a copy of snapshot.
func (s *MemoryStore) Save(ctx context.Context, snapshot Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.SaveErr != nil {
		return s.SaveErr
	}
	s.snapshot = snapshot.Clone()
	s.saves++
	return nil
}

// Close is a no-op.
func (s *MemoryStore) Close() error {
	return nil
}

// Snapshot returns a copy of the last saved snapshot.
func (s *MemoryStore) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot.Clone()
}

// Saves returns the number of successful saves.
func (s *MemoryStore) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}

// SetSaveErr changes the injected save failure.
func (s *MemoryStore) SetSaveErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.SaveErr = err
}
