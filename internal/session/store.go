// Package session holds uploaded snapshots in memory between requests.
package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/andresuchdata/buyer-dashboard/backend-go/internal/domain"
)

const DefaultIdleTTL = 2 * time.Hour

type entry struct {
	snapshot *domain.Snapshot
	lastUsed time.Time
}

// Store keeps snapshots keyed by a random id. A snapshot that has not been
// read for the idle TTL is dropped. Stored snapshots are never mutated.
type Store struct {
	mu      sync.Mutex
	entries map[string]*entry
	ttl     time.Duration
	now     func() time.Time
}

func NewStore(ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultIdleTTL
	}
	return &Store{
		entries: make(map[string]*entry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Put assigns an id to the snapshot and stores it.
func (s *Store) Put(snapshot *domain.Snapshot) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sweepLocked()
	snapshot.ID = uuid.NewString()
	s.entries[snapshot.ID] = &entry{snapshot: snapshot, lastUsed: s.now()}
	return snapshot.ID
}

// Get returns the snapshot and refreshes its idle timer.
func (s *Store) Get(id string) (*domain.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]
	if !ok || s.expiredLocked(e) {
		delete(s.entries, id)
		return nil, domain.ErrSnapshotNotFound
	}
	e.lastUsed = s.now()
	return e.snapshot, nil
}

// Delete removes a snapshot. Deleting an unknown id reports not found.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entries[id]; !ok {
		return domain.ErrSnapshotNotFound
	}
	delete(s.entries, id)
	return nil
}

// Len returns the number of live snapshots.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sweepLocked()
	return len(s.entries)
}

func (s *Store) expiredLocked(e *entry) bool {
	return s.now().Sub(e.lastUsed) >= s.ttl
}

func (s *Store) sweepLocked() {
	for id, e := range s.entries {
		if s.expiredLocked(e) {
			delete(s.entries, id)
		}
	}
}
