package session

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/andresuchdata/buyer-dashboard/backend-go/internal/domain"
)

func TestStoreLifecycle(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	s := NewStore(time.Hour)
	s.now = func() time.Time { return now }

	id := s.Put(&domain.Snapshot{UploadedBy: "buyer1"})
	if _, err := uuid.Parse(id); err != nil {
		t.Fatalf("expected uuid id, got %q", id)
	}

	now = now.Add(50 * time.Minute)
	snap, err := s.Get(id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if snap.ID != id || snap.UploadedBy != "buyer1" {
		t.Errorf("unexpected snapshot %+v", snap)
	}

	// the read refreshed the idle timer
	now = now.Add(50 * time.Minute)
	if _, err := s.Get(id); err != nil {
		t.Fatalf("expected snapshot to survive after a read, got %v", err)
	}

	now = now.Add(time.Hour)
	if _, err := s.Get(id); !errors.Is(err, domain.ErrSnapshotNotFound) {
		t.Fatalf("expected idle snapshot to expire, got %v", err)
	}
	if s.Len() != 0 {
		t.Errorf("expected empty store, got %d", s.Len())
	}
}

func TestStoreDelete(t *testing.T) {
	s := NewStore(0)
	id := s.Put(&domain.Snapshot{})

	if err := s.Delete(id); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := s.Delete(id); !errors.Is(err, domain.ErrSnapshotNotFound) {
		t.Errorf("expected not found on second delete, got %v", err)
	}
	if _, err := s.Get(id); !errors.Is(err, domain.ErrSnapshotNotFound) {
		t.Errorf("expected not found after delete, got %v", err)
	}
}
