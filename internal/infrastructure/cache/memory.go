package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/buildcrew/fieldreport-api/internal/domain/report"
	domainRepo "github.com/buildcrew/fieldreport-api/internal/domain/repository"
	"github.com/google/uuid"
)

// MemoryBackupStore is an in-memory snapshot cache, used in tests and when
// no Redis address is configured. Snapshots are stored serialized so the
// round trip matches the Redis implementation.
type MemoryBackupStore struct {
	mu    sync.RWMutex
	items map[string][]byte
}

// NewMemoryBackupStore creates an empty in-memory backup store
func NewMemoryBackupStore() *MemoryBackupStore {
	return &MemoryBackupStore{items: make(map[string][]byte)}
}

var _ domainRepo.BackupStore = (*MemoryBackupStore)(nil)

func (s *MemoryBackupStore) Get(_ context.Context, actorID uuid.UUID, date time.Time) (*report.Snapshot, error) {
	s.mu.RLock()
	data, ok := s.items[backupKey(actorID, date)]
	s.mu.RUnlock()
	if !ok {
		return nil, nil
	}

	var snap report.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

func (s *MemoryBackupStore) Set(_ context.Context, actorID uuid.UUID, date time.Time, snap *report.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.items[backupKey(actorID, date)] = data
	s.mu.Unlock()
	return nil
}

func (s *MemoryBackupStore) Remove(_ context.Context, actorID uuid.UUID, date time.Time) error {
	s.mu.Lock()
	delete(s.items, backupKey(actorID, date))
	s.mu.Unlock()
	return nil
}

// Len reports how many snapshots are cached
func (s *MemoryBackupStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}
