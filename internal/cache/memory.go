package cache

import (
	"context"
	"sync"
	"time"

	"github.com/garagedata/vehiclefacts/internal/model"
)

type memoryEntry struct {
	report    *model.ResolutionReport
	createdAt time.Time
	class     TTLClass
}

// MemoryStore is a concurrency-safe in-process cache backend. Entries
// are never swept; expiry is checked lazily on Get.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	ttl     TTLConfig
	now     func() time.Time
}

// NewMemory creates an in-memory cache store.
func NewMemory(ttl TTLConfig) *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// WithNow fixes the clock for testing.
func (s *MemoryStore) WithNow(now func() time.Time) *MemoryStore {
	s.now = now
	return s
}

func (s *MemoryStore) Get(_ context.Context, key model.VehicleKey) (*model.ResolutionReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[key.CacheKey()]
	if !ok {
		return nil, nil
	}
	if s.now().Sub(e.createdAt) > s.ttl.For(e.class) {
		return nil, nil
	}
	return e.report, nil
}

func (s *MemoryStore) Put(_ context.Context, key model.VehicleKey, rep *model.ResolutionReport) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[key.CacheKey()] = memoryEntry{
		report:    rep,
		createdAt: s.now(),
		class:     ClassFor(rep),
	}
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, key model.VehicleKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, key.CacheKey())
	return nil
}

func (s *MemoryStore) Close() error { return nil }
