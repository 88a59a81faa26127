package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/okian/setres/internal/domain/build"
	"github.com/okian/setres/pkg/metrics"
)

type memoryEntry struct {
	rec      build.Record
	cachedAt time.Time
}

// MemoryStore is an in-process Store.
type MemoryStore struct {
	mu      sync.RWMutex
	order   []key
	entries map[key]memoryEntry
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[key]memoryEntry)}
}

// Put implements Store.
func (s *MemoryStore) Put(_ context.Context, records []build.Record, cachedAt time.Time) error {
	start := time.Now()
	recs := sealed(records)
	for i := range recs {
		if recs[i].Species == "" {
			metrics.RecordCacheOperation("put", "invalid", msSince(start))
			return fmt.Errorf("%w: record %d has no species", ErrInvalid, i)
		}
	}

	s.mu.Lock()
	for _, r := range recs {
		k := keyOf(&r)
		if _, ok := s.entries[k]; !ok {
			s.order = append(s.order, k)
		}
		s.entries[k] = memoryEntry{rec: r, cachedAt: cachedAt}
	}
	n := len(s.entries)
	s.mu.Unlock()

	metrics.UpdateCacheRecords(n)
	metrics.RecordCacheOperation("put", "ok", msSince(start))
	return nil
}

// ByFormat implements Store.
func (s *MemoryStore) ByFormat(_ context.Context, gen int, format string) ([]build.Record, error) {
	return s.filter("by_format", func(r *build.Record) bool {
		return r.Gen == gen && (format == "" || r.Format == format)
	}), nil
}

// BySource implements Store.
func (s *MemoryStore) BySource(_ context.Context, gen int, source build.Source) ([]build.Record, error) {
	return s.filter("by_source", func(r *build.Record) bool {
		return r.Gen == gen && r.Source == source
	}), nil
}

func (s *MemoryStore) filter(op string, keep func(*build.Record) bool) []build.Record {
	start := time.Now()
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []build.Record
	for _, k := range s.order {
		e := s.entries[k]
		if keep(&e.rec) {
			out = append(out, e.rec)
		}
	}
	metrics.RecordCacheOperation(op, "ok", msSince(start))
	return out
}

// Prune implements Store.
func (s *MemoryStore) Prune(_ context.Context, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.order[:0]
	dropped := 0
	for _, k := range s.order {
		if s.entries[k].cachedAt.Before(cutoff) {
			delete(s.entries, k)
			dropped++
			continue
		}
		kept = append(kept, k)
	}
	s.order = kept
	metrics.UpdateCacheRecords(len(s.entries))
	return dropped, nil
}

// Count implements Store.
func (s *MemoryStore) Count(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

func msSince(t time.Time) float64 {
	return float64(time.Since(t).Microseconds()) / 1000
}
