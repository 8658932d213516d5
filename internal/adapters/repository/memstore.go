package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/okian/detbench/pkg/metrics"
)

const defaultMaxRecords = 100_000

// MemoryStore is an in-memory Store guarded by a RWMutex.
type MemoryStore struct {
	mu         sync.RWMutex
	byID       map[string]Record
	finished   []string // insertion order of finished records, for eviction
	maxRecords int
}

// NewMemoryStore constructs a store with configuration options.
func NewMemoryStore(opts ...Option) *MemoryStore {
	s := &MemoryStore{
		byID:       make(map[string]Record),
		maxRecords: defaultMaxRecords,
	}
	for _, opt := range opts {
		opt(s)
	}
	metrics.UpdateStoredReports(0)
	return s
}

// Put implements Store.Put.
func (s *MemoryStore) Put(ctx context.Context, r Record) error { //nolint:gocritic // hugeParam: records are values
	if r.JobID == "" {
		metrics.RecordErrorByComponent("repository", "invalid_record")
		return ErrInvalidRecord
	}

	s.mu.Lock()
	prev, existed := s.byID[r.JobID]
	s.byID[r.JobID] = r
	if r.Status != StatusPending && (!existed || prev.Status == StatusPending) {
		s.finished = append(s.finished, r.JobID)
		s.evictLocked()
	}
	count := len(s.byID)
	s.mu.Unlock()

	metrics.UpdateStoredReports(count)
	return nil
}

// evictLocked drops the oldest finished records beyond maxRecords.
func (s *MemoryStore) evictLocked() {
	for len(s.byID) > s.maxRecords && len(s.finished) > 0 {
		oldest := s.finished[0]
		s.finished = s.finished[1:]
		delete(s.byID, oldest)
	}
}

// Get implements Store.Get.
func (s *MemoryStore) Get(ctx context.Context, id string) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.byID[id]
	if !ok {
		metrics.RecordErrorByComponent("repository", "not_found")
		return Record{}, ErrNotFound
	}
	return r, nil
}

// List implements Store.List.
func (s *MemoryStore) List(ctx context.Context, limit int) ([]Record, error) {
	if limit < 1 {
		metrics.RecordErrorByComponent("repository", "invalid_limit")
		return nil, ErrInvalidLimit
	}

	s.mu.RLock()
	all := make([]Record, 0, len(s.byID))
	for _, r := range s.byID {
		r.Rank = 0
		all = append(all, r)
	}
	s.mu.RUnlock()

	sortRecords(all)
	assignRanksWithTies(all)

	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

// Count implements Store.Count.
func (s *MemoryStore) Count(ctx context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}

func scored(r *Record) bool {
	return r.Status == StatusDone && r.Report != nil
}

// sortRecords orders scored records by F1 desc then job id, then the rest by job id.
func sortRecords(rs []Record) {
	sort.Slice(rs, func(i, j int) bool {
		a, b := &rs[i], &rs[j]
		sa, sb := scored(a), scored(b)
		if sa != sb {
			return sa
		}
		if sa && a.Report.F1 != b.Report.F1 {
			return a.Report.F1 > b.Report.F1
		}
		return a.JobID < b.JobID
	})
}

// assignRanksWithTies ranks the scored prefix. Records with the same F1 share
// a rank and the next distinct score takes the next consecutive rank.
func assignRanksWithTies(rs []Record) {
	rank := 0
	for i := range rs {
		if !scored(&rs[i]) {
			return
		}
		if i == 0 || rs[i].Report.F1 != rs[i-1].Report.F1 {
			rank++
		}
		rs[i].Rank = rank
	}
}
