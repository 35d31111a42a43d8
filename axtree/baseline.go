package axtree

import (
	"sort"
	"sync"
)

// DefaultBaselineKey is used when the caller supplies no key.
const DefaultBaselineKey = "default"

// BaselineStore is a session-scoped, named collection of snapshots used as
// the "before" side of comparisons. It is an explicit object handed to its
// owner, never hidden process-wide state, so tests build isolated stores.
//
// The orchestration contract is one active comparison per key at a time;
// the mutex only keeps concurrent readers (the HTTP debug surface) safe
// against a writer, it does not make read-then-write sequences atomic.
type BaselineStore struct {
	mu        sync.RWMutex
	baselines map[string]*Snapshot
}

// NewBaselineStore creates an empty store.
func NewBaselineStore() *BaselineStore {
	return &BaselineStore{baselines: make(map[string]*Snapshot)}
}

// Get returns the snapshot stored under key, if any. A blank key means the
// default key.
func (s *BaselineStore) Get(key string) (*Snapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap, ok := s.baselines[normalizeKey(key)]
	return snap, ok
}

// Set stores snap under key, replacing any previous snapshot.
func (s *BaselineStore) Set(key string, snap *Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.baselines[normalizeKey(key)] = snap
}

// Delete removes the snapshot stored under key.
func (s *BaselineStore) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.baselines, normalizeKey(key))
}

// Keys returns the stored baseline keys, sorted.
func (s *BaselineStore) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.baselines))
	for k := range s.baselines {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func normalizeKey(key string) string {
	if key == "" {
		return DefaultBaselineKey
	}
	return key
}
