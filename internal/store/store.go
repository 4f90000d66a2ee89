// Package store implements the Global Store (§4.3): a process-wide
// mapping from (watcherId, subject) to the last value a watcher wrote
// for that subject. It backs dependency gating (§4.2c) and
// "${store.<watcherId>.<subject>}" placeholder lookups (§4.1), and is
// the one piece of state every watcher goroutine shares.
package store

import "sync"

// key identifies one Global Store slot.
type key struct {
	watcherID string
	subject   string
}

// Store is a reader-writer-guarded (watcherId, subject) -> value map.
// It has no eviction policy and no persistence: entries live for the
// process lifetime and are lost on restart, matching §6's "Persisted
// state: none."
type Store struct {
	mu     sync.RWMutex
	values map[key]any
}

// New returns an empty Store ready for use.
func New() *Store {
	return &Store{values: make(map[key]any)}
}

// Update upserts the value for (watcherID, subject). Writers hold the
// lock only for the duration of the upsert, per §5's shared-resource
// rule.
func (s *Store) Update(watcherID, subject string, v any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key{watcherID, subject}] = v
}

// Get returns the value stored for (watcherID, subject) and whether
// one has ever been written. Readers snapshot a single pair per call
// and do not hold the lock across any caller-side work.
func (s *Store) Get(watcherID, subject string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key{watcherID, subject}]
	return v, ok
}
