package sync

import "sync"

// inflightSet is the per-connection single-flight guard. DuplicateGuard's
// check-then-act is not atomic, so two concurrent passes over the same
// connection could both see "no match" and insert twice. The status=syncing
// column is advisory only; this is the actual lock. The unique index on
// (user_id, external_transaction_id) remains the datastore backstop.
type inflightSet struct {
	mu     sync.Mutex
	active map[int64]struct{}
}

func newInflightSet() *inflightSet {
	return &inflightSet{active: make(map[int64]struct{})}
}

// acquire reports whether the caller now owns the slot for id. It never
// blocks: a second concurrent sync is refused, not queued.
func (s *inflightSet) acquire(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.active[id]; busy {
		return false
	}
	s.active[id] = struct{}{}
	return true
}

func (s *inflightSet) release(id int64) {
	s.mu.Lock()
	delete(s.active, id)
	s.mu.Unlock()
}
