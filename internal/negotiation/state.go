package negotiation

import "sync"

// State is the mutable progress of one load's negotiation. Exactly one State
// exists per load at a time and only the holder of its session may touch it.
type State struct {
	Attempts       int
	LastAgentOffer *float64
}

type entry struct {
	mu      sync.Mutex
	removed bool
	state   State
}

// StateStore maps load identifiers to negotiation state. Sessions for the
// same load are serialized; sessions for different loads never block each
// other beyond the brief map lookup.
type StateStore struct {
	mu      sync.Mutex
	entries map[string]*entry
}

// NewStateStore creates an empty store.
func NewStateStore() *StateStore {
	return &StateStore{entries: make(map[string]*entry)}
}

// Session is an exclusive hold on one load's state. It must be ended exactly
// once; the state pointer is only valid until End.
type Session struct {
	store  *StateStore
	loadID string
	entry  *entry
	ended  bool
}

// Begin acquires the per-load lock, creating fresh state on first touch.
// If the entry was removed while this caller waited for its lock, the lookup
// restarts so the caller always ends up holding a live entry.
func (s *StateStore) Begin(loadID string) *Session {
	for {
		s.mu.Lock()
		e, ok := s.entries[loadID]
		if !ok {
			e = &entry{}
			s.entries[loadID] = e
		}
		s.mu.Unlock()

		e.mu.Lock()
		if e.removed {
			e.mu.Unlock()
			continue
		}
		return &Session{store: s, loadID: loadID, entry: e}
	}
}

// State returns the held state for mutation.
func (sess *Session) State() *State {
	return &sess.entry.state
}

// Remove deletes the state while still holding the session. Subsequent Begin
// calls for the load start from scratch.
func (sess *Session) Remove() {
	if sess.ended || sess.entry.removed {
		return
	}
	sess.entry.removed = true
	sess.store.mu.Lock()
	if current, ok := sess.store.entries[sess.loadID]; ok && current == sess.entry {
		delete(sess.store.entries, sess.loadID)
	}
	sess.store.mu.Unlock()
}

// End releases the per-load lock.
func (sess *Session) End() {
	if sess.ended {
		return
	}
	sess.ended = true
	sess.entry.mu.Unlock()
}

// Remove deletes state outside a session. Removing an absent load is a no-op.
func (s *StateStore) Remove(loadID string) {
	s.mu.Lock()
	e, ok := s.entries[loadID]
	s.mu.Unlock()
	if !ok {
		return
	}
	e.mu.Lock()
	if !e.removed {
		e.removed = true
		s.mu.Lock()
		if current, ok := s.entries[loadID]; ok && current == e {
			delete(s.entries, loadID)
		}
		s.mu.Unlock()
	}
	e.mu.Unlock()
}

// Len reports the number of loads with live negotiation state.
func (s *StateStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
