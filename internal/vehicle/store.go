package vehicle

import (
	"sync"

	"carsim/backend/internal/geo"
)

// SessionDiff groups updated states and removed session identifiers for a tick.
type SessionDiff struct {
	Updated []State
	Removed []string
}

// SessionStore maintains the authoritative per-session vehicle states with
// dirty tracking so publishers only fan out what changed.
type SessionStore struct {
	mu      sync.RWMutex
	states  map[string]State
	dirty   map[string]struct{}
	removed map[string]struct{}
}

// NewSessionStore constructs a thread-safe session container.
func NewSessionStore() *SessionStore {
	return &SessionStore{
		states:  make(map[string]State),
		dirty:   make(map[string]struct{}),
		removed: make(map[string]struct{}),
	}
}

// Ensure fetches the session state, creating a fresh vehicle at the default
// spawn when the session is new. The returned state is a clone.
func (s *SessionStore) Ensure(sessionID string) State {
	if s == nil || sessionID == "" {
		return NewState(geo.Coordinate{})
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	state, ok := s.states[sessionID]
	if !ok {
		//1.- Spawn the vehicle engine-off in neutral at the default position.
		state = NewState(geo.Coordinate{})
		state.SessionID = sessionID
		s.states[sessionID] = state
		s.dirty[sessionID] = struct{}{}
		delete(s.removed, sessionID)
	}
	return state.Clone()
}

// Put records or updates the session state and flags it for the next diff.
func (s *SessionStore) Put(sessionID string, state State) {
	if s == nil || sessionID == "" {
		return
	}

	s.mu.Lock()
	//1.- Store a clone so callers cannot mutate the authoritative copy afterwards.
	state.SessionID = sessionID
	s.states[sessionID] = state.Clone()
	delete(s.removed, sessionID)
	s.dirty[sessionID] = struct{}{}
	s.mu.Unlock()
}

// Get returns a defensive clone of the stored state if the session exists.
func (s *SessionStore) Get(sessionID string) (State, bool) {
	if s == nil || sessionID == "" {
		return State{}, false
	}

	s.mu.RLock()
	state, ok := s.states[sessionID]
	s.mu.RUnlock()
	if !ok {
		return State{}, false
	}
	return state.Clone(), true
}

// Reset reinitialises the session at the supplied position (default spawn when
// zero-valued) and marks it dirty.
func (s *SessionStore) Reset(sessionID string, position geo.Coordinate) State {
	if s == nil || sessionID == "" {
		return NewState(position)
	}

	state := NewState(position)
	state.SessionID = sessionID
	s.mu.Lock()
	s.states[sessionID] = state
	delete(s.removed, sessionID)
	s.dirty[sessionID] = struct{}{}
	s.mu.Unlock()
	return state.Clone()
}

// Remove deletes the session and marks its identifier for removal in the diff.
func (s *SessionStore) Remove(sessionID string) {
	if s == nil || sessionID == "" {
		return
	}

	s.mu.Lock()
	delete(s.states, sessionID)
	delete(s.dirty, sessionID)
	s.removed[sessionID] = struct{}{}
	s.mu.Unlock()
}

// Sessions returns the identifiers of all live sessions.
func (s *SessionStore) Sessions() []string {
	if s == nil {
		return nil
	}

	s.mu.RLock()
	ids := make([]string, 0, len(s.states))
	for id := range s.states {
		ids = append(ids, id)
	}
	s.mu.RUnlock()
	return ids
}

// Len reports the number of live sessions.
func (s *SessionStore) Len() int {
	if s == nil {
		return 0
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.states)
}

// ConsumeDiff collects and clears the pending updates and removals.
func (s *SessionStore) ConsumeDiff() SessionDiff {
	if s == nil {
		return SessionDiff{}
	}

	s.mu.Lock()
	//1.- Snapshot the dirty and removed identifiers under lock.
	dirtyIDs := make([]string, 0, len(s.dirty))
	for id := range s.dirty {
		dirtyIDs = append(dirtyIDs, id)
	}
	removedIDs := make([]string, 0, len(s.removed))
	for id := range s.removed {
		removedIDs = append(removedIDs, id)
	}

	//2.- Reset the trackers before releasing the lock.
	s.dirty = make(map[string]struct{})
	s.removed = make(map[string]struct{})

	//3.- Clone the states corresponding to the dirty identifiers.
	updated := make([]State, 0, len(dirtyIDs))
	for _, id := range dirtyIDs {
		state, ok := s.states[id]
		if !ok {
			continue
		}
		updated = append(updated, state.Clone())
	}
	s.mu.Unlock()

	return SessionDiff{Updated: updated, Removed: removedIDs}
}

// Snapshot returns every stored session state as a defensive clone keyed by session.
func (s *SessionStore) Snapshot() map[string]State {
	if s == nil {
		return nil
	}

	s.mu.RLock()
	snapshot := make(map[string]State, len(s.states))
	for id, state := range s.states {
		snapshot[id] = state.Clone()
	}
	s.mu.RUnlock()
	return snapshot
}
