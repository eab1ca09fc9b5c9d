package callstate

import "sync"

// Store maps call-id to CallState (§4.2). It is the only process-wide
// shared mutable object besides the config cache and outbound-pending
// store; a single mutex protects map structure, not per-entry fields
// (those are guarded by each CallState's own lock), matching the teacher's
// agentplexus-agentcall callmanager.Manager's `calls map[string]*CallState`
// + `callsMu` shape.
type Store struct {
	mu    sync.Mutex
	calls map[string]*CallState
}

// NewStore builds an empty call store.
func NewStore() *Store {
	return &Store{calls: make(map[string]*CallState)}
}

// GetOrCreate returns the existing CallState for callID, or inserts and
// returns a fresh one in StatusNew.
func (s *Store) GetOrCreate(callID string) *CallState {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cs, ok := s.calls[callID]; ok {
		return cs
	}
	cs := New(callID)
	s.calls[callID] = cs
	return cs
}

// Get returns the CallState for callID, if any.
func (s *Store) Get(callID string) (*CallState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cs, ok := s.calls[callID]
	return cs, ok
}

// Delete removes a call's entry. Transcription webhooks can arrive after a
// call reaches DONE, so an entry deleted at DONE is no longer found by them.
func (s *Store) Delete(callID string) {
	s.mu.Lock()
	delete(s.calls, callID)
	s.mu.Unlock()
}

// Len reports the number of tracked calls, mainly for health/metrics.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}
