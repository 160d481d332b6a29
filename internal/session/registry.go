package session

import (
	"errors"
	"sync"
)

var (
	// ErrCapacity reports that the active-session ceiling is reached.
	ErrCapacity = errors.New("session capacity reached")
	// ErrDuplicateLead reports a second connection for an active lead.
	ErrDuplicateLead = errors.New("session already active for this lead")
)

// Registry is the only state shared across calls: a mutex-guarded map
// from lead identifier to Session, bounded by the configured ceiling.
// Admission and removal are the only mutations.
type Registry struct {
	mu       sync.Mutex
	max      int
	sessions map[string]*Session
}

func NewRegistry(max int) *Registry {
	return &Registry{
		max:      max,
		sessions: make(map[string]*Session),
	}
}

// Admit registers a session under its lead identifier. Admission fails
// without side effects when the ceiling is reached or the lead already
// has an active session; existing sessions are unaffected either way.
func (r *Registry) Admit(s *Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.sessions) >= r.max {
		return ErrCapacity
	}
	if _, ok := r.sessions[s.LeadID()]; ok {
		return ErrDuplicateLead
	}
	r.sessions[s.LeadID()] = s
	return nil
}

// Remove deregisters and returns the session for a lead, or nil if none
// is registered. The caller owns the termination path.
func (r *Registry) Remove(leadID string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[leadID]
	if !ok {
		return nil
	}
	delete(r.sessions, leadID)
	return s
}

// Drain removes every registered session and terminates each. The
// listener is already closed when this runs during shutdown, so no
// admission races the sweep; Terminate stays idempotent against a
// concurrent socket-teardown path.
func (r *Registry) Drain() {
	r.mu.Lock()
	draining := make([]*Session, 0, len(r.sessions))
	for leadID, s := range r.sessions {
		draining = append(draining, s)
		delete(r.sessions, leadID)
	}
	r.mu.Unlock()

	for _, s := range draining {
		s.Terminate()
	}
}

// Count returns the number of active sessions.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
