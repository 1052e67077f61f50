package backend

import (
	"log"
	"sync"
	"time"

	"tradedeck/internal/metrics"
)

// Session tracks authorization state shared by the pull and push channels.
// An authorization failure on either channel invalidates the session once,
// which stops both channels until Resume re-arms them with a fresh token.
type Session struct {
	mu            sync.RWMutex
	token         string
	valid         bool
	reason        error
	invalidatedAt time.Time
	onInvalidate  func(error)
}

// NewSession creates a valid session holding the given bearer token.
func NewSession(token string) *Session {
	return &Session{token: token, valid: true}
}

// OnInvalidate registers a callback fired once per invalidation, outside the
// session lock.
func (s *Session) OnInvalidate(fn func(error)) {
	s.mu.Lock()
	s.onInvalidate = fn
	s.mu.Unlock()
}

// Token returns the current bearer token.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Valid reports whether the session is authorized.
func (s *Session) Valid() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.valid
}

// Reason returns when and why the session was invalidated; the zero time
// means it never was.
func (s *Session) Reason() (time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.invalidatedAt, s.reason
}

// Invalidate marks the session unauthorized. Repeat calls after the first
// are no-ops so a burst of 401s across channels escalates exactly once.
func (s *Session) Invalidate(err error) {
	s.mu.Lock()
	if !s.valid {
		s.mu.Unlock()
		return
	}
	s.valid = false
	s.reason = err
	s.invalidatedAt = time.Now()
	fn := s.onInvalidate
	s.mu.Unlock()

	log.Printf("session: invalidated, sync paused until re-authentication: %v", err)
	metrics.SessionInvalidations.Inc()
	if fn != nil {
		fn(err)
	}
}

// Resume re-arms the session with a fresh token; the pull and push channels
// pick it up on their next cycle.
func (s *Session) Resume(token string) {
	s.mu.Lock()
	s.token = token
	s.valid = true
	s.reason = nil
	s.invalidatedAt = time.Time{}
	s.mu.Unlock()
	log.Printf("session: resumed")
}
