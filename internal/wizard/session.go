package wizard

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Session is one user's wizard. All access to its state goes through the
// session lock; network calls happen with the lock released.
type Session struct {
	ID        uuid.UUID
	CreatedAt time.Time

	mu     sync.Mutex
	state  State
	cancel context.CancelFunc
}

func NewSession(now time.Time) *Session {
	return &Session{
		ID:        uuid.New(),
		CreatedAt: now,
		state:     NewState(),
	}
}

// Snapshot returns a copy of the current state.
func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// Update applies fn to the current state under the lock. The state is only
// replaced when fn succeeds.
func (s *Session) Update(fn func(State) (State, error)) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next, err := fn(s.state)
	if err != nil {
		return s.state.Clone(), err
	}
	s.state = next
	return next.Clone(), nil
}

// Abort cancels the request in flight, if any.
func (s *Session) Abort() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.abortLocked()
}

func (s *Session) abortLocked() {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}
