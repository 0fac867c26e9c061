package wizard

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

var ErrSessionNotFound = errors.New("wizard session not found")

// Store keeps live sessions in memory. Idle sessions expire after ttl and
// the least recently used one is evicted past capacity; either way its
// in-flight request is cancelled.
type Store struct {
	sessions *expirable.LRU[uuid.UUID, *Session]
}

func NewStore(capacity int, ttl time.Duration) *Store {
	onEvict := func(_ uuid.UUID, s *Session) {
		s.Abort()
	}
	return &Store{
		sessions: expirable.NewLRU[uuid.UUID, *Session](capacity, onEvict, ttl),
	}
}

func (st *Store) Put(s *Session) {
	st.sessions.Add(s.ID, s)
}

// Get returns the session and restarts its idle timer.
func (st *Store) Get(id uuid.UUID) (*Session, error) {
	s, ok := st.sessions.Get(id)
	if !ok {
		return nil, ErrSessionNotFound
	}
	st.sessions.Add(id, s)
	return s, nil
}

// Remove discards the session, cancelling any request in flight.
func (st *Store) Remove(id uuid.UUID) bool {
	return st.sessions.Remove(id)
}

func (st *Store) Len() int {
	return st.sessions.Len()
}
