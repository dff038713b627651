package controller

import (
	"sync"

	"handyman-auth/internal/auth"
)

// Phase is the coarse authentication status derived from a State.
type Phase string

const (
	Anonymous      Phase = "anonymous"
	Authenticating Phase = "authenticating"
	Authenticated  Phase = "authenticated"
)

// State is a point-in-time snapshot of the session. Snapshots are values;
// the Identity they point to must be treated as read-only.
type State struct {
	Identity    *auth.Identity
	InProgress  bool
	LastFailure string
}

// Phase reports which of the three authentication phases s is in.
func (s State) Phase() Phase {
	switch {
	case s.InProgress:
		return Authenticating
	case s.Identity != nil:
		return Authenticated
	default:
		return Anonymous
	}
}

// SignedIn reports whether s holds an identity.
func (s State) SignedIn() bool {
	return s.Identity != nil
}

// Store is a single-writer, many-reader holder for State with latest-value
// push notification. A reader that falls behind only sees the newest
// snapshot. Store is safe for concurrent use.
type Store struct {
	mu       sync.Mutex
	current  State
	revision uint64
	subs     map[uint64]chan State
	nextSub  uint64
}

// NewStore returns a Store seeded with initial.
func NewStore(initial State) *Store {
	return &Store{
		current: initial,
		subs:    make(map[uint64]chan State),
	}
}

// Load returns the current snapshot.
func (s *Store) Load() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Revision counts applied changes. It does not move on no-op updates.
func (s *Store) Revision() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.revision
}

// Subscribe returns a channel that immediately holds the current snapshot
// and then receives every later change, coalesced to the latest value.
// The returned function cancels the subscription and closes the channel.
func (s *Store) Subscribe() (<-chan State, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextSub
	s.nextSub++
	ch := make(chan State, 1)
	ch <- s.current
	s.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if c, ok := s.subs[id]; ok {
				delete(s.subs, id)
				close(c)
			}
		})
	}
}

// Update applies fn to the current snapshot. When fn reports changed=false
// nothing is written and no subscriber is notified.
func (s *Store) Update(fn func(State) (State, bool)) (State, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, changed := fn(s.current)
	if !changed {
		return s.current, false
	}
	s.current = next
	s.revision++
	for _, ch := range s.subs {
		publish(ch, next)
	}
	return next, true
}

// closeAll ends every subscription.
func (s *Store) closeAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, ch := range s.subs {
		delete(s.subs, id)
		close(ch)
	}
}

// publish replaces any unread snapshot in ch with st. Callers hold the
// store lock, so ch has no other sender and the send cannot block.
func publish(ch chan State, st State) {
	select {
	case <-ch:
	default:
	}
	ch <- st
}
