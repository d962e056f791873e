package domain

import (
	"context"
	"errors"
	"sync"
)

// ErrNotFound reports a subject id with no backing identity.
var ErrNotFound = errors.New("identity not found")

// Identity is the slice of a user this core needs: who they are and where
// to reach them. Everything else about users lives with the user-storage
// collaborator.
type Identity struct {
	ID    string
	Email string
}

// IdentityStore is the user-storage collaborator interface. The CRUD side
// of the application implements it over its relational layer.
type IdentityStore interface {
	// LookupIdentity resolves an opaque subject id, or ErrNotFound.
	LookupIdentity(ctx context.Context, subjectID string) (Identity, error)
}

// StaticIdentityStore is a map-backed IdentityStore for tests and for
// running the service standalone.
type StaticIdentityStore struct {
	mu  sync.RWMutex
	ids map[string]Identity
}

func NewStaticIdentityStore(identities ...Identity) *StaticIdentityStore {
	s := &StaticIdentityStore{ids: make(map[string]Identity, len(identities))}
	for _, id := range identities {
		s.ids[id.ID] = id
	}
	return s
}

func (s *StaticIdentityStore) Add(identity Identity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ids[identity.ID] = identity
}

func (s *StaticIdentityStore) Remove(subjectID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.ids, subjectID)
}

func (s *StaticIdentityStore) LookupIdentity(_ context.Context, subjectID string) (Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	identity, ok := s.ids[subjectID]
	if !ok {
		return Identity{}, ErrNotFound
	}
	return identity, nil
}
