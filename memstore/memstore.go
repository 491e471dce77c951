// Package memstore provides an in-memory authcore.IdentityStore for
// development and tests. Data does not survive the process.
package memstore

import (
	"context"
	"strings"
	"sync"

	"github.com/hallgard/authcore"
)

// Store holds identities in a map guarded by a mutex.
type Store struct {
	mu    sync.RWMutex
	byID  map[string]*authcore.Identity
	index map[string]string // identifier -> id
}

func New() *Store {
	return &Store{
		byID:  make(map[string]*authcore.Identity),
		index: make(map[string]string),
	}
}

func normalize(identifier string) string {
	return strings.ToLower(strings.TrimSpace(identifier))
}

func (s *Store) FindByIdentifier(_ context.Context, identifier string) (*authcore.Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.index[normalize(identifier)]
	if !ok {
		return nil, authcore.ErrIdentityNotFound
	}
	return cloneIdentity(s.byID[id]), nil
}

func (s *Store) FindByID(_ context.Context, id string) (*authcore.Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	identity, ok := s.byID[id]
	if !ok {
		return nil, authcore.ErrIdentityNotFound
	}
	return cloneIdentity(identity), nil
}

func (s *Store) Create(_ context.Context, identity *authcore.Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, ident := range []string{identity.Email, identity.Phone} {
		if ident == "" {
			continue
		}
		if _, taken := s.index[normalize(ident)]; taken {
			return authcore.ErrIdentifierTaken
		}
	}
	if _, exists := s.byID[identity.ID]; exists {
		return authcore.ErrIdentifierTaken
	}

	s.byID[identity.ID] = cloneIdentity(identity)
	s.reindex(identity)
	return nil
}

func (s *Store) Update(_ context.Context, identity *authcore.Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, ok := s.byID[identity.ID]
	if !ok {
		return authcore.ErrIdentityNotFound
	}
	for _, ident := range []string{prev.Email, prev.Phone} {
		if ident != "" {
			delete(s.index, normalize(ident))
		}
	}

	s.byID[identity.ID] = cloneIdentity(identity)
	s.reindex(identity)
	return nil
}

func (s *Store) reindex(identity *authcore.Identity) {
	for _, ident := range []string{identity.Email, identity.Phone} {
		if ident != "" {
			s.index[normalize(ident)] = identity.ID
		}
	}
}

func cloneIdentity(identity *authcore.Identity) *authcore.Identity {
	out := *identity
	return &out
}
