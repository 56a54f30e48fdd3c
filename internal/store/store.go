// Package store holds the in-memory table of active parties. All mutation
// of party contents is routed through the lifecycle manager and event
// relay; the store only guards the table itself.
package store

import (
	"sync"
	"time"

	"github.com/psds-microservice/watchparty-service/pkg/model"
)

// PartyStore is an in-memory table of active parties keyed by party code.
type PartyStore struct {
	mu      sync.RWMutex
	parties map[string]*model.Party
}

// New creates an empty store.
func New() *PartyStore {
	return &PartyStore{parties: make(map[string]*model.Party)}
}

// Put inserts or replaces a party.
func (s *PartyStore) Put(p *model.Party) {
	s.mu.Lock()
	s.parties[p.ID] = p
	s.mu.Unlock()
}

// Get returns the party with the given id, or false if unknown.
func (s *PartyStore) Get(id string) (*model.Party, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.parties[id]
	return p, ok
}

// Exists reports whether a party id is taken (used for code collision checks).
func (s *PartyStore) Exists(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.parties[id]
	return ok
}

// Delete removes a party.
func (s *PartyStore) Delete(id string) {
	s.mu.Lock()
	delete(s.parties, id)
	s.mu.Unlock()
}

// Len returns the number of parties, active or not.
func (s *PartyStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.parties)
}

// ActiveLen returns the number of parties with at least one participant.
func (s *PartyStore) ActiveLen() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, p := range s.parties {
		if len(p.Participants) > 0 {
			n++
		}
	}
	return n
}

// Expired returns ids of parties whose last activity is older than ttl,
// regardless of participant count.
func (s *PartyStore) Expired(now time.Time, ttl time.Duration) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var ids []string
	for id, p := range s.parties {
		if now.Sub(p.LastActivityAt) > ttl {
			ids = append(ids, id)
		}
	}
	return ids
}
