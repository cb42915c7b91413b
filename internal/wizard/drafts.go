package wizard

import (
	"sync"

	"github.com/T44VI/raittiusseuranhakubot/internal/domain"
)

// DraftStore holds at most one in-progress draft per session. Drafts
// live in memory only: nothing survives a process restart, and no
// session can see another session's draft.
type DraftStore struct {
	mu     sync.RWMutex
	drafts map[string]domain.Draft
}

// NewDraftStore creates an empty draft store.
func NewDraftStore() *DraftStore {
	return &DraftStore{drafts: make(map[string]domain.Draft)}
}

// Get returns the session's draft, or the empty default if none exists.
func (s *DraftStore) Get(sessionID string) domain.Draft {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.drafts[sessionID]
}

// Set replaces the session's draft.
func (s *DraftStore) Set(sessionID string, d domain.Draft) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.drafts[sessionID] = d
}
