package repository

import (
	"sync"
	"time"

	"github.com/dskvich/chatgpt-slack-bridge/pkg/domain"
)

type sessionEntry struct {
	turns      []domain.ConversationTurn
	lastUpdate time.Time
}

// sessionRepository keeps per-session conversation turns in memory.
// Entries expire ttl after their last update; nothing is persisted.
type sessionRepository struct {
	mu       sync.Mutex
	sessions map[string]sessionEntry
	ttl      time.Duration
	now      func() time.Time
}

func NewSessionRepository(ttl time.Duration) *sessionRepository {
	return &sessionRepository{
		sessions: make(map[string]sessionEntry),
		ttl:      ttl,
		now:      time.Now,
	}
}

func (r *sessionRepository) Get(sessionID string) ([]domain.ConversationTurn, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.sessions[sessionID]
	if !ok {
		return nil, false
	}
	if r.expired(entry) {
		delete(r.sessions, sessionID)
		return nil, false
	}

	turns := make([]domain.ConversationTurn, len(entry.turns))
	copy(turns, entry.turns)
	return turns, true
}

func (r *sessionRepository) Append(sessionID string, turns ...domain.ConversationTurn) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.sessions[sessionID]
	if !ok || r.expired(entry) {
		entry = sessionEntry{}
	}
	entry.turns = append(entry.turns, turns...)
	entry.lastUpdate = r.now()
	r.sessions[sessionID] = entry
}

func (r *sessionRepository) Clear(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.sessions, sessionID)
}

func (r *sessionRepository) expired(entry sessionEntry) bool {
	return r.ttl > 0 && r.now().Sub(entry.lastUpdate) > r.ttl
}
