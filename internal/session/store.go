// Package session implements the interview session state machine on top of a
// fast key-value store.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/jonathan/interview-coach/internal/types"
)

// KeyPrefix namespaces session records in the cache.
const KeyPrefix = "history:"

// DefaultTTL is how long an unfinished session is retained.
const DefaultTTL = time.Hour

// Key returns the cache key for a session.
func Key(sessionID string) string {
	return KeyPrefix + sessionID
}

// Store persists whole session records. Replace must be a compare-and-swap on
// Session.Version so concurrent writers cannot both apply a change.
type Store interface {
	// Create stores s, failing with ErrExists if the id is taken
	Create(ctx context.Context, s *types.Session) error
	// Get returns a copy of the record or ErrNotFound
	Get(ctx context.Context, id string) (*types.Session, error)
	// Replace writes s only if the stored version equals expectedVersion,
	// otherwise ErrVersionConflict
	Replace(ctx context.Context, s *types.Session, expectedVersion int64) error
}

// MemoryStore is an in-process Store used by tests and single-node runs.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]memoryEntry
	ttl      time.Duration
	now      func() time.Time
}

type memoryEntry struct {
	session   *types.Session
	expiresAt time.Time
}

// NewMemoryStore returns an empty store. ttl <= 0 disables expiry.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]memoryEntry),
		ttl:      ttl,
		now:      time.Now,
	}
}

// Create implements Store.
func (m *MemoryStore) Create(_ context.Context, s *types.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.live(s.ID); ok {
		return ErrExists
	}
	m.put(s)
	return nil
}

// Get implements Store.
func (m *MemoryStore) Get(_ context.Context, id string) (*types.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.live(id)
	if !ok {
		return nil, ErrNotFound
	}
	return entry.session.Clone(), nil
}

// Replace implements Store.
func (m *MemoryStore) Replace(_ context.Context, s *types.Session, expectedVersion int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.live(s.ID)
	if !ok {
		return ErrNotFound
	}
	if entry.session.Version != expectedVersion {
		return ErrVersionConflict
	}
	m.put(s)
	return nil
}

func (m *MemoryStore) live(id string) (memoryEntry, bool) {
	entry, ok := m.sessions[id]
	if !ok {
		return memoryEntry{}, false
	}
	if !entry.expiresAt.IsZero() && m.now().After(entry.expiresAt) {
		delete(m.sessions, id)
		return memoryEntry{}, false
	}
	return entry, true
}

func (m *MemoryStore) put(s *types.Session) {
	entry := memoryEntry{session: s.Clone()}
	if m.ttl > 0 {
		entry.expiresAt = m.now().Add(m.ttl)
	}
	m.sessions[s.ID] = entry
}
