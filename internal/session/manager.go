package session

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spam-detector/webui/internal/metrics"
	"github.com/spam-detector/webui/internal/storage"
)

// MaxSessions limits concurrent sessions to prevent memory exhaustion
const MaxSessions = 1000

// SessionKeepAliveWindow is how long a recently used session survives cleanup
// regardless of maxAge.
const SessionKeepAliveWindow = 5 * time.Minute

// Manager holds the per-browser sessions.
type Manager struct {
	sessions map[string]*Session
	mu       sync.RWMutex
	store    storage.Store
	logger   *zap.Logger
	max      int
}

// NewManager creates a session manager. Blobs of uploads held by a session
// are deleted from store when the session goes away.
func NewManager(store storage.Store, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		sessions: make(map[string]*Session),
		store:    store,
		logger:   logger,
		max:      MaxSessions,
	}
}

// Create starts a new empty session.
func (m *Manager) Create() *Session {
	m.evictIfNeeded()

	s := newSession(uuid.New().String())

	m.mu.Lock()
	m.sessions[s.ID] = s
	n := len(m.sessions)
	m.mu.Unlock()

	metrics.SetActiveSessions(n)
	return s
}

// Get returns a session by ID and marks it as used.
func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, false
	}
	s.touch()
	return s, true
}

// GetOrCreate returns the session for id, or a new one when id is unknown.
// The boolean reports whether a new session was created.
func (m *Manager) GetOrCreate(id string) (*Session, bool) {
	if id != "" {
		if s, ok := m.Get(id); ok {
			return s, false
		}
	}
	return m.Create(), true
}

// Delete drops a session and its held upload.
func (m *Manager) Delete(id string) bool {
	m.mu.Lock()
	s, ok := m.sessions[id]
	if ok {
		delete(m.sessions, id)
	}
	n := len(m.sessions)
	m.mu.Unlock()

	if ok {
		m.release(s)
		metrics.SetActiveSessions(n)
	}
	return ok
}

// Count returns the number of live sessions.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// CleanupOldSessions removes sessions idle for longer than maxAge, but keeps
// sessions accessed within SessionKeepAliveWindow or with a request in flight.
// It returns the number of sessions removed.
func (m *Manager) CleanupOldSessions(maxAge time.Duration) int {
	now := time.Now()
	cutoff := now.Add(-maxAge)
	keepAliveCutoff := now.Add(-SessionKeepAliveWindow)

	var expired []*Session

	m.mu.Lock()
	for id, s := range m.sessions {
		last := s.LastAccessed()
		if last.After(keepAliveCutoff) || s.busy() {
			continue
		}
		if last.Before(cutoff) {
			expired = append(expired, s)
			delete(m.sessions, id)
		}
	}
	n := len(m.sessions)
	m.mu.Unlock()

	for _, s := range expired {
		m.release(s)
		m.logger.Debug("cleaned up aged session",
			zap.String("session", shortID(s.ID)),
			zap.Duration("idle", now.Sub(s.LastAccessed()).Round(time.Second)))
	}
	metrics.SetActiveSessions(n)

	return len(expired)
}

// evictIfNeeded removes the least recently used idle sessions when at capacity.
func (m *Manager) evictIfNeeded() {
	m.mu.Lock()
	if len(m.sessions) < m.max {
		m.mu.Unlock()
		return
	}

	candidates := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		if !s.busy() {
			candidates = append(candidates, s)
		}
	}
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].LastAccessed().Before(candidates[j].LastAccessed())
	})

	toFree := len(m.sessions) - m.max + 1
	var evicted []*Session
	for _, s := range candidates {
		if len(evicted) >= toFree {
			break
		}
		delete(m.sessions, s.ID)
		evicted = append(evicted, s)
	}
	m.mu.Unlock()

	for _, s := range evicted {
		m.release(s)
		m.logger.Info("evicted session to free memory", zap.String("session", shortID(s.ID)))
	}
}

// release deletes the upload blob a dropped session was holding.
func (m *Manager) release(s *Session) {
	if m.store == nil {
		return
	}
	if fileID := s.HeldFileID(); fileID != "" {
		if err := m.store.Delete(fileID); err != nil {
			m.logger.Debug("failed to delete session upload", zap.String("file", fileID), zap.Error(err))
		}
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
