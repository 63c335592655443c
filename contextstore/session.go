package contextstore

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"

	"github.com/hupe1980/agenthive/core"
	"github.com/hupe1980/agenthive/logging"
)

const sessionFileName = "context.json"

// SessionInfo summarizes one session on disk.
type SessionInfo struct {
	SessionID       string `json:"session_id"`
	Archived        bool   `json:"archived"`
	KeyCount        int    `json:"key_count"`
	TotalSizeTokens int    `json:"total_size_tokens"`
}

// SessionManagerOptions configures a SessionManager.
type SessionManagerOptions struct {
	// Logger is handed to every store the manager opens. Defaults to a
	// no-op logger.
	Logger logging.Logger
}

// SessionManager maintains many session stores under one root directory.
// Each session lives at {dir}/{session_id}/context.json. Opened stores are
// cached so concurrent callers share a single instance per session.
type SessionManager struct {
	mu     sync.Mutex
	dir    string
	cache  map[string]*Store
	logger logging.Logger
}

// NewSessionManager creates a manager rooted at dir, creating the directory
// if needed.
func NewSessionManager(dir string, optFns ...func(o *SessionManagerOptions)) (*SessionManager, error) {
	opts := SessionManagerOptions{
		Logger: logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}

	return &SessionManager{
		dir:    dir,
		cache:  make(map[string]*Store),
		logger: opts.Logger,
	}, nil
}

// Create creates a new empty session and persists it immediately so the
// session exists on disk. An empty sessionID generates a random one. Creating
// a session that already exists is an error.
func (m *SessionManager) Create(sessionID string) (*Store, error) {
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	sessionDir := filepath.Join(m.dir, sessionID)
	if _, err := os.Stat(sessionDir); err == nil {
		return nil, fmt.Errorf("session %q already exists", sessionID)
	}

	store, err := NewStore(sessionID, func(o *Options) {
		o.Path = m.sessionPath(sessionID)
		o.Logger = m.logger
	})
	if err != nil {
		return nil, err
	}

	if err := store.persist(); err != nil {
		return nil, err
	}

	m.cache[sessionID] = store

	m.logger.Info("session.created", "session_id", sessionID)

	return store, nil
}

// Get returns an existing session, loading it from disk on first access.
func (m *SessionManager) Get(sessionID string) (*Store, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.getLocked(sessionID)
}

// Archive marks a session read-only and persists the flag.
func (m *SessionManager) Archive(sessionID string) error {
	store, err := m.Get(sessionID)
	if err != nil {
		return err
	}

	if err := store.Archive(); err != nil {
		return err
	}

	m.logger.Info("session.archived", "session_id", sessionID)

	return nil
}

// Delete permanently removes a session's data from disk and evicts it from
// the cache.
func (m *SessionManager) Delete(sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	sessionDir := filepath.Join(m.dir, sessionID)
	if _, err := os.Stat(sessionDir); err != nil {
		return core.NewError(core.CodeSessionNotFound, "Session %q not found.", sessionID)
	}

	if err := os.RemoveAll(sessionDir); err != nil {
		return fmt.Errorf("failed to delete session %s: %w", sessionID, err)
	}

	delete(m.cache, sessionID)

	m.logger.Info("session.deleted", "session_id", sessionID)

	return nil
}

// ListSessions returns metadata for every session on disk, sorted by id.
func (m *SessionManager) ListSessions() ([]SessionInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	children, err := os.ReadDir(m.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read storage directory: %w", err)
	}

	infos := make([]SessionInfo, 0, len(children))

	for _, child := range children {
		if !child.IsDir() {
			continue
		}

		sessionID := child.Name()
		if _, err := os.Stat(m.sessionPath(sessionID)); err != nil {
			continue
		}

		store, err := m.getLocked(sessionID)
		if err != nil {
			return nil, err
		}

		listing := store.ListKeys()

		infos = append(infos, SessionInfo{
			SessionID:       sessionID,
			Archived:        store.Archived(),
			KeyCount:        len(listing.Keys),
			TotalSizeTokens: listing.TotalSizeTokens,
		})
	}

	return infos, nil
}

func (m *SessionManager) getLocked(sessionID string) (*Store, error) {
	if store, ok := m.cache[sessionID]; ok {
		return store, nil
	}

	path := m.sessionPath(sessionID)
	if _, err := os.Stat(path); err != nil {
		return nil, core.NewError(core.CodeSessionNotFound, "Session %q not found.", sessionID)
	}

	store, err := NewStore(sessionID, func(o *Options) {
		o.Path = path
		o.Logger = m.logger
	})
	if err != nil {
		return nil, err
	}

	m.cache[sessionID] = store

	return store, nil
}

func (m *SessionManager) sessionPath(sessionID string) string {
	return filepath.Join(m.dir, sessionID, sessionFileName)
}
