package contextstore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"sync"
	"time"

	"github.com/hupe1980/agenthive/core"
	"github.com/hupe1980/agenthive/logging"
)

const (
	maxKeyLength    = 64
	maxValueTokens  = 1000
	warnValueTokens = 800
	maxStoreTokens  = 10000
)

var keyPattern = regexp.MustCompile(`^[a-z0-9_]+$`)

func validateKey(key string) error {
	if key == "" || len(key) > maxKeyLength {
		return core.NewError(core.CodeInvalidKey, "Key must be 1-%d characters, got %d.", maxKeyLength, len(key))
	}

	if !keyPattern.MatchString(key) {
		return core.NewError(core.CodeInvalidKey, "Key must match [a-z0-9_]+, got: %q", key)
	}

	return nil
}

// Entry is a single shared context record. Version starts at 1 and increments
// on every overwrite of the same key.
type Entry struct {
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	WrittenBy string    `json:"written_by"`
	WrittenAt time.Time `json:"written_at"`
	Version   int       `json:"version"`
}

// SizeTokens returns the estimated token size of the entry's value.
func (e *Entry) SizeTokens() int { return core.EstimateTokens(e.Value) }

func (e *Entry) meta() EntryMeta {
	return EntryMeta{
		Key:             e.Key,
		WrittenBy:       e.WrittenBy,
		WrittenAt:       e.WrittenAt,
		Version:         e.Version,
		ValueSizeTokens: e.SizeTokens(),
	}
}

// EntryMeta describes an entry without carrying its value. Listings return
// metadata only so agents can scan the store without pulling every value
// into their context.
type EntryMeta struct {
	Key             string    `json:"key"`
	WrittenBy       string    `json:"written_by"`
	WrittenAt       time.Time `json:"written_at"`
	Version         int       `json:"version"`
	ValueSizeTokens int       `json:"value_size_tokens"`
}

// ReadResult is the full entry returned by Read: metadata plus the value.
type ReadResult struct {
	EntryMeta
	Value string `json:"value"`
}

// WriteResult reports a successful write. Warning is set when the value is
// close to the per-value token limit.
type WriteResult struct {
	Key       string    `json:"key"`
	Version   int       `json:"version"`
	WrittenBy string    `json:"written_by"`
	WrittenAt time.Time `json:"written_at"`
	Warning   string    `json:"warning,omitempty"`
}

// DeleteResult reports a successful delete.
type DeleteResult struct {
	Deleted         string `json:"deleted"`
	PreviousVersion int    `json:"previous_version"`
}

// Listing is the result of ListKeys: all entry metadata plus the store's
// total estimated size.
type Listing struct {
	Keys            []EntryMeta `json:"keys"`
	TotalSizeTokens int         `json:"total_size_tokens"`
}

// Options configures a Store.
type Options struct {
	// Path is the JSON file used for persistence. Empty means in-memory only.
	Path string
	// Logger receives store activity. Defaults to a no-op logger.
	Logger logging.Logger
}

// Store holds the shared context entries of a single session.
//
// All operations are guarded by a mutex and safe for concurrent use. When a
// persistence path is configured, every successful mutation is written to
// disk before the call returns, so the store survives process restarts.
//
// Quotas: values are capped at 1000 estimated tokens (with a warning from
// 800), the store total at 10000. Keys must match [a-z0-9_]+ and be at most
// 64 characters.
type Store struct {
	mu        sync.Mutex
	sessionID string
	path      string
	archived  bool
	entries   map[string]*Entry
	logger    logging.Logger
}

// NewStore creates a store for the given session. If a persistence path is
// configured and the file exists, its entries and archived flag are loaded.
func NewStore(sessionID string, optFns ...func(o *Options)) (*Store, error) {
	opts := Options{
		Logger: logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	s := &Store{
		sessionID: sessionID,
		path:      opts.Path,
		entries:   make(map[string]*Entry),
		logger:    opts.Logger,
	}

	if s.path != "" {
		if err := s.load(); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// SessionID returns the id of the session this store belongs to.
func (s *Store) SessionID() string { return s.sessionID }

// Archived reports whether the session has been archived (read-only).
func (s *Store) Archived() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.archived
}

// TotalTokens returns the estimated token size of all stored values.
func (s *Store) TotalTokens() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.totalTokensLocked()
}

// Len returns the number of stored entries.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// ListKeys returns metadata for all entries, sorted by key, without values.
func (s *Store) ListKeys() Listing {
	s.mu.Lock()
	defer s.mu.Unlock()

	keys := make([]string, 0, len(s.entries))
	for key := range s.entries {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	listing := Listing{Keys: make([]EntryMeta, 0, len(keys))}
	for _, key := range keys {
		entry := s.entries[key]
		listing.Keys = append(listing.Keys, entry.meta())
		listing.TotalSizeTokens += entry.SizeTokens()
	}

	return listing
}

// Read returns the full entry for key, including its value. Reads are
// allowed on archived sessions.
func (s *Store) Read(key string) (ReadResult, error) {
	if err := validateKey(key); err != nil {
		return ReadResult{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[key]
	if !ok {
		return ReadResult{}, core.NewError(core.CodeKeyNotFound, "Key not found: %q", key)
	}

	return ReadResult{EntryMeta: entry.meta(), Value: entry.Value}, nil
}

// Write creates or overwrites key with value, attributing the write to
// writtenBy. Overwrites increment the entry version. The write is rejected
// when the session is archived, the key is invalid, the value exceeds the
// per-value token limit, or the store total would exceed its quota.
func (s *Store) Write(key, value, writtenBy string) (WriteResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkWritable(); err != nil {
		return WriteResult{}, err
	}

	if err := validateKey(key); err != nil {
		return WriteResult{}, err
	}

	valueTokens := core.EstimateTokens(value)
	if valueTokens > maxValueTokens {
		return WriteResult{}, core.NewError(core.CodeValueTooLarge,
			"Value is ~%d tokens, max is %d.", valueTokens, maxValueTokens)
	}

	// Compute the new total, subtracting the old value if overwriting.
	oldTokens := 0
	version := 1

	if existing, ok := s.entries[key]; ok {
		oldTokens = existing.SizeTokens()
		version = existing.Version + 1
	}

	newTotal := s.totalTokensLocked() - oldTokens + valueTokens
	if newTotal > maxStoreTokens {
		return WriteResult{}, core.NewError(core.CodeStoreFull,
			"Write would bring store to ~%d tokens, max is %d.", newTotal, maxStoreTokens)
	}

	now := time.Now().UTC()

	s.entries[key] = &Entry{
		Key:       key,
		Value:     value,
		WrittenBy: writtenBy,
		WrittenAt: now,
		Version:   version,
	}

	if err := s.persistLocked(); err != nil {
		return WriteResult{}, err
	}

	s.logger.Debug("context.write", "session_id", s.sessionID, "key", key, "version", version, "tokens", valueTokens)

	result := WriteResult{
		Key:       key,
		Version:   version,
		WrittenBy: writtenBy,
		WrittenAt: now,
	}

	if valueTokens >= warnValueTokens {
		result.Warning = fmt.Sprintf("Value is ~%d tokens. Consider distilling further.", valueTokens)
	}

	return result, nil
}

// Delete removes key entirely. Deleting frees the entry's tokens from the
// store quota.
func (s *Store) Delete(key string) (DeleteResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkWritable(); err != nil {
		return DeleteResult{}, err
	}

	if err := validateKey(key); err != nil {
		return DeleteResult{}, err
	}

	entry, ok := s.entries[key]
	if !ok {
		return DeleteResult{}, core.NewError(core.CodeKeyNotFound, "Key not found: %q", key)
	}

	prevVersion := entry.Version
	delete(s.entries, key)

	if err := s.persistLocked(); err != nil {
		return DeleteResult{}, err
	}

	s.logger.Debug("context.delete", "session_id", s.sessionID, "key", key)

	return DeleteResult{Deleted: key, PreviousVersion: prevVersion}, nil
}

// Archive marks the session read-only. Subsequent writes and deletes fail
// with SESSION_ARCHIVED; reads and listings keep working.
func (s *Store) Archive() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.archived = true

	return s.persistLocked()
}

func (s *Store) checkWritable() error {
	if s.archived {
		return core.NewError(core.CodeSessionArchived, "Session %q is archived (read-only).", s.sessionID)
	}

	return nil
}

func (s *Store) totalTokensLocked() int {
	total := 0
	for _, entry := range s.entries {
		total += entry.SizeTokens()
	}

	return total
}

// persist takes the lock and writes the store to disk. Used by the session
// manager to materialize a freshly created session.
func (s *Store) persist() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.persistLocked()
}

// storeFile is the on-disk JSON layout.
type storeFile struct {
	SessionID string   `json:"session_id"`
	Archived  bool     `json:"archived"`
	Entries   []*Entry `json:"entries"`
}

func (s *Store) persistLocked() error {
	if s.path == "" {
		return nil
	}

	keys := make([]string, 0, len(s.entries))
	for key := range s.entries {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	entries := make([]*Entry, 0, len(keys))
	for _, key := range keys {
		entries = append(entries, s.entries[key])
	}

	data, err := json.MarshalIndent(storeFile{
		SessionID: s.sessionID,
		Archived:  s.archived,
		Entries:   entries,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode session %s: %w", s.sessionID, err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create session directory: %w", err)
	}

	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}

	// Atomic rename so readers never observe a partial file.
	if err := os.Rename(tmpPath, s.path); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	return nil
}

func (s *Store) load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}

		return fmt.Errorf("failed to read session file: %w", err)
	}

	var f storeFile
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("failed to parse session file %s: %w", s.path, err)
	}

	s.archived = f.Archived
	s.entries = make(map[string]*Entry, len(f.Entries))

	for _, entry := range f.Entries {
		s.entries[entry.Key] = entry
	}

	return nil
}
