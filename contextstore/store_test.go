package contextstore

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agenthive/core"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := NewStore("test-session")
	require.NoError(t, err)

	return store
}

// -------------------- Listing Tests --------------------

func TestStore_ListKeysEmpty(t *testing.T) {
	store := newTestStore(t)

	listing := store.ListKeys()
	assert.Empty(t, listing.Keys)
	assert.Equal(t, 0, listing.TotalSizeTokens)
}

func TestStore_ListKeysAfterWrites(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Write("beta", "world", "agent")
	require.NoError(t, err)
	_, err = store.Write("alpha", "hello", "agent")
	require.NoError(t, err)

	listing := store.ListKeys()
	require.Len(t, listing.Keys, 2)

	// Sorted by key, metadata only.
	assert.Equal(t, "alpha", listing.Keys[0].Key)
	assert.Equal(t, "beta", listing.Keys[1].Key)
	assert.Equal(t, "agent", listing.Keys[0].WrittenBy)
	assert.Equal(t, 1, listing.Keys[0].Version)
	assert.Greater(t, listing.TotalSizeTokens, 0)
}

// -------------------- Read Tests --------------------

func TestStore_ReadExisting(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Write("foo", "bar", "tester")
	require.NoError(t, err)

	entry, err := store.Read("foo")
	require.NoError(t, err)
	assert.Equal(t, "bar", entry.Value)
	assert.Equal(t, "tester", entry.WrittenBy)
	assert.Equal(t, 1, entry.Version)
	assert.Equal(t, 1, entry.ValueSizeTokens)
	assert.False(t, entry.WrittenAt.IsZero())
}

func TestStore_ReadMissing(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Read("nope")
	require.Error(t, err)

	coreErr, ok := core.AsError(err)
	require.True(t, ok)
	assert.Equal(t, core.CodeKeyNotFound, coreErr.Code)
	assert.Equal(t, `Key not found: "nope"`, coreErr.Message)
}

// -------------------- Write Tests --------------------

func TestStore_WriteCreatesKey(t *testing.T) {
	store := newTestStore(t)

	result, err := store.Write("new_key", "new_value", "agent")
	require.NoError(t, err)
	assert.Equal(t, "new_key", result.Key)
	assert.Equal(t, 1, result.Version)
	assert.Equal(t, "agent", result.WrittenBy)
	assert.Empty(t, result.Warning)
}

func TestStore_OverwriteIncrementsVersion(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Write("k", "v1", "a")
	require.NoError(t, err)

	result, err := store.Write("k", "v2", "b")
	require.NoError(t, err)
	assert.Equal(t, 2, result.Version)

	entry, err := store.Read("k")
	require.NoError(t, err)
	assert.Equal(t, "v2", entry.Value)
	assert.Equal(t, "b", entry.WrittenBy)
}

func TestStore_WriteValueTooLarge(t *testing.T) {
	store := newTestStore(t)

	// 4100 bytes is ~1025 estimated tokens, above the 1000 limit.
	big := strings.Repeat("x", 4100)

	_, err := store.Write("big", big, "a")
	require.Error(t, err)

	coreErr, ok := core.AsError(err)
	require.True(t, ok)
	assert.Equal(t, core.CodeValueTooLarge, coreErr.Code)
	assert.Equal(t, "Value is ~1025 tokens, max is 1000.", coreErr.Message)
}

func TestStore_WriteStoreFull(t *testing.T) {
	store := newTestStore(t)

	// Ten ~975-token chunks fill the store to ~9750 tokens.
	chunk := strings.Repeat("x", 3900)
	for _, key := range []string{"k0", "k1", "k2", "k3", "k4", "k5", "k6", "k7", "k8", "k9"} {
		_, err := store.Write(key, chunk, "a")
		require.NoError(t, err)
	}

	_, err := store.Write("overflow", chunk, "a")
	require.Error(t, err)

	coreErr, ok := core.AsError(err)
	require.True(t, ok)
	assert.Equal(t, core.CodeStoreFull, coreErr.Code)
	assert.Equal(t, "Write would bring store to ~10725 tokens, max is 10000.", coreErr.Message)
}

func TestStore_OverwriteFreesPreviousValue(t *testing.T) {
	store := newTestStore(t)

	chunk := strings.Repeat("x", 3900)
	for _, key := range []string{"k0", "k1", "k2", "k3", "k4", "k5", "k6", "k7", "k8", "k9"} {
		_, err := store.Write(key, chunk, "a")
		require.NoError(t, err)
	}

	// Overwriting an existing key replaces its size contribution instead of
	// adding on top of it.
	result, err := store.Write("k0", chunk, "a")
	require.NoError(t, err)
	assert.Equal(t, 2, result.Version)
}

func TestStore_WriteWarnsOnLargeValue(t *testing.T) {
	store := newTestStore(t)

	// 3300 bytes is ~825 estimated tokens, above the 800 warning threshold.
	result, err := store.Write("big_ish", strings.Repeat("x", 3300), "a")
	require.NoError(t, err)
	assert.Equal(t, "Value is ~825 tokens. Consider distilling further.", result.Warning)
}

// -------------------- Delete Tests --------------------

func TestStore_DeleteExisting(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Write("temp", "val", "a")
	require.NoError(t, err)

	result, err := store.Delete("temp")
	require.NoError(t, err)
	assert.Equal(t, "temp", result.Deleted)
	assert.Equal(t, 1, result.PreviousVersion)

	_, err = store.Read("temp")
	require.Error(t, err)

	coreErr, ok := core.AsError(err)
	require.True(t, ok)
	assert.Equal(t, core.CodeKeyNotFound, coreErr.Code)

	// Recreating a deleted key starts the version count over.
	recreated, err := store.Write("temp", "val2", "a")
	require.NoError(t, err)
	assert.Equal(t, 1, recreated.Version)
}

func TestStore_DeleteMissing(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Delete("nope")
	require.Error(t, err)

	coreErr, ok := core.AsError(err)
	require.True(t, ok)
	assert.Equal(t, core.CodeKeyNotFound, coreErr.Code)
}

// -------------------- Key Validation Tests --------------------

func TestStore_KeyValidation(t *testing.T) {
	store := newTestStore(t)

	badKeys := []struct {
		key     string
		message string
	}{
		{"", "Key must be 1-64 characters, got 0."},
		{strings.Repeat("a", 65), "Key must be 1-64 characters, got 65."},
		{"Has-Dash", `Key must match [a-z0-9_]+, got: "Has-Dash"`},
		{"has.dot", `Key must match [a-z0-9_]+, got: "has.dot"`},
		{"has/slash", `Key must match [a-z0-9_]+, got: "has/slash"`},
		{"UPPERCASE", `Key must match [a-z0-9_]+, got: "UPPERCASE"`},
	}

	for _, tt := range badKeys {
		_, err := store.Write(tt.key, "val", "a")
		require.Error(t, err, "key %q should be rejected", tt.key)

		coreErr, ok := core.AsError(err)
		require.True(t, ok)
		assert.Equal(t, core.CodeInvalidKey, coreErr.Code)
		assert.Equal(t, tt.message, coreErr.Message)
	}

	goodKeys := []string{"a", "problem_summary", "k123", strings.Repeat("a", 64)}
	for _, key := range goodKeys {
		_, err := store.Write(key, "val", "a")
		require.NoError(t, err, "key %q should be accepted", key)

		entry, err := store.Read(key)
		require.NoError(t, err)
		assert.Equal(t, "val", entry.Value)
	}
}

// -------------------- Persistence Tests --------------------

func TestStore_PersistenceSurvivesReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ctx.json")

	s1, err := NewStore("sess", func(o *Options) { o.Path = path })
	require.NoError(t, err)
	_, err = s1.Write("x", "hello", "a")
	require.NoError(t, err)

	s2, err := NewStore("sess", func(o *Options) { o.Path = path })
	require.NoError(t, err)

	entry, err := s2.Read("x")
	require.NoError(t, err)
	assert.Equal(t, "hello", entry.Value)
	assert.Equal(t, 1, entry.Version)
	assert.Equal(t, "a", entry.WrittenBy)
}

func TestStore_DeletePersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ctx.json")

	s1, err := NewStore("sess", func(o *Options) { o.Path = path })
	require.NoError(t, err)
	_, err = s1.Write("x", "hello", "a")
	require.NoError(t, err)
	_, err = s1.Delete("x")
	require.NoError(t, err)

	s2, err := NewStore("sess", func(o *Options) { o.Path = path })
	require.NoError(t, err)

	_, err = s2.Read("x")
	require.Error(t, err)
}

func TestStore_CorruptFileFailsLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ctx.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := NewStore("sess", func(o *Options) { o.Path = path })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse session file")
}

// -------------------- Archive Tests --------------------

func TestStore_ArchivedIsReadOnly(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Write("k", "v", "a")
	require.NoError(t, err)

	require.NoError(t, store.Archive())
	assert.True(t, store.Archived())

	// Reads and listings keep working.
	entry, err := store.Read("k")
	require.NoError(t, err)
	assert.Equal(t, "v", entry.Value)
	assert.NotEmpty(t, store.ListKeys().Keys)

	// Writes and deletes are rejected.
	_, err = store.Write("k2", "v2", "a")
	require.Error(t, err)

	coreErr, ok := core.AsError(err)
	require.True(t, ok)
	assert.Equal(t, core.CodeSessionArchived, coreErr.Code)
	assert.Equal(t, `Session "test-session" is archived (read-only).`, coreErr.Message)

	_, err = store.Delete("k")
	require.Error(t, err)

	coreErr, ok = core.AsError(err)
	require.True(t, ok)
	assert.Equal(t, core.CodeSessionArchived, coreErr.Code)
}

func TestStore_ArchiveFlagPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ctx.json")

	s1, err := NewStore("sess", func(o *Options) { o.Path = path })
	require.NoError(t, err)
	_, err = s1.Write("k", "v", "a")
	require.NoError(t, err)
	require.NoError(t, s1.Archive())

	s2, err := NewStore("sess", func(o *Options) { o.Path = path })
	require.NoError(t, err)
	assert.True(t, s2.Archived())

	_, err = s2.Write("k2", "v2", "a")
	require.Error(t, err)
}
