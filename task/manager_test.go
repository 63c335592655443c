package task

import (
	"fmt"
	"sync"
	"testing"

	"github.com/hupe1980/agenthive/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManagerCreateAssignsMonotonicIDs(t *testing.T) {
	m := NewManager(5)

	first, err := m.Create("researcher", "find sources")
	require.NoError(t, err)
	assert.Equal(t, "t_01", first.ID)
	assert.Equal(t, StatusRunning, first.Status)
	assert.False(t, first.CreatedAt.IsZero())

	second, err := m.Create("writer", "draft report")
	require.NoError(t, err)
	assert.Equal(t, "t_02", second.ID)

	// Collecting never frees an id for reuse.
	m.Complete("t_01", "done", 2)
	_, err = m.Collect("t_01")
	require.NoError(t, err)

	third, err := m.Create("researcher", "more sources")
	require.NoError(t, err)
	assert.Equal(t, "t_03", third.ID)
}

func TestManagerCeilingCountsOnlyRunning(t *testing.T) {
	m := NewManager(3)

	for i := 0; i < 3; i++ {
		_, err := m.Create("worker", fmt.Sprintf("job %d", i))
		require.NoError(t, err)
	}

	// Fourth spawn is rejected, not queued.
	_, err := m.Create("worker", "job 3")
	require.Error(t, err)
	de, ok := core.AsError(err)
	require.True(t, ok)
	assert.Equal(t, core.CodeMaxTasksExceeded, de.Code)
	assert.Equal(t, "Maximum concurrent tasks (3) reached.", de.Message)

	// A completed-but-uncollected task no longer counts against the
	// ceiling.
	m.Complete("t_01", "done", 1)
	fourth, err := m.Create("worker", "job 3")
	require.NoError(t, err)
	assert.Equal(t, "t_04", fourth.ID)

	// And the completed result is still there to collect.
	got, err := m.Collect("t_01")
	require.NoError(t, err)
	assert.Equal(t, "done", got.Result)
}

func TestManagerCollectIsDestructive(t *testing.T) {
	m := NewManager(5)
	created, err := m.Create("researcher", "find sources")
	require.NoError(t, err)

	m.Complete(created.ID, "findings", 4)

	got, err := m.Collect(created.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, got.Status)
	assert.Equal(t, "findings", got.Result)
	assert.Equal(t, 4, got.StepsUsed)
	assert.False(t, got.CompletedAt.IsZero())

	_, err = m.Collect(created.ID)
	require.Error(t, err)
	de, ok := core.AsError(err)
	require.True(t, ok)
	assert.Equal(t, core.CodeTaskNotFound, de.Code)
	assert.Equal(t, `Unknown or already-collected task: "t_01"`, de.Message)
}

func TestManagerCollectBeforeReady(t *testing.T) {
	m := NewManager(5)
	created, err := m.Create("researcher", "find sources")
	require.NoError(t, err)

	_, err = m.Collect(created.ID)
	require.Error(t, err)
	de, ok := core.AsError(err)
	require.True(t, ok)
	assert.Equal(t, core.CodeTaskNotReady, de.Code)
	assert.Equal(t, `Task "t_01" is still running (steps_used=0).`, de.Message)

	// The failed collect left the task tracked and unchanged.
	got, err := m.Get(created.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusRunning, got.Status)
}

func TestManagerGetUnknown(t *testing.T) {
	m := NewManager(5)

	_, err := m.Get("t_99")
	require.Error(t, err)
	de, ok := core.AsError(err)
	require.True(t, ok)
	assert.Equal(t, core.CodeTaskNotFound, de.Code)
}

func TestManagerFail(t *testing.T) {
	m := NewManager(5)
	created, err := m.Create("researcher", "find sources")
	require.NoError(t, err)

	m.Fail(created.ID, "model call failed: boom", 0)

	got, err := m.Collect(created.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, got.Status)
	assert.Equal(t, "model call failed: boom", got.Error)
	assert.Empty(t, got.Result)
}

func TestManagerTerminalStateIsFinal(t *testing.T) {
	m := NewManager(5)
	created, err := m.Create("researcher", "find sources")
	require.NoError(t, err)

	done, ok := m.Complete(created.ID, "findings", 2)
	require.True(t, ok)
	assert.Equal(t, StatusCompleted, done.Status)

	// A later failure report is ignored; the completed outcome stands.
	_, ok = m.Fail(created.ID, "late failure", 9)
	assert.False(t, ok)

	got, err := m.Get(created.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, got.Status)
	assert.Equal(t, "findings", got.Result)
	assert.Empty(t, got.Error)
	assert.Equal(t, 2, got.StepsUsed)

	// Same in the other direction: a failure cannot be upgraded.
	doomed, err := m.Create("researcher", "doomed")
	require.NoError(t, err)

	_, ok = m.Fail(doomed.ID, "model call failed: boom", 1)
	require.True(t, ok)
	_, ok = m.Complete(doomed.ID, "too late", 3)
	assert.False(t, ok)

	got, err = m.Get(doomed.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, got.Status)
	assert.Equal(t, "model call failed: boom", got.Error)
	assert.Empty(t, got.Result)
}

func TestManagerSnapshotsAreCopies(t *testing.T) {
	m := NewManager(5)
	created, err := m.Create("researcher", "find sources")
	require.NoError(t, err)

	before, err := m.Get(created.ID)
	require.NoError(t, err)

	m.Complete(created.ID, "done", 3)

	// The earlier snapshot does not observe the transition.
	assert.Equal(t, StatusRunning, before.Status)

	after, err := m.Get(created.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, after.Status)
}

func TestManagerConcurrentCreates(t *testing.T) {
	m := NewManager(100)

	var wg sync.WaitGroup
	ids := make(chan string, 100)
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			task, err := m.Create("worker", "job")
			if err == nil {
				ids <- task.ID
			}
		}()
	}
	wg.Wait()
	close(ids)

	seen := map[string]bool{}
	for id := range ids {
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
	assert.Len(t, seen, 100)
	assert.Equal(t, 100, m.Running())
}

func TestManagerDefaultCeiling(t *testing.T) {
	m := NewManager(0)
	assert.Equal(t, DefaultMaxConcurrent, m.MaxConcurrent())
}
