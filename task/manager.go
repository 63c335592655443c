package task

import (
	"fmt"
	"sync"
	"time"

	"github.com/hupe1980/agenthive/core"
)

// DefaultMaxConcurrent is the admission ceiling applied when none is given.
const DefaultMaxConcurrent = 5

// Manager is a thread-safe tracker for active tasks. Admission counts only
// running tasks, so completed-but-uncollected results never block new work.
// Collecting a terminal task removes it; ids are monotonic and never reused.
// Tasks transition at most once: whichever of Complete or Fail lands first
// is final.
type Manager struct {
	tasks         map[string]*Task
	counter       int
	maxConcurrent int
	mu            sync.Mutex
}

// NewManager creates a task manager with the given concurrency ceiling.
// Values below one fall back to DefaultMaxConcurrent.
func NewManager(maxConcurrent int) *Manager {
	if maxConcurrent < 1 {
		maxConcurrent = DefaultMaxConcurrent
	}
	return &Manager{
		tasks:         make(map[string]*Task),
		maxConcurrent: maxConcurrent,
	}
}

// MaxConcurrent returns the admission ceiling.
func (m *Manager) MaxConcurrent() int { return m.maxConcurrent }

// Create admits a new running task and returns its snapshot.
//
// When the number of running tasks has reached the ceiling, Create fails
// with MAX_TASKS_EXCEEDED immediately; spawning never queues or blocks,
// which keeps back-pressure visible to the orchestrating model.
func (m *Manager) Create(agent, description string) (Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	running := 0
	for _, t := range m.tasks {
		if t.Status == StatusRunning {
			running++
		}
	}
	if running >= m.maxConcurrent {
		return Task{}, core.NewError(core.CodeMaxTasksExceeded, "Maximum concurrent tasks (%d) reached.", m.maxConcurrent)
	}

	m.counter++
	t := &Task{
		ID:          fmt.Sprintf("t_%02d", m.counter),
		Agent:       agent,
		Description: description,
		Status:      StatusRunning,
		CreatedAt:   time.Now().UTC(),
	}
	m.tasks[t.ID] = t

	return *t, nil
}

// Get returns a snapshot of the task with the given id.
func (m *Manager) Get(id string) (Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.tasks[id]
	if !ok {
		return Task{}, core.NewError(core.CodeTaskNotFound, "Unknown or already-collected task: %q", id)
	}

	return *t, nil
}

// Collect removes a terminal task from tracking and returns its final
// snapshot. Collection is destructive and single-use: a second collect of
// the same id fails with TASK_NOT_FOUND. Collecting a task that is still
// running fails with TASK_NOT_READY and leaves the task untouched.
func (m *Manager) Collect(id string) (Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.tasks[id]
	if !ok {
		return Task{}, core.NewError(core.CodeTaskNotFound, "Unknown or already-collected task: %q", id)
	}
	if t.Status == StatusRunning {
		return Task{}, core.NewError(core.CodeTaskNotReady, "Task %q is still running (steps_used=%d).", id, t.StepsUsed)
	}

	delete(m.tasks, id)

	return *t, nil
}

// Complete transitions a running task to completed with its final result
// and returns the terminal snapshot. Unknown ids and tasks already in a
// terminal state report false; a recorded outcome is never overwritten.
func (m *Manager) Complete(id, result string, steps int) (Task, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.tasks[id]
	if !ok || t.Terminal() {
		return Task{}, false
	}
	t.Status = StatusCompleted
	t.Result = result
	t.StepsUsed = steps
	t.CompletedAt = time.Now().UTC()

	return *t, true
}

// Fail transitions a running task to failed with the error message and
// returns the terminal snapshot. Unknown ids and tasks already in a
// terminal state report false; a recorded outcome is never overwritten.
func (m *Manager) Fail(id, errMsg string, steps int) (Task, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.tasks[id]
	if !ok || t.Terminal() {
		return Task{}, false
	}
	t.Status = StatusFailed
	t.Error = errMsg
	t.StepsUsed = steps
	t.CompletedAt = time.Now().UTC()

	return *t, true
}

// Running returns the number of tasks currently running.
func (m *Manager) Running() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	running := 0
	for _, t := range m.tasks {
		if t.Status == StatusRunning {
			running++
		}
	}
	return running
}

// Len returns the number of tracked (uncollected) tasks.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.tasks)
}
