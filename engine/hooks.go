package engine

import (
	"context"
	"fmt"
	"sync"

	"github.com/hupe1980/agenthive/logging"
	"github.com/hupe1980/agenthive/task"
)

// HookType identifies the delegation lifecycle points where hooks fire.
//
// Hooks provide a mechanism for observing the engine's task pipeline
// without modifying core logic. Each type represents a specific point in
// the delegation lifecycle where custom logic can be attached.
//
// Available hook types:
//   - HookAgentDefined: After a specialist is registered at runtime
//   - HookTaskSpawned: After a task is admitted and queued for a worker
//   - HookTaskCompleted: After a task's runner produced a final response
//   - HookTaskFailed: After a task's runner returned an error
//
// Hooks run synchronously on the engine's worker goroutines. An error
// returned by a hook stops later hooks for that event and is logged by
// the engine, but it never alters the task's recorded outcome. A
// panicking hook is recovered and treated as a hook error.
type HookType string

const (
	// HookAgentDefined is triggered after a specialist agent is defined.
	// Use for auditing which agents the orchestrator creates.
	HookAgentDefined HookType = "agent_defined"

	// HookTaskSpawned is triggered after a task is admitted, before a
	// worker picks it up. Use for instrumentation or capacity tracking.
	HookTaskSpawned HookType = "task_spawned"

	// HookTaskCompleted is triggered when a task reaches the completed
	// state. The context carries the terminal snapshot including the
	// truncated result.
	HookTaskCompleted HookType = "task_completed"

	// HookTaskFailed is triggered when a task reaches the failed state.
	// The context carries the terminal snapshot including the error
	// message.
	HookTaskFailed HookType = "task_failed"
)

// HookContext provides the event details passed to hook execution.
//
// The context is populated by the engine and passed to each hook. It is
// a point-in-time view: task snapshots are values and never change after
// the hook fires.
type HookContext struct {
	// HookType indicates which lifecycle point triggered this execution.
	// Allows shared hook implementations to behave differently per phase.
	HookType HookType

	// Agent is the name of the specialist involved in the event.
	Agent string

	// Task is a snapshot of the task at the time of the event. It is the
	// zero value for HookAgentDefined, which has no task.
	Task task.Task

	// Metadata provides extensible storage for custom event data. The
	// engine includes its instance id under "engine_id".
	Metadata map[string]interface{}
}

// Hook defines the interface for delegation lifecycle observers.
//
// Hooks can be used for logging, metrics collection, auditing, or custom
// integration with external systems.
//
// Implementations should be:
//   - Fast: hooks run synchronously on worker goroutines
//   - Safe: handle errors gracefully and avoid panics
//   - Concurrent: completion hooks fire from multiple workers at once
type Hook interface {
	// Type returns the hook type this implementation handles. Used by
	// the hook manager to route events to the right observers.
	Type() HookType

	// Execute performs the hook logic with the provided context. An
	// error stops later hooks for the same event and is logged by the
	// engine; it does not change the task's outcome.
	Execute(ctx context.Context, hookCtx *HookContext) error
}

// FunctionHook wraps a plain function as a hook implementation.
//
// This is a convenience wrapper that allows simple functions to be used
// as hooks without implementing the full Hook interface.
//
// Example:
//
//	spawned := NewFunctionHook(
//	    HookTaskSpawned,
//	    func(ctx context.Context, hookCtx *HookContext) error {
//	        log.Printf("spawned %s for %s", hookCtx.Task.ID, hookCtx.Agent)
//	        return nil
//	    },
//	)
type FunctionHook struct {
	hookType HookType
	fn       func(ctx context.Context, hookCtx *HookContext) error
}

// NewFunctionHook creates a new function-based hook for the given type.
func NewFunctionHook(
	hookType HookType,
	fn func(ctx context.Context, hookCtx *HookContext) error,
) *FunctionHook {
	return &FunctionHook{
		hookType: hookType,
		fn:       fn,
	}
}

// Type returns the hook type this function handles.
func (h *FunctionHook) Type() HookType {
	return h.hookType
}

// Execute calls the wrapped function with the provided context.
func (h *FunctionHook) Execute(ctx context.Context, hookCtx *HookContext) error {
	return h.fn(ctx, hookCtx)
}

// HookManager routes lifecycle events to registered hooks.
//
// The manager keeps hooks grouped by type and executes them in
// registration order. Multiple hooks can be registered for the same
// type.
//
// Thread safety: registration is expected to happen before the engine
// starts dispatching work, typically through Options at construction.
// Once registration is complete, execution is safe for concurrent use
// from multiple workers.
type HookManager struct {
	hooks map[HookType][]Hook
}

// NewHookManager creates an empty hook manager.
func NewHookManager() *HookManager {
	return &HookManager{
		hooks: make(map[HookType][]Hook),
	}
}

// Register adds a hook for its declared type. Hooks registered for the
// same type run in registration order.
func (hm *HookManager) Register(hook Hook) {
	hookType := hook.Type()
	hm.hooks[hookType] = append(hm.hooks[hookType], hook)
}

// Execute runs all hooks registered for the given type in order. The
// first error stops execution and is returned; remaining hooks for the
// event are skipped. A panicking hook is recovered and reported as an
// error.
func (hm *HookManager) Execute(ctx context.Context, hookType HookType, hookCtx *HookContext) error {
	hooks, exists := hm.hooks[hookType]
	if !exists {
		return nil
	}

	for _, hook := range hooks {
		if err := executeHook(ctx, hook, hookCtx); err != nil {
			return err
		}
	}

	return nil
}

// executeHook runs a single hook, converting a panic into an error.
func executeHook(ctx context.Context, hook Hook, hookCtx *HookContext) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("hook panicked: %v", rec)
		}
	}()

	return hook.Execute(ctx, hookCtx)
}

// LoggingHook emits a structured log line for every event of its type.
//
// Example:
//
//	hooks := NewHookManager()
//	hooks.Register(NewLoggingHook(HookTaskCompleted, logger))
//	hooks.Register(NewLoggingHook(HookTaskFailed, logger))
type LoggingHook struct {
	hookType HookType
	logger   logging.Logger
}

// NewLoggingHook creates a logging hook for the given lifecycle point.
// A nil logger disables output.
func NewLoggingHook(hookType HookType, logger logging.Logger) *LoggingHook {
	return &LoggingHook{
		hookType: hookType,
		logger:   logger,
	}
}

// Type returns the hook type this logger handles.
func (h *LoggingHook) Type() HookType {
	return h.hookType
}

// Execute logs the event with task and agent identifiers when present.
func (h *LoggingHook) Execute(_ context.Context, hookCtx *HookContext) error {
	if h.logger == nil {
		return nil
	}
	if hookCtx.Task.ID == "" {
		h.logger.Info("hook."+string(h.hookType), "agent", hookCtx.Agent)
		return nil
	}
	h.logger.Info("hook."+string(h.hookType),
		"agent", hookCtx.Agent,
		"task_id", hookCtx.Task.ID,
		"status", string(hookCtx.Task.Status),
		"steps_used", hookCtx.Task.StepsUsed,
	)
	return nil
}

// MetricsHook counts lifecycle events per type.
//
// A single collector serves all types: Observe returns a typed view
// that can be registered for each lifecycle point of interest, and all
// views feed the same counters.
//
// Example:
//
//	metrics := NewMetricsHook()
//	hooks.Register(metrics.Observe(HookTaskCompleted))
//	hooks.Register(metrics.Observe(HookTaskFailed))
//	...
//	fmt.Println(metrics.Count(HookTaskFailed))
type MetricsHook struct {
	mu     sync.Mutex
	counts map[HookType]int
}

// NewMetricsHook creates a metrics collector with zeroed counters.
func NewMetricsHook() *MetricsHook {
	return &MetricsHook{
		counts: make(map[HookType]int),
	}
}

// Observe returns a Hook view of the collector for the given type.
func (m *MetricsHook) Observe(hookType HookType) Hook {
	return NewFunctionHook(hookType, func(_ context.Context, hookCtx *HookContext) error {
		m.mu.Lock()
		defer m.mu.Unlock()
		m.counts[hookCtx.HookType]++
		return nil
	})
}

// Count returns the number of observed events for the given type.
func (m *MetricsHook) Count(hookType HookType) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counts[hookType]
}

// Counts returns a copy of all counters.
func (m *MetricsHook) Counts() map[HookType]int {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make(map[HookType]int, len(m.counts))
	for k, v := range m.counts {
		out[k] = v
	}
	return out
}
