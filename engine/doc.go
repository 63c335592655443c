// Package engine implements the dispatcher at the center of the
// subagent delegation protocol.
//
// One orchestrating model owns a session and delegates bounded pieces of
// work to specialist agents. The engine is the piece in the middle: it
// accepts the orchestrator's tool calls, enforces the protocol limits,
// runs specialists on a fixed worker pool through a pluggable runner,
// and hands results back only when the orchestrator asks for them.
//
// # Protocol
//
// The orchestrator interacts through five actions carried by a single
// tool named "subagent":
//
//   - list_agents: summaries of the registered specialists (never their
//     instructions, which stay out of the orchestrator's context)
//   - define: register a new specialist at runtime
//   - spawn: start a task on a specialist; returns immediately with a
//     task id while the work runs in the background
//   - status: non-destructive progress check
//   - collect: retrieve the result of a finished task; single-use
//
// Every limit exists to protect the orchestrator's context window: task
// descriptions and collected results are token-bounded, instructions are
// size-checked at define time, and at most a fixed number of tasks run
// concurrently. Violations come back to the model as structured
// {"error", "message"} payloads it can read and correct, never as
// opaque failures.
//
// # Core Responsibilities
//
// Admission control:
//   - At most Config.MaxConcurrentTasks tasks run simultaneously
//   - Over-ceiling spawns fail immediately with MAX_TASKS_EXCEEDED
//     rather than queueing, keeping back-pressure visible to the model
//
// Execution:
//   - A fixed pool of worker goroutines consumes admitted tasks
//   - Each run carries a "subagent:{agent}:{task_id}" caller identity
//     for tool-call attribution
//   - Runner errors and panics are contained on the failing task; the
//     pool and all other tasks are unaffected
//
// Result handling:
//   - Final responses over the result budget are truncated with an
//     explicit notice
//   - Results are held until collected; collection removes the task
//
// # Usage
//
//	eng := engine.New(myRunner, func(o *engine.Options) {
//	    o.Logger = logger
//	})
//	defer eng.Close()
//
//	// Pre-register specialists, or let the orchestrator define its own.
//	cfg, _ := agent.NewConfig("researcher", "Investigates questions", prompt)
//	eng.Register(cfg)
//
//	// Hand the tool surface to the orchestrator's agent loop.
//	delegate := eng.Tool()
//
// # Hooks
//
// Lifecycle observers can be attached for auditing and metrics. Hooks
// fire on agent definition, task spawn, completion, and failure; hook
// errors are logged and never change a task's recorded outcome.
//
// # Concurrency Model
//
// All five actions are safe for concurrent use. There is no per-task
// cancellation primitive: a spawned task runs to completion or failure,
// and Close only prevents new work while waiting for in-flight tasks to
// drain.
package engine
