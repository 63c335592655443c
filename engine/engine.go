package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hupe1980/agenthive/agent"
	"github.com/hupe1980/agenthive/core"
	"github.com/hupe1980/agenthive/logging"
	"github.com/hupe1980/agenthive/runner"
	"github.com/hupe1980/agenthive/task"
)

// ErrClosed is returned by Spawn after Close has been called.
var ErrClosed = errors.New("engine is closed")

// Config defines tuning parameters for the delegation protocol.
//
// The limits exist to keep the orchestrator's context window safe:
//   - Concurrency: how many tasks can run simultaneously
//   - Task size: how much work description a single spawn may carry
//   - Result size: how much of a specialist's response flows back
//
// All three default to the values the protocol documents to models, so
// overriding them changes what the orchestrator is told versus what is
// enforced. Override with care.
type Config struct {
	// MaxConcurrentTasks limits the number of simultaneously running
	// tasks. Spawns beyond the ceiling fail immediately with
	// MAX_TASKS_EXCEEDED; they are never queued, which keeps
	// back-pressure visible to the orchestrating model.
	MaxConcurrentTasks int

	// TaskMaxTokens caps the estimated token size of a spawned task
	// description. Larger tasks fail with TASK_TOO_LARGE; big inputs
	// belong in shared context, referenced by key.
	TaskMaxTokens int

	// ResultMaxTokens caps the estimated token size of a collected
	// result. Longer final responses are truncated with an explicit
	// notice rather than rejected.
	ResultMaxTokens int
}

// DefaultConfig provides the standard protocol limits.
//
// Configuration values:
//   - MaxConcurrentTasks: 5
//   - TaskMaxTokens: 1000
//   - ResultMaxTokens: 1000
var DefaultConfig = Config{
	MaxConcurrentTasks: 5,
	TaskMaxTokens:      1000,
	ResultMaxTokens:    1000,
}

// Options configures an Engine instance using the functional options
// pattern.
//
// Example:
//
//	engine := New(myRunner, func(o *Options) {
//	    o.Config.MaxConcurrentTasks = 3
//	    o.Logger = myLogger
//	})
type Options struct {
	// Config contains the protocol limits. Defaults to DefaultConfig.
	Config Config

	// Registry holds the specialist configurations. When nil, a fresh
	// registry restricted to KnownCapabilities is created.
	Registry *agent.Registry

	// KnownCapabilities restricts which tool names runtime definitions
	// may reference. Only consulted when Registry is nil; an empty list
	// accepts any capability name.
	KnownCapabilities []string

	// Logger provides structured logging for task lifecycle events.
	// Defaults to a no-op logger.
	Logger logging.Logger

	// Hooks observe the delegation lifecycle. Defaults to an empty
	// manager.
	Hooks *HookManager
}

// Engine is the dispatcher at the center of the delegation protocol.
//
// One orchestrating model talks to the engine through five actions
// (list_agents, define, spawn, status, collect) and the engine turns
// spawns into bounded specialist runs on a fixed worker pool. The
// protocol is deliberately asymmetric: spawning is asynchronous and
// returns immediately, while results only flow back when the
// orchestrator explicitly collects them.
//
// Core responsibilities:
//   - Admission control: at most MaxConcurrentTasks tasks run at once
//   - Size enforcement: tasks and results are token-bounded
//   - Isolation: one failed task never affects other tasks or the pool
//   - Attribution: every run carries a "subagent:{agent}:{task_id}"
//     caller identity into its tool calls
//
// Concurrency model:
//   - A fixed pool of MaxConcurrentTasks worker goroutines consumes
//     jobs from a buffered channel sized to the ceiling; because the
//     task manager admits at most that many running tasks, submission
//     after a successful create never blocks.
//   - All five actions are safe for concurrent use.
//   - There is no per-task cancellation: a spawned task runs to
//     completion or failure. Close prevents new work and waits for
//     in-flight tasks.
type Engine struct {
	// Identity and collaborators - immutable after construction
	id       string          // instance identifier for log correlation
	config   Config          // protocol limits
	registry *agent.Registry // specialist configurations
	tasks    *task.Manager   // admission control and task tracking
	runner   runner.Runner   // execution backend for specialist loops
	hooks    *HookManager    // lifecycle observers
	logger   logging.Logger  // structured logging interface

	// Worker pool
	jobs chan job       // buffered to MaxConcurrentTasks
	wg   sync.WaitGroup // tracks worker goroutines

	// Shutdown state
	baseCtx context.Context    // parent context for all runner calls
	cancel  context.CancelFunc // released after the pool drains
	mu      sync.Mutex         // guards closed and the jobs send
	closed  bool
}

// job is one admitted task waiting for a worker.
type job struct {
	taskID string
	cfg    *agent.Config
	task   string
}

// New creates an engine over the given execution backend and starts its
// worker pool.
//
// The runner is the only required collaborator: it runs one complete
// specialist loop per task and is called from multiple workers
// concurrently, so implementations must be safe for concurrent use.
// Everything else has working defaults suitable for tests and simple
// setups.
//
// The returned engine is immediately ready for use and safe for
// concurrent access. Call Close when the session ends to stop the pool
// and wait for in-flight tasks.
func New(r runner.Runner, optFns ...func(o *Options)) *Engine {
	opts := Options{
		Config: DefaultConfig,
		Logger: logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Config.MaxConcurrentTasks < 1 {
		opts.Config.MaxConcurrentTasks = DefaultConfig.MaxConcurrentTasks
	}
	if opts.Config.TaskMaxTokens < 1 {
		opts.Config.TaskMaxTokens = DefaultConfig.TaskMaxTokens
	}
	if opts.Config.ResultMaxTokens < 1 {
		opts.Config.ResultMaxTokens = DefaultConfig.ResultMaxTokens
	}

	registry := opts.Registry
	if registry == nil {
		registry = agent.NewRegistry(func(o *agent.RegistryOptions) {
			o.KnownCapabilities = opts.KnownCapabilities
		})
	}

	hooks := opts.Hooks
	if hooks == nil {
		hooks = NewHookManager()
	}

	ctx, cancel := context.WithCancel(context.Background())

	e := &Engine{
		id:       uuid.NewString(),
		config:   opts.Config,
		registry: registry,
		tasks:    task.NewManager(opts.Config.MaxConcurrentTasks),
		runner:   r,
		hooks:    hooks,
		logger:   opts.Logger,
		jobs:     make(chan job, opts.Config.MaxConcurrentTasks),
		baseCtx:  ctx,
		cancel:   cancel,
	}

	for i := 0; i < opts.Config.MaxConcurrentTasks; i++ {
		e.wg.Add(1)
		go e.worker()
	}

	e.logger.Info("engine.started",
		"engine_id", e.id,
		"max_concurrent_tasks", opts.Config.MaxConcurrentTasks,
	)

	return e
}

// Register adds a pre-built specialist configuration, typically during
// application setup before the orchestrator session starts. Runtime
// definitions go through the define action instead.
func (e *Engine) Register(cfg *agent.Config) error {
	return e.registry.Register(cfg)
}

// Registry returns the specialist registry for introspection.
func (e *Engine) Registry() *agent.Registry { return e.registry }

// Config returns the protocol limits the engine enforces.
func (e *Engine) Config() Config { return e.config }

// RunningTasks returns the number of tasks currently executing.
func (e *Engine) RunningTasks() int { return e.tasks.Running() }

// Handle dispatches one orchestrator request given as raw tool-call
// arguments. Domain violations come back as coded errors; the tool
// surface converts them into structured payloads for the model.
func (e *Engine) Handle(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	req, err := parseRequest(args)
	if err != nil {
		return nil, err
	}

	switch r := req.(type) {
	case ListAgentsRequest:
		return e.ListAgents(ctx)
	case DefineRequest:
		return e.Define(ctx, r)
	case SpawnRequest:
		return e.Spawn(ctx, r)
	case StatusRequest:
		return e.Status(ctx, r)
	case CollectRequest:
		return e.Collect(ctx, r)
	default:
		return nil, fmt.Errorf("unhandled request type %T", req)
	}
}

// ListAgents returns the summaries of all registered specialists sorted
// by name.
func (e *Engine) ListAgents(_ context.Context) (*AgentsResponse, error) {
	configs := e.registry.List()

	summaries := make([]agent.Summary, 0, len(configs))
	for _, cfg := range configs {
		summaries = append(summaries, cfg.Summary())
	}

	return &AgentsResponse{Agents: summaries}, nil
}

// Define validates and registers a specialist at runtime.
func (e *Engine) Define(ctx context.Context, req DefineRequest) (*DefineResponse, error) {
	cfg, err := e.registry.Define(agent.Definition{
		Name:         req.Name,
		Description:  req.Description,
		Instructions: req.Instructions,
		Capabilities: req.Capabilities,
		Model:        req.Model,
		MaxSteps:     req.MaxSteps,
	})
	if err != nil {
		return nil, err
	}

	e.logger.Info("engine.agent.defined",
		"agent", cfg.Name(),
		"max_steps", cfg.MaxSteps(),
		"capabilities", cfg.Capabilities(),
	)
	e.fireHook(ctx, HookAgentDefined, cfg.Name(), task.Task{})

	return &DefineResponse{Defined: cfg.Name(), Description: cfg.Description()}, nil
}

// Spawn admits a new task and queues it for a worker.
//
// Validation order is fixed so the model sees the most specific error:
// task size first, then agent existence, then the concurrency ceiling.
// The response snapshot is captured before the job reaches the pool
// because a fast runner may finish before Spawn returns.
func (e *Engine) Spawn(ctx context.Context, req SpawnRequest) (*SpawnResponse, error) {
	if tokens := core.EstimateTokens(req.Task); tokens > e.config.TaskMaxTokens {
		return nil, core.NewError(core.CodeTaskTooLarge,
			"Task string is ~%d tokens, max is %d.", tokens, e.config.TaskMaxTokens)
	}

	cfg, err := e.registry.Get(req.Agent)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil, ErrClosed
	}

	t, err := e.tasks.Create(cfg.Name(), req.Task)
	if err != nil {
		e.mu.Unlock()
		return nil, err
	}

	resp := &SpawnResponse{TaskID: t.ID, Agent: t.Agent, Status: string(t.Status)}

	// The buffer is sized to the admission ceiling, so this send cannot
	// block while the lock is held.
	e.jobs <- job{taskID: t.ID, cfg: cfg, task: req.Task}
	e.mu.Unlock()

	e.logger.Info("engine.task.spawned", "task_id", t.ID, "agent", t.Agent)
	e.fireHook(ctx, HookTaskSpawned, t.Agent, t)

	return resp, nil
}

// Status returns a non-destructive progress snapshot of a task.
func (e *Engine) Status(_ context.Context, req StatusRequest) (*TaskResponse, error) {
	t, err := e.tasks.Get(req.TaskID)
	if err != nil {
		return nil, err
	}

	return statusResponse(t), nil
}

// Collect retrieves a finished task's outcome and removes the task from
// tracking. Collection is single-use; collecting a running task fails
// with TASK_NOT_READY and leaves it observable.
func (e *Engine) Collect(_ context.Context, req CollectRequest) (*TaskResponse, error) {
	t, err := e.tasks.Collect(req.TaskID)
	if err != nil {
		return nil, err
	}

	e.logger.Debug("engine.task.collected",
		"task_id", t.ID,
		"agent", t.Agent,
		"status", string(t.Status),
	)

	return collectResponse(t), nil
}

// Close stops the worker pool and waits for in-flight tasks to finish.
// Spawns after Close fail with ErrClosed; status and collect keep
// working so finished results remain retrievable. Close is idempotent.
func (e *Engine) Close() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	close(e.jobs)
	e.mu.Unlock()

	e.wg.Wait()
	e.cancel()

	e.logger.Info("engine.closed", "engine_id", e.id)

	return nil
}

func (e *Engine) worker() {
	defer e.wg.Done()

	for j := range e.jobs {
		e.executeTask(j)
	}
}

// executeTask runs one delegated task on the configured runner and
// records the terminal state. It never returns an error: failures are
// captured on the task itself so the orchestrator sees them through
// status and collect, and a panicking runner is contained the same way.
// Recovery covers only the runner call, so nothing that runs after the
// terminal transition can rewrite a recorded outcome.
func (e *Engine) executeTask(j job) {
	callerID := core.CallerID(j.cfg.Name(), j.taskID)

	var (
		outcome *runner.Outcome
		err     error
	)

	start := time.Now()

	func() {
		defer func() {
			if rec := recover(); rec != nil {
				e.logger.Error("engine.task.panic",
					"task_id", j.taskID,
					"agent", j.cfg.Name(),
					"panic", fmt.Sprintf("%v", rec),
				)
				err = fmt.Errorf("runner panicked: %v", rec)
			}
		}()

		outcome, err = e.runner.Run(e.baseCtx, j.cfg, j.task, callerID)
	}()

	if err != nil {
		steps := runner.StepsFromError(err)
		t, _ := e.tasks.Fail(j.taskID, err.Error(), steps)

		e.logger.Error("engine.task.failed",
			"task_id", j.taskID,
			"agent", j.cfg.Name(),
			"steps_used", steps,
			"duration_ms", time.Since(start).Milliseconds(),
			"error", err.Error(),
		)
		e.fireHook(e.baseCtx, HookTaskFailed, j.cfg.Name(), t)

		return
	}

	if outcome == nil {
		outcome = &runner.Outcome{}
	}

	result := truncateResult(outcome.Text, e.config.ResultMaxTokens)
	t, _ := e.tasks.Complete(j.taskID, result, outcome.StepsUsed)

	e.logger.Info("engine.task.completed",
		"task_id", j.taskID,
		"agent", j.cfg.Name(),
		"steps_used", outcome.StepsUsed,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	e.fireHook(e.baseCtx, HookTaskCompleted, j.cfg.Name(), t)
}

// fireHook runs the observers for one lifecycle event. Hook errors are
// logged and never alter the recorded task outcome.
func (e *Engine) fireHook(ctx context.Context, hookType HookType, agentName string, t task.Task) {
	hookCtx := &HookContext{
		HookType: hookType,
		Agent:    agentName,
		Task:     t,
		Metadata: map[string]interface{}{"engine_id": e.id},
	}

	if err := e.hooks.Execute(ctx, hookType, hookCtx); err != nil {
		e.logger.Warn("engine.hook.failed",
			"hook", string(hookType),
			"agent", agentName,
			"error", err.Error(),
		)
	}
}

// truncateResult caps a final response at maxTokens estimated tokens.
// Oversized text is cut after maxTokens*4 characters, never mid-rune,
// and the notice is appended so the orchestrator knows content was lost.
func truncateResult(text string, maxTokens int) string {
	if core.EstimateTokens(text) <= maxTokens {
		return text
	}

	maxChars := maxTokens * 4

	return string([]rune(text)[:maxChars]) + fmt.Sprintf("\n[truncated — full response exceeded %d token limit]", maxTokens)
}
