// Package agenthive provides a high-level façade over the core Engine,
// enabling rapid construction of orchestrator/subagent systems. Most
// applications interact with this package by:
//  1. Creating a Hive via New() with a runner (runner.ModelRunner for
//     production, runner.RunnerFunc for tests)
//  2. Registering specialist agents up front, or letting the
//     orchestrator define them at runtime through the delegation tool
//  3. Exposing Tool() in the orchestrator's model loop so it can
//     spawn, track and collect background tasks
//
// The façade delegates orchestration to engine.Engine while keeping
// setup and usage ergonomics concise. All defaults are safe for local
// development and testing; production deployments typically supply a
// structured logger and lifecycle hooks.
package agenthive

import (
	"context"

	"github.com/hupe1980/agenthive/agent"
	"github.com/hupe1980/agenthive/engine"
	"github.com/hupe1980/agenthive/logging"
	"github.com/hupe1980/agenthive/runner"
	"github.com/hupe1980/agenthive/tool"
)

// Options configures the Hive instance.
type Options struct {
	// Engine configuration (concurrency ceiling, task and result token limits)
	Config engine.Config

	// Registry holds the specialist definitions. Defaults to a fresh
	// registry seeded with KnownCapabilities.
	Registry *agent.Registry

	// KnownCapabilities is the closed set of tool names runtime define
	// may grant. Only consulted when Registry is nil; empty accepts any
	// capability name.
	KnownCapabilities []string

	// Hooks observe agent and task lifecycle events.
	Hooks *engine.HookManager

	// Logger (defaults to NoOp logger if nil)
	Logger logging.Logger
}

// Hive is the high-level façade aggregating the underlying engine.
type Hive struct {
	opts   Options
	engine *engine.Engine
}

// New creates a new Hive instance executing tasks through the given
// runner. Unset options fall back to safe in-memory defaults.
func New(r runner.Runner, optFns ...func(o *Options)) *Hive {
	opts := Options{
		Config: engine.DefaultConfig,
		Logger: logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	e := engine.New(r, func(o *engine.Options) {
		o.Config = opts.Config
		o.Registry = opts.Registry
		o.KnownCapabilities = opts.KnownCapabilities
		o.Hooks = opts.Hooks
		o.Logger = opts.Logger
	})

	return &Hive{opts: opts, engine: e}
}

// RegisterAgent adds a specialist to the underlying registry.
func (h *Hive) RegisterAgent(cfg *agent.Config) error { return h.engine.Register(cfg) }

// Tool returns the delegation tool for the orchestrator's model loop.
func (h *Hive) Tool() tool.Tool { return h.engine.Tool() }

// Handle dispatches a raw delegation request and returns the typed
// response. See engine.Engine.Handle for the accepted shapes.
func (h *Hive) Handle(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	return h.engine.Handle(ctx, args)
}

// Engine exposes the underlying engine for typed access.
func (h *Hive) Engine() *engine.Engine { return h.engine }

// Close drains running tasks and shuts the engine down.
func (h *Hive) Close() error { return h.engine.Close() }
