package tool

import (
	"context"

	"github.com/hupe1980/agenthive/logging"
)

// Context carries per-invocation metadata into a tool call.
//
// It identifies who is calling (the orchestrator, or a subagent task via its
// "subagent:{agent}:{task_id}" identity), propagates cancellation, and provides
// a logger scoped to the invocation. Tools use the caller identity for
// attribution, for example when recording who wrote a shared context key.
type Context struct {
	ctx      context.Context
	callerID string
	callID   string
	logger   logging.Logger
}

// NewContext creates a tool invocation context. A nil logger is replaced with
// a no-op logger so tools can log unconditionally.
func NewContext(ctx context.Context, callerID, callID string, logger logging.Logger) *Context {
	if ctx == nil {
		ctx = context.Background()
	}
	if logger == nil {
		logger = logging.NoOpLogger{}
	}

	return &Context{
		ctx:      ctx,
		callerID: callerID,
		callID:   callID,
		logger:   logger,
	}
}

// Context returns the cancellation context for this invocation.
func (c *Context) Context() context.Context { return c.ctx }

// CallerID returns the identity of the caller. The orchestrator calls tools as
// "orchestrator"; a subagent calls them as "subagent:{agent}:{task_id}".
func (c *Context) CallerID() string { return c.callerID }

// CallID returns the model-assigned identifier of the tool call, used to
// correlate the model request with the tool execution in logs.
func (c *Context) CallID() string { return c.callID }

// Logger returns the logger scoped to this invocation.
func (c *Context) Logger() logging.Logger { return c.logger }
