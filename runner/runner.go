package runner

import (
	"context"
	"errors"

	"github.com/hupe1980/agenthive/agent"
)

// Outcome is the final product of one agent execution: the text handed back
// to the orchestrator and the number of model calls it took to produce.
type Outcome struct {
	Text      string
	StepsUsed int
}

// Runner executes a configured agent against a task description and returns
// its final response. The callerID identifies the execution for attribution
// ("subagent:{agent}:{task_id}"); tools invoked during the run see it as
// their caller identity.
//
// Implementations must be safe for concurrent use: the engine runs several
// tasks at once against a single Runner.
type Runner interface {
	Run(ctx context.Context, cfg *agent.Config, task, callerID string) (*Outcome, error)
}

// RunnerFunc adapts a plain function to the Runner interface. Useful for
// tests and custom execution backends.
type RunnerFunc func(ctx context.Context, cfg *agent.Config, task, callerID string) (*Outcome, error)

// Run calls f.
func (f RunnerFunc) Run(ctx context.Context, cfg *agent.Config, task, callerID string) (*Outcome, error) {
	return f(ctx, cfg, task, callerID)
}

// StepLimitError reports that an agent consumed its whole step budget
// without producing a final response.
type StepLimitError struct {
	StepsUsed int
}

// Error implements the error interface.
func (e *StepLimitError) Error() string {
	return "max steps exceeded without producing a final response"
}

// StepsFromError extracts the number of steps an execution consumed before
// failing. Errors that carry no step information report zero.
func StepsFromError(err error) int {
	var limitErr *StepLimitError
	if errors.As(err, &limitErr) {
		return limitErr.StepsUsed
	}

	return 0
}
