package runner

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hupe1980/agenthive/agent"
	"github.com/hupe1980/agenthive/core"
	"github.com/hupe1980/agenthive/logging"
	"github.com/hupe1980/agenthive/model"
	"github.com/hupe1980/agenthive/tool"
)

// subagentSuffix is appended to every agent's instructions so specialists
// summarize instead of dumping raw findings into their response.
const subagentSuffix = "\n\nYou are a subagent. Keep your final response concise (under 1000 tokens). " +
	"Write detailed findings to shared context rather than including them " +
	"in your response. Your response will be returned to the orchestrator " +
	"as a summary of your work."

// Options holds dependency and configuration overrides passed to NewModelRunner.
type Options struct {
	// Tools that agents may reference by capability name.
	Tools []tool.Tool
	// Logger receives execution activity. Defaults to a no-op logger.
	Logger logging.Logger
}

// ModelRunner drives a model-backed agent loop. Each step sends the
// conversation to the model, executes any tool calls it makes, and feeds the
// results back, until the model produces a final response or the agent's
// step budget runs out.
//
// Agents reference tools by capability name; names with no registered tool
// are skipped, so an agent simply runs without them. A ModelRunner holds no
// per-run state and is safe for concurrent use.
type ModelRunner struct {
	model  model.Model
	tools  map[string]tool.Tool
	logger logging.Logger
}

var _ Runner = (*ModelRunner)(nil)

// NewModelRunner creates a runner over the given model with optional overrides.
func NewModelRunner(m model.Model, optFns ...func(o *Options)) *ModelRunner {
	opts := Options{
		Logger: logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	tools := make(map[string]tool.Tool, len(opts.Tools))
	for _, tl := range opts.Tools {
		tools[tl.Name()] = tl
	}

	return &ModelRunner{
		model:  m,
		tools:  tools,
		logger: opts.Logger,
	}
}

// Run executes the agent loop for cfg against the task description.
//
// The final response is the text of the step where the model stopped
// naturally or made no executable tool calls. Exhausting the step budget
// returns a *StepLimitError carrying the steps consumed.
func (r *ModelRunner) Run(ctx context.Context, cfg *agent.Config, task, callerID string) (*Outcome, error) {
	table, defs := r.agentTools(cfg)

	req := model.Request{
		Model:  cfg.Model(),
		System: cfg.Instructions() + subagentSuffix,
		Tools:  defs,
		Messages: []model.Message{
			{Role: model.RoleUser, Text: task},
		},
	}

	limiter := core.NewStepLimiter(cfg.MaxSteps())

	r.logger.Debug("runner.run.start",
		"agent", cfg.Name(),
		"caller", callerID,
		"max_steps", cfg.MaxSteps(),
		"tools", len(defs),
	)

	for limiter.Allow() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		start := time.Now()

		resp, err := r.model.Generate(ctx, req)
		if err != nil {
			r.logger.Error("runner.model.failed", "agent", cfg.Name(), "step", limiter.Count()+1, "error", err.Error())
			return nil, fmt.Errorf("model call failed: %w", err)
		}

		limiter.Increment()

		r.logger.Debug("runner.model.call",
			"agent", cfg.Name(),
			"step", limiter.Count(),
			"duration_ms", time.Since(start).Milliseconds(),
			"tool_calls", len(resp.ToolCalls),
			"stop_reason", resp.StopReason,
		)

		results := r.executeToolCalls(ctx, table, resp.ToolCalls, callerID)

		req.Messages = append(req.Messages, model.Message{
			Role:      model.RoleAssistant,
			Text:      resp.Text,
			ToolCalls: resp.ToolCalls,
		})

		if isFinal(resp.StopReason) || len(results) == 0 {
			return &Outcome{Text: resp.Text, StepsUsed: limiter.Count()}, nil
		}

		req.Messages = append(req.Messages, model.Message{
			Role:        model.RoleUser,
			ToolResults: results,
		})
	}

	r.logger.Warn("runner.steps.exhausted", "agent", cfg.Name(), "caller", callerID, "steps_used", limiter.Count())

	return nil, &StepLimitError{StepsUsed: limiter.Count()}
}

// agentTools resolves the agent's capability names against the registered
// tools, returning the executable table and the definitions advertised to
// the model.
func (r *ModelRunner) agentTools(cfg *agent.Config) (map[string]tool.Tool, []model.ToolDefinition) {
	capabilities := cfg.Capabilities()

	table := make(map[string]tool.Tool, len(capabilities))
	defs := make([]model.ToolDefinition, 0, len(capabilities))

	for _, name := range capabilities {
		tl, ok := r.tools[name]
		if !ok {
			continue
		}

		table[name] = tl
		defs = append(defs, model.ToolDefinition{
			Name:        tl.Name(),
			Description: tl.Description(),
			Parameters:  tl.Parameters(),
		})
	}

	return table, defs
}

// executeToolCalls runs every call the agent has a tool for. Calls naming
// unknown tools produce no result; a step whose calls all miss is treated
// as final by the loop.
func (r *ModelRunner) executeToolCalls(ctx context.Context, table map[string]tool.Tool, calls []model.ToolCall, callerID string) []model.ToolResult {
	results := make([]model.ToolResult, 0, len(calls))

	for _, call := range calls {
		impl, ok := table[call.Name]
		if !ok {
			continue
		}

		results = append(results, r.executeToolCall(ctx, impl, call, callerID))
	}

	return results
}

func (r *ModelRunner) executeToolCall(ctx context.Context, impl tool.Tool, call model.ToolCall, callerID string) model.ToolResult {
	var (
		result any
		err    error
	)

	start := time.Now()

	func() {
		defer func() {
			if rec := recover(); rec != nil {
				err = fmt.Errorf("tool panicked: %v", rec)
				r.logger.Error("runner.tool.panic", "tool", call.Name, "recover", rec)
			}
		}()

		result, err = r.callTool(ctx, impl, call, callerID)
	}()

	r.logger.Info("runner.tool.executed",
		"tool", call.Name,
		"caller", callerID,
		"duration_ms", time.Since(start).Milliseconds(),
		"error", err != nil,
	)

	if err != nil {
		return model.ToolResult{
			CallID:  call.ID,
			Content: marshalPayload(map[string]any{"error": err.Error()}),
		}
	}

	return model.ToolResult{
		CallID:  call.ID,
		Content: marshalPayload(result),
	}
}

func (r *ModelRunner) callTool(ctx context.Context, impl tool.Tool, call model.ToolCall, callerID string) (any, error) {
	args := map[string]any{}
	if call.Arguments != "" {
		if err := json.Unmarshal([]byte(call.Arguments), &args); err != nil {
			return nil, fmt.Errorf("failed to unmarshal args: %w", err)
		}
	}

	toolCtx := tool.NewContext(ctx, callerID, call.ID, r.logger)

	return impl.Call(toolCtx, args)
}

// isFinal reports whether the provider signaled a natural stop. Anthropic
// reports "end_turn", OpenAI reports "stop".
func isFinal(stopReason string) bool {
	return stopReason == "end_turn" || stopReason == "stop"
}

func marshalPayload(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf(`{"error":%q}`, err.Error())
	}

	return string(data)
}
