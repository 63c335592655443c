package engine

import (
	"github.com/hupe1980/agenthive/core"
	"github.com/hupe1980/agenthive/tool"
)

// delegateDescription is the usage guidance shown to orchestrator models.
const delegateDescription = "Delegate tasks to specialist agents. " +
	"Use list_agents to see available specialists. " +
	"Use define to create a new specialist at runtime. " +
	"Use spawn to start a task (returns immediately). " +
	"Use status to check progress. " +
	"Use collect to retrieve the result when done."

// DelegateTool exposes the engine to an orchestrating model as a single
// tool named "subagent". All five protocol actions dispatch through one
// action parameter, so the orchestrator spends exactly one tool slot on
// the whole delegation surface.
//
// The tool never reaches specialist capability lists: the config layer
// strips its name from every definition, which is what keeps the
// hierarchy flat at one orchestrator and one layer of specialists.
type DelegateTool struct {
	engine *Engine
}

var _ tool.Tool = (*DelegateTool)(nil)

// NewDelegateTool creates the orchestrator-facing tool over an engine.
func NewDelegateTool(engine *Engine) *DelegateTool {
	return &DelegateTool{engine: engine}
}

// Tool returns the engine's orchestrator-facing tool surface.
func (e *Engine) Tool() tool.Tool { return NewDelegateTool(e) }

// Name returns "subagent".
func (t *DelegateTool) Name() string { return core.DelegateToolName }

// Description returns the usage guidance shown to models.
func (t *DelegateTool) Description() string { return delegateDescription }

// Parameters returns the JSON schema for the action dispatch.
func (t *DelegateTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"action": map[string]any{
				"type": "string",
				"enum": []string{"list_agents", "define", "spawn", "status", "collect"},
				"description": "The operation to perform. " +
					"list_agents: see available specialists. " +
					"define: register a new specialist at runtime. " +
					"spawn: start a task on a specialist (async). " +
					"status: check task progress. " +
					"collect: retrieve completed task result.",
			},
			"name": map[string]any{
				"type": "string",
				"description": "Agent name for define. " +
					"Lowercase alphanumeric + underscores + hyphens, max 64 chars.",
			},
			"description": map[string]any{
				"type":        "string",
				"description": "One-line agent description for define.",
			},
			"instructions": map[string]any{
				"type": "string",
				"description": "System instructions for the new agent (define). " +
					"Focused instructions, max ~4000 tokens.",
			},
			"capabilities": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"description": "Tool names available to the agent (define).",
			},
			"model": map[string]any{
				"type":        "string",
				"description": "Model identifier for the agent (define).",
			},
			"max_steps": map[string]any{
				"type":        "integer",
				"description": "Max agent loop iterations (define). Default 10, max 25.",
			},
			"agent": map[string]any{
				"type":        "string",
				"description": "Name of the agent to run (spawn).",
			},
			"task": map[string]any{
				"type": "string",
				"description": "Task description sent to the subagent (spawn). " +
					"Keep concise; reference shared context keys for large context.",
			},
			"task_id": map[string]any{
				"type":        "string",
				"description": "Task identifier (status, collect).",
			},
		},
		"required": []string{"action"},
	}
}

// Call dispatches one orchestrator request. Coded protocol violations
// come back as structured {"error", "message"} payloads the model can
// read and correct on its next step; only infrastructure failures
// surface as Go errors.
func (t *DelegateTool) Call(toolCtx *tool.Context, args map[string]any) (any, error) {
	action, _ := args["action"].(string)

	toolCtx.Logger().Debug("subagent.call", "action", action, "caller", toolCtx.CallerID())

	result, err := t.engine.Handle(toolCtx.Context(), args)
	if err != nil {
		if coreErr, ok := core.AsError(err); ok {
			return coreErr.Structured(), nil
		}

		return nil, err
	}

	return result, nil
}
