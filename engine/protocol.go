package engine

import (
	"github.com/hupe1980/agenthive/agent"
	"github.com/hupe1980/agenthive/core"
	"github.com/hupe1980/agenthive/task"
)

// delegateActions is kept sorted for stable error messages.
var delegateActions = []string{"collect", "define", "list_agents", "spawn", "status"}

// DefineRequest registers a new specialist agent at runtime.
type DefineRequest struct {
	// Name is the agent identifier, lowercase alphanumeric plus
	// underscores and hyphens, max 64 characters.
	Name string

	// Description is the one-line summary shown by list_agents.
	Description string

	// Instructions is the system prompt for the specialist, max ~4000
	// estimated tokens.
	Instructions string

	// Capabilities lists the tool names the specialist may call. The
	// delegation tool itself is stripped, so specialists can never spawn
	// further subagents.
	Capabilities []string

	// Model overrides the model identifier for this specialist.
	Model string

	// MaxSteps bounds the agent loop. Zero means the default budget of
	// ten steps; explicit values are clamped to at least one and at most
	// twenty-five.
	MaxSteps int
}

// ListAgentsRequest asks for the registered specialist summaries.
type ListAgentsRequest struct{}

// SpawnRequest starts an asynchronous task on a named specialist.
type SpawnRequest struct {
	// Agent names the specialist to run.
	Agent string

	// Task is the work description handed to the specialist, max ~1000
	// estimated tokens.
	Task string
}

// StatusRequest asks for a non-destructive progress snapshot.
type StatusRequest struct {
	TaskID string
}

// CollectRequest retrieves a finished task's result and removes the
// task from tracking.
type CollectRequest struct {
	TaskID string
}

// DefineResponse acknowledges a runtime agent definition.
type DefineResponse struct {
	Defined     string `json:"defined"`
	Description string `json:"description"`
}

// AgentsResponse lists the registered specialists sorted by name.
// Summaries never include instructions, which keeps the orchestrator's
// context window free of every specialist's full prompt.
type AgentsResponse struct {
	Agents []agent.Summary `json:"agents"`
}

// SpawnResponse acknowledges an admitted task. Status is always
// "running" because the snapshot is captured before a worker picks the
// task up.
type SpawnResponse struct {
	TaskID string `json:"task_id"`
	Agent  string `json:"agent"`
	Status string `json:"status"`
}

// TaskResponse reports a task's externally visible state. Status
// responses never carry the result. Collect responses carry the result
// when completed, or the error message when failed; Result is a pointer
// so a completed-but-empty result still serializes as an explicit
// "result" field.
type TaskResponse struct {
	TaskID    string  `json:"task_id"`
	Agent     string  `json:"agent"`
	Status    string  `json:"status"`
	StepsUsed int     `json:"steps_used"`
	Result    *string `json:"result,omitempty"`
	Error     string  `json:"error,omitempty"`
}

// statusResponse renders the progress view of a task snapshot.
func statusResponse(t task.Task) *TaskResponse {
	resp := &TaskResponse{
		TaskID:    t.ID,
		Agent:     t.Agent,
		Status:    string(t.Status),
		StepsUsed: t.StepsUsed,
	}

	if t.Status == task.StatusFailed {
		resp.Error = t.Error
	}

	return resp
}

// collectResponse renders the terminal view of a collected task.
func collectResponse(t task.Task) *TaskResponse {
	resp := &TaskResponse{
		TaskID:    t.ID,
		Agent:     t.Agent,
		Status:    string(t.Status),
		StepsUsed: t.StepsUsed,
	}

	switch t.Status {
	case task.StatusCompleted:
		result := t.Result
		resp.Result = &result
	case task.StatusFailed:
		resp.Error = t.Error
	}

	return resp
}

// parseRequest maps raw tool-call arguments onto a typed request.
// Missing string fields default to "" and surface the domain error the
// operation itself would hit, mirroring how the actions behave when a
// model sends incomplete arguments.
func parseRequest(args map[string]interface{}) (interface{}, error) {
	action, _ := args["action"].(string)

	switch action {
	case "list_agents":
		return ListAgentsRequest{}, nil

	case "define":
		req := DefineRequest{
			Name:         stringArg(args, "name"),
			Description:  stringArg(args, "description"),
			Instructions: stringArg(args, "instructions"),
			Capabilities: stringSliceArg(args, "capabilities"),
			Model:        stringArg(args, "model"),
		}

		// An absent max_steps leaves the zero value, which the config
		// layer resolves to the default. An explicit value is clamped to
		// at least one here because zero would otherwise be mistaken for
		// "use the default".
		if steps, ok := intArg(args, "max_steps"); ok {
			if steps < 1 {
				steps = 1
			}
			req.MaxSteps = steps
		}

		return req, nil

	case "spawn":
		return SpawnRequest{
			Agent: stringArg(args, "agent"),
			Task:  stringArg(args, "task"),
		}, nil

	case "status":
		return StatusRequest{TaskID: stringArg(args, "task_id")}, nil

	case "collect":
		return CollectRequest{TaskID: stringArg(args, "task_id")}, nil

	default:
		return nil, core.NewError(core.CodeInvalidAction,
			"Unknown action: %q. Valid: %v", action, delegateActions)
	}
}

func stringArg(args map[string]interface{}, key string) string {
	v, _ := args[key].(string)
	return v
}

// stringSliceArg accepts both JSON-decoded []interface{} and typed
// []string from programmatic callers. Non-string items are dropped.
func stringSliceArg(args map[string]interface{}, key string) []string {
	switch v := args[key].(type) {
	case []string:
		return append([]string(nil), v...)
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}

	return nil
}

// intArg accepts JSON-decoded float64 and typed int values.
func intArg(args map[string]interface{}, key string) (int, bool) {
	switch v := args[key].(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	}

	return 0, false
}
