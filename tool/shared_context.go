package tool

import (
	"github.com/hupe1980/agenthive/contextstore"
	"github.com/hupe1980/agenthive/core"
)

// SharedContextName is the tool name agents use to reach the session store.
const SharedContextName = "shared_context"

const sharedContextDescription = "Read and write to the shared context store — the session's working memory. " +
	"Use list_keys to see available keys (always call this first). " +
	"Use read to get a key's value. " +
	"Use write to create or update a key. " +
	"Use delete to remove a key that is no longer relevant."

// sharedContextActions is kept sorted for stable error messages.
var sharedContextActions = []string{"delete", "list_keys", "read", "write"}

// SharedContextTool exposes a session's contextstore.Store as a callable tool.
//
// Agents operate on the store through an action parameter (list_keys, read,
// write, delete). Writes are attributed to the caller identity carried by the
// tool Context, so the orchestrator and each subagent task leave distinct
// written_by trails; agents cannot forge the attribution themselves.
//
// Domain violations (invalid keys, quota breaches, unknown keys, archived
// sessions) are returned as structured result payloads so the model can read
// the error and adjust. Only infrastructure failures, such as a persistence
// error, surface as Go errors.
type SharedContextTool struct {
	store *contextstore.Store
}

var _ Tool = (*SharedContextTool)(nil)

// NewSharedContextTool creates the shared context tool over a session store.
func NewSharedContextTool(store *contextstore.Store) *SharedContextTool {
	return &SharedContextTool{store: store}
}

// Name returns "shared_context".
func (t *SharedContextTool) Name() string { return SharedContextName }

// Description returns the usage guidance shown to models.
func (t *SharedContextTool) Description() string { return sharedContextDescription }

// Parameters returns the JSON schema for the action dispatch.
func (t *SharedContextTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"action": map[string]any{
				"type": "string",
				"enum": []string{"list_keys", "read", "write", "delete"},
				"description": "The operation to perform. " +
					"list_keys: returns all keys with metadata (no values). " +
					"read: returns the value for a single key. " +
					"write: creates or overwrites a key. " +
					"delete: removes a key entirely.",
			},
			"key": map[string]any{
				"type": "string",
				"description": "The key to operate on. Required for read, write, and delete. " +
					"Must be lowercase alphanumeric + underscores, max 64 characters.",
			},
			"value": map[string]any{
				"type": "string",
				"description": "The value to write. Required for write. " +
					"Must be distilled state, not raw data. Max ~1000 tokens.",
			},
		},
		"required": []string{"action"},
	}
}

// Call dispatches the requested action to the store. Missing string arguments
// default to "" and fail the store's own validation.
func (t *SharedContextTool) Call(toolCtx *Context, args map[string]any) (any, error) {
	action, _ := args["action"].(string)

	toolCtx.Logger().Debug("shared_context.call", "action", action, "caller", toolCtx.CallerID())

	switch action {
	case "list_keys":
		return t.store.ListKeys(), nil

	case "read":
		key, _ := args["key"].(string)

		result, err := t.store.Read(key)
		if err != nil {
			return sharedContextError(err)
		}

		return result, nil

	case "write":
		key, _ := args["key"].(string)
		value, _ := args["value"].(string)

		result, err := t.store.Write(key, value, writerIdentity(toolCtx))
		if err != nil {
			return sharedContextError(err)
		}

		return result, nil

	case "delete":
		key, _ := args["key"].(string)

		result, err := t.store.Delete(key)
		if err != nil {
			return sharedContextError(err)
		}

		return result, nil

	default:
		return core.NewError(core.CodeInvalidAction,
			"Unknown action: %q. Valid: %v", action, sharedContextActions).Structured(), nil
	}
}

// writerIdentity resolves the attribution for a write. The identity is set by
// the execution layer, never by the agent itself.
func writerIdentity(toolCtx *Context) string {
	if callerID := toolCtx.CallerID(); callerID != "" {
		return callerID
	}

	return "unknown"
}

// sharedContextError converts store errors into model-readable payloads.
// Anything outside the coded taxonomy is a real failure and propagates.
func sharedContextError(err error) (any, error) {
	if coreErr, ok := core.AsError(err); ok {
		return coreErr.Structured(), nil
	}

	return nil, err
}
