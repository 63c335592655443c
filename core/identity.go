package core

import "fmt"

// DelegateToolName is the name under which the engine exposes its tool
// surface to the orchestrating model. The same name is silently stripped
// from specialist capability lists, so spawned agents cannot delegate
// further and fan out unbounded trees of work.
const DelegateToolName = "subagent"

// OrchestratorID is the default caller identity for direct engine calls.
const OrchestratorID = "orchestrator"

// CallerID builds the identity attached to tool calls made by a spawned
// specialist, e.g. "subagent:researcher:t_01". Stores record it as the
// author of writes so provenance survives across tasks.
func CallerID(agentName, taskID string) string {
	return fmt.Sprintf("subagent:%s:%s", agentName, taskID)
}
