// Package core provides the foundational vocabulary shared by every AgentHive
// component. It defines:
//
//   - The coded error taxonomy (Error, Code) returned to the orchestrating
//     model as structured values rather than raised through the transport
//   - Token estimation (EstimateTokens) underlying all size policies
//   - Caller identity helpers (CallerID) for attributing tool calls and
//     context store writes to the task that made them
//   - StepLimiter for bounding model calls within a single task run
//
// The package intentionally keeps implementation concerns (registries, task
// lifecycle, engine orchestration, persistence) out of scope so that every
// other package can depend on it without cycles.
package core
