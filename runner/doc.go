// Package runner implements the execution backend for subagent tasks.
//
// The Runner interface is the seam between the engine, which tracks tasks
// and enforces delegation limits, and the code that actually performs the
// work. ModelRunner is the built-in implementation: it drives a
// model-backed loop that advertises the agent's tools, executes the
// model's tool calls, and feeds results back until the model produces a
// final response or the agent's step budget is exhausted.
//
// Applications with custom execution needs can supply their own Runner (or
// a RunnerFunc) to the engine; the engine only requires final text plus a
// step count, or an error.
//
// # Responsibilities (abridged)
//   - Per-agent tool resolution from capability names
//   - Conversation assembly and step accounting
//   - Tool call execution with panic isolation and error payloads
//   - Step budget enforcement via StepLimitError
//
// See model_runner.go for the operational implementation details.
package runner
