// Package agent defines specialist agent configurations and the registry
// that holds them. The package focuses on two concerns:
//
//  1. Config — the immutable, validated description of a specialist
//     (identity, instructions, capabilities, model, step budget)
//  2. Registry — thread-safe storage for pre-registered and runtime-defined
//     configs, including the validation pipeline behind the define action
//
// Design principles:
//   - Configs are sealed: every *Config passed through NewConfig, so holders
//     never re-validate
//   - The delegation tool never appears in a capability list, which keeps
//     specialists from spawning specialists
//   - Coded errors (core.Error) flow back to the orchestrating model as
//     structured values rather than opaque failures
//
// Execution concerns (running an agent loop against a model) live in the
// runner package; task lifecycle lives in the task package.
package agent
