// Package model defines the provider-agnostic abstractions and concrete
// helpers for interacting with language models inside AgentHive.
//
// Core goals:
//   - Normalize tool / function call representation (ToolDefinition, ToolCall)
//   - Keep request/response shapes minimal and transport independent
//   - Allow per-request model selection so individual agents can override
//     the configured default
//   - Facilitate lightweight mocking for tests (MockModel)
//
// Providers (e.g. OpenAI, Anthropic) implement the Model interface from this
// package so higher layers (runner, engine) remain decoupled from vendor SDKs.
package model
