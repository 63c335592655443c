package model

import (
	"context"
	"fmt"
	"sync"
)

// Role identifies the author of a chat message.
type Role string

const (
	// RoleUser marks content supplied to the model (including tool results).
	RoleUser Role = "user"
	// RoleAssistant marks content produced by the model.
	RoleAssistant Role = "assistant"
)

// ToolCall is a model-issued request to invoke a tool.
type ToolCall struct {
	// ID correlates the call with its result.
	ID string `json:"id"`
	// Name is the tool to invoke.
	Name string `json:"name"`
	// Arguments is the raw JSON argument payload.
	Arguments string `json:"arguments"`
}

// ToolResult carries the outcome of a tool call back to the model.
type ToolResult struct {
	// CallID references the originating ToolCall.
	CallID string `json:"call_id"`
	// Content is the serialized tool output (or error text).
	Content string `json:"content"`
}

// Message is one turn of a conversation. Assistant turns may carry tool
// calls; user turns may carry tool results.
type Message struct {
	Role        Role
	Text        string
	ToolCalls   []ToolCall
	ToolResults []ToolResult
}

// ToolDefinition describes a callable tool in provider-neutral form.
// Parameters is a JSON-schema object.
type ToolDefinition struct {
	Name        string
	Description string
	Parameters  map[string]any
}

// Request is a single chat completion request.
type Request struct {
	// Model overrides the adapter's configured default when non-empty.
	// This is how a per-agent model choice reaches the provider.
	Model string
	// System is the system prompt.
	System string
	// Messages is the conversation so far.
	Messages []Message
	// Tools lists the tools the model may call.
	Tools []ToolDefinition
}

// Response is the provider-neutral result of a chat completion.
type Response struct {
	// Text is the concatenated text content of the reply.
	Text string
	// ToolCalls lists tool invocations the model requested, if any.
	ToolCalls []ToolCall
	// StopReason is the provider's stop reason, unmapped ("end_turn" for
	// Anthropic, "stop" for OpenAI, "tool_use"/"tool_calls" mid-loop).
	StopReason string
}

// Info provides metadata about a model implementation.
type Info struct {
	Name          string
	Provider      string
	SupportsTools bool
}

// Model is the interface all chat model implementations must satisfy.
type Model interface {
	// Generate performs one chat completion.
	Generate(ctx context.Context, req Request) (*Response, error)
	// Info returns metadata about the model.
	Info() Info
}

// MockModel is a scripted model implementation for testing. Responses are
// consumed in FIFO order; with an empty script it echoes the last user
// message. Every request is recorded for assertions.
type MockModel struct {
	info     Info
	script   []scriptStep
	requests []Request
	mu       sync.Mutex
}

type scriptStep struct {
	resp *Response
	err  error
}

var _ Model = (*MockModel)(nil)

// NewMockModel creates a new mock model instance.
func NewMockModel() *MockModel {
	return &MockModel{
		info: Info{Name: "mock-model", Provider: "mock", SupportsTools: true},
	}
}

// Enqueue appends a scripted response.
func (m *MockModel) Enqueue(resp *Response) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.script = append(m.script, scriptStep{resp: resp})
}

// EnqueueText is shorthand for a final text-only response.
func (m *MockModel) EnqueueText(text string) {
	m.Enqueue(&Response{Text: text, StopReason: "end_turn"})
}

// EnqueueError appends a scripted failure.
func (m *MockModel) EnqueueError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.script = append(m.script, scriptStep{err: err})
}

// Generate pops the next scripted step, or echoes the last message when the
// script is exhausted.
func (m *MockModel) Generate(_ context.Context, req Request) (*Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.requests = append(m.requests, req)

	if len(m.script) == 0 {
		last := ""
		if n := len(req.Messages); n > 0 {
			last = req.Messages[n-1].Text
		}
		return &Response{Text: fmt.Sprintf("Mock response to: %s", last), StopReason: "end_turn"}, nil
	}

	step := m.script[0]
	m.script = m.script[1:]
	if step.err != nil {
		return nil, step.err
	}
	return step.resp, nil
}

// Requests returns a copy of all requests seen so far.
func (m *MockModel) Requests() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Request, len(m.requests))
	copy(out, m.requests)
	return out
}

// Info returns the mock model metadata.
func (m *MockModel) Info() Info { return m.info }
