package core

import (
	"errors"
	"fmt"
)

// Code classifies a domain failure in the vocabulary shared with the
// orchestrating model. Codes are stable protocol strings; the accompanying
// message is advisory and may change.
type Code string

const (
	// CodeInvalidAgentName indicates an agent name outside [a-z0-9_-]{1,64}.
	CodeInvalidAgentName Code = "INVALID_AGENT_NAME"
	// CodeAgentAlreadyExists indicates a duplicate agent registration.
	CodeAgentAlreadyExists Code = "AGENT_ALREADY_EXISTS"
	// CodeAgentNotFound indicates a lookup of an unregistered agent.
	CodeAgentNotFound Code = "AGENT_NOT_FOUND"
	// CodePromptTooLarge indicates agent instructions above the token budget.
	CodePromptTooLarge Code = "PROMPT_TOO_LARGE"
	// CodeInvalidTool indicates a capability name outside the allow-list.
	CodeInvalidTool Code = "INVALID_TOOL"
	// CodeTaskTooLarge indicates a task description above the token budget.
	CodeTaskTooLarge Code = "TASK_TOO_LARGE"
	// CodeMaxTasksExceeded indicates the concurrency ceiling was hit.
	CodeMaxTasksExceeded Code = "MAX_TASKS_EXCEEDED"
	// CodeTaskNotFound indicates an unknown or already-collected task id.
	CodeTaskNotFound Code = "TASK_NOT_FOUND"
	// CodeTaskNotReady indicates a collect attempt on a running task.
	CodeTaskNotReady Code = "TASK_NOT_READY"
	// CodeInvalidAction indicates an action outside the protocol set.
	CodeInvalidAction Code = "INVALID_ACTION"

	// CodeInvalidKey indicates a context key outside [a-z0-9_]{1,64}.
	CodeInvalidKey Code = "INVALID_KEY"
	// CodeKeyNotFound indicates a read or delete of an absent context key.
	CodeKeyNotFound Code = "KEY_NOT_FOUND"
	// CodeValueTooLarge indicates a context value above the token budget.
	CodeValueTooLarge Code = "VALUE_TOO_LARGE"
	// CodeStoreFull indicates a write that would exceed the store budget.
	CodeStoreFull Code = "STORE_FULL"
	// CodeSessionNotFound indicates a lookup of an unknown session.
	CodeSessionNotFound Code = "SESSION_NOT_FOUND"
	// CodeSessionArchived indicates a mutation of an archived session.
	CodeSessionArchived Code = "SESSION_ARCHIVED"
)

// Error is a coded domain failure. It is returned as a structured value to
// the calling model rather than raised through the transport: the protocol
// layer serializes it as {"error": CODE, "message": ...} so the model can
// react (collect later, pick another agent, shrink the prompt).
type Error struct {
	Code    Code   `json:"error"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewError creates a coded Error with a formatted message.
func NewError(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// AsError unwraps err into a coded Error, reporting whether it is one.
func AsError(err error) (*Error, bool) {
	var de *Error
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}

// Structured returns the protocol form of the error, suitable for returning
// to the model as a tool result.
func (e *Error) Structured() map[string]any {
	return map[string]any{"error": string(e.Code), "message": e.Message}
}
