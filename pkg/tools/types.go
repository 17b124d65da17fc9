// Package tools implements the Tool Runtime: registration, dispatch, and
// the nine builtin tools the agent loop can call.
package tools

import (
	"context"

	"github.com/natshell-dev/natshell/pkg/conversation"
)

// Schema is the JSON-Schema-style parameter descriptor the model consumes
// when deciding how to call a tool.
type Schema struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Parameters  map[string]interface{} `json:"parameters"`
}

// Handler executes one Tool Call and returns a Tool Result. Handlers never
// return a Go error for an ordinary operational failure (non-zero exit,
// missing file, ambiguous edit): those are encoded in the ToolResult
// itself, since tool errors are reported back to the model as structured
// results rather than raised to the user directly. A Go error return is
// reserved for failures the executor should still wrap into a result, and
// for context cancellation.
type Handler func(ctx context.Context, args map[string]interface{}) (conversation.ToolResult, error)

// Entry is one registered tool: its schema, handler, and a confirmation
// hint. The Safety Classifier does not read RequiresConfirmation; its
// non-shell mapping is keyed by tool name.
type Entry struct {
	Schema               Schema
	Handler              Handler
	RequiresConfirmation bool
}
