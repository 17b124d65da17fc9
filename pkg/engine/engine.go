// Package engine implements the Inference Engine: a local and a remote
// chat-completion backend behind one interface, plus the fallback swap
// that lets the agent loop keep going when the preferred engine's
// transport fails mid-turn.
package engine

import (
	"context"
	"strings"

	"github.com/natshell-dev/natshell/pkg/conversation"
)

// FinishReason classifies why a ChatCompletion call stopped producing
// output.
type FinishReason string

const (
	FinishStop      FinishReason = "stop"
	FinishToolCalls FinishReason = "tool_calls"
	FinishLength    FinishReason = "length"
	FinishCancelled FinishReason = "cancelled"
	FinishError     FinishReason = "error"
)

// Tool is the engine-facing view of one callable tool: just enough to
// inline into a local model's system prompt or marshal into a remote
// provider's native tools array.
type Tool struct {
	Name        string
	Description string
	Parameters  map[string]interface{}
}

// CompletionResult is what a ChatCompletion call returns: assistant text,
// zero or more requested tool calls (both may be populated at once), and
// the reason generation stopped.
type CompletionResult struct {
	Text         string
	ToolCalls    []conversation.ToolCall
	FinishReason FinishReason
}

// Engine is the Inference Engine contract. Implementations must honor ctx
// cancellation by stopping generation at the next token boundary rather
// than blocking until completion.
type Engine interface {
	ChatCompletion(ctx context.Context, messages []conversation.Message, tools []Tool, temperature float64, maxTokens int) (CompletionResult, error)
	Name() string
	ContextWindow() int
}

// TransientError marks a backend failure the fallback swap should treat
// as "the preferred engine is unreachable right now", as opposed to a
// request-shape or auth error that would fail identically on retry or on
// the fallback engine.
type TransientError struct {
	Reason string
	Err    error
}

func (e *TransientError) Error() string {
	if e.Err == nil {
		return e.Reason
	}
	return e.Reason + ": " + e.Err.Error()
}

func (e *TransientError) Unwrap() error { return e.Err }

// IsTransient reports whether err (or something it wraps) is a
// TransientError, the trigger for the Agent Loop's engine fallback.
func IsTransient(err error) bool {
	_, ok := err.(*TransientError)
	if ok {
		return true
	}
	type unwrapper interface{ Unwrap() error }
	for u, ok := err.(unwrapper); ok; u, ok = err.(unwrapper) {
		err = u.Unwrap()
		if _, ok := err.(*TransientError); ok {
			return true
		}
	}
	return false
}

// ContextWindowForModelName auto-detects a context window from a model
// filename's size suffix (e.g. "llama-3-8b-instruct.gguf" -> 8192),
// falling back to a conservative default when no recognized suffix is
// present. Explicit model.n_ctx configuration always takes precedence
// over this guess.
func ContextWindowForModelName(name string) int {
	lower := strings.ToLower(name)
	switch {
	case containsAny(lower, "262144", "256k"):
		return 262144
	case containsAny(lower, "128k"):
		return 131072
	case containsAny(lower, "32k"):
		return 32768
	case containsAny(lower, "16k"):
		return 16384
	case containsAny(lower, "8b", "8k"):
		return 8192
	case containsAny(lower, "4b", "4k"):
		return 4096
	default:
		return 4096
	}
}

func containsAny(s string, substrs ...string) bool {
	for _, sub := range substrs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
