package tools

import (
	"context"
	"fmt"
	"time"

	"github.com/natshell-dev/natshell/pkg/conversation"
)

// Executor dispatches Tool Calls to their registered Handler, measuring
// wall-clock duration for the ToolResult's Duration field.
type Executor struct {
	Registry *Registry
}

// NewExecutor builds an Executor over reg.
func NewExecutor(reg *Registry) *Executor {
	return &Executor{Registry: reg}
}

// Execute runs one Tool Call. An unregistered tool name or a handler that
// returns a Go error both become a Tool.Validation-flavored ToolResult
// rather than propagating up to the caller, so tool errors reach the
// model as structured results instead of aborting the loop.
func (e *Executor) Execute(ctx context.Context, call conversation.ToolCall) conversation.ToolResult {
	start := time.Now()

	entry, ok := e.Registry.Get(call.Name)
	if !ok {
		return conversation.ToolResult{
			Error:    fmt.Sprintf("unknown tool %q", call.Name),
			ExitCode: 1,
			Duration: time.Since(start),
		}
	}

	result, err := entry.Handler(ctx, call.Arguments)
	result.Duration = time.Since(start)
	if err != nil {
		if result.Error == "" {
			result.Error = err.Error()
		}
		if result.ExitCode == 0 {
			result.ExitCode = 1
		}
	}
	return result
}

// ExecuteBatch runs every call in calls in declared order, returning
// results in the same order. Each call's context is ctx; the caller is
// responsible for cancelling ctx to abandon remaining calls.
func (e *Executor) ExecuteBatch(ctx context.Context, calls []conversation.ToolCall) []conversation.ToolResult {
	results := make([]conversation.ToolResult, len(calls))
	for i, call := range calls {
		select {
		case <-ctx.Done():
			results[i] = conversation.ToolResult{Error: "cancelled before execution", ExitCode: 1}
			continue
		default:
		}
		results[i] = e.Execute(ctx, call)
	}
	return results
}
