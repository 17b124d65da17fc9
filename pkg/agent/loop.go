// Package agent implements the Agent Loop: the bounded ReAct state machine
// that turns one user message into zero or more gated tool calls and a
// final response, plus the system prompt and system-info collaborators it
// is built from.
package agent

import (
	"context"
	"fmt"
	"time"

	"github.com/natshell-dev/natshell/pkg/config"
	"github.com/natshell-dev/natshell/pkg/conversation"
	"github.com/natshell-dev/natshell/pkg/engine"
	"github.com/natshell-dev/natshell/pkg/safety"
	"github.com/natshell-dev/natshell/pkg/tools"
)

// stepBudgetTable maps a context window size to its default step budget,
// per the 4K/8K/16K/32K/256K scaling table. A window that does not match
// a table entry falls back to the nearest named tier below it.
var stepBudgetTable = []struct {
	window int
	steps  int
}{
	{4096, 15},
	{8192, 25},
	{16384, 35},
	{32768, 50},
	{262144, 75},
}

// StepBudgetForContextWindow scales the step budget to the context window:
// 15/25/35/50/75 steps for 4K/8K/16K/32K/256K windows. A window between
// tiers gets the budget of the largest tier at or below it, a window
// smaller than 4K gets the first tier's 15, and anything at or above 256K
// gets the top tier's 75.
func StepBudgetForContextWindow(window int) int {
	budget := stepBudgetTable[0].steps
	for _, tier := range stepBudgetTable {
		if window >= tier.window {
			budget = tier.steps
		}
	}
	return budget
}

// ConfirmFunc asks the user whether to proceed with a Confirm-risk tool
// call, blocking until they answer. Returning false declines the call.
type ConfirmFunc func(ctx context.Context, call conversation.ToolCall, reason string) bool

// SudoPasswordFunc prompts for a sudo password when a shell call reports
// ExitCodeSudoCredentialNeeded, blocking until the user supplies one.
type SudoPasswordFunc func(ctx context.Context) (string, error)

// Loop drives one Conversation through the IDLE/REASONING/GATE/
// AWAIT_CONFIRM/EXECUTE/AWAIT_SUDO state machine for each user turn.
type Loop struct {
	Engine   engine.Engine
	Executor *tools.Executor
	Registry *tools.Registry
	Policy   *safety.Policy
	Manager  *conversation.Manager

	SudoCache *tools.SudoCredentialCache
	Confirm   ConfirmFunc
	SudoAsk   SudoPasswordFunc

	Sink EventSink

	AgentConfig config.AgentConfig
}

// maxSteps resolves the step budget: explicit config override wins,
// otherwise it scales from the active engine's context window.
func (l *Loop) maxSteps() int {
	if l.AgentConfig.MaxSteps > 0 {
		return l.AgentConfig.MaxSteps
	}
	return StepBudgetForContextWindow(l.Engine.ContextWindow())
}

func (l *Loop) emit(e Event) {
	if l.Sink != nil {
		l.Sink.Emit(e)
	}
}

func (l *Loop) toolDefs() []engine.Tool {
	schemas := l.Registry.Schemas()
	out := make([]engine.Tool, len(schemas))
	for i, s := range schemas {
		out[i] = engine.Tool{Name: s.Name, Description: s.Description, Parameters: s.Parameters}
	}
	return out
}

// Run drives conv through one full user turn: IDLE (conv already has the
// new user message appended) through REASONING/GATE/EXECUTE cycles until
// the engine responds with text only, the step budget is exceeded, or ctx
// is cancelled.
func (l *Loop) Run(ctx context.Context, conv *conversation.Conversation) error {
	if swapper, ok := l.Engine.(*engine.Swapper); ok {
		swapper.Reset()
	}
	budget := l.maxSteps()

	for step := 0; ; step++ {
		select {
		case <-ctx.Done():
			l.emit(Event{Kind: EventCancelled, Text: "turn cancelled before completion"})
			return nil
		default:
		}

		if step >= budget {
			msg := fmt.Sprintf("step budget of %d exceeded for this turn", budget)
			conv.Append(conversation.Message{Role: conversation.RoleAssistant, Content: msg})
			l.emit(Event{Kind: EventBlocked, Text: msg})
			return nil
		}

		l.emit(Event{Kind: EventThinking})

		if l.Manager != nil && l.Manager.ShouldCompact(conv.Messages) {
			if err := l.Manager.Compact(ctx, conv); err != nil {
				l.emit(Event{Kind: EventError, Text: "compaction failed: " + err.Error()})
			}
		}

		result, err := l.Engine.ChatCompletion(ctx, conv.Messages, l.toolDefs(), l.AgentConfig.Temperature, l.AgentConfig.MaxTokens)
		if err != nil {
			if ctx.Err() != nil {
				l.emit(Event{Kind: EventCancelled, Text: "turn cancelled during inference"})
				return nil
			}
			l.emit(Event{Kind: EventError, Text: err.Error()})
			return err
		}

		assistantMsg := conversation.Message{Role: conversation.RoleAssistant, Content: result.Text, ToolCalls: result.ToolCalls}
		conv.Append(assistantMsg)

		if len(result.ToolCalls) == 0 {
			l.emit(Event{Kind: EventResponse, Text: result.Text})
			return nil
		}

		results := l.gateAndExecute(ctx, result.ToolCalls)
		conv.AppendToolResults(result.ToolCalls, results)

		select {
		case <-ctx.Done():
			l.emit(Event{Kind: EventCancelled, Text: "turn cancelled after tool execution"})
			return nil
		default:
		}
	}
}

// gateAndExecute classifies every call in the batch independently (so one
// Confirm never blocks a sibling Safe call), then executes the approved
// subset, returning results in the same order the model declared the
// calls, as the tool-call/result pairing invariant requires.
func (l *Loop) gateAndExecute(ctx context.Context, calls []conversation.ToolCall) []conversation.ToolResult {
	results := make([]conversation.ToolResult, len(calls))

	for i, call := range calls {
		if ctx.Err() != nil {
			results[i] = conversation.ToolResult{Error: "cancelled before execution", ExitCode: 1}
			continue
		}

		verdict := safety.ClassifyToolCall(l.Policy, call.Name, call.Arguments)

		switch verdict.Risk {
		case safety.Blocked:
			l.emit(Event{Kind: EventBlocked, ToolCall: &call, Reason: verdict.Reason})
			results[i] = conversation.ToolResult{Error: "blocked: " + verdict.Reason, ExitCode: 1}
			continue

		case safety.Confirm:
			approved := true
			if l.Confirm != nil {
				l.emit(Event{Kind: EventConfirmNeeded, ToolCall: &call, Reason: verdict.Reason})
				approved = l.Confirm(ctx, call, verdict.Reason)
			}
			if !approved {
				results[i] = conversation.ToolResult{Error: "declined by user: " + verdict.Reason, ExitCode: 1}
				continue
			}
		}

		results[i] = l.executeWithSudoRetry(ctx, call)
	}

	return results
}

// executeWithSudoRetry executes call, and if it reports
// ExitCodeSudoCredentialNeeded, prompts once for a sudo password and
// replays the same call exactly once (AWAIT_SUDO -> EXECUTE).
func (l *Loop) executeWithSudoRetry(ctx context.Context, call conversation.ToolCall) conversation.ToolResult {
	l.emit(Event{Kind: EventExecuting, ToolCall: &call})
	result := l.Executor.Execute(ctx, call)
	l.emit(Event{Kind: EventToolResult, ToolCall: &call, ToolResult: &result})

	if result.ExitCode != tools.ExitCodeSudoCredentialNeeded || l.SudoAsk == nil || l.SudoCache == nil {
		return result
	}

	password, err := l.SudoAsk(ctx)
	if err != nil || password == "" {
		return result
	}
	l.SudoCache.Set(password, time.Now())

	l.emit(Event{Kind: EventExecuting, ToolCall: &call})
	retried := l.Executor.Execute(ctx, call)
	l.emit(Event{Kind: EventToolResult, ToolCall: &call, ToolResult: &retried})
	return retried
}
