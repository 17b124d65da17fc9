package agent

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/natshell-dev/natshell/pkg/config"
	"github.com/natshell-dev/natshell/pkg/conversation"
	"github.com/natshell-dev/natshell/pkg/engine"
	"github.com/natshell-dev/natshell/pkg/safety"
	"github.com/natshell-dev/natshell/pkg/tools"
)

func TestStepBudgetForContextWindowScalesToNearestTier(t *testing.T) {
	assert.Equal(t, 15, StepBudgetForContextWindow(4096))
	assert.Equal(t, 25, StepBudgetForContextWindow(8192))
	assert.Equal(t, 35, StepBudgetForContextWindow(16384))
	assert.Equal(t, 50, StepBudgetForContextWindow(32768))
	assert.Equal(t, 75, StepBudgetForContextWindow(262144))
	assert.Equal(t, 15, StepBudgetForContextWindow(2048))
	assert.Equal(t, 50, StepBudgetForContextWindow(40000))
}

func newTestRegistry(t *testing.T) *tools.Registry {
	t.Helper()
	reg := tools.NewRegistry()
	require.NoError(t, reg.Register(tools.Entry{
		Schema: tools.Schema{Name: "read_file", Description: "reads a file"},
		Handler: func(ctx context.Context, args map[string]interface{}) (conversation.ToolResult, error) {
			return conversation.ToolResult{Output: "file contents"}, nil
		},
	}))
	require.NoError(t, reg.Register(tools.Entry{
		Schema: tools.Schema{Name: "execute_shell", Description: "runs a shell command"},
		Handler: func(ctx context.Context, args map[string]interface{}) (conversation.ToolResult, error) {
			return conversation.ToolResult{Output: "ran"}, nil
		},
	}))
	return reg
}

func newTestLoop(t *testing.T, eng engine.Engine, events *[]Event) *Loop {
	t.Helper()
	reg := newTestRegistry(t)
	return &Loop{
		Engine:      eng,
		Executor:    tools.NewExecutor(reg),
		Registry:    reg,
		Policy:      safety.NewDefaultPolicy(),
		AgentConfig: config.AgentConfig{MaxSteps: 0, Temperature: 0.2, MaxTokens: 256},
		Sink:        EventSinkFunc(func(e Event) { *events = append(*events, e) }),
	}
}

func TestLoopRespondsWithTextOnlyFinish(t *testing.T) {
	fake := &fakeEngine{window: 4096, result: engine.CompletionResult{Text: "hello back", FinishReason: engine.FinishStop}}
	var events []Event
	loop := newTestLoop(t, fake, &events)

	conv := conversation.NewConversation("id", "")
	conv.Append(conversation.Message{Role: conversation.RoleUser, Content: "hi"})

	err := loop.Run(context.Background(), conv)
	require.NoError(t, err)

	last := conv.Messages[len(conv.Messages)-1]
	assert.Equal(t, "hello back", last.Content)

	var sawResponse bool
	for _, e := range events {
		if e.Kind == EventResponse {
			sawResponse = true
			assert.Equal(t, "hello back", e.Text)
		}
	}
	assert.True(t, sawResponse)
}

// sequencedEngine returns each queued result in turn, then the last result
// repeatedly once exhausted.
type sequencedEngine struct {
	window  int
	results []engine.CompletionResult
	calls   int
}

func (s *sequencedEngine) Name() string       { return "sequenced" }
func (s *sequencedEngine) ContextWindow() int { return s.window }
func (s *sequencedEngine) ChatCompletion(ctx context.Context, messages []conversation.Message, toolDefs []engine.Tool, temperature float64, maxTokens int) (engine.CompletionResult, error) {
	idx := s.calls
	if idx >= len(s.results) {
		idx = len(s.results) - 1
	}
	s.calls++
	return s.results[idx], nil
}

func TestLoopExecutesSafeToolCallThenRespondsNextStep(t *testing.T) {
	eng := &sequencedEngine{
		window: 4096,
		results: []engine.CompletionResult{
			{ToolCalls: []conversation.ToolCall{{ID: "1", Name: "read_file", Arguments: map[string]interface{}{"path": "a.txt"}}}, FinishReason: engine.FinishToolCalls},
			{Text: "done", FinishReason: engine.FinishStop},
		},
	}
	var events []Event
	loop := newTestLoop(t, eng, &events)

	conv := conversation.NewConversation("id", "")
	conv.Append(conversation.Message{Role: conversation.RoleUser, Content: "read a.txt"})

	err := loop.Run(context.Background(), conv)
	require.NoError(t, err)
	require.NoError(t, conv.Validate())

	var sawToolResult bool
	for _, e := range events {
		if e.Kind == EventToolResult {
			sawToolResult = true
			assert.Equal(t, "file contents", e.ToolResult.Output)
		}
	}
	assert.True(t, sawToolResult)
}

func TestLoopBlocksDisallowedShellCommand(t *testing.T) {
	eng := &sequencedEngine{
		window: 4096,
		results: []engine.CompletionResult{
			{ToolCalls: []conversation.ToolCall{{ID: "1", Name: "execute_shell", Arguments: map[string]interface{}{"command": "rm -rf /"}}}, FinishReason: engine.FinishToolCalls},
			{Text: "ok", FinishReason: engine.FinishStop},
		},
	}
	var events []Event
	loop := newTestLoop(t, eng, &events)

	conv := conversation.NewConversation("id", "")
	conv.Append(conversation.Message{Role: conversation.RoleUser, Content: "wipe disk"})

	err := loop.Run(context.Background(), conv)
	require.NoError(t, err)

	var sawBlocked bool
	for _, e := range events {
		if e.Kind == EventBlocked && e.ToolCall != nil {
			sawBlocked = true
		}
	}
	assert.True(t, sawBlocked)

	toolMsg := conv.Messages[2]
	assert.Equal(t, conversation.RoleTool, toolMsg.Role)
	assert.Contains(t, toolMsg.ToolResult.Error, "blocked")
}

func TestLoopDeclinedConfirmationProducesDeclineResult(t *testing.T) {
	eng := &sequencedEngine{
		window: 4096,
		results: []engine.CompletionResult{
			{ToolCalls: []conversation.ToolCall{{ID: "1", Name: "execute_shell", Arguments: map[string]interface{}{"command": "chmod 600 a.txt"}}}, FinishReason: engine.FinishToolCalls},
			{Text: "ok", FinishReason: engine.FinishStop},
		},
	}
	var events []Event
	loop := newTestLoop(t, eng, &events)
	loop.Confirm = func(ctx context.Context, call conversation.ToolCall, reason string) bool { return false }

	conv := conversation.NewConversation("id", "")
	conv.Append(conversation.Message{Role: conversation.RoleUser, Content: "chmod the file"})

	err := loop.Run(context.Background(), conv)
	require.NoError(t, err)

	toolMsg := conv.Messages[2]
	assert.Contains(t, toolMsg.ToolResult.Error, "declined")
}

func TestLoopStepBudgetExceededTerminates(t *testing.T) {
	eng := &fakeEngine{window: 4096, result: engine.CompletionResult{
		ToolCalls:    []conversation.ToolCall{{ID: "1", Name: "read_file", Arguments: map[string]interface{}{"path": "a.txt"}}},
		FinishReason: engine.FinishToolCalls,
	}}
	var events []Event
	loop := newTestLoop(t, eng, &events)
	loop.AgentConfig.MaxSteps = 2

	conv := conversation.NewConversation("id", "")
	conv.Append(conversation.Message{Role: conversation.RoleUser, Content: "loop forever"})

	err := loop.Run(context.Background(), conv)
	require.NoError(t, err)

	var sawBudgetBlock bool
	for _, e := range events {
		if e.Kind == EventBlocked && e.ToolCall == nil {
			sawBudgetBlock = true
		}
	}
	assert.True(t, sawBudgetBlock)
}

func TestLoopCancelledContextStopsImmediately(t *testing.T) {
	eng := &fakeEngine{window: 4096, result: engine.CompletionResult{Text: "should not be reached"}}
	var events []Event
	loop := newTestLoop(t, eng, &events)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	conv := conversation.NewConversation("id", "")
	conv.Append(conversation.Message{Role: conversation.RoleUser, Content: "hi"})

	err := loop.Run(ctx, conv)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, EventCancelled, events[0].Kind)
}

func TestLoopSudoRetryReplaysCallOnce(t *testing.T) {
	reg := tools.NewRegistry()
	attempts := 0
	require.NoError(t, reg.Register(tools.Entry{
		Schema: tools.Schema{Name: "execute_shell", Description: "runs a shell command"},
		Handler: func(ctx context.Context, args map[string]interface{}) (conversation.ToolResult, error) {
			attempts++
			if attempts == 1 {
				return conversation.ToolResult{Error: "sudo credential required", ExitCode: tools.ExitCodeSudoCredentialNeeded}, nil
			}
			return conversation.ToolResult{Output: "ran with sudo"}, nil
		},
	}))

	eng := &sequencedEngine{
		window: 4096,
		results: []engine.CompletionResult{
			{ToolCalls: []conversation.ToolCall{{ID: "1", Name: "execute_shell", Arguments: map[string]interface{}{"command": "sudo ls"}}}, FinishReason: engine.FinishToolCalls},
			{Text: "done", FinishReason: engine.FinishStop},
		},
	}

	var events []Event
	loop := &Loop{
		Engine:      eng,
		Executor:    tools.NewExecutor(reg),
		Registry:    reg,
		Policy:      safety.NewDefaultPolicy(),
		SudoCache:   tools.NewSudoCredentialCache(),
		SudoAsk:     func(ctx context.Context) (string, error) { return "hunter2", nil },
		AgentConfig: config.AgentConfig{Temperature: 0.2, MaxTokens: 256},
		Sink:        EventSinkFunc(func(e Event) { events = append(events, e) }),
	}

	conv := conversation.NewConversation("id", "")
	conv.Append(conversation.Message{Role: conversation.RoleUser, Content: "sudo ls"})

	err := loop.Run(context.Background(), conv)
	require.NoError(t, err)
	assert.Equal(t, 2, attempts)

	toolMsg := conv.Messages[2]
	assert.Equal(t, "ran with sudo", toolMsg.ToolResult.Output)
}
