package engine

import (
	"context"
	"fmt"
	"strings"

	ollama "github.com/ollama/ollama/api"

	"github.com/natshell-dev/natshell/pkg/conversation"
)

// LocalEngine wraps a bundled language-model runtime reached through the
// Ollama HTTP API. Tool schemas are never sent as a native tools array:
// they're inlined into the system prompt as plain text by the caller,
// since the local model convention this backend targets emits tool
// invocations as <tool_call> markers in its own output rather than a
// structured field.
type LocalEngine struct {
	client        *ollama.Client
	model         string
	contextWindow int
}

// NewLocalEngine builds a LocalEngine for model, auto-detecting its
// context window from the filename unless explicitCtx overrides it.
func NewLocalEngine(model string, explicitCtx int) (*LocalEngine, error) {
	client, err := ollama.ClientFromEnvironment()
	if err != nil {
		return nil, fmt.Errorf("could not create ollama client: %w", err)
	}
	ctxWindow := explicitCtx
	if ctxWindow <= 0 {
		ctxWindow = ContextWindowForModelName(model)
	}
	return &LocalEngine{client: client, model: model, contextWindow: ctxWindow}, nil
}

func (e *LocalEngine) Name() string       { return "local:" + e.model }
func (e *LocalEngine) ContextWindow() int { return e.contextWindow }

// ChatCompletion translates messages 1:1 into Ollama chat messages,
// requests a non-streamed completion, strips <think> blocks, scans for
// <tool_call> markers, and reports finish_reason from whichever of text
// or tool calls came back.
func (e *LocalEngine) ChatCompletion(ctx context.Context, messages []conversation.Message, tools []Tool, temperature float64, maxTokens int) (CompletionResult, error) {
	ollamaMessages := make([]ollama.Message, 0, len(messages))
	for _, msg := range messages {
		ollamaMessages = append(ollamaMessages, ollama.Message{
			Role:    string(msg.Role),
			Content: renderMessageForLocal(msg),
		})
	}

	numCtx := e.contextWindow
	if numCtx < 4096 {
		numCtx = 4096
	}

	stream := false
	req := &ollama.ChatRequest{
		Model:    e.model,
		Messages: ollamaMessages,
		Stream:   &stream,
		Options: map[string]interface{}{
			"temperature": temperature,
			"num_ctx":     numCtx,
			"num_predict": maxTokens,
			"stop":        []string{"</tool_call>\n\n", "END"},
		},
	}

	var content strings.Builder
	err := e.client.Chat(ctx, req, func(res ollama.ChatResponse) error {
		content.WriteString(res.Message.Content)
		return nil
	})
	if err != nil {
		if ctx.Err() != nil {
			return CompletionResult{FinishReason: FinishCancelled}, nil
		}
		return CompletionResult{}, &TransientError{Reason: "local engine chat failed", Err: err}
	}

	cleaned := stripThinkTags(content.String())
	text, calls := extractMarkerToolCalls(cleaned)

	reason := FinishStop
	if len(calls) > 0 {
		reason = FinishToolCalls
	}
	return CompletionResult{Text: text, ToolCalls: calls, FinishReason: reason}, nil
}

// renderMessageForLocal flattens a tool-result message into a line the
// local model (which has no native tool-role concept) can read back as
// context, rather than relying on the Ollama role field to carry
// semantics the model doesn't honor.
func renderMessageForLocal(msg conversation.Message) string {
	if msg.Role != conversation.RoleTool || msg.ToolResult == nil {
		return msg.Content
	}
	if msg.ToolResult.Error != "" {
		return fmt.Sprintf("[tool result for %s] error: %s", msg.ToolCallID, msg.ToolResult.Error)
	}
	return fmt.Sprintf("[tool result for %s] %s", msg.ToolCallID, msg.ToolResult.Output)
}
