package agent

import (
	"context"

	"github.com/natshell-dev/natshell/pkg/conversation"
	"github.com/natshell-dev/natshell/pkg/engine"
)

// summarizationTemperature and summarizationMaxTokens bound the one-shot
// compaction call: low temperature for a terse, deterministic summary, a
// small token budget since the result only needs to keep the conversation
// minimally coherent.
const (
	summarizationTemperature = 0.1
	summarizationMaxTokens   = 512
)

const summarizationPrompt = "Summarize the following conversation turns in a few sentences, preserving any facts, file paths, and decisions a continuation would need. Do not add new information."

// EngineSummarizer adapts an engine.Engine to conversation.Summarizer,
// wiring the context manager's compaction routine to the agent loop's
// active inference engine.
type EngineSummarizer struct {
	Engine engine.Engine
}

// Summarize sends messages plus a dedicated summarization instruction to
// the engine as a single, tool-free chat completion.
func (s *EngineSummarizer) Summarize(ctx context.Context, messages []conversation.Message) (string, error) {
	prompt := []conversation.Message{{Role: conversation.RoleSystem, Content: summarizationPrompt}}
	prompt = append(prompt, messages...)

	result, err := s.Engine.ChatCompletion(ctx, prompt, nil, summarizationTemperature, summarizationMaxTokens)
	if err != nil {
		return "", err
	}
	return result.Text, nil
}
