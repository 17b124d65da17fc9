package conversation

import (
	"context"
	"fmt"
	"strings"
)

// Summarizer produces a one-shot summary of the given messages. The agent
// package's engine wiring supplies an implementation that calls the active
// inference engine with a dedicated summarization prompt.
type Summarizer interface {
	Summarize(ctx context.Context, messages []Message) (string, error)
}

// Manager tracks an approximate token count per message and triggers
// compaction before the projected prompt would exceed the model's context
// window. The estimator is a cheap whitespace-and-punctuation heuristic;
// exact tokenization is not load-bearing on any contract here.
type Manager struct {
	ContextWindow  int // total tokens the model can hold
	ReservedHead   int // tokens reserved for generation (max_tokens)
	SafetyMargin   int // extra buffer before triggering compaction
	RetainFraction float64 // fraction of window the retained tail must fit in (default 1/3)

	Summarizer Summarizer
}

// NewManager builds a Manager with a safety margin of 5% of the window
// (minimum 256 tokens) and a retained-tail fraction of one third.
func NewManager(contextWindow, reservedHead int, summarizer Summarizer) *Manager {
	margin := contextWindow / 20
	if margin < 256 {
		margin = 256
	}
	return &Manager{
		ContextWindow:  contextWindow,
		ReservedHead:   reservedHead,
		SafetyMargin:   margin,
		RetainFraction: 1.0 / 3.0,
		Summarizer:     summarizer,
	}
}

// EstimateTokens approximates token count for a string using a
// whitespace-and-punctuation heuristic: roughly one token per four
// characters, with a floor of one token per word. It does not claim
// tokenizer-exact accuracy.
func EstimateTokens(s string) int {
	if s == "" {
		return 0
	}
	byChar := (len(s) + 3) / 4
	words := len(strings.Fields(s))
	if words > byChar {
		return words
	}
	return byChar
}

// EstimateMessageTokens estimates the token cost of a single message,
// including its tool-call/result payloads.
func EstimateMessageTokens(m Message) int {
	total := EstimateTokens(m.Content)
	for _, tc := range m.ToolCalls {
		total += EstimateTokens(tc.Name) + 20
		for k, v := range tc.Arguments {
			total += EstimateTokens(k) + EstimateTokens(fmt.Sprintf("%v", v))
		}
	}
	if m.ToolResult != nil {
		total += EstimateTokens(m.ToolResult.Output) + EstimateTokens(m.ToolResult.Error)
	}
	return total
}

// ProjectedTokens sums the estimated tokens of every message.
func ProjectedTokens(messages []Message) int {
	total := 0
	for _, m := range messages {
		total += EstimateMessageTokens(m)
	}
	return total
}

// ShouldCompact reports whether the projected prompt plus the reserved
// generation budget would exceed the context window minus the safety
// margin.
func (cm *Manager) ShouldCompact(messages []Message) bool {
	projected := ProjectedTokens(messages)
	limit := cm.ContextWindow - cm.ReservedHead - cm.SafetyMargin
	return projected > limit
}

// Compact replaces all non-system turns older than a retained tail with a
// single synthetic system-tagged summary message. The retained tail is
// chosen so its estimated token cost fits within RetainFraction of the
// context window. Compact does not consult ShouldCompact itself; the agent
// loop calls it only when ShouldCompact is true.
func (cm *Manager) Compact(ctx context.Context, conv *Conversation) error {
	if len(conv.Messages) == 0 {
		return nil
	}

	var systemMsg *Message
	rest := conv.Messages
	if conv.Messages[0].Role == RoleSystem {
		m := conv.Messages[0]
		systemMsg = &m
		rest = conv.Messages[1:]
	}

	retainBudget := int(float64(cm.ContextWindow) * cm.RetainFraction)
	tailStart := len(rest)
	tailTokens := 0
	for tailStart > 0 {
		cost := EstimateMessageTokens(rest[tailStart-1])
		if tailTokens+cost > retainBudget {
			break
		}
		tailTokens += cost
		tailStart--
	}
	// Never split an assistant tool-batch from its results: walk the start
	// forward to the next message that is not a tool-result continuation.
	for tailStart > 0 && tailStart < len(rest) && rest[tailStart].Role == RoleTool {
		tailStart++
	}

	toSummarize := rest[:tailStart]
	tail := rest[tailStart:]
	if len(toSummarize) == 0 {
		return nil // nothing old enough to compact
	}

	summaryText := cm.summarizeFallback(toSummarize)
	if cm.Summarizer != nil {
		if s, err := cm.Summarizer.Summarize(ctx, toSummarize); err == nil && strings.TrimSpace(s) != "" {
			summaryText = s
		}
	}

	summaryMsg := Message{Role: RoleSystem, Content: "Conversation summary (compacted): " + summaryText}

	newMessages := make([]Message, 0, len(tail)+2)
	if systemMsg != nil {
		newMessages = append(newMessages, *systemMsg)
	}
	newMessages = append(newMessages, summaryMsg)
	newMessages = append(newMessages, tail...)
	conv.Messages = newMessages
	return nil
}

// summarizeFallback produces a deterministic, non-LLM summary used when no
// Summarizer is configured or the summarization call fails. It preserves
// enough information (message count, roles, and the first/last user asks)
// that the conversation remains minimally coherent after compaction.
func (cm *Manager) summarizeFallback(messages []Message) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d earlier turns omitted.", len(messages))
	for _, m := range messages {
		if m.Role == RoleUser && m.Content != "" {
			fmt.Fprintf(&b, " User asked: %q.", truncateForSummary(m.Content))
			break
		}
	}
	return b.String()
}

func truncateForSummary(s string) string {
	const maxLen = 200
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "…"
}
