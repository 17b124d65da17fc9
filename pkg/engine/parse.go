package engine

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"regexp"
	"strings"

	"github.com/natshell-dev/natshell/pkg/conversation"
)

var thinkTagPattern = regexp.MustCompile(`(?s)<think>.*?</think>`)

// stripThinkTags removes every <think>...</think> block a local model
// emits for its own reasoning before the caller ever sees the text.
func stripThinkTags(text string) string {
	return strings.TrimSpace(thinkTagPattern.ReplaceAllString(text, ""))
}

var toolCallTagPattern = regexp.MustCompile(`(?s)<tool_call>(.*?)</tool_call>`)

// toolCallMarker is the JSON shape a local model emits inside a
// <tool_call>...</tool_call> block: a bare name/arguments pair with no id,
// since the model has no notion of a call identity across a batch.
type toolCallMarker struct {
	Name      string                 `json:"name"`
	Arguments map[string]interface{} `json:"arguments"`
}

// extractMarkerToolCalls scans text for one or more <tool_call> blocks,
// parses each body as JSON, and returns the remaining text (with the
// marker blocks removed) alongside freshly-id'd ToolCalls. A block that
// fails to parse as JSON is dropped rather than surfaced as an engine
// error — a malformed marker from a local model is a model mistake the
// agent loop should see as "no tool calls", not a transport failure.
func extractMarkerToolCalls(text string) (string, []conversation.ToolCall) {
	matches := toolCallTagPattern.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		return text, nil
	}

	var calls []conversation.ToolCall
	var b strings.Builder
	last := 0
	for _, m := range matches {
		start, end := m[0], m[1]
		bodyStart, bodyEnd := m[2], m[3]
		b.WriteString(text[last:start])
		last = end

		var marker toolCallMarker
		body := strings.TrimSpace(text[bodyStart:bodyEnd])
		if err := json.Unmarshal([]byte(body), &marker); err != nil || marker.Name == "" {
			continue
		}
		calls = append(calls, conversation.ToolCall{
			ID:        newToolCallID(),
			Name:      marker.Name,
			Arguments: marker.Arguments,
		})
	}
	b.WriteString(text[last:])
	return strings.TrimSpace(b.String()), calls
}

func newToolCallID() string {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return "call_0"
	}
	return "call_" + hex.EncodeToString(buf[:])
}
