package conversation

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEstimateTokensScalesWithLength(t *testing.T) {
	assert.Equal(t, 0, EstimateTokens(""))
	assert.Greater(t, EstimateTokens(strings.Repeat("a", 400)), EstimateTokens(strings.Repeat("a", 40)))
}

func TestShouldCompactTriggersNearWindowLimit(t *testing.T) {
	cm := NewManager(1000, 200, nil)
	small := []Message{{Role: RoleUser, Content: "hi"}}
	assert.False(t, cm.ShouldCompact(small))

	big := []Message{{Role: RoleUser, Content: strings.Repeat("word ", 1000)}}
	assert.True(t, cm.ShouldCompact(big))
}

type stubSummarizer struct{ summary string }

func (s stubSummarizer) Summarize(ctx context.Context, messages []Message) (string, error) {
	return s.summary, nil
}

func TestCompactReplacesOldTurnsWithSummary(t *testing.T) {
	cm := NewManager(2000, 200, stubSummarizer{summary: "user asked about dates and files"})
	conv := NewConversation("sess-1", "system prompt")
	for i := 0; i < 20; i++ {
		conv.Append(Message{Role: RoleUser, Content: strings.Repeat("filler text ", 50)})
		conv.Append(Message{Role: RoleAssistant, Content: strings.Repeat("reply text ", 50)})
	}
	originalLast := conv.Messages[len(conv.Messages)-1]

	require.NoError(t, cm.Compact(context.Background(), conv))

	assert.Equal(t, RoleSystem, conv.Messages[0].Role)
	assert.Contains(t, conv.Messages[1].Content, "user asked about dates and files")
	assert.Equal(t, originalLast, conv.Messages[len(conv.Messages)-1])
	assert.Less(t, len(conv.Messages), 42)
}

func TestCompactNeverSplitsToolBatchFromItsResults(t *testing.T) {
	cm := NewManager(5000, 200, nil)
	conv := NewConversation("sess-2", "")
	for i := 0; i < 30; i++ {
		conv.Append(Message{Role: RoleUser, Content: strings.Repeat("x", 200)})
	}
	conv.Append(Message{
		Role:      RoleAssistant,
		ToolCalls: []ToolCall{{ID: "c1", Name: "execute_shell"}},
	})
	conv.Append(Message{Role: RoleTool, ToolCallID: "c1", ToolResult: &ToolResult{Output: "ok"}})

	require.NoError(t, cm.Compact(context.Background(), conv))
	require.NoError(t, conv.Validate())
}

func TestCompactNoOpWhenConversationTooShort(t *testing.T) {
	cm := NewManager(5000, 200, nil)
	conv := NewConversation("sess-3", "system")
	conv.Append(Message{Role: RoleUser, Content: "hi"})
	before := len(conv.Messages)

	require.NoError(t, cm.Compact(context.Background(), conv))
	assert.Equal(t, before, len(conv.Messages))
}
