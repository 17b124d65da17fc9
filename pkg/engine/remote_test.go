package engine

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/natshell-dev/natshell/pkg/conversation"
)

func TestRemoteEngineChatCompletionParsesTextResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]interface{}{"content": "hello there"}, "finish_reason": "stop"},
			},
		})
	}))
	defer server.Close()

	e := NewRemoteEngine(server.URL, "gpt-test", "", 8192, time.Second)
	result, err := e.ChatCompletion(context.Background(), []conversation.Message{{Role: conversation.RoleUser, Content: "hi"}}, nil, 0.1, 100)
	require.NoError(t, err)
	assert.Equal(t, "hello there", result.Text)
	assert.Equal(t, FinishStop, result.FinishReason)
}

func TestRemoteEngineChatCompletionParsesToolCalls(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]interface{}{
					"tool_calls": []map[string]interface{}{
						{"id": "call_1", "type": "function", "function": map[string]interface{}{
							"name": "read_file", "arguments": `{"path":"a.txt"}`,
						}},
					},
				}},
			},
		})
	}))
	defer server.Close()

	e := NewRemoteEngine(server.URL, "gpt-test", "key", 8192, time.Second)
	result, err := e.ChatCompletion(context.Background(), nil, nil, 0, 0)
	require.NoError(t, err)
	require.Len(t, result.ToolCalls, 1)
	assert.Equal(t, "read_file", result.ToolCalls[0].Name)
	assert.Equal(t, "a.txt", result.ToolCalls[0].Arguments["path"])
	assert.Equal(t, FinishToolCalls, result.FinishReason)
}

func TestRemoteEngineRetriesOnServiceUnavailableThenSucceeds(t *testing.T) {
	var attempts int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&attempts, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]interface{}{"content": "recovered"}},
			},
		})
	}))
	defer server.Close()

	e := NewRemoteEngine(server.URL, "gpt-test", "", 8192, time.Second)
	result, err := e.ChatCompletion(context.Background(), nil, nil, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, "recovered", result.Text)
	assert.GreaterOrEqual(t, atomic.LoadInt32(&attempts), int32(2))
}

func TestRemoteEngineNonTransientErrorIsNotRetried(t *testing.T) {
	var attempts int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte("bad request"))
	}))
	defer server.Close()

	e := NewRemoteEngine(server.URL, "gpt-test", "", 8192, time.Second)
	_, err := e.ChatCompletion(context.Background(), nil, nil, 0, 0)
	assert.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&attempts))
}

func TestToRemoteMessagesFlattensToolResult(t *testing.T) {
	msgs := []conversation.Message{
		{Role: conversation.RoleTool, ToolCallID: "call_1", ToolResult: &conversation.ToolResult{Output: "ok"}},
	}
	out := toRemoteMessages(msgs)
	require.Len(t, out, 1)
	assert.Equal(t, "ok", out[0].Content)
	assert.Equal(t, "call_1", out[0].ToolCallID)
}

func TestToRemoteToolsMapsNameAndParameters(t *testing.T) {
	tools := []Tool{{Name: "read_file", Description: "reads", Parameters: map[string]interface{}{"type": "object"}}}
	out := toRemoteTools(tools)
	require.Len(t, out, 1)
	assert.Equal(t, "read_file", out[0].Function.Name)
	assert.Equal(t, "function", out[0].Type)
}
