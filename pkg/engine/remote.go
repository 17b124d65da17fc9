package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/natshell-dev/natshell/pkg/conversation"
	"github.com/natshell-dev/natshell/pkg/logging"
)

// remoteRetryDelays is the fixed exponential backoff schedule: two
// retries at 1s then 2s.
var remoteRetryDelays = []time.Duration{time.Second, 2 * time.Second}

type remoteChatRequest struct {
	Model       string          `json:"model"`
	Messages    []remoteMessage `json:"messages"`
	Temperature float64         `json:"temperature"`
	MaxTokens   int             `json:"max_tokens,omitempty"`
	Tools       []remoteTool    `json:"tools,omitempty"`
	Stream      bool            `json:"stream"`
}

type remoteMessage struct {
	Role       string           `json:"role"`
	Content    string           `json:"content"`
	ToolCallID string           `json:"tool_call_id,omitempty"`
	ToolCalls  []remoteToolCall `json:"tool_calls,omitempty"`
}

type remoteTool struct {
	Type     string `json:"type"`
	Function struct {
		Name        string                 `json:"name"`
		Description string                 `json:"description"`
		Parameters  map[string]interface{} `json:"parameters"`
	} `json:"function"`
}

type remoteToolCall struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Function struct {
		Name      string `json:"name"`
		Arguments string `json:"arguments"`
	} `json:"function"`
}

type remoteChatResponse struct {
	Choices []struct {
		Message struct {
			Content   string           `json:"content"`
			ToolCalls []remoteToolCall `json:"tool_calls"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

// RemoteEngine posts OpenAI-compatible chat-completions requests over
// net/http directly, the same shape the teacher's callOpenAICompatibleStream
// uses, generalized here to the non-streaming request/response pair and a
// fixed retry schedule the teacher's one-shot callers don't need.
type RemoteEngine struct {
	baseURL       string
	model         string
	apiKey        string
	contextWindow int
	httpClient    *http.Client

	warnOnce sync.Once
}

// NewRemoteEngine builds a RemoteEngine against baseURL (an
// OpenAI-compatible chat-completions endpoint, e.g. ".../v1/chat/completions").
func NewRemoteEngine(baseURL, model, apiKey string, contextWindow int, readTimeout time.Duration) *RemoteEngine {
	if readTimeout <= 0 {
		readTimeout = 60 * time.Second
	}
	connectTimeout := readTimeout / 4
	if connectTimeout < 2*time.Second {
		connectTimeout = 2 * time.Second
	}
	return &RemoteEngine{
		baseURL:       baseURL,
		model:         model,
		apiKey:        apiKey,
		contextWindow: contextWindow,
		httpClient: &http.Client{
			Timeout: readTimeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{Timeout: connectTimeout}).DialContext,
			},
		},
	}
}

func (e *RemoteEngine) Name() string       { return "remote:" + e.model }
func (e *RemoteEngine) ContextWindow() int { return e.contextWindow }

// ChatCompletion posts the chat payload, retrying transient failures
// (connect errors, timeouts, and 502/503/504) with the fixed 1s/2s
// backoff schedule before giving up and reporting a TransientError the
// Agent Loop's fallback swap watches for.
func (e *RemoteEngine) ChatCompletion(ctx context.Context, messages []conversation.Message, tools []Tool, temperature float64, maxTokens int) (CompletionResult, error) {
	e.warnIfPlaintextKeyLeavesLoopback()

	payload := remoteChatRequest{
		Model:       e.model,
		Messages:    toRemoteMessages(messages),
		Temperature: temperature,
		MaxTokens:   maxTokens,
		Tools:       toRemoteTools(tools),
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return CompletionResult{}, fmt.Errorf("marshaling remote chat request: %w", err)
	}

	var lastErr error
	attempts := append([]time.Duration{0}, remoteRetryDelays...)
	for _, delay := range attempts {
		if delay > 0 {
			select {
			case <-ctx.Done():
				return CompletionResult{FinishReason: FinishCancelled}, nil
			case <-time.After(delay):
			}
		}

		result, retryable, err := e.doOnce(ctx, body)
		if err == nil {
			return result, nil
		}
		lastErr = err
		if !retryable {
			return CompletionResult{}, err
		}
		if ctx.Err() != nil {
			return CompletionResult{FinishReason: FinishCancelled}, nil
		}
	}
	return CompletionResult{}, &TransientError{Reason: "remote engine exhausted retries", Err: lastErr}
}

func (e *RemoteEngine) doOnce(ctx context.Context, body []byte) (CompletionResult, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL, bytes.NewReader(body))
	if err != nil {
		return CompletionResult{}, false, fmt.Errorf("building remote request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if e.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+e.apiKey)
	}

	resp, err := e.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return CompletionResult{}, false, ctx.Err()
		}
		return CompletionResult{}, true, &TransientError{Reason: "remote engine transport error", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusBadGateway || resp.StatusCode == http.StatusServiceUnavailable || resp.StatusCode == http.StatusGatewayTimeout {
		io.Copy(io.Discard, resp.Body)
		return CompletionResult{}, true, &TransientError{Reason: fmt.Sprintf("remote engine returned %d", resp.StatusCode)}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return CompletionResult{}, true, &TransientError{Reason: "remote engine read failed", Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		return CompletionResult{}, false, fmt.Errorf("remote engine error %d: %s", resp.StatusCode, string(data))
	}

	var parsed remoteChatResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return CompletionResult{}, false, fmt.Errorf("parsing remote chat response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return CompletionResult{}, false, fmt.Errorf("remote engine returned no choices")
	}

	choice := parsed.Choices[0]
	calls := make([]conversation.ToolCall, 0, len(choice.Message.ToolCalls))
	for _, tc := range choice.Message.ToolCalls {
		var args map[string]interface{}
		json.Unmarshal([]byte(tc.Function.Arguments), &args)
		calls = append(calls, conversation.ToolCall{ID: tc.ID, Name: tc.Function.Name, Arguments: args})
	}

	reason := FinishStop
	switch {
	case len(calls) > 0:
		reason = FinishToolCalls
	case choice.FinishReason == "length":
		reason = FinishLength
	}

	return CompletionResult{Text: choice.Message.Content, ToolCalls: calls, FinishReason: reason}, false, nil
}

func toRemoteMessages(messages []conversation.Message) []remoteMessage {
	out := make([]remoteMessage, 0, len(messages))
	for _, m := range messages {
		rm := remoteMessage{Role: string(m.Role), Content: m.Content, ToolCallID: m.ToolCallID}
		if m.ToolResult != nil {
			if m.ToolResult.Error != "" {
				rm.Content = "error: " + m.ToolResult.Error
			} else {
				rm.Content = m.ToolResult.Output
			}
		}
		for _, tc := range m.ToolCalls {
			args, _ := json.Marshal(tc.Arguments)
			rtc := remoteToolCall{ID: tc.ID, Type: "function"}
			rtc.Function.Name = tc.Name
			rtc.Function.Arguments = string(args)
			rm.ToolCalls = append(rm.ToolCalls, rtc)
		}
		out = append(out, rm)
	}
	return out
}

func toRemoteTools(tools []Tool) []remoteTool {
	out := make([]remoteTool, 0, len(tools))
	for _, t := range tools {
		rt := remoteTool{Type: "function"}
		rt.Function.Name = t.Name
		rt.Function.Description = t.Description
		rt.Function.Parameters = t.Parameters
		out = append(out, rt)
	}
	return out
}

// warnIfPlaintextKeyLeavesLoopback logs a one-time warning when an API
// key would travel to a non-loopback host over plain HTTP, where it's
// exposed to anyone on the network path.
func (e *RemoteEngine) warnIfPlaintextKeyLeavesLoopback() {
	if e.apiKey == "" {
		return
	}
	u, err := url.Parse(e.baseURL)
	if err != nil || u.Scheme != "http" {
		return
	}
	host := u.Hostname()
	if host == "localhost" || host == "127.0.0.1" || host == "::1" {
		return
	}
	e.warnOnce.Do(func() {
		logging.Get(logging.Options{}).Error("remote engine %s: sending an API key to a non-loopback host over plaintext HTTP", strings.TrimSpace(host))
	})
}
