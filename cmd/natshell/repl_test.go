package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/natshell-dev/natshell/pkg/agent"
	"github.com/natshell-dev/natshell/pkg/conversation"
	"github.com/natshell-dev/natshell/pkg/session"
)

func newTestStore(t *testing.T) *session.Store {
	t.Helper()
	store, err := session.NewStore(filepath.Join(t.TempDir(), "sessions"))
	require.NoError(t, err)
	return store
}

func TestHandleSlashCommandHelpPrintsCommandList(t *testing.T) {
	var out bytes.Buffer
	conv := conversation.NewConversation("id", "")
	done, err := handleSlashCommand(context.Background(), "/help", conv, newTestStore(t), &out)
	require.NoError(t, err)
	assert.False(t, done)
	assert.Contains(t, out.String(), "/save")
}

func TestHandleSlashCommandQuitStopsTheLoop(t *testing.T) {
	var out bytes.Buffer
	conv := conversation.NewConversation("id", "")
	done, err := handleSlashCommand(context.Background(), "/quit", conv, newTestStore(t), &out)
	require.NoError(t, err)
	assert.True(t, done)
}

func TestHandleSlashCommandClearResetsMessagesButKeepsSystemPrompt(t *testing.T) {
	var out bytes.Buffer
	conv := conversation.NewConversation("id", "be helpful")
	conv.Append(conversation.Message{Role: conversation.RoleUser, Content: "hi"})

	_, err := handleSlashCommand(context.Background(), "/clear", conv, newTestStore(t), &out)
	require.NoError(t, err)

	require.Len(t, conv.Messages, 1)
	assert.Equal(t, "be helpful", conv.Messages[0].Content)
}

func TestHandleSlashCommandSaveThenLoadRoundTrips(t *testing.T) {
	var out bytes.Buffer
	store := newTestStore(t)
	conv := conversation.NewConversation("id", "")
	conv.Append(conversation.Message{Role: conversation.RoleUser, Content: "remember this"})

	_, err := handleSlashCommand(context.Background(), "/save mytitle", conv, store, &out)
	require.NoError(t, err)

	savedLine := strings.TrimSpace(out.String())
	parts := strings.Fields(savedLine)
	id := parts[len(parts)-1]

	loaded := conversation.NewConversation("other", "")
	_, err = handleSlashCommand(context.Background(), "/load "+id, loaded, store, &out)
	require.NoError(t, err)
	require.Len(t, loaded.Messages, 1)
	assert.Equal(t, "remember this", loaded.Messages[0].Content)
}

func TestHandleSlashCommandLoadWithoutIDErrors(t *testing.T) {
	var out bytes.Buffer
	conv := conversation.NewConversation("id", "")
	_, err := handleSlashCommand(context.Background(), "/load", conv, newTestStore(t), &out)
	assert.Error(t, err)
}

func TestRenderEventFormatsResponse(t *testing.T) {
	var out bytes.Buffer
	renderEvent(&out, agent.Event{Kind: agent.EventResponse, Text: "response text"})
	assert.Contains(t, out.String(), "response text")
}
