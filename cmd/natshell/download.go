package main

import (
	"context"
	"fmt"

	ollama "github.com/ollama/ollama/api"

	"github.com/natshell-dev/natshell/pkg/conversation"
	"github.com/natshell-dev/natshell/pkg/session"
)

const fallbackConversationID = "00000000000000000000000000000000"

// pullModel fetches name through the local Ollama daemon, printing
// progress to stdout as it streams in.
func pullModel(name string) error {
	client, err := ollama.ClientFromEnvironment()
	if err != nil {
		return fmt.Errorf("could not reach local model runtime: %w", err)
	}

	req := &ollama.PullRequest{Model: name}
	return client.Pull(context.Background(), req, func(progress ollama.ProgressResponse) error {
		fmt.Printf("%s: %d/%d\n", progress.Status, progress.Completed, progress.Total)
		return nil
	})
}

// conversationWithSystemPrompt starts a fresh Conversation under a newly
// generated session id, falling back to an all-zero id if generation
// fails. /save does not reuse this id: it stores each save under a new one.
func conversationWithSystemPrompt(systemPrompt string) *conversation.Conversation {
	id, err := session.NewID()
	if err != nil {
		id = fallbackConversationID
	}
	return conversation.NewConversation(id, systemPrompt)
}
