package main

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/natshell-dev/natshell/pkg/agent"
	"github.com/natshell-dev/natshell/pkg/conversation"
)

// runHeadless executes exactly one user turn: stdout carries only the
// final response text, stderr carries every event and diagnostic. With
// dangerFast, every Confirm-risk tool call is auto-approved instead of
// blocking on a front-end that does not exist in this mode.
func runHeadless(ctx context.Context, loop *agent.Loop, systemPrompt, prompt string, dangerFast bool, stdout, stderr io.Writer) error {
	if dangerFast {
		loop.Confirm = func(ctx context.Context, call conversation.ToolCall, reason string) bool { return true }
	}

	var response bytes.Buffer
	loop.Sink = agent.EventSinkFunc(func(e agent.Event) {
		switch e.Kind {
		case agent.EventResponse:
			response.WriteString(e.Text)
		case agent.EventError:
			fmt.Fprintln(stderr, "error:", e.Text)
		case agent.EventBlocked:
			fmt.Fprintln(stderr, "blocked:", e.Text, e.Reason)
		case agent.EventCancelled:
			fmt.Fprintln(stderr, "cancelled:", e.Text)
		default:
			fmt.Fprintf(stderr, "%s\n", e.Kind)
		}
	})

	conv := conversation.NewConversation("", systemPrompt)
	conv.Append(conversation.Message{Role: conversation.RoleUser, Content: prompt})

	if err := loop.Run(ctx, conv); err != nil {
		return err
	}

	fmt.Fprint(stdout, response.String())
	return nil
}
