package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/natshell-dev/natshell/pkg/agent"
	"github.com/natshell-dev/natshell/pkg/conversation"
	"github.com/natshell-dev/natshell/pkg/session"
)

// runInteractive drives the REPL: each line of in is one user turn, run
// through the agent loop with events rendered to out, until EOF or a
// /quit-equivalent slash command. Every line starting with "/" goes to
// handleSlashCommand (/help, /clear, /save, /load, /sessions, /quit);
// an unrecognized slash command is reported there and is not sent to the
// agent loop. Any other line is a normal user turn.
func runInteractive(ctx context.Context, loop *agent.Loop, conv *conversation.Conversation, store *session.Store, in io.Reader, out io.Writer) error {
	loop.Confirm = func(ctx context.Context, call conversation.ToolCall, reason string) bool {
		fmt.Fprintf(out, "confirm %s (%s)? [y/N] ", call.Name, reason)
		scanner := bufio.NewScanner(in)
		if !scanner.Scan() {
			return false
		}
		answer := strings.ToLower(strings.TrimSpace(scanner.Text()))
		return answer == "y" || answer == "yes"
	}
	loop.Sink = agent.EventSinkFunc(func(e agent.Event) { renderEvent(out, e) })

	scanner := bufio.NewScanner(in)
	fmt.Fprintln(out, "natshell ready. Type a request, or /help.")
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "/") {
			done, err := handleSlashCommand(ctx, line, conv, store, out)
			if err != nil {
				fmt.Fprintln(out, "error:", err)
			}
			if done {
				return nil
			}
			continue
		}

		conv.Append(conversation.Message{Role: conversation.RoleUser, Content: line})
		if err := loop.Run(ctx, conv); err != nil {
			fmt.Fprintln(out, "error:", err)
		}
	}
}

func renderEvent(out io.Writer, e agent.Event) {
	switch e.Kind {
	case agent.EventThinking:
		fmt.Fprintln(out, "...thinking")
	case agent.EventExecuting:
		fmt.Fprintf(out, "$ %s\n", toolLabel(e.ToolCall))
	case agent.EventToolResult:
		if e.ToolResult != nil && e.ToolResult.Error != "" {
			fmt.Fprintln(out, "! ", e.ToolResult.Error)
		} else if e.ToolResult != nil {
			fmt.Fprintln(out, e.ToolResult.Output)
		}
	case agent.EventBlocked:
		fmt.Fprintln(out, "blocked:", e.Reason, e.Text)
	case agent.EventResponse:
		fmt.Fprintln(out, e.Text)
	case agent.EventError:
		fmt.Fprintln(out, "error:", e.Text)
	case agent.EventCancelled:
		fmt.Fprintln(out, "cancelled:", e.Text)
	}
}

func toolLabel(call *conversation.ToolCall) string {
	if call == nil {
		return ""
	}
	return call.Name
}

// handleSlashCommand implements the subset of the front-end slash
// commands that belong to this process rather than a richer UI: /help,
// /clear, /save, /load, /sessions, and /quit (this CLI's exit spelling).
// done reports whether the REPL should stop.
func handleSlashCommand(ctx context.Context, line string, conv *conversation.Conversation, store *session.Store, out io.Writer) (bool, error) {
	fields := strings.Fields(line)
	cmd := fields[0]

	switch cmd {
	case "/quit", "/exit":
		return true, nil

	case "/help":
		fmt.Fprintln(out, "slash commands: /help /clear /save [name] /load <id> /sessions /quit")
		return false, nil

	case "/clear":
		systemPrompt := ""
		if len(conv.Messages) > 0 && conv.Messages[0].Role == conversation.RoleSystem {
			systemPrompt = conv.Messages[0].Content
		}
		*conv = *conversation.NewConversation(conv.ID, systemPrompt)
		return false, nil

	case "/save":
		title := ""
		if len(fields) > 1 {
			title = fields[1]
		}
		id, err := session.NewID()
		if err != nil {
			return false, err
		}
		rec := &session.Record{ID: id, Title: title, Messages: conv.Messages}
		if err := store.Save(rec); err != nil {
			return false, err
		}
		fmt.Fprintln(out, "saved as", id)
		return false, nil

	case "/load":
		if len(fields) < 2 {
			return false, fmt.Errorf("usage: /load <id>")
		}
		rec, err := store.Load(fields[1])
		if err != nil {
			return false, err
		}
		conv.ID = rec.ID
		conv.Messages = rec.Messages
		return false, nil

	case "/sessions":
		ids, err := store.List()
		if err != nil {
			return false, err
		}
		for _, id := range ids {
			fmt.Fprintln(out, id)
		}
		return false, nil

	default:
		fmt.Fprintln(out, "unrecognized command:", cmd)
		return false, nil
	}
}
