package agent

import "github.com/natshell-dev/natshell/pkg/conversation"

// EventKind names the event types the front-end receives, always in
// production order: thinking, executing, tool_result, confirm_needed,
// response, blocked, error (and cancelled, which can interleave with any
// of the above when the user cancels mid-turn).
type EventKind string

const (
	EventThinking      EventKind = "thinking"
	EventExecuting     EventKind = "executing"
	EventToolResult    EventKind = "tool_result"
	EventConfirmNeeded EventKind = "confirm_needed"
	EventResponse      EventKind = "response"
	EventBlocked       EventKind = "blocked"
	EventError         EventKind = "error"
	EventCancelled     EventKind = "cancelled"
)

// Event is one item in the ordered stream the Loop emits as it runs a
// turn. Only the fields relevant to Kind are populated.
type Event struct {
	Kind       EventKind
	Text       string                 // RESPOND / error message / blocked reason
	ToolCall   *conversation.ToolCall // EXECUTING / CONFIRM_NEEDED
	ToolResult *conversation.ToolResult
	Reason     string // why a Confirm/Blocked verdict fired
}

// EventSink receives Loop events in strict production order. Implementations
// must not block for long: the loop's single inference/tool goroutine is
// waiting on the send.
type EventSink interface {
	Emit(Event)
}

// EventSinkFunc adapts a function to EventSink.
type EventSinkFunc func(Event)

func (f EventSinkFunc) Emit(e Event) { f(e) }
