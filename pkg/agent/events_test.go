package agent

import "testing"

func TestEventSinkFuncForwardsEvent(t *testing.T) {
	var got Event
	sink := EventSinkFunc(func(e Event) { got = e })
	sink.Emit(Event{Kind: EventThinking, Text: "hi"})
	if got.Kind != EventThinking || got.Text != "hi" {
		t.Fatalf("unexpected event: %+v", got)
	}
}
