package transcript

import (
	"testing"
	"time"

	"github.com/lokutor-ai/lokutor-gateway/pkg/callstate"
)

func TestParseContentPrefersStructured(t *testing.T) {
	got := ParseContent(`{"transcript":"hello there"}`, "fallback text")
	if got != "hello there" {
		t.Fatalf("got %q, want hello there", got)
	}
}

func TestParseContentFallsBackToPlainText(t *testing.T) {
	got := ParseContent("", "fallback text")
	if got != "fallback text" {
		t.Fatalf("got %q, want fallback text", got)
	}
}

func TestIngestDropsGreetingEcho(t *testing.T) {
	cs := callstate.New("call-1")
	seen := false
	Ingest(cs, TrackOutbound, "Hi Jeff, this is Trinity, Dan's VIP Assistant.", &seen, time.Now())
	if len(cs.ExportTranscript()) != 0 {
		t.Fatal("greeting echo should be dropped")
	}
	Ingest(cs, TrackOutbound, "Sure, I can help.", &seen, time.Now())
	if len(cs.ExportTranscript()) != 1 {
		t.Fatal("subsequent assistant utterances should be kept")
	}
}

func TestIngestKeepsCallerLines(t *testing.T) {
	cs := callstate.New("call-1")
	seen := false
	Ingest(cs, TrackInbound, "hello there", &seen, time.Now())
	if len(cs.ExportTranscript()) != 1 {
		t.Fatal("caller lines should always be kept")
	}
}

func TestRenderCoalescesWithinWindow(t *testing.T) {
	base := time.Now()
	events := []callstate.Event{
		{Role: callstate.RoleCaller, Text: "hello", Ts: base},
		{Role: callstate.RoleCaller, Text: "there", Ts: base.Add(time.Second)},
		{Role: callstate.RoleAssistant, Text: "hi!", Ts: base.Add(3 * time.Second)},
	}
	rendered := Render(events)
	want := "Caller:\nhello there\n\nAssistant:\nhi!"
	if rendered != want {
		t.Fatalf("got:\n%s\nwant:\n%s", rendered, want)
	}
}

func TestRenderSplitsBeyondWindow(t *testing.T) {
	base := time.Now()
	events := []callstate.Event{
		{Role: callstate.RoleCaller, Text: "first", Ts: base},
		{Role: callstate.RoleCaller, Text: "second", Ts: base.Add(10 * time.Second)},
	}
	rendered := Render(events)
	want := "Caller:\nfirst\n\nCaller:\nsecond"
	if rendered != want {
		t.Fatalf("got:\n%s\nwant:\n%s", rendered, want)
	}
}
