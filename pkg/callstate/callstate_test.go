package callstate

import (
	"testing"
	"time"
)

func TestMarkGreetedExactlyOnce(t *testing.T) {
	cs := New("call-1")
	if err := cs.MarkGreeted(time.Now()); err != nil {
		t.Fatalf("first MarkGreeted: %v", err)
	}
	if err := cs.MarkGreeted(time.Now()); err != ErrAlreadyGreeted {
		t.Fatalf("second MarkGreeted = %v, want ErrAlreadyGreeted", err)
	}
}

func TestMuteBusIsOR(t *testing.T) {
	cs := New("call-1")
	if cs.Muted() {
		t.Fatal("fresh call should not be muted")
	}
	cs.SetBargeIn(true)
	if !cs.Muted() {
		t.Fatal("barge-in alone should mute")
	}
	cs.SetBargeIn(false)
	cs.SetNumberMode(true)
	if !cs.Muted() {
		t.Fatal("number-mode alone should mute")
	}
	cs.SetNumberMode(false)
	if cs.Muted() {
		t.Fatal("clearing both bits should unmute")
	}
}

func TestDNCLatchIsMonotonic(t *testing.T) {
	cs := New("call-1")
	if !cs.LatchDNC("spam") {
		t.Fatal("first latch should succeed")
	}
	if cs.LatchDNC("spam-again") {
		t.Fatal("second latch should be rejected")
	}
	if !cs.DNCAttempted() {
		t.Fatal("DNC should remain attempted")
	}
}

func TestEventsAppendOnlyAndExportable(t *testing.T) {
	cs := New("call-1")
	now := time.Now()
	cs.AppendEvent(RoleCaller, "hello", now)
	cs.AppendEvent(RoleAssistant, "hi there", now.Add(time.Second))

	got := cs.ExportTranscript()
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	got[0].Text = "mutated"
	if cs.ExportTranscript()[0].Text != "hello" {
		t.Fatal("ExportTranscript should return a copy, not the live slice")
	}
}

func TestSetMetaAndGetMetaRoundTrip(t *testing.T) {
	cs := New("call-1")
	cs.SetMeta(Meta{From: "+15551112222", To: "+15553334444", CallerName: "Jeff"})
	got := cs.GetMeta()
	if got.From != "+15551112222" || got.CallerName != "Jeff" {
		t.Fatalf("got %+v", got)
	}
}

func TestSetVoiceAndGetVoiceRoundTrip(t *testing.T) {
	cs := New("call-1")
	cs.SetVoice(Voice{Selected: "ballad", AssistantName: "Ballad"})
	got := cs.GetVoice()
	if got.Selected != "ballad" || got.AssistantName != "Ballad" {
		t.Fatalf("got %+v", got)
	}
}

func TestStoreGetOrCreate(t *testing.T) {
	s := NewStore()
	a := s.GetOrCreate("call-1")
	b := s.GetOrCreate("call-1")
	if a != b {
		t.Fatal("GetOrCreate should return the same instance for the same id")
	}
	if s.Len() != 1 {
		t.Fatalf("Len = %d, want 1", s.Len())
	}
	s.Delete("call-1")
	if _, ok := s.Get("call-1"); ok {
		t.Fatal("call should be gone after Delete")
	}
}
