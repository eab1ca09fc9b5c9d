package bargein

import (
	"sync"
	"testing"
	"time"

	"github.com/lokutor-ai/lokutor-gateway/pkg/callstate"
)

func TestOnSpeechStartOrdering(t *testing.T) {
	c := New()
	cs := callstate.New("call-1")

	var mu sync.Mutex
	var order []string
	sinks := Sinks{
		SendTelephonyClear: func() { mu.Lock(); order = append(order, "clear"); mu.Unlock() },
		SendResponseCancel: func() { mu.Lock(); order = append(order, "cancel"); mu.Unlock() },
		SendBufferClear:    func() { mu.Lock(); order = append(order, "buffer_clear"); mu.Unlock() },
	}

	c.OnSpeechStart(cs, sinks)

	if !cs.Muted() {
		t.Fatal("expected mute bus set after speech start")
	}
	mu.Lock()
	defer mu.Unlock()
	want := []string{"clear", "cancel", "buffer_clear"}
	if len(order) != len(want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order = %v, want %v", order, want)
		}
	}
}

func TestOnSpeechStartDebounced(t *testing.T) {
	c := New()
	cs := callstate.New("call-1")
	calls := 0
	sinks := Sinks{SendTelephonyClear: func() { calls++ }}

	c.OnSpeechStart(cs, sinks)
	c.OnSpeechStart(cs, sinks) // immediate repeat, within debounce

	if calls != 1 {
		t.Fatalf("calls = %d, want 1 (second assertion should be debounced)", calls)
	}
}

func TestOnSpeechStopReleasesAfterDelay(t *testing.T) {
	c := &Controller{debounce: DefaultDebounce, releaseDelay: 20 * time.Millisecond}
	cs := callstate.New("call-1")
	c.OnSpeechStart(cs, Sinks{})
	c.OnSpeechStop(cs)

	if !cs.Muted() {
		t.Fatal("should still be muted immediately after stop")
	}
	time.Sleep(60 * time.Millisecond)
	if cs.Muted() {
		t.Fatal("should be released after the delay")
	}
}

func TestOnSpeechStopCancelledByNewAssertion(t *testing.T) {
	c := &Controller{debounce: 0, releaseDelay: 20 * time.Millisecond}
	cs := callstate.New("call-1")
	c.OnSpeechStart(cs, Sinks{})
	c.OnSpeechStop(cs)
	time.Sleep(5 * time.Millisecond)
	c.OnSpeechStart(cs, Sinks{}) // new assertion before release fires

	time.Sleep(60 * time.Millisecond)
	if !cs.Muted() {
		t.Fatal("a new barge-in assertion should cancel the pending release")
	}
}
