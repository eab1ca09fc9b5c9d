package idlewatch

import (
	"testing"
	"time"

	"github.com/lokutor-ai/lokutor-gateway/pkg/callstate"
)

func TestWatchdogFiresAfterTimeout(t *testing.T) {
	w := New(20*time.Millisecond, false)
	cs := callstate.New("call-1")
	hungUp := make(chan struct{})
	w.Bump(cs, Sinks{Hangup: func() { close(hungUp) }})

	select {
	case <-hungUp:
	case <-time.After(2 * time.Second):
		t.Fatal("expected hangup within the goodbye-wait window after fire")
	}
}

func TestWatchdogBumpResetsDeadline(t *testing.T) {
	w := New(30*time.Millisecond, false)
	cs := callstate.New("call-1")
	hungUp := make(chan struct{})
	sinks := Sinks{Hangup: func() { close(hungUp) }}

	w.Bump(cs, sinks)
	time.Sleep(20 * time.Millisecond)
	w.Bump(cs, sinks) // should push the deadline out again

	select {
	case <-hungUp:
		t.Fatal("hangup should not fire immediately after a bump")
	case <-time.After(15 * time.Millisecond):
	}
}

func TestWatchdogNeverFiresAfterDNC(t *testing.T) {
	w := New(10*time.Millisecond, false)
	cs := callstate.New("call-1")
	cs.LatchDNC("spam")
	fired := false
	w.Bump(cs, Sinks{Hangup: func() { fired = true }})
	time.Sleep(2 * time.Second)
	if fired {
		t.Fatal("idle watchdog must not hang up once DNC is latched")
	}
}

func TestWatchdogStopPreventsLateFire(t *testing.T) {
	w := New(10*time.Millisecond, false)
	cs := callstate.New("call-1")
	fired := false
	w.Bump(cs, Sinks{Hangup: func() { fired = true }})
	w.Stop()
	time.Sleep(2 * time.Second)
	if fired {
		t.Fatal("stopped watchdog must not fire")
	}
}
