// Package idlewatch implements the idle watchdog (§4.8): any audio,
// transcript, or control activity bumps a single per-call timer; on fire
// (and only if DNC hasn't latched) it optionally speaks a goodbye, waits a
// capped window, then forces termination via the telephony REST endpoint.
package idlewatch

import (
	"sync"
	"time"

	"github.com/lokutor-ai/lokutor-gateway/pkg/callstate"
)

// GoodbyeWait is the capped wait between sending the goodbye utterance and
// forcing the REST hangup (§4.8, and SPEC_FULL §13's open-question decision
// to keep this capped rather than wait uncapped for response.completed).
const GoodbyeWait = 1500 * time.Millisecond

// Sinks are the idle-fire side effects.
type Sinks struct {
	SendGoodbye func()
	Hangup      func()
}

// Watchdog runs one call's idle timer.
type Watchdog struct {
	timeout     time.Duration
	sendGoodbye bool

	mu         sync.Mutex
	timer      *time.Timer
	generation int
	stopped    bool
}

// New builds a Watchdog with the given timeout (§6 IDLE_HANGUP_SECS) and
// whether to speak a goodbye before hanging up (§6 IDLE_SEND_GOODBYE).
func New(timeout time.Duration, sendGoodbye bool) *Watchdog {
	return &Watchdog{timeout: timeout, sendGoodbye: sendGoodbye}
}

// Bump resets the idle deadline to now+timeout. Called on every audio
// frame, transcript line, and control event (§4.8).
func (w *Watchdog) Bump(cs *callstate.CallState, sinks Sinks) {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return
	}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.generation++
	gen := w.generation
	w.timer = time.AfterFunc(w.timeout, func() { w.fire(cs, sinks, gen) })
	w.mu.Unlock()
}

func (w *Watchdog) fire(cs *callstate.CallState, sinks Sinks, gen int) {
	w.mu.Lock()
	stillCurrent := !w.stopped && w.generation == gen
	w.mu.Unlock()
	if !stillCurrent {
		return
	}
	if cs.GetStatus() == callstate.StatusDone {
		return
	}
	if cs.DNCAttempted() {
		// DNC's own flow owns call termination; idle never initiates its own
		// hangup once DNC is latched (§8 invariant 4).
		return
	}

	cs.RecordIdleFired()
	if w.sendGoodbye && sinks.SendGoodbye != nil {
		sinks.SendGoodbye()
	}

	time.AfterFunc(GoodbyeWait, func() {
		w.mu.Lock()
		stillCurrent := !w.stopped && w.generation == gen
		w.mu.Unlock()
		if !stillCurrent {
			return
		}
		if sinks.Hangup != nil {
			sinks.Hangup()
		}
		cs.RecordHangupConfirmed()
	})
}

// Stop cancels the watchdog permanently; no later callback will touch the
// call's state (§8 invariant 6's timer hygiene). Called once the call
// reaches DONE.
func (w *Watchdog) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.stopped = true
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
}
