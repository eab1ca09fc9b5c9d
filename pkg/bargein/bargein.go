// Package bargein implements the barge-in controller (§4.6): caller speech
// overlapping assistant speech must immediately suppress the assistant, in
// a strict order (telephony clear, then model response.cancel, then model
// output-buffer clear) so the caller never hears buffered audio mid-cancel
// (§5's ordering guarantee (c), tested by §8 invariant 3).
//
// The lock-acquire-first-then-call-side-effects-outside-the-lock shape is
// grounded on the teacher's ManagedStream.internalInterrupt
// (pkg/orchestrator/managed_stream.go), which takes its lock, mutates state,
// releases it, and only then calls tts.Abort() — never holding a lock
// across a side-effecting call.
package bargein

import (
	"sync"
	"time"

	"github.com/lokutor-ai/lokutor-gateway/pkg/callstate"
)

const (
	// DefaultDebounce is the window within which a repeated speech-start is ignored.
	DefaultDebounce = 250 * time.Millisecond
	// DefaultReleaseDelay is how long after speech-stop the release is scheduled.
	DefaultReleaseDelay = 200 * time.Millisecond
)

// Sinks are the three ordered side effects a barge-in assertion fires.
type Sinks struct {
	SendTelephonyClear func()
	SendResponseCancel func()
	SendBufferClear    func()
}

// Controller runs one call's barge-in state machine.
type Controller struct {
	debounce     time.Duration
	releaseDelay time.Duration

	mu           sync.Mutex
	lastAssertAt time.Time
	generation   int
}

// New builds a Controller with the spec's default timings.
func New() *Controller {
	return &Controller{debounce: DefaultDebounce, releaseDelay: DefaultReleaseDelay}
}

// OnSpeechStart handles input_audio_buffer.speech_started. If within the
// debounce window of the last assertion it is ignored (still bumps nothing).
// Otherwise it asserts mute_bus.barge_in_active and fires the three sinks in
// the required order.
func (c *Controller) OnSpeechStart(cs *callstate.CallState, sinks Sinks) {
	c.mu.Lock()
	now := time.Now()
	if !c.lastAssertAt.IsZero() && now.Sub(c.lastAssertAt) < c.debounce {
		c.mu.Unlock()
		return
	}
	c.lastAssertAt = now
	c.generation++
	c.mu.Unlock()

	cs.SetBargeIn(true)

	if sinks.SendTelephonyClear != nil {
		sinks.SendTelephonyClear()
	}
	if sinks.SendResponseCancel != nil {
		sinks.SendResponseCancel()
	}
	if sinks.SendBufferClear != nil {
		sinks.SendBufferClear()
	}
}

// OnSpeechStop handles input_audio_buffer.speech_stopped: schedules a
// release releaseDelay later, which only takes effect if no newer barge-in
// has asserted in the meantime. The release clears only the barge-in bit of
// the mute bus; if number-mode holds its own bit, Muted() stays true.
func (c *Controller) OnSpeechStop(cs *callstate.CallState) {
	c.mu.Lock()
	gen := c.generation
	c.mu.Unlock()

	time.AfterFunc(c.releaseDelay, func() {
		c.mu.Lock()
		stillCurrent := c.generation == gen
		c.mu.Unlock()
		if !stillCurrent {
			return
		}
		if cs.GetStatus() == callstate.StatusDone {
			return
		}
		cs.SetBargeIn(false)
	})
}
