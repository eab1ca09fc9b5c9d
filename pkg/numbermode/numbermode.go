// Package numbermode implements the number-mode controller (§4.7): while a
// caller is reciting a phone number, the assistant is held silent so it
// does not talk over the recitation.
package numbermode

import (
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/lokutor-ai/lokutor-gateway/pkg/callstate"
)

// spokenDigits maps the spoken-word digit vocabulary to its numeral.
var spokenDigits = map[string]byte{
	"zero": '0', "oh": '0', "o": '0',
	"one": '1', "two": '2', "three": '3', "four": '4',
	"five": '5', "six": '6', "seven": '7', "eight": '8', "nine": '9',
}

// ExtractDigits pulls every digit out of text, both literal numeral
// characters and spoken-word digits, in the order they appear.
func ExtractDigits(text string) string {
	var b strings.Builder
	for _, word := range strings.FieldsFunc(text, func(r rune) bool {
		return unicode.IsSpace(r) || r == ',' || r == '.'
	}) {
		trimmed := strings.Trim(strings.ToLower(word), "-()")
		if trimmed == "" {
			continue
		}
		if d, ok := spokenDigits[trimmed]; ok {
			b.WriteByte(d)
			continue
		}
		for _, r := range trimmed {
			if r >= '0' && r <= '9' {
				b.WriteRune(r)
			}
		}
	}
	return b.String()
}

// ContainsPhonePunctuation reports whether text contains the punctuation
// characters §4.7 treats as a phone-number signal.
func ContainsPhonePunctuation(text string) bool {
	return strings.ContainsAny(text, "-()")
}

// Sinks are the side effects the controller fires on entry/exit.
type Sinks struct {
	OnEnter func()
	OnExit  func()
}

// Controller runs one call's number-mode state machine.
type Controller struct {
	silenceGrace time.Duration
	minDigits    int

	mu         sync.Mutex
	active     bool
	timer      *time.Timer
	generation int
}

// New builds a Controller with the given silence grace and minimum digit
// count (§4.7's NUMBER_SILENCE_GRACE_MS / NUMBER_MIN_DIGITS).
func New(silenceGrace time.Duration, minDigits int) *Controller {
	return &Controller{silenceGrace: silenceGrace, minDigits: minDigits}
}

// OnTranscriptLine consumes one caller transcript line, entering or
// extending number-mode as appropriate.
func (c *Controller) OnTranscriptLine(cs *callstate.CallState, text string, sinks Sinks) {
	digits := ExtractDigits(text)

	c.mu.Lock()
	wasActive := c.active
	shouldEnter := wasActive || len(digits) >= 3 || ContainsPhonePunctuation(text)
	if !shouldEnter {
		c.mu.Unlock()
		return
	}
	if !wasActive {
		c.active = true
	}
	c.generation++
	gen := c.generation
	c.mu.Unlock()

	if !wasActive {
		cs.SetNumberMode(true)
		if sinks.OnEnter != nil {
			sinks.OnEnter()
		}
	}

	total := cs.AppendDigits(digits, time.Now())

	if len(total) >= c.minDigits {
		c.exit(cs, sinks)
		return
	}

	c.resetSilenceTimer(cs, sinks, gen)
}

func (c *Controller) resetSilenceTimer(cs *callstate.CallState, sinks Sinks, gen int) {
	c.mu.Lock()
	if c.timer != nil {
		c.timer.Stop()
	}
	c.timer = time.AfterFunc(c.silenceGrace, func() {
		c.mu.Lock()
		stillCurrent := c.generation == gen && c.active
		c.mu.Unlock()
		if !stillCurrent {
			return
		}
		c.exit(cs, sinks)
	})
	c.mu.Unlock()
}

// exit leaves number-mode. The mute bit is only released on the call state
// if barge-in is not independently holding it (§4.7's "release the mute bit
// only if barge-in is not active" — here that's simply: always clear our
// own bit, since mute_bus.Muted() remains true via barge-in's own bit if
// that one is still set).
func (c *Controller) exit(cs *callstate.CallState, sinks Sinks) {
	c.mu.Lock()
	if !c.active {
		c.mu.Unlock()
		return
	}
	c.active = false
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.mu.Unlock()

	cs.SetNumberMode(false)
	cs.ResetDigits()
	if sinks.OnExit != nil {
		sinks.OnExit()
	}
}

// OnCallEnd forces exit regardless of timers, per §4.7 "or the call ends".
func (c *Controller) OnCallEnd(cs *callstate.CallState, sinks Sinks) {
	c.exit(cs, sinks)
}
