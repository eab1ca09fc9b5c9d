// Package callstate holds the one-per-call mutable state object (§3 of the
// gateway spec) and the map-of-calls store that guards it. The shape
// (mutex-guarded struct, lock-scoped copy-out accessors) is carried over
// from the teacher's pkg/orchestrator.ConversationSession, generalized from
// a single chat session to a telephony call with its richer lifecycle.
package callstate

import (
	"sync"
	"time"
)

// Status is the call lifecycle per §3's invariant:
// NEW → STREAM_STARTED → SESSION_READY → GREETED → ACTIVE → ENDING → DONE.
type Status string

const (
	StatusNew            Status = "NEW"
	StatusStreamStarted  Status = "STREAM_STARTED"
	StatusSessionReady   Status = "SESSION_READY"
	StatusGreeted        Status = "GREETED"
	StatusActive         Status = "ACTIVE"
	StatusEnding         Status = "ENDING"
	StatusDone           Status = "DONE"
)

// Role distinguishes transcript speakers.
type Role string

const (
	RoleCaller    Role = "caller"
	RoleAssistant Role = "assistant"
)

// Event is a single timestamped transcript line.
type Event struct {
	Role Role
	Text string
	Ts   time.Time
}

// OutboundMeta describes why and about what an outbound call was placed.
type OutboundMeta struct {
	IsOutbound    bool
	Reason        string
	Theme         string
	RecipientName string
}

// Meta is the immutable-once-set call identity context.
type Meta struct {
	From       string
	To         string
	CallerName string
	StartedAt  time.Time
	Outbound   OutboundMeta
}

// Greeting tracks the greeting-exactly-once latch and its fallback timer.
type Greeting struct {
	SkippedUpstreamGreeting bool
	Sent                    bool
	Pending                 bool
	FallbackDeadline        time.Time
}

// Voice is chosen once at session start and locked for the call.
type Voice struct {
	Selected      string
	AssistantName string
}

// MuteBus is the logical OR gate on downstream audio (§3, §8 invariant 2).
type MuteBus struct {
	BargeInActive    bool
	NumberModeActive bool
}

// Muted reports whether assistant audio must currently be dropped.
func (m MuteBus) Muted() bool {
	return m.BargeInActive || m.NumberModeActive
}

// BargeIn holds a speech-start timestamp. The 250ms debounce window itself
// is tracked inside bargein.Controller, which does not write LastEventAt.
type BargeIn struct {
	LastEventAt time.Time
}

// NumberMode tracks digit recitation muting.
type NumberMode struct {
	DigitsCollected string
	LastDigitAt     time.Time
}

// DNC is the do-not-call latch; once Attempted it is monotonic (§8 invariant 4).
type DNC struct {
	Attempted bool
	Reason    string
}

// Latency is the supplemented, purely-observational per-call breakdown
// (SPEC_FULL §12), mirroring the teacher's ManagedStream.GetLatencyBreakdown.
type Latency struct {
	SessionReadyAt    time.Time
	GreetingSentAt    time.Time
	SpeechStoppedAt   time.Time
	BargeInReleasedAt time.Time
	IdleFiredAt       time.Time
	HangupConfirmedAt time.Time
}

// LatencyReport is the exported, zero-value-safe rendering of Latency.
type LatencyReport struct {
	TimeToGreeting    time.Duration
	BargeInReleaseGap time.Duration
	IdleToHangup      time.Duration
}

// CallState is the one-per-call mutable object. The call task is its sole
// writer; other goroutines (webhooks, timers) read/write single fields
// through the accessors below, each of which takes the lock for the
// shortest span needed — the same "acquire, copy out, release" shape the
// teacher's ManagedStream uses around its audio buffer and echo state.
type CallState struct {
	mu sync.Mutex

	CallID   string
	StreamID string
	Status   Status

	Meta       Meta
	events     []Event
	Greeting   Greeting
	Voice      Voice
	SessionReady bool
	MuteBus    MuteBus
	BargeIn    BargeIn
	NumberMode NumberMode
	DNC        DNC

	IdleDeadline time.Time

	latency Latency
}

// New constructs a CallState in the NEW status.
func New(callID string) *CallState {
	return &CallState{
		CallID: callID,
		Status: StatusNew,
	}
}

// Transition moves the call to a new status. Callers are expected to only
// move forward through the lifecycle; this does not itself enforce
// monotonicity (the orchestrator is the sole writer and is trusted to call
// it in order), it just guards the field against concurrent reads.
func (c *CallState) Transition(to Status) {
	c.mu.Lock()
	c.Status = to
	c.mu.Unlock()
}

// GetStatus returns the current lifecycle status.
func (c *CallState) GetStatus() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Status
}

// MarkGreeted latches the greeting-sent bit. Returns ErrAlreadyGreeted if
// the greeting was already sent, so callers can enforce "exactly once"
// (§8 invariant 1) without a separate check-then-act race.
func (c *CallState) MarkGreeted(at time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Greeting.Sent {
		return ErrAlreadyGreeted
	}
	c.Greeting.Sent = true
	c.Greeting.Pending = false
	c.latency.GreetingSentAt = at
	return nil
}

// AppendDigits extends the number-mode digit buffer and returns the total
// collected so far.
func (c *CallState) AppendDigits(digits string, at time.Time) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.NumberMode.DigitsCollected += digits
	c.NumberMode.LastDigitAt = at
	return c.NumberMode.DigitsCollected
}

// ResetDigits clears the number-mode digit buffer on exit.
func (c *CallState) ResetDigits() {
	c.mu.Lock()
	c.NumberMode.DigitsCollected = ""
	c.mu.Unlock()
}

// SetMuteBus updates the barge-in and number-mode flags together, so a
// reader never observes a half-updated mute bus.
func (c *CallState) SetMuteBus(bargeIn, numberMode bool) {
	c.mu.Lock()
	c.MuteBus.BargeInActive = bargeIn
	c.MuteBus.NumberModeActive = numberMode
	c.mu.Unlock()
}

// SetBargeIn sets only the barge-in half of the mute bus.
func (c *CallState) SetBargeIn(active bool) {
	c.mu.Lock()
	c.MuteBus.BargeInActive = active
	if !active {
		c.latency.BargeInReleasedAt = time.Now()
	}
	c.mu.Unlock()
}

// SetNumberMode sets only the number-mode half of the mute bus.
func (c *CallState) SetNumberMode(active bool) {
	c.mu.Lock()
	c.MuteBus.NumberModeActive = active
	c.mu.Unlock()
}

// Muted reports whether assistant audio must currently be suppressed.
func (c *CallState) Muted() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.MuteBus.Muted()
}

// SetMeta records the call's identity/outbound context once, on `start`.
func (c *CallState) SetMeta(m Meta) {
	c.mu.Lock()
	c.Meta = m
	c.mu.Unlock()
}

// GetMeta returns a copy of the call's identity context, safe for readers
// other than the call's own task (transcript/recording webhooks).
func (c *CallState) GetMeta() Meta {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Meta
}

// SetStreamID records the provider-assigned stream id from `start`.
func (c *CallState) SetStreamID(id string) {
	c.mu.Lock()
	c.StreamID = id
	c.mu.Unlock()
}

// SetVoice locks in the call's chosen voice and displayed assistant name.
func (c *CallState) SetVoice(v Voice) {
	c.mu.Lock()
	c.Voice = v
	c.mu.Unlock()
}

// GetVoice returns a copy of the call's locked voice selection.
func (c *CallState) GetVoice() Voice {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Voice
}

// MarkSessionReady flips SessionReady and records the latency timestamp.
func (c *CallState) MarkSessionReady() {
	c.mu.Lock()
	c.SessionReady = true
	c.latency.SessionReadyAt = time.Now()
	c.mu.Unlock()
}

// LatchDNC sets the do-not-call attempt latch. No-op if already attempted —
// the latch is monotonic (§8 invariant 4).
func (c *CallState) LatchDNC(reason string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.DNC.Attempted {
		return false
	}
	c.DNC.Attempted = true
	c.DNC.Reason = reason
	return true
}

// DNCAttempted reports the current DNC latch state.
func (c *CallState) DNCAttempted() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.DNC.Attempted
}

// AppendEvent appends a transcript line. events is append-only (§3 invariant).
func (c *CallState) AppendEvent(role Role, text string, ts time.Time) {
	c.mu.Lock()
	c.events = append(c.events, Event{Role: role, Text: text, Ts: ts})
	c.mu.Unlock()
}

// ExportTranscript returns a copy of the raw event slice, mirroring the
// teacher's ExportLastUserAudio debug accessor (SPEC_FULL §12).
func (c *CallState) ExportTranscript() []Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Event, len(c.events))
	copy(out, c.events)
	return out
}

// RecordIdleFired stamps the idle-watchdog-fired latency point.
func (c *CallState) RecordIdleFired() {
	c.mu.Lock()
	c.latency.IdleFiredAt = time.Now()
	c.mu.Unlock()
}

// RecordHangupConfirmed stamps the REST-hangup-confirmed latency point.
func (c *CallState) RecordHangupConfirmed() {
	c.mu.Lock()
	c.latency.HangupConfirmedAt = time.Now()
	c.mu.Unlock()
}

// LatencyBreakdown renders the accumulated latency points into durations,
// zero-valued where the corresponding event never happened. TimeToGreeting
// is measured from Meta.StartedAt. BargeInReleaseGap is always zero: no
// caller records SpeechStoppedAt.
func (c *CallState) LatencyBreakdown() LatencyReport {
	c.mu.Lock()
	defer c.mu.Unlock()
	var r LatencyReport
	if !c.latency.GreetingSentAt.IsZero() && !c.Meta.StartedAt.IsZero() {
		r.TimeToGreeting = c.latency.GreetingSentAt.Sub(c.Meta.StartedAt)
	}
	if !c.latency.BargeInReleasedAt.IsZero() && !c.latency.SpeechStoppedAt.IsZero() {
		r.BargeInReleaseGap = c.latency.BargeInReleasedAt.Sub(c.latency.SpeechStoppedAt)
	}
	if !c.latency.HangupConfirmedAt.IsZero() && !c.latency.IdleFiredAt.IsZero() {
		r.IdleToHangup = c.latency.HangupConfirmedAt.Sub(c.latency.IdleFiredAt)
	}
	return r
}
