package session

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/lokutor-ai/lokutor-gateway/pkg/autopress"
	"github.com/lokutor-ai/lokutor-gateway/pkg/bargein"
	"github.com/lokutor-ai/lokutor-gateway/pkg/callstate"
	"github.com/lokutor-ai/lokutor-gateway/pkg/codec"
	"github.com/lokutor-ai/lokutor-gateway/pkg/idlewatch"
	"github.com/lokutor-ai/lokutor-gateway/pkg/instructions"
	"github.com/lokutor-ai/lokutor-gateway/pkg/modelsocket"
	"github.com/lokutor-ai/lokutor-gateway/pkg/numbermode"
	"github.com/lokutor-ai/lokutor-gateway/pkg/remoteconfig"
	"github.com/lokutor-ai/lokutor-gateway/pkg/telephony"
	"github.com/lokutor-ai/lokutor-gateway/pkg/transcript"
)

// greetingFallback is how long after a greeting attempt the orchestrator
// makes a second attempt. That attempt goes through the same MarkGreeted
// latch, so it sends nothing once the greeting has gone out.
const greetingFallback = 6 * time.Second

// Call is the one-per-call orchestrator: it owns the telephony and model
// sockets for a single call, wires the barge-in/number-mode/idle/auto-press
// controllers to the call's CallState, and fans events between the two
// sockets. One goroutine runs Call.Run and handles every socket event (§5),
// the same single-writer shape as the teacher's ManagedStream loop; the
// transcription webhook and the controllers' timers also write CallState,
// through its lock-guarded accessors.
type Call struct {
	deps Deps
	cs   *callstate.CallState
	tel  *telephony.MediaConn

	model   *modelsocket.Client
	bargein *bargein.Controller
	numMode *numbermode.Controller
	idle    *idlewatch.Watchdog
	press   *autopress.Engine

	transcriptMu       sync.Mutex
	firstAssistantSeen bool
	openingStyleIdx    int

	events chan wireEvent
}

// NewCall constructs a Call bound to one accepted media connection. The
// call's identity isn't known yet — it arrives on the `start` event — so
// CallState starts with a placeholder id that Run overwrites once `start`
// is parsed.
func NewCall(deps Deps, tel *telephony.MediaConn) *Call {
	return &Call{
		deps:    deps,
		cs:      callstate.New(""),
		tel:     tel,
		bargein: bargein.New(),
		numMode: numbermode.New(deps.numberSilenceGrace(), deps.numberMinDigits()),
		idle:    idlewatch.New(deps.idleTimeout(), deps.Config.IdleSendGoodbye),
		press:   autopress.New(deps.autoPressThreshold(), deps.Config.DNCSayLine, deps.RateLimit),
	}
}

// State exposes the call's CallState, e.g. for the transcription/recording
// webhook handlers to look up by call id.
func (c *Call) State() *callstate.CallState { return c.cs }

// wireEvent tags one event arriving off either socket so both can be
// drained through a single channel.
type wireEvent struct {
	telEvent   *telephony.InboundEvent
	modelEvent *modelsocket.Event
	done       bool // the producing ReadLoop returned; err carries why
	err        error
}

// Run drains the telephony and model sockets until either closes or ctx is
// cancelled. Both sockets' ReadLoops run in their own goroutine but only
// ever push a parsed event onto events — every event is actually handled
// back on this single goroutine (§5), the same shape as the teacher's
// ManagedStream loop reading off one channel per stream. Writers outside it
// (IngestTranscript, the controllers' timers) go through CallState's
// lock-guarded accessors or transcriptMu.
func (c *Call) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer c.teardown()

	events := make(chan wireEvent, 64)
	c.events = events

	go func() {
		err := c.tel.ReadLoop(ctx, func(ev telephony.InboundEvent) {
			e := ev
			events <- wireEvent{telEvent: &e}
		})
		events <- wireEvent{done: true, err: err}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case we := <-events:
			switch {
			case we.telEvent != nil:
				c.handleInbound(ctx, *we.telEvent, cancel)
			case we.modelEvent != nil:
				c.handleModelEvent(ctx, *we.modelEvent)
			case we.done:
				return we.err
			}
		}
	}
}

// startModelLoop dials the model socket's read loop onto the same events
// channel Run drains, so model-socket events are handled on Run's goroutine
// too.
func (c *Call) startModelLoop(ctx context.Context) {
	go func() {
		_ = c.model.ReadLoop(ctx, func(ev modelsocket.Event) {
			e := ev
			select {
			case c.events <- wireEvent{modelEvent: &e}:
			case <-ctx.Done():
			}
		})
	}()
}

func (c *Call) handleInbound(ctx context.Context, ev telephony.InboundEvent, cancel context.CancelFunc) {
	switch ev.Kind {
	case telephony.InboundConnected:
		// No state transition yet; the call isn't addressable until `start`
		// carries its identity (§4.1).

	case telephony.InboundStart:
		c.onStart(ctx, ev.Start)

	case telephony.InboundMedia:
		c.onMedia(ctx, ev.MediaB64)

	case telephony.InboundStop:
		c.cs.Transition(callstate.StatusEnding)
		cancel()

	case telephony.InboundUnknown:
		// Dropped per §7; nothing to do.
	}
}

func (c *Call) onStart(ctx context.Context, p telephony.StartParams) {
	c.cs.CallID = p.CallID
	c.cs.SetStreamID(p.StreamID)
	c.cs.Transition(callstate.StatusStreamStarted)
	c.deps.Registry.register(p.CallID, c)

	meta := callstate.Meta{
		From:       p.From,
		To:         p.To,
		CallerName: p.CallerName,
		StartedAt:  time.Now(),
		Outbound: callstate.OutboundMeta{
			IsOutbound:    p.Reason != "" || p.Theme != "",
			Reason:        p.Reason,
			Theme:         p.Theme,
			RecipientName: p.RecipientName,
		},
	}
	c.cs.SetMeta(meta)

	snap := c.deps.RemoteConfig.Get(ctx, false)
	last10 := remoteconfig.NormalizeLast10(p.From)
	vip, isVIP := remoteconfig.MatchVIP(snap.VIPs, last10)

	var vipOverride string
	if isVIP {
		vipOverride = vip.VoiceOverride
	}
	voice := SelectVoice(c.deps.Config.DefaultVoice, c.deps.Config.MaleVoice, vipOverride)
	assistantName := voice.AssistantName
	c.cs.SetVoice(callstate.Voice{Selected: voice.Voice, AssistantName: assistantName})

	callCtx := instructions.CallContext{
		CallerIDAvailable:     p.From != "",
		CallerIDLast10:        last10,
		CallerIDLast4Verified: last4(last10),
	}
	if isVIP {
		callCtx.VIP = &vip
	}
	outboundCtx := instructions.OutboundContext{
		IsOutbound: meta.Outbound.IsOutbound,
		Reason:     p.Reason,
		Theme:      p.Theme,
	}
	c.openingStyleIdx = hashIndex(p.CallID)
	doc := instructions.Build(snap.SystemPrompt, snap.VIPs, callCtx, outboundCtx, assistantName, c.openingStyleIdx)

	model, err := c.deps.DialModel(ctx)
	if err != nil {
		c.logf().Error("model dial failed", "call_id", p.CallID, "err", err)
		return
	}
	c.model = model

	if err := c.model.SendSessionUpdate(ctx, modelsocket.SessionUpdate{
		Voice:        voice.Voice,
		Instructions: doc,
	}); err != nil {
		c.logf().Error("session.update failed", "call_id", p.CallID, "err", err)
	}
	if err := c.model.SendAudioClear(ctx); err != nil {
		c.logf().Warn("initial input_audio_buffer.clear failed", "call_id", p.CallID, "err", err)
	}

	if c.deps.Config.AutoDNCEnable && c.deps.Config.AutoDNCOnCNAM {
		c.press.OnStreamStart(c.cs, last10, p.CallerName, c.deps.Config.AutoDNCOnlyPhrase, c.deps.Config.AutoDNCDigits, c.deps.Config.AutoDNCGapMS, c.autoPressSinks())
	}

	c.startModelLoop(ctx)

	// Outbound callees typically speak first; don't wait for session.updated
	// before greeting (§4.5). The session.updated handler's attemptGreeting
	// call becomes a latched no-op via MarkGreeted once this has run.
	if meta.Outbound.IsOutbound {
		c.attemptGreeting(ctx)
	}

	c.idle.Bump(c.cs, c.idleSinks())
}

func (c *Call) handleModelEvent(ctx context.Context, ev modelsocket.Event) {
	switch ev.Kind {
	case modelsocket.KindSessionUpdated:
		c.cs.MarkSessionReady()
		c.cs.Transition(callstate.StatusSessionReady)
		c.attemptGreeting(ctx)

	case modelsocket.KindSpeechStarted:
		c.bargein.OnSpeechStart(c.cs, c.bargeinSinks(ctx))
		c.idle.Bump(c.cs, c.idleSinks())

	case modelsocket.KindSpeechStopped:
		c.bargein.OnSpeechStop(c.cs)

	case modelsocket.KindAudioDelta:
		c.forwardAudioDelta(ctx, ev.AudioDeltaB64)

	case modelsocket.KindResponseDone:
		if c.cs.GetStatus() == callstate.StatusGreeted {
			c.cs.Transition(callstate.StatusActive)
		}

	case modelsocket.KindOutputCleared:
		// Confirms a barge-in's output_audio_buffer.clear landed; no state change.

	case modelsocket.KindError:
		c.logf().Warn("model socket error event", "call_id", c.cs.CallID, "message", ev.ErrorMessage)

	case modelsocket.KindUnknown:
		// Dropped per §9.
	}
}

// attemptGreeting issues the first response.create once session.updated
// arrives, and schedules a single fallback retry if nothing has been marked
// greeted by greetingFallback later (§4.5).
func (c *Call) attemptGreeting(ctx context.Context) {
	meta := c.cs.GetMeta()
	voice := c.cs.GetVoice()

	var kind GreetingKind
	var name string
	switch {
	case meta.Outbound.IsOutbound:
		kind = GreetingOutbound
		name = firstName(meta.Outbound.RecipientName)
	default:
		snap := c.deps.RemoteConfig.Get(ctx, false)
		last10 := remoteconfig.NormalizeLast10(meta.From)
		if vip, ok := remoteconfig.MatchVIP(snap.VIPs, last10); ok {
			kind = GreetingInboundVIP
			name = firstName(vip.Name)
		} else {
			kind = GreetingInboundStranger
		}
	}
	text := GreetingText(kind, voice.AssistantName, name, meta.Outbound.Theme)

	c.sendGreeting(ctx, text)

	time.AfterFunc(greetingFallback, func() {
		if c.cs.GetStatus() == callstate.StatusDone {
			return
		}
		c.sendGreeting(ctx, text)
	})
}

// firstName narrows a recorded full name down to its first token, since
// §4.5's greeting templates address the callee by first name only.
func firstName(full string) string {
	name, _, _ := strings.Cut(strings.TrimSpace(full), " ")
	return name
}

func (c *Call) sendGreeting(ctx context.Context, text string) {
	if err := c.cs.MarkGreeted(time.Now()); err != nil {
		return // already sent (or the fallback beat us to it)
	}
	c.cs.Transition(callstate.StatusGreeted)
	if err := c.model.SendResponseCreate(ctx, text); err != nil {
		c.logf().Error("greeting response.create failed", "call_id", c.cs.CallID, "err", err)
	}
}

func (c *Call) onMedia(ctx context.Context, payloadB64 string) {
	c.idle.Bump(c.cs, c.idleSinks())
	if c.model == nil {
		return
	}
	if err := c.model.SendAudioAppend(ctx, payloadB64); err != nil {
		c.logf().Warn("audio-append failed", "call_id", c.cs.CallID, "err", err)
	}
}

func (c *Call) forwardAudioDelta(ctx context.Context, b64 string) {
	if c.cs.Muted() {
		return
	}
	raw, err := modelsocket.DecodeAudioDelta(b64)
	if err != nil {
		c.logf().Warn("audio delta decode failed", "call_id", c.cs.CallID, "err", err)
		return
	}
	for _, frame := range codec.Slice160(raw) {
		payload := base64.StdEncoding.EncodeToString(frame)
		if err := c.tel.SendMedia(ctx, payload); err != nil {
			c.logf().Warn("telephony media write failed", "call_id", c.cs.CallID, "err", err)
			return
		}
	}
}

// HandleTranscriptLine is invoked from the transcription webhook handler
// (outside the call's own goroutine) with one utterance for this call. Only
// the fields it touches on CallState go through lock-guarded accessors, so
// this is safe to call concurrently with Run's event loop (§5).
func (c *Call) HandleTranscriptLine(track TranscriptTrack, text string) {
	c.idle.Bump(c.cs, c.idleSinks())

	meta := c.cs.GetMeta()
	last10 := remoteconfig.NormalizeLast10(meta.From)

	if track == TranscriptCaller {
		c.numMode.OnTranscriptLine(c.cs, text, c.numberModeSinks())
		if c.deps.Config.AutoDNCEnable {
			c.press.OnTranscriptLine(c.cs, last10, meta.CallerName, text, c.autoPressSinks())
		}
	}
}

// TranscriptTrack distinguishes which side of the call a webhook utterance
// came from, for HandleTranscriptLine; IngestTranscript maps transcript.Track
// onto it.
type TranscriptTrack int

const (
	TranscriptCaller TranscriptTrack = iota
	TranscriptAssistant
)

func (c *Call) bargeinSinks(ctx context.Context) bargein.Sinks {
	return bargein.Sinks{
		SendTelephonyClear: func() {
			if err := c.tel.SendClear(ctx); err != nil {
				c.logf().Warn("telephony clear failed", "call_id", c.cs.CallID, "err", err)
			}
		},
		SendResponseCancel: func() {
			if err := c.model.SendResponseCancel(ctx); err != nil {
				c.logf().Warn("response.cancel failed", "call_id", c.cs.CallID, "err", err)
			}
		},
		SendBufferClear: func() {
			if err := c.model.SendOutputBufferClear(ctx); err != nil {
				c.logf().Warn("output_audio_buffer.clear failed", "call_id", c.cs.CallID, "err", err)
			}
		},
	}
}

func (c *Call) numberModeSinks() numbermode.Sinks {
	return numbermode.Sinks{
		OnEnter: func() { c.logf().Debug("number-mode entered", "call_id", c.cs.CallID) },
		OnExit:  func() { c.logf().Debug("number-mode exited", "call_id", c.cs.CallID) },
	}
}

func (c *Call) idleSinks() idlewatch.Sinks {
	return idlewatch.Sinks{
		SendGoodbye: func() {
			if c.model != nil {
				_ = c.model.SendResponseCreate(context.Background(), c.deps.Config.IdleGoodbyeLine)
			}
		},
		Hangup: func() {
			c.hangup("idle_timeout")
		},
	}
}

func (c *Call) autoPressSinks() autopress.Sinks {
	return autopress.Sinks{
		Redirect: func(digits, sayLine string) {
			c.redirectAndHangup(digits, sayLine)
		},
	}
}

func (c *Call) redirectAndHangup(digits, sayLine string) {
	if c.deps.REST == nil || c.deps.PublicBaseURL == "" {
		return
	}
	redirectURL := fmt.Sprintf("%s/voice/dnc-redirect?digits=%s&say=%s", c.deps.PublicBaseURL, url.QueryEscape(digits), url.QueryEscape(sayLine))
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := c.deps.REST.RedirectCall(ctx, c.cs.CallID, redirectURL); err != nil {
		c.logf().Error("dnc redirect failed", "call_id", c.cs.CallID, "err", err)
	}
}

func (c *Call) hangup(reason string) {
	if c.deps.REST == nil || c.cs.CallID == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := c.deps.REST.HangupCall(ctx, c.cs.CallID); err != nil {
		c.logf().Warn("rest hangup failed", "call_id", c.cs.CallID, "reason", reason, "err", err)
	}
}

func (c *Call) teardown() {
	c.idle.Stop()
	c.numMode.OnCallEnd(c.cs, numbermode.Sinks{})
	c.cs.Transition(callstate.StatusDone)
	c.deps.Registry.unregister(c.cs.CallID)
	if c.model != nil {
		_ = c.model.Close()
	}
	_ = c.tel.Close("call ended")
}

// IngestTranscript appends one utterance from the transcription webhook to
// the call's transcript and, for the caller's track, runs it through
// number-mode and auto-press classification. Safe to call concurrently with
// Run's event loop and with itself: CallState's accessors are lock-guarded,
// and firstAssistantSeen (the one piece of state transcript.Ingest needs
// that CallState doesn't track) is guarded by transcriptMu here.
func (c *Call) IngestTranscript(track transcript.Track, text string, ts time.Time) {
	c.transcriptMu.Lock()
	seen := c.firstAssistantSeen
	transcript.Ingest(c.cs, track, text, &seen, ts)
	c.firstAssistantSeen = seen
	c.transcriptMu.Unlock()

	if track == transcript.TrackInbound {
		c.HandleTranscriptLine(TranscriptCaller, text)
	}
}

func (c *Call) logf() Logger {
	if c.deps.Logger != nil {
		return c.deps.Logger
	}
	return noopLogger{}
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...interface{}) {}
func (noopLogger) Info(string, ...interface{})  {}
func (noopLogger) Warn(string, ...interface{})  {}
func (noopLogger) Error(string, ...interface{}) {}

func last4(last10 string) string {
	if len(last10) < 4 {
		return ""
	}
	return last10[len(last10)-4:]
}

// hashIndex derives a small non-negative, deterministic index from a call
// id, for instructions.OpeningStyle's "stable per-call index" requirement
// (§4.4(h)) without reaching for a random source.
func hashIndex(callID string) int {
	var h int
	for _, r := range callID {
		h = h*31 + int(r)
	}
	if h < 0 {
		h = -h
	}
	return h
}
