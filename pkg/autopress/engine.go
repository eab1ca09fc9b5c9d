package autopress

import (
	"time"

	"github.com/lokutor-ai/lokutor-gateway/pkg/callstate"
)

// DefaultDigitsKey is the rate-limit namespace the default-digits variant
// shares with real digit keys (SPEC_FULL §13 open-question decision 2 —
// preserved as-is from the source, flagged here rather than redesigned).
const DefaultDigitsKey = "default"

// Sinks are the redirect side effect the engine fires on a confirmed press.
type Sinks struct {
	// Redirect plays digits (optionally speaks sayLine) and hangs up via a
	// TwiML redirect on the in-flight call. digits may be a single digit
	// ("9") or a sequence ("9,8") for the default-digits variant.
	Redirect func(digits string, sayLine string)
}

// Engine runs one call's auto-press classification and rate-limited firing.
type Engine struct {
	threshold float64
	sayLine   string
	limiter   *RateLimit
}

// New builds an Engine with the given confidence threshold (§6
// AUTO_PRESS_CONFIDENCE) and say-line (§6 DNC_SAY_LINE), backed by a shared
// RateLimit.
func New(threshold float64, sayLine string, limiter *RateLimit) *Engine {
	return &Engine{threshold: threshold, sayLine: sayLine, limiter: limiter}
}

// OnTranscriptLine implements §4.9 steps 1-3: classify, and on confidence
// at or above threshold with the rate limit clear, latch DNC and fire the redirect.
// Never fires twice, never below threshold, never inside the rate window,
// never after DNC latches (§7 "Auto-press safety").
func (e *Engine) OnTranscriptLine(cs *callstate.CallState, callerLast10, callerName, text string, sinks Sinks) {
	if cs.DNCAttempted() {
		return
	}
	c := Classify(text, callerName)
	if !c.Found || c.Confidence < e.threshold {
		return
	}
	digitKey := string(c.Digit)
	if !e.limiter.Allowed(callerLast10, digitKey) {
		return
	}
	e.fire(cs, callerLast10, digitKey, sinks)
}

// OnStreamStart implements §4.9 step 4: the default-digits variant fires on
// stream start if the caller-name matches spam/scam and phrase-only mode is
// off, using DefaultDigitsKey as the rate-limit namespace.
func (e *Engine) OnStreamStart(cs *callstate.CallState, callerLast10, callerName string, onlyPhrase bool, defaultDigits string, gap time.Duration, sinks Sinks) {
	if onlyPhrase || cs.DNCAttempted() {
		return
	}
	if !isSpamCNAM(callerName) {
		return
	}
	if !e.limiter.Allowed(callerLast10, DefaultDigitsKey) {
		return
	}
	e.limiter.Record(callerLast10, DefaultDigitsKey)
	if !cs.LatchDNC("cnam_spam_default_digits") {
		return
	}
	if sinks.Redirect != nil {
		sinks.Redirect(defaultDigits, "")
	}
}

func (e *Engine) fire(cs *callstate.CallState, last10, digitKey string, sinks Sinks) {
	// Recorded before the redirect's success is known (preserved source
	// behavior, see RateLimit.Record's doc comment and DESIGN.md).
	e.limiter.Record(last10, digitKey)
	if !cs.LatchDNC("auto_press") {
		return
	}
	if sinks.Redirect != nil {
		sinks.Redirect(digitKey, e.sayLine)
	}
}
