package session

import "fmt"

// GreetingKind distinguishes the three greeting templates §4.5 specifies.
type GreetingKind int

const (
	GreetingOutbound GreetingKind = iota
	GreetingInboundVIP
	GreetingInboundStranger
)

// GreetingText renders the fixed greeting templates. name may be empty for
// the stranger case; assistantName and theme are always required for their
// respective kinds.
func GreetingText(kind GreetingKind, assistantName, name, theme string) string {
	switch kind {
	case GreetingOutbound:
		if name != "" {
			return fmt.Sprintf("Hi %s — this is %s, Dan's VIP AI assistant. Dan asked me to call about: %s. Is now a good time?", name, assistantName, theme)
		}
		return fmt.Sprintf("Hi — this is %s, Dan's VIP AI assistant. Dan asked me to call about: %s. Is now a good time?", assistantName, theme)
	case GreetingInboundVIP:
		return fmt.Sprintf("Hi %s — This is %s, Dan's VIP Assistant. Dan hasn't picked up yet. How can I help?", name, assistantName)
	default:
		return fmt.Sprintf("Hi — it's %s. How can I help?", assistantName)
	}
}

// Greeting-prefix detection (§4.11 "drop the first assistant utterance if it
// matches the operator's recorded greeting prefix") lives in pkg/transcript,
// not here: transcript already needs these three templates' fixed phrasing
// to recognize them in the inbound transcription stream, and transcript
// must not import session (session imports transcript for webhook
// ingestion).
