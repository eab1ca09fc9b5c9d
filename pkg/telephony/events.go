// Package telephony is the upstream transport: the provider media-stream
// websocket (§4.1, §6 "Telephony media socket"), the transcription and
// recording webhooks, and the call-control REST client (§4.9, §6
// "Call-control REST"). These are spec'd only at their wire interface
// (§1 Non-goals: "TwiML/REST call-control envelopes of the telephony
// provider"); this package implements that interface directly against
// net/http and coder/websocket rather than a provider SDK, the same way
// the pack's own Twilio integrations (agentplexus-agentcall's /voice
// handler, omnivoice-twilio) hand-roll the envelope instead of depending
// on a heavyweight client.
package telephony

import "encoding/json"

// InboundKind is the closed variant of events the media socket delivers
// (§9 "tagged variants" design note).
type InboundKind string

const (
	InboundConnected InboundKind = "connected"
	InboundStart     InboundKind = "start"
	InboundMedia     InboundKind = "media"
	InboundStop      InboundKind = "stop"
	InboundUnknown   InboundKind = "unknown"
)

// StartParams is the `start.customParameters` block a provider attaches to
// the `start` event, carrying the call's routing and outbound metadata.
type StartParams struct {
	StreamID     string
	CallID       string
	From         string
	To           string
	CallerName   string
	Reason       string
	Theme        string
	RecipientName string
}

// InboundEvent is one parsed upstream media-socket message.
type InboundEvent struct {
	Kind        InboundKind
	Start       StartParams
	MediaB64    string
}

// rawInbound mirrors the provider's wire shape for decoding.
type rawInbound struct {
	Event string `json:"event"`
	Start *struct {
		StreamSID        string            `json:"streamSid"`
		CallSID          string            `json:"callSid"`
		CustomParameters map[string]string `json:"customParameters"`
	} `json:"start"`
	Media *struct {
		Payload string `json:"payload"`
	} `json:"media"`
}

// ParseInbound decodes one raw JSON media-socket frame. Malformed JSON or an
// unrecognized event name yields InboundUnknown rather than an error (§7
// "unknown media event, malformed JSON: drop the event").
func ParseInbound(raw []byte) InboundEvent {
	var r rawInbound
	if err := json.Unmarshal(raw, &r); err != nil {
		return InboundEvent{Kind: InboundUnknown}
	}
	switch r.Event {
	case "connected":
		return InboundEvent{Kind: InboundConnected}
	case "start":
		ev := InboundEvent{Kind: InboundStart}
		if r.Start != nil {
			p := r.Start.CustomParameters
			ev.Start = StartParams{
				StreamID:      r.Start.StreamSID,
				CallID:        r.Start.CallSID,
				From:          p["from"],
				To:            p["to"],
				CallerName:    p["callerName"],
				Reason:        p["reason"],
				Theme:         p["theme"],
				RecipientName: p["recipientName"],
			}
			if ev.Start.CallID == "" {
				ev.Start.CallID = p["callSid"]
			}
		}
		return ev
	case "media":
		if r.Media == nil {
			return InboundEvent{Kind: InboundUnknown}
		}
		return InboundEvent{Kind: InboundMedia, MediaB64: r.Media.Payload}
	case "stop":
		return InboundEvent{Kind: InboundStop}
	default:
		return InboundEvent{Kind: InboundUnknown}
	}
}

// EncodeMedia builds the outbound `media` frame carrying one base64 μ-law
// slice for streamID (§4.1 downstream framing).
func EncodeMedia(streamID, payloadB64 string) ([]byte, error) {
	return json.Marshal(map[string]interface{}{
		"event":     "media",
		"streamSid": streamID,
		"media":     map[string]string{"payload": payloadB64},
	})
}

// EncodeClear builds the outbound `clear` frame that discards the
// telephony provider's buffered outbound audio (§4.6 barge-in step).
func EncodeClear(streamID string) ([]byte, error) {
	return json.Marshal(map[string]interface{}{
		"event":     "clear",
		"streamSid": streamID,
	})
}
