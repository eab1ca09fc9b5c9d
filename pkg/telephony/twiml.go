package telephony

import (
	"fmt"
	"html"
)

// InboundTwiML is the envelope returned from the provider's voice webhook
// for an inbound call: connect straight to the media socket, no recording
// parameters attached.
func InboundTwiML(mediaWSURL string) string {
	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<Response>
  <Connect>
    <Stream url="%s"/>
  </Connect>
</Response>`, html.EscapeString(mediaWSURL))
}

// OutboundTwiMLParams names the custom parameters attached to the stream
// element for an outbound call (§4.10's "Url points to an outbound-TwiML
// endpoint that starts dual-track recording and transcription, then
// connects to the media socket with custom parameters").
type OutboundTwiMLParams struct {
	To            string
	Reason        string
	Theme         string
	RecipientName string
	CallID        string
}

// OutboundTwiML builds the envelope for an outbound call: start dual-track
// recording and transcription, then connect to the media socket carrying
// the call's routing/theme metadata as stream parameters.
func OutboundTwiML(mediaWSURL, recordingStatusCallback, transcriptionStatusCallback string, p OutboundTwiMLParams) string {
	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<Response>
  <Start>
    <Recording recordingChannels="dual" recordingStatusCallback="%s"/>
    <Transcription statusCallbackUrl="%s" track="both_tracks"/>
  </Start>
  <Connect>
    <Stream url="%s">
      <Parameter name="to" value="%s"/>
      <Parameter name="reason" value="%s"/>
      <Parameter name="theme" value="%s"/>
      <Parameter name="recipientName" value="%s"/>
      <Parameter name="callSid" value="%s"/>
    </Stream>
  </Connect>
</Response>`,
		html.EscapeString(recordingStatusCallback),
		html.EscapeString(transcriptionStatusCallback),
		html.EscapeString(mediaWSURL),
		html.EscapeString(p.To),
		html.EscapeString(p.Reason),
		html.EscapeString(p.Theme),
		html.EscapeString(p.RecipientName),
		html.EscapeString(p.CallID),
	)
}

// DNCTwiML is the envelope the auto-press engine redirects a call to once it
// latches dnc.attempted (§4.9): play the matched digit back as a DTMF tone,
// pause, optionally speak a removal line, then hang up.
func DNCTwiML(digits, sayLine string) string {
	say := ""
	if sayLine != "" {
		say = fmt.Sprintf("\n  <Say>%s</Say>", html.EscapeString(sayLine))
	}
	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<Response>
  <Play digits="%s"/>
  <Pause length="1"/>%s
  <Hangup/>
</Response>`, html.EscapeString(digits), say)
}
