// Package instructions builds the per-call instruction document (§4.4)
// handed to the model in session.update. It is a pure string-assembly
// concern: no I/O, no state — in the teacher's idiom this is the kind of
// small, fully-tested pure function pkg/orchestrator keeps its conversation
// formatting in (ConversationSession.GetContextCopy and friends).
package instructions

import (
	"fmt"
	"strings"

	"github.com/lokutor-ai/lokutor-gateway/pkg/remoteconfig"
)

// policyParagraphs is the fixed set of operator policy rules, always
// rendered in this order regardless of caller/VIP/outbound context.
var policyParagraphs = []string{
	"Always respond in the caller's language; default to English unless the caller clearly speaks another language.",
	"When reciting or confirming any multi-digit number, pause briefly between each digit.",
	"Never state or confirm more than the last four digits of a phone number; never invent digits you were not given.",
	"If the caller offers a callback number, repeat it back using only the last four digits for confirmation.",
	"Never ask the caller for their phone number; it is already known to the system.",
	"Keep responses brief — a sentence or two unless the caller asks for detail.",
	"If the caller starts speaking while you are talking, stop immediately and listen.",
}

// CallContext carries what the instruction builder knows about the caller.
type CallContext struct {
	CallerIDAvailable      bool
	CallerIDLast10         string
	CallerIDLast4Verified  string
	VIP                    *remoteconfig.VIP
}

// OutboundContext carries the outbound-call framing, zero value for inbound.
type OutboundContext struct {
	IsOutbound bool
	Reason     string
	Theme      string
}

// openingStyles are fixed variant directives for how the assistant should
// frame its very first turn; §4.4(h) calls for choosing one from a fixed list.
var openingStyles = []string{
	"Open with a short, warm greeting before anything else.",
	"Open by confirming you can hear the caller clearly, then greet them.",
	"Open with the greeting and immediately state the reason for the call if one is known.",
}

// OpeningStyle picks a directive deterministically by index (callers pass a
// stable per-call index, e.g. derived from the call id) so instructions are
// reproducible for a given call without needing random state.
func OpeningStyle(index int) string {
	if len(openingStyles) == 0 {
		return ""
	}
	i := index % len(openingStyles)
	if i < 0 {
		i += len(openingStyles)
	}
	return openingStyles[i]
}

// Build assembles the newline-delimited instruction document in the order
// §4.4 specifies: system prompt, policy paragraphs, VIP directory, call
// context, recognized-VIP line, outbound framing, identity lock, opening
// style. The identity-lock block is placed last among content blocks (before
// only the opening-style line) so it overrides any contrary default in the
// system prompt, per §4.4's closing requirement.
func Build(systemPrompt string, vips []remoteconfig.VIP, call CallContext, outbound OutboundContext, assistantName string, openingStyleIndex int) string {
	var b strings.Builder

	writeBlock(&b, systemPrompt)

	for _, p := range policyParagraphs {
		writeBlock(&b, p)
	}

	if len(vips) > 0 {
		var dir strings.Builder
		dir.WriteString("[VIP DIRECTORY]\n")
		for _, v := range vips {
			last10 := remoteconfig.NormalizeLast10(v.Phone)
			if last10 == "" || v.Name == "" {
				continue
			}
			fmt.Fprintf(&dir, "%s=%s", last10, v.Name)
			if v.Relationship != "" {
				fmt.Fprintf(&dir, " (%s)", v.Relationship)
			}
			dir.WriteString("\n")
		}
		writeBlock(&b, strings.TrimRight(dir.String(), "\n"))
	}

	var ctx strings.Builder
	ctx.WriteString("[CALL CONTEXT]\n")
	fmt.Fprintf(&ctx, "CallerID_AVAILABLE=%t\n", call.CallerIDAvailable)
	if call.CallerIDAvailable {
		if call.CallerIDLast10 != "" {
			fmt.Fprintf(&ctx, "CallerID_LAST10=%s\n", call.CallerIDLast10)
		}
		if call.CallerIDLast4Verified != "" {
			fmt.Fprintf(&ctx, "CallerID_LAST4_VERIFIED=%s\n", call.CallerIDLast4Verified)
		}
	}
	writeBlock(&b, strings.TrimRight(ctx.String(), "\n"))

	if call.VIP != nil {
		line := fmt.Sprintf("Recognized VIP: %s", call.VIP.Name)
		if call.VIP.Relationship != "" {
			line += fmt.Sprintf(" (%s)", call.VIP.Relationship)
		}
		writeBlock(&b, line)
	}

	if outbound.IsOutbound {
		var ob strings.Builder
		ob.WriteString("[OUTBOUND CONTEXT]\n")
		fmt.Fprintf(&ob, "Reason=%s\n", outbound.Reason)
		fmt.Fprintf(&ob, "Theme=%s\n", outbound.Theme)
		ob.WriteString("This is an outbound call you placed; do not say the caller \"hasn't picked up yet\" — they answered.")
		writeBlock(&b, ob.String())
	}

	writeBlock(&b, fmt.Sprintf("[IDENTITY_LOCK]\nYour spoken name for this entire call is %q. Never refer to yourself by any other name.", assistantName))

	if style := OpeningStyle(openingStyleIndex); style != "" {
		writeBlock(&b, style)
	}

	return strings.TrimRight(b.String(), "\n")
}

func writeBlock(b *strings.Builder, s string) {
	if s == "" {
		return
	}
	b.WriteString(s)
	b.WriteString("\n\n")
}

// TitleCase renders a voice name the way the assistant-name derivation
// needs it — "ballad" -> "Ballad" (§4.5's assistant-name rule).
func TitleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}
