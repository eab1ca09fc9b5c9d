// Package transcript implements the transcript integrator (§4.11): ingests
// timestamped utterances by track, drops the assistant's own greeting
// echo, and renders the interleaved end-of-call timeline.
package transcript

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/lokutor-ai/lokutor-gateway/pkg/callstate"
)

// greetingPrefixes are normalized substrings used to identify and drop the
// assistant's own greeting utterance out of the inbound transcription
// stream (§4.11 "drop the first assistant utterance if it matches the
// operator's recorded greeting prefix"). Mirrors the fixed phrasing of
// session.GreetingText's three templates.
var greetingPrefixes = []string{
	"this is trinity",
	"it's trinity",
	"dan hasn't picked up",
	"dan's vip assistant",
	"dan's vip ai assistant",
}

// isGreetingPrefix reports whether text looks like the start of a greeting
// utterance, using a normalized (lowercased) substring test.
func isGreetingPrefix(text string) bool {
	normalized := strings.ToLower(text)
	for _, p := range greetingPrefixes {
		if strings.Contains(normalized, p) {
			return true
		}
	}
	return false
}

// Track identifies which side of the call a transcription event is for.
type Track string

const (
	TrackInbound  Track = "inbound_track"
	TrackOutbound Track = "outbound_track"
)

// ContentPayload is the structured form TranscriptionData may carry.
type ContentPayload struct {
	Transcript string `json:"transcript"`
}

// ParseContent extracts the utterance text from a transcription-content
// webhook: prefer the structured JSON field, fall back to a plain text
// field (§4.11).
func ParseContent(transcriptionDataJSON, transcriptionText string) string {
	if transcriptionDataJSON != "" {
		var payload ContentPayload
		if err := json.Unmarshal([]byte(transcriptionDataJSON), &payload); err == nil && payload.Transcript != "" {
			return payload.Transcript
		}
	}
	return transcriptionText
}

// Ingest appends one utterance to the call's transcript, classifying by
// track and dropping the first assistant utterance if it's the greeting
// echo. firstAssistantSeen should be a pointer the caller persists across
// calls for the same call (e.g. a field on the orchestrator's per-call
// bookkeeping) since CallState itself doesn't track it.
func Ingest(cs *callstate.CallState, track Track, text string, firstAssistantSeen *bool, ts time.Time) {
	if strings.TrimSpace(text) == "" {
		return
	}
	role := callstate.RoleCaller
	if track == TrackOutbound {
		role = callstate.RoleAssistant
		if firstAssistantSeen != nil && !*firstAssistantSeen {
			*firstAssistantSeen = true
			if isGreetingPrefix(text) {
				return
			}
		}
	}
	cs.AppendEvent(role, text, ts)
}

// coalesceWindow is the maximum gap between same-speaker entries that get
// joined into one turn (§4.11, §8's coalesce law).
const coalesceWindow = 2 * time.Second

// Render sorts events by timestamp, coalesces adjacent same-speaker runs
// within coalesceWindow, and joins turns into "<Role>:\n<text>" blocks
// separated by blank lines.
func Render(events []callstate.Event) string {
	if len(events) == 0 {
		return ""
	}
	sorted := make([]callstate.Event, len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Ts.Before(sorted[j].Ts) })

	type turn struct {
		role Role
		text strings.Builder
		last time.Time
	}
	var turns []*turn
	for _, e := range sorted {
		role := Role(e.Role)
		if len(turns) > 0 {
			cur := turns[len(turns)-1]
			if cur.role == role && e.Ts.Sub(cur.last) <= coalesceWindow {
				joinUtterance(&cur.text, e.Text)
				cur.last = e.Ts
				continue
			}
		}
		t := &turn{role: role, last: e.Ts}
		t.text.WriteString(e.Text)
		turns = append(turns, t)
	}

	blocks := make([]string, 0, len(turns))
	for _, t := range turns {
		blocks = append(blocks, fmt.Sprintf("%s:\n%s", titleRole(t.role), t.text.String()))
	}
	return strings.Join(blocks, "\n\n")
}

// Role mirrors callstate.Role to avoid a cross-package type alias cycle in
// doc comments; the values are identical strings.
type Role = callstate.Role

func joinUtterance(b *strings.Builder, next string) {
	existing := b.String()
	if existing != "" && !strings.HasSuffix(existing, "-") {
		b.WriteString(" ")
	}
	b.WriteString(next)
}

func titleRole(r Role) string {
	switch r {
	case callstate.RoleCaller:
		return "Caller"
	case callstate.RoleAssistant:
		return "Assistant"
	default:
		return string(r)
	}
}
