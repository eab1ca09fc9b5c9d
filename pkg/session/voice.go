// Package session is the per-call orchestrator (§4.5): it owns the
// telephony socket and the model socket for one call, runs the greeting
// scheduler, and fans events between the two while the barge-in/number-mode
// controllers gate the mute bus.
package session

import "github.com/lokutor-ai/lokutor-gateway/pkg/instructions"

// AllowedVoices is the closed set of realtime-model voice names a VIP
// override or the configured male voice must belong to, generalizing the
// teacher's closed Voice enum (pkg/orchestrator/types.go's VoiceF1..VoiceM5)
// from its five local TTS voices to the set the cloud realtime model
// actually offers. The configured default voice is not checked against it.
var AllowedVoices = map[string]bool{
	"alloy": true, "echo": true, "shimmer": true,
	"ash": true, "ballad": true, "coral": true, "sage": true, "verse": true,
}

// SelectedVoice is the outcome of voice selection: the wire voice name and
// the display name the assistant is locked to for the call.
type SelectedVoice struct {
	Voice         string
	AssistantName string
}

// SelectVoice implements §4.5's voice-selection rules:
//   - default voice is the operator's configured default;
//   - a VIP override from the allowed set wins;
//   - legacy "male"/"female" map to configured defaults (female has no
//     dedicated config key in §6, so it maps to the operator default);
//   - anything unrecognized falls back to the default;
//   - the assistant's displayed name is "Trinity" unless the VIP set an
//     explicit override, in which case it's the title-cased voice name.
func SelectVoice(defaultVoice, maleVoice, vipOverride string) SelectedVoice {
	voice := defaultVoice
	named := false

	switch vipOverride {
	case "":
		// no override
	case "male":
		voice = maleVoice
		named = true
	case "female":
		voice = defaultVoice
		named = true
	default:
		if AllowedVoices[vipOverride] {
			voice = vipOverride
			named = true
		}
	}

	if !AllowedVoices[voice] {
		voice = defaultVoice
	}

	name := AssistantName
	if named {
		name = instructions.TitleCase(voice)
	}
	return SelectedVoice{Voice: voice, AssistantName: name}
}
