package session

import "testing"

func TestSelectVoiceDefault(t *testing.T) {
	sv := SelectVoice("alloy", "verse", "")
	if sv.Voice != "alloy" || sv.AssistantName != "Trinity" {
		t.Fatalf("got %+v, want alloy/Trinity", sv)
	}
}

func TestSelectVoiceNamedOverride(t *testing.T) {
	sv := SelectVoice("alloy", "verse", "ballad")
	if sv.Voice != "ballad" || sv.AssistantName != "Ballad" {
		t.Fatalf("got %+v, want ballad/Ballad", sv)
	}
}

func TestSelectVoiceLegacyMale(t *testing.T) {
	sv := SelectVoice("alloy", "verse", "male")
	if sv.Voice != "verse" || sv.AssistantName != "Verse" {
		t.Fatalf("got %+v, want verse/Verse", sv)
	}
}

func TestSelectVoiceUnrecognizedFallsBack(t *testing.T) {
	sv := SelectVoice("alloy", "verse", "nonexistent-voice")
	if sv.Voice != "alloy" || sv.AssistantName != "Trinity" {
		t.Fatalf("got %+v, want alloy/Trinity", sv)
	}
}
