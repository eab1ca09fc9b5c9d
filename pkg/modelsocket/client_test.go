package modelsocket

import "testing"

func TestParseEventAudioDelta(t *testing.T) {
	e := parseEvent(map[string]interface{}{"type": "response.audio.delta", "delta": "abc123"})
	if e.Kind != KindAudioDelta || e.AudioDeltaB64 != "abc123" {
		t.Fatalf("got %+v", e)
	}
}

func TestParseEventAlternateAudioDeltaKey(t *testing.T) {
	e := parseEvent(map[string]interface{}{"type": "response.output_audio.delta", "delta": "xyz"})
	if e.Kind != KindAudioDelta || e.AudioDeltaB64 != "xyz" {
		t.Fatalf("got %+v", e)
	}
}

func TestParseEventDoneBothSpellings(t *testing.T) {
	for _, typ := range []string{"response.done", "response.completed"} {
		e := parseEvent(map[string]interface{}{"type": typ})
		if e.Kind != KindResponseDone {
			t.Fatalf("type %q got kind %v, want KindResponseDone", typ, e.Kind)
		}
	}
}

func TestParseEventError(t *testing.T) {
	e := parseEvent(map[string]interface{}{
		"type":  "error",
		"error": map[string]interface{}{"message": "boom"},
	})
	if e.Kind != KindError || e.ErrorMessage != "boom" {
		t.Fatalf("got %+v", e)
	}
}

func TestParseEventUnknownIsDropped(t *testing.T) {
	e := parseEvent(map[string]interface{}{"type": "something.else"})
	if e.Kind != KindUnknown {
		t.Fatalf("got %+v, want KindUnknown", e)
	}
}

func TestFallbackAudioEventEncodesMulaw(t *testing.T) {
	pcm := make([]byte, 16) // 8 16-bit samples at 16kHz
	for i := range pcm {
		pcm[i] = byte(i * 7)
	}
	e := fallbackAudioEvent(pcm)
	if e.Kind != KindAudioDelta {
		t.Fatalf("got kind %v, want KindAudioDelta", e.Kind)
	}
	if e.AudioDeltaB64 == "" {
		t.Fatal("expected non-empty encoded audio")
	}
	if _, err := DecodeAudioDelta(e.AudioDeltaB64); err != nil {
		t.Fatalf("decode: %v", err)
	}
}

func TestDecodeAudioDelta(t *testing.T) {
	// "hello" base64-encoded
	got, err := DecodeAudioDelta("aGVsbG8=")
	if err != nil {
		t.Fatalf("DecodeAudioDelta: %v", err)
	}
	if string(got) != "hello" {
		t.Fatalf("got %q, want hello", got)
	}
}
