package modelsocket

// Kind is the closed variant of events the model socket can deliver,
// per SPEC_FULL §9's "tagged variants" design note (ModelEvent).
type Kind string

const (
	KindSessionUpdated Kind = "session.updated"
	KindSpeechStarted  Kind = "speech_started"
	KindSpeechStopped  Kind = "speech_stopped"
	KindAudioDelta     Kind = "audio_delta"
	KindResponseDone   Kind = "response_done"
	KindOutputCleared  Kind = "output_cleared"
	KindError          Kind = "error"
	KindUnknown        Kind = "unknown"
)

// Event is one parsed model-socket message.
type Event struct {
	Kind        Kind
	AudioDeltaB64 string
	ErrorMessage  string
}

// VADConfig is the server-side VAD configuration sent in session.update.
type VADConfig struct {
	Threshold float64
}

// SessionUpdate is the payload §4.5 sends once per call on `start`.
type SessionUpdate struct {
	Voice        string
	Instructions string
	VAD          VADConfig
	// AudioFormat is always "g711_ulaw" both directions (§4.5); kept as a
	// field rather than hardcoded so a PCM16 fallback session is expressible.
	AudioFormat string
}

// DefaultVADThreshold is §4.5's server-side VAD threshold.
const DefaultVADThreshold = 0.55
