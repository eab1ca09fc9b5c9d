package telephony

import "net/http"

// TranscriptionEvent is the parsed shape of the transcription webhook body
// (§6 "Transcript webhook"). TranscriptionEvent values are one of
// transcription-started, transcription-content, transcription-stopped,
// transcription-error.
type TranscriptionEvent struct {
	Event           string
	CallID          string
	Track           string
	TranscriptionData string
	TranscriptionText string
	From            string
	To              string
	CallerName      string
}

// ParseTranscriptionWebhook extracts the form-encoded transcription webhook
// fields plus the query-string hints §6 names (from, to, callerName).
func ParseTranscriptionWebhook(r *http.Request) (TranscriptionEvent, error) {
	if err := r.ParseForm(); err != nil {
		return TranscriptionEvent{}, err
	}
	q := r.URL.Query()
	return TranscriptionEvent{
		Event:              r.FormValue("TranscriptionEvent"),
		CallID:             r.FormValue("CallSid"),
		Track:              r.FormValue("Track"),
		TranscriptionData:  r.FormValue("TranscriptionData"),
		TranscriptionText:  r.FormValue("TranscriptionText"),
		From:               q.Get("from"),
		To:                 q.Get("to"),
		CallerName:         q.Get("callerName"),
	}, nil
}

// RecordingEvent is the parsed shape of the recording webhook body (§6
// "Recording webhook").
type RecordingEvent struct {
	CallID       string
	RecordingID  string
	RecordingURL string
	From         string
	To           string
}

// ParseRecordingWebhook extracts the form-encoded recording webhook fields.
func ParseRecordingWebhook(r *http.Request) (RecordingEvent, error) {
	if err := r.ParseForm(); err != nil {
		return RecordingEvent{}, err
	}
	return RecordingEvent{
		CallID:       r.FormValue("CallSid"),
		RecordingID:  r.FormValue("RecordingSid"),
		RecordingURL: r.FormValue("RecordingUrl"),
		From:         r.FormValue("From"),
		To:           r.FormValue("To"),
	}, nil
}
