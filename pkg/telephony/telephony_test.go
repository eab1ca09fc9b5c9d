package telephony

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
)

func TestParseInboundConnected(t *testing.T) {
	ev := ParseInbound([]byte(`{"event":"connected"}`))
	if ev.Kind != InboundConnected {
		t.Fatalf("got %+v", ev)
	}
}

func TestParseInboundStartCarriesCustomParameters(t *testing.T) {
	raw := `{"event":"start","start":{"streamSid":"MZ1","callSid":"CA1","customParameters":{"from":"+15551112222","to":"+15553334444","callerName":"Jeff","theme":"invoice"}}}`
	ev := ParseInbound([]byte(raw))
	if ev.Kind != InboundStart {
		t.Fatalf("got kind %v", ev.Kind)
	}
	if ev.Start.StreamID != "MZ1" || ev.Start.CallID != "CA1" {
		t.Fatalf("got %+v", ev.Start)
	}
	if ev.Start.From != "+15551112222" || ev.Start.Theme != "invoice" {
		t.Fatalf("got %+v", ev.Start)
	}
}

func TestParseInboundMedia(t *testing.T) {
	ev := ParseInbound([]byte(`{"event":"media","media":{"payload":"abc"}}`))
	if ev.Kind != InboundMedia || ev.MediaB64 != "abc" {
		t.Fatalf("got %+v", ev)
	}
}

func TestParseInboundMalformedIsUnknown(t *testing.T) {
	ev := ParseInbound([]byte(`not json`))
	if ev.Kind != InboundUnknown {
		t.Fatalf("got %+v", ev)
	}
}

func TestParseInboundUnrecognizedEventIsUnknown(t *testing.T) {
	ev := ParseInbound([]byte(`{"event":"mark"}`))
	if ev.Kind != InboundUnknown {
		t.Fatalf("got %+v", ev)
	}
}

func TestEncodeMediaRoundTrip(t *testing.T) {
	frame, err := EncodeMedia("MZ1", "abc")
	if err != nil {
		t.Fatalf("EncodeMedia: %v", err)
	}
	if !strings.Contains(string(frame), `"streamSid":"MZ1"`) || !strings.Contains(string(frame), `"payload":"abc"`) {
		t.Fatalf("got %s", frame)
	}
}

func TestInboundTwiMLEscapesURL(t *testing.T) {
	xml := InboundTwiML("wss://host/media?x=1&y=2")
	if !strings.Contains(xml, "&amp;") {
		t.Fatalf("expected escaped ampersand, got %s", xml)
	}
}

func TestOutboundTwiMLCarriesParameters(t *testing.T) {
	xml := OutboundTwiML("wss://host/media", "https://host/rec", "https://host/tx", OutboundTwiMLParams{
		To: "+15551235680", Theme: "invoice follow-up", CallID: "CA1",
	})
	if !strings.Contains(xml, `value="invoice follow-up"`) {
		t.Fatalf("missing theme parameter: %s", xml)
	}
	if !strings.Contains(xml, `recordingChannels="dual"`) {
		t.Fatalf("missing dual-track recording: %s", xml)
	}
}

func TestRESTClientCreateCallSendsBasicAuthAndForm(t *testing.T) {
	var gotUser, gotPass string
	var gotForm url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser, gotPass, _ = r.BasicAuth()
		_ = r.ParseForm()
		gotForm = r.PostForm
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"sid":"CA123","status":"queued"}`))
	}))
	defer srv.Close()

	c := NewRESTClient("ACxxx", "tok", "+15550000000", srv.URL)
	res, err := c.CreateCall(context.Background(), CreateCallParams{
		To:             "+15551235680",
		URL:            "https://gw.example/outbound-twiml",
		StatusCallback: "https://gw.example/status",
	})
	if err != nil {
		t.Fatalf("CreateCall: %v", err)
	}
	if res.CallID != "CA123" {
		t.Fatalf("got %+v", res)
	}
	if gotUser != "ACxxx" || gotPass != "tok" {
		t.Fatalf("got basic auth %q/%q", gotUser, gotPass)
	}
	if gotForm.Get("From") != "+15550000000" {
		t.Fatalf("expected default outbound From, got %q", gotForm.Get("From"))
	}
	if gotForm.Get("StatusCallbackEvent") != "initiated ringing answered completed" {
		t.Fatalf("got %q", gotForm.Get("StatusCallbackEvent"))
	}
}

func TestRESTClientHangupSendsStatusCompleted(t *testing.T) {
	var gotForm url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		gotForm = r.PostForm
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := NewRESTClient("ACxxx", "tok", "+15550000000", srv.URL)
	if err := c.HangupCall(context.Background(), "CA1"); err != nil {
		t.Fatalf("HangupCall: %v", err)
	}
	if gotForm.Get("Status") != "completed" {
		t.Fatalf("got %q", gotForm.Get("Status"))
	}
}

func TestRESTClientErrorStatusPropagates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewRESTClient("ACxxx", "tok", "+15550000000", srv.URL)
	if err := c.HangupCall(context.Background(), "CA1"); err == nil {
		t.Fatal("expected error on 500 response")
	}
}

func TestParseTranscriptionWebhook(t *testing.T) {
	form := url.Values{
		"TranscriptionEvent": {"transcription-content"},
		"CallSid":            {"CA1"},
		"Track":              {"inbound_track"},
		"TranscriptionText":  {"hello there"},
	}
	req := httptest.NewRequest(http.MethodPost, "/webhooks/transcription?from=%2B1555&callerName=Jeff", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	ev, err := ParseTranscriptionWebhook(req)
	if err != nil {
		t.Fatalf("ParseTranscriptionWebhook: %v", err)
	}
	if ev.CallID != "CA1" || ev.Track != "inbound_track" || ev.CallerName != "Jeff" {
		t.Fatalf("got %+v", ev)
	}
}

func TestParseRecordingWebhook(t *testing.T) {
	form := url.Values{
		"CallSid":       {"CA1"},
		"RecordingSid":  {"RE1"},
		"RecordingUrl":  {"https://host/recordings/RE1"},
	}
	req := httptest.NewRequest(http.MethodPost, "/webhooks/recording", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	ev, err := ParseRecordingWebhook(req)
	if err != nil {
		t.Fatalf("ParseRecordingWebhook: %v", err)
	}
	if ev.CallID != "CA1" || ev.RecordingID != "RE1" {
		t.Fatalf("got %+v", ev)
	}
}
