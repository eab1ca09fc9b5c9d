// Package modelsocket is the downstream WebSocket client to the cloud
// realtime-speech model (§6 "Model socket"). It dials, sends session
// configuration and audio, and parses incoming events into the closed
// Kind variant.
//
// The dial/write/read shape is grounded directly on the teacher's
// pkg/providers/tts/lokutor.go (LokutorTTS.getConn/StreamSynthesize), which
// already dials a `coder/websocket` connection, writes a JSON request with
// wsjson.Write, and loops on conn.Read switching on message type — the
// exact shape this client generalizes from a one-shot synthesis call to a
// long-lived bidirectional session.
package modelsocket

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/url"
	"sync"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/lokutor-ai/lokutor-gateway/pkg/codec"
)

// Client is one call's connection to the realtime model.
type Client struct {
	mu   sync.Mutex
	conn *websocket.Conn
	host string
	path string
}

// Dial opens the model socket for model at host/path, authenticating with
// apiKey in an "Authorization: Bearer" header; the query string carries
// only the model name.
func Dial(ctx context.Context, host, model, apiKey string) (*Client, error) {
	u := url.URL{Scheme: "wss", Host: host, Path: "/v1/realtime", RawQuery: "model=" + model}
	opts := &websocket.DialOptions{
		HTTPHeader: map[string][]string{
			"Authorization": {"Bearer " + apiKey},
			"OpenAI-Beta":   {"realtime=v1"},
		},
	}
	conn, _, err := websocket.Dial(ctx, u.String(), opts)
	if err != nil {
		return nil, fmt.Errorf("modelsocket: dial: %w", err)
	}
	return &Client{conn: conn, host: host, path: u.Path}, nil
}

// Wrap adapts an already-established websocket connection into a Client,
// bypassing Dial's fixed host/auth shape. Tests use this to point a Client
// at an in-process fake model server.
func Wrap(conn *websocket.Conn) *Client {
	return &Client{conn: conn}
}

// SendSessionUpdate sends the one session.update the orchestrator issues on
// `start` (§4.5): voice, VAD config, I/O formats, and the instruction document.
func (c *Client) SendSessionUpdate(ctx context.Context, su SessionUpdate) error {
	format := su.AudioFormat
	if format == "" {
		format = "g711_ulaw"
	}
	threshold := su.VAD.Threshold
	if threshold == 0 {
		threshold = DefaultVADThreshold
	}
	msg := map[string]interface{}{
		"type": "session.update",
		"session": map[string]interface{}{
			"voice":                     su.Voice,
			"instructions":              su.Instructions,
			"input_audio_format":        format,
			"output_audio_format":       format,
			"turn_detection": map[string]interface{}{
				"type":      "server_vad",
				"threshold": threshold,
			},
		},
	}
	return c.write(ctx, msg)
}

// SendAudioAppend forwards one caller audio frame (already base64 μ-law)
// upstream to the model (§4.1's "forwarded verbatim as audio-append events").
func (c *Client) SendAudioAppend(ctx context.Context, base64Mulaw string) error {
	return c.write(ctx, map[string]interface{}{
		"type":  "input_audio_buffer.append",
		"audio": base64Mulaw,
	})
}

// SendAudioClear clears the model's input buffer, issued once right after
// session.update (§4.5).
func (c *Client) SendAudioClear(ctx context.Context) error {
	return c.write(ctx, map[string]interface{}{"type": "input_audio_buffer.clear"})
}

// SendResponseCreate requests a response carrying the given spoken
// instructions — used for both the greeting and the idle goodbye.
func (c *Client) SendResponseCreate(ctx context.Context, instructions string) error {
	return c.write(ctx, map[string]interface{}{
		"type": "response.create",
		"response": map[string]interface{}{
			"instructions": instructions,
		},
	})
}

// SendResponseCancel cancels the in-flight response (§4.6 barge-in step).
func (c *Client) SendResponseCancel(ctx context.Context) error {
	return c.write(ctx, map[string]interface{}{"type": "response.cancel"})
}

// SendOutputBufferClear flushes the model's pending output audio (§4.6).
func (c *Client) SendOutputBufferClear(ctx context.Context) error {
	return c.write(ctx, map[string]interface{}{"type": "output_audio_buffer.clear"})
}

// write serializes writes under mu: coder/websocket permits one concurrent
// reader and one concurrent writer, not multiple concurrent writers, and
// barge-in/greeting/audio-forwarding paths all write from different
// goroutines.
func (c *Client) write(ctx context.Context, msg map[string]interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return fmt.Errorf("modelsocket: connection closed")
	}
	return wsjson.Write(ctx, c.conn, msg)
}

// ReadLoop reads frames until ctx is cancelled or the socket closes,
// dispatching each parsed Event to onEvent. Unknown events are reported as
// KindUnknown and not treated as fatal (§9 "unknown events are logged and
// dropped"). A binary frame is the optional PCM16 fallback path (§4.1): it
// carries raw linear audio instead of a JSON event and is routed through the
// codec package's downsample/encode pipeline before being surfaced as an
// ordinary audio-delta event.
func (c *Client) ReadLoop(ctx context.Context, onEvent func(Event)) error {
	for {
		typ, data, err := c.conn.Read(ctx)
		if err != nil {
			return err
		}
		if typ == websocket.MessageBinary {
			onEvent(fallbackAudioEvent(data))
			continue
		}
		var raw map[string]interface{}
		if err := json.Unmarshal(data, &raw); err != nil {
			continue
		}
		onEvent(parseEvent(raw))
	}
}

// fallbackAudioEvent implements §4.1's "optional binary audio" fallback:
// the model delivered PCM16@16kHz instead of μ-law, so downsample to 8kHz
// and encode to μ-law before handing it to the same audio-delta path the
// JSON response.audio.delta events use.
func fallbackAudioEvent(pcm16 []byte) Event {
	mulaw, err := codec.PCM16ToMulaw(codec.Downsample2to1(pcm16))
	if err != nil {
		return Event{Kind: KindError, ErrorMessage: fmt.Sprintf("binary audio fallback: %v", err)}
	}
	return Event{Kind: KindAudioDelta, AudioDeltaB64: base64.StdEncoding.EncodeToString(mulaw)}
}

func parseEvent(raw map[string]interface{}) Event {
	t, _ := raw["type"].(string)
	switch t {
	case "session.updated":
		return Event{Kind: KindSessionUpdated}
	case "input_audio_buffer.speech_started":
		return Event{Kind: KindSpeechStarted}
	case "input_audio_buffer.speech_stopped":
		return Event{Kind: KindSpeechStopped}
	case "response.audio.delta", "response.output_audio.delta":
		delta, _ := raw["delta"].(string)
		return Event{Kind: KindAudioDelta, AudioDeltaB64: delta}
	case "response.done", "response.completed":
		return Event{Kind: KindResponseDone}
	case "output_audio_buffer.cleared":
		return Event{Kind: KindOutputCleared}
	case "error":
		msg := ""
		if e, ok := raw["error"].(map[string]interface{}); ok {
			msg, _ = e["message"].(string)
		}
		return Event{Kind: KindError, ErrorMessage: msg}
	default:
		return Event{Kind: KindUnknown}
	}
}

// DecodeAudioDelta base64-decodes an AudioDeltaB64 payload into raw μ-law bytes.
func DecodeAudioDelta(b64 string) ([]byte, error) {
	return base64.StdEncoding.DecodeString(b64)
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close(websocket.StatusNormalClosure, "")
	c.conn = nil
	return err
}
