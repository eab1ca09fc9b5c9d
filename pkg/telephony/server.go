package telephony

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/coder/websocket"
)

// MediaConn is one accepted upstream media-stream connection.
type MediaConn struct {
	conn     *websocket.Conn
	writeMu  sync.Mutex
	StreamID string
}

// Accept upgrades r to a websocket at the media-stream path. The media
// socket carries no provider authentication of its own (§1 Non-goals:
// "authentication of the media socket"); trust is the caller's network
// boundary.
func Accept(w http.ResponseWriter, r *http.Request) (*MediaConn, error) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		return nil, fmt.Errorf("telephony: accept: %w", err)
	}
	return &MediaConn{conn: conn}, nil
}

// ReadLoop reads raw frames until ctx is cancelled or the peer closes,
// dispatching each parsed InboundEvent to onEvent. It records StreamID off
// the `start` event so SendMedia/SendClear can address it afterward.
func (m *MediaConn) ReadLoop(ctx context.Context, onEvent func(InboundEvent)) error {
	for {
		_, raw, err := m.conn.Read(ctx)
		if err != nil {
			return err
		}
		ev := ParseInbound(raw)
		if ev.Kind == InboundStart {
			m.StreamID = ev.Start.StreamID
		}
		onEvent(ev)
	}
}

// SendMedia writes one base64 μ-law slice downstream (§4.1).
func (m *MediaConn) SendMedia(ctx context.Context, payloadB64 string) error {
	frame, err := EncodeMedia(m.StreamID, payloadB64)
	if err != nil {
		return err
	}
	return m.writeRaw(ctx, frame)
}

// SendClear flushes the provider's buffered outbound audio (§4.6).
func (m *MediaConn) SendClear(ctx context.Context) error {
	frame, err := EncodeClear(m.StreamID)
	if err != nil {
		return err
	}
	return m.writeRaw(ctx, frame)
}

// writeRaw serializes writes: coder/websocket permits one concurrent reader
// and one concurrent writer, not multiple concurrent writers, and the
// greeting/barge-in/audio-forwarding paths all write from different
// goroutines.
func (m *MediaConn) writeRaw(ctx context.Context, frame []byte) error {
	m.writeMu.Lock()
	defer m.writeMu.Unlock()
	return m.conn.Write(ctx, websocket.MessageText, frame)
}

// Close closes the underlying connection with the given reason.
func (m *MediaConn) Close(reason string) error {
	return m.conn.Close(websocket.StatusNormalClosure, reason)
}
