// Package notify provides the external log-sink clients (§1 "structured-log
// sinks (chat messenger, spreadsheet append)" — explicitly out of scope as
// a designed subsystem, spec'd only at its interface). SPEC_FULL §13's
// open-question decision 4 models the inbound call log and the outbound
// command bot as two independently configured clients sharing one small
// interface, with no product-identity decision embedded here.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// Sink is the minimal interface both notification channels share.
type Sink interface {
	Notify(ctx context.Context, text string) error
}

// ChunkLimit is the message length §6 chunks chat-bot replies at.
const ChunkLimit = 3800

// Chunk splits text into pieces no longer than limit, breaking on a space
// near the boundary where possible instead of mid-word.
func Chunk(text string, limit int) []string {
	if len(text) <= limit {
		return []string{text}
	}
	var chunks []string
	for len(text) > limit {
		cut := limit
		if idx := lastSpaceBefore(text, limit); idx > 0 {
			cut = idx
		}
		chunks = append(chunks, text[:cut])
		text = text[cut:]
	}
	if len(text) > 0 {
		chunks = append(chunks, text)
	}
	return chunks
}

func lastSpaceBefore(s string, limit int) int {
	for i := limit; i > 0; i-- {
		if s[i-1] == ' ' {
			return i
		}
	}
	return -1
}

// TelegramSink posts to the Telegram Bot API sendMessage endpoint.
type TelegramSink struct {
	botToken string
	chatID   string
	client   *http.Client
}

// NewTelegramSink builds a TelegramSink. A sink with an empty botToken or
// chatID is a configured no-op (best-effort per §7: notification failures
// never propagate to the call path).
func NewTelegramSink(botToken, chatID string) *TelegramSink {
	return &TelegramSink{botToken: botToken, chatID: chatID, client: &http.Client{Timeout: 10 * time.Second}}
}

// Notify sends text, chunked at ChunkLimit, as a best-effort side effect.
func (t *TelegramSink) Notify(ctx context.Context, text string) error {
	if t.botToken == "" || t.chatID == "" {
		return nil
	}
	for _, chunk := range Chunk(text, ChunkLimit) {
		if err := t.sendOne(ctx, chunk); err != nil {
			return err
		}
	}
	return nil
}

func (t *TelegramSink) sendOne(ctx context.Context, text string) error {
	payload, err := json.Marshal(map[string]string{"chat_id": t.chatID, "text": text})
	if err != nil {
		return err
	}
	endpoint := fmt.Sprintf("https://api.telegram.org/bot%s/sendMessage", url.PathEscape(t.botToken))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("notify: telegram returned status %d", resp.StatusCode)
	}
	return nil
}
