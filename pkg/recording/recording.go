// Package recording handles the recording webhook and the exponential
// backoff download of the finished recording (§6, §9's "Retry policy for
// recording download").
package recording

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/jpillora/backoff"
)

// Webhook is the payload the telephony provider posts when a recording is ready.
type Webhook struct {
	CallSid      string
	RecordingSid string
	RecordingURL string
	From         string
	To           string
}

// Downloader fetches a finished recording with a capped exponential retry
// schedule (1s, 2s, 4s, 8s — §6), trying the provider's `.mp3` suffix first
// and falling back to `.wav`. Retry is not coupled to the call task's
// lifetime (§9): the call may already be DONE by the time this runs.
type Downloader struct {
	client *http.Client
	min    time.Duration
	max    time.Duration
}

// NewDownloader builds a Downloader with the spec's default 1s-8s schedule.
func NewDownloader() *Downloader {
	return &Downloader{client: &http.Client{Timeout: 15 * time.Second}, min: 1 * time.Second, max: 8 * time.Second}
}

// NewDownloaderWithSchedule builds a Downloader with a caller-supplied
// min/max backoff window, for tests that shouldn't wait on real seconds.
func NewDownloaderWithSchedule(min, max time.Duration) *Downloader {
	return &Downloader{client: &http.Client{Timeout: 15 * time.Second}, min: min, max: max}
}

// Download fetches the recording body, retrying on failure per the
// schedule above, mp3 first then wav.
func (d *Downloader) Download(ctx context.Context, baseURL string) ([]byte, error) {
	body, err := d.fetchWithRetry(ctx, baseURL+".mp3")
	if err == nil {
		return body, nil
	}
	return d.fetchWithRetry(ctx, baseURL+".wav")
}

func (d *Downloader) fetchWithRetry(ctx context.Context, url string) ([]byte, error) {
	b := &backoff.Backoff{Min: d.min, Max: d.max, Factor: 2, Jitter: false}

	var lastErr error
	for attempt := 0; attempt < 5; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(b.Duration()):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
		body, err := d.fetchOnce(ctx, url)
		if err == nil {
			return body, nil
		}
		lastErr = err
	}
	return nil, fmt.Errorf("recording: download %s failed after retries: %w", url, lastErr)
}

func (d *Downloader) fetchOnce(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := d.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("recording: unexpected status %d for %s", resp.StatusCode, url)
	}
	return io.ReadAll(resp.Body)
}
