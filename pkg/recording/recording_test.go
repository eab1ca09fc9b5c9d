package recording

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestDownloadSucceedsOnFirstTry(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, ".mp3") {
			w.Write([]byte("audio-bytes"))
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	d := NewDownloaderWithSchedule(time.Millisecond, 4*time.Millisecond)
	body, err := d.Download(context.Background(), srv.URL+"/rec123")
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	if string(body) != "audio-bytes" {
		t.Fatalf("body = %q", body)
	}
}

func TestDownloadFallsBackToWav(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, ".wav") {
			w.Write([]byte("wav-bytes"))
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	d := NewDownloaderWithSchedule(time.Millisecond, 4*time.Millisecond)
	body, err := d.Download(context.Background(), srv.URL+"/rec123")
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	if string(body) != "wav-bytes" {
		t.Fatalf("body = %q", body)
	}
}
