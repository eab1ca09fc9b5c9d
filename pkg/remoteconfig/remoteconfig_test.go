package remoteconfig

import (
	"context"
	"testing"
	"time"
)

func TestGetWithoutURLReturnsFallback(t *testing.T) {
	p := New("", time.Minute, nil)
	snap := p.Get(context.Background(), false)
	if snap.SystemPrompt == "" {
		t.Fatal("fallback system prompt should not be empty")
	}
}

func TestNormalizeLast10(t *testing.T) {
	cases := map[string]string{
		"+1 (555) 123-5680": "5551235680",
		"5551235680":         "5551235680",
		"555-1235680-extra": "5551235680",
		"no digits here":     "",
		"":                   "",
	}
	for in, want := range cases {
		if got := NormalizeLast10(in); got != want {
			t.Errorf("NormalizeLast10(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestMatchVIP(t *testing.T) {
	vips := []VIP{{Name: "Jeff", Phone: "+15551235680"}}
	v, ok := MatchVIP(vips, "5551235680")
	if !ok || v.Name != "Jeff" {
		t.Fatalf("MatchVIP = %+v, %v; want Jeff, true", v, ok)
	}
	if _, ok := MatchVIP(vips, "9999999999"); ok {
		t.Fatal("MatchVIP should miss for unmatched number")
	}
	if _, ok := MatchVIP(vips, ""); ok {
		t.Fatal("MatchVIP should miss for empty last10")
	}
}
