package outbound

import (
	"testing"
	"time"

	"github.com/lokutor-ai/lokutor-gateway/pkg/remoteconfig"
)

func TestParseCallNameAndLast4(t *testing.T) {
	cmd, req := Parse("/call jeff 5680 | invoice follow-up")
	if cmd != CmdCall {
		t.Fatalf("cmd = %v, want CmdCall", cmd)
	}
	if req.Name != "jeff" || req.Last4 != "5680" || req.Theme != "invoice follow-up" {
		t.Fatalf("req = %+v", req)
	}
}

func TestParseCallDirectPhone(t *testing.T) {
	cmd, req := Parse("/call +15551235680 | quick check-in")
	if cmd != CmdCall {
		t.Fatalf("cmd = %v, want CmdCall", cmd)
	}
	if req.Phone != "+15551235680" || req.Theme != "quick check-in" {
		t.Fatalf("req = %+v", req)
	}
}

func TestParseCallMissingThemeIsUnknown(t *testing.T) {
	cmd, _ := Parse("/call jeff 5680")
	if cmd != CmdUnknown {
		t.Fatalf("cmd = %v, want CmdUnknown", cmd)
	}
}

func TestParseHelpAndConfirm(t *testing.T) {
	if cmd, _ := Parse("/help"); cmd != CmdHelp {
		t.Fatalf("got %v, want CmdHelp", cmd)
	}
	if cmd, _ := Parse("YES 482913"); cmd != CmdConfirm {
		t.Fatalf("got %v, want CmdConfirm", cmd)
	}
	if code := ConfirmCode("YES 482913"); code != "482913" {
		t.Fatalf("code = %q, want 482913", code)
	}
}

func TestResolveVIP(t *testing.T) {
	vips := []remoteconfig.VIP{{Name: "Jeff Smith", Phone: "+15551235680"}}
	v, ok := ResolveVIP(vips, "jeff", "5680")
	if !ok || v.Name != "Jeff Smith" {
		t.Fatalf("got %+v, %v", v, ok)
	}
	if _, ok := ResolveVIP(vips, "jeff", "9999"); ok {
		t.Fatal("wrong last4 should not match")
	}
}

func TestToE164US(t *testing.T) {
	if got := ToE164US("(555) 123-5680"); got != "+15551235680" {
		t.Fatalf("got %q", got)
	}
}

func TestStoreIssueConsume(t *testing.T) {
	s := NewStore(time.Minute)
	code, err := s.Issue(Pending{DestinationE164: "+15551235680", Theme: "test"})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	p, err := s.Consume(code)
	if err != nil {
		t.Fatalf("Consume: %v", err)
	}
	if p.DestinationE164 != "+15551235680" {
		t.Fatalf("p = %+v", p)
	}
	if _, err := s.Consume(code); err != ErrCodeUnknown {
		t.Fatalf("second consume should miss, got %v", err)
	}
}

func TestStoreConsumeExpired(t *testing.T) {
	s := NewStore(10 * time.Millisecond)
	code, _ := s.Issue(Pending{DestinationE164: "+15551235680", Theme: "test"})
	time.Sleep(30 * time.Millisecond)
	if _, err := s.Consume(code); err != ErrCodeExpired {
		t.Fatalf("got %v, want ErrCodeExpired", err)
	}
}

func TestStoreCancel(t *testing.T) {
	s := NewStore(time.Minute)
	code, _ := s.Issue(Pending{DestinationE164: "+15551235680", Theme: "test"})
	if !s.Cancel(code) {
		t.Fatal("expected cancel to succeed")
	}
	if _, err := s.Consume(code); err != ErrCodeUnknown {
		t.Fatalf("cancelled code should be gone, got %v", err)
	}
}
