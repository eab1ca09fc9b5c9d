package instructions

import (
	"strings"
	"testing"

	"github.com/lokutor-ai/lokutor-gateway/pkg/remoteconfig"
)

func TestBuildIdentityLockMentionsAssistantName(t *testing.T) {
	doc := Build("Be helpful.", nil, CallContext{}, OutboundContext{}, "Ballad", 0)
	if !strings.Contains(doc, "Ballad") {
		t.Fatal("instruction document should mention the assistant name in the identity lock")
	}
	if strings.Index(doc, "IDENTITY_LOCK") < strings.Index(doc, "Be helpful.") {
		t.Fatal("identity lock must come after the base system prompt")
	}
}

func TestBuildVIPDirectoryRendersLast10(t *testing.T) {
	vips := []remoteconfig.VIP{{Name: "Jeff", Phone: "+15551235680", Relationship: "friend"}}
	doc := Build("prompt", vips, CallContext{}, OutboundContext{}, "Trinity", 0)
	if !strings.Contains(doc, "5551235680=Jeff") {
		t.Fatalf("expected VIP directory line, got:\n%s", doc)
	}
}

func TestBuildOutboundSuppressesPickupPhrase(t *testing.T) {
	doc := Build("prompt", nil, CallContext{}, OutboundContext{IsOutbound: true, Reason: "callback", Theme: "invoice follow-up"}, "Trinity", 0)
	if !strings.Contains(doc, "invoice follow-up") {
		t.Fatal("expected theme in outbound block")
	}
	if !strings.Contains(doc, "do not say") {
		t.Fatal("expected pickup-phrase suppression directive")
	}
}

func TestTitleCase(t *testing.T) {
	if got := TitleCase("ballad"); got != "Ballad" {
		t.Fatalf("TitleCase(ballad) = %q, want Ballad", got)
	}
}
