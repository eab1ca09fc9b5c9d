package session

import "testing"

func TestGreetingTextInboundVIP(t *testing.T) {
	got := GreetingText(GreetingInboundVIP, "Trinity", "Jeff", "")
	want := "Hi Jeff — This is Trinity, Dan's VIP Assistant. Dan hasn't picked up yet. How can I help?"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestGreetingTextStranger(t *testing.T) {
	got := GreetingText(GreetingInboundStranger, "Trinity", "", "")
	want := "Hi — it's Trinity. How can I help?"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestGreetingTextOutbound(t *testing.T) {
	got := GreetingText(GreetingOutbound, "Trinity", "Jeff", "invoice follow-up")
	if got == "" {
		t.Fatal("expected non-empty outbound greeting")
	}
}

func TestFirstNameNarrowsMultiWordName(t *testing.T) {
	if got := firstName("Jeff Smith"); got != "Jeff" {
		t.Fatalf("got %q, want Jeff", got)
	}
	if got := firstName("Jeff"); got != "Jeff" {
		t.Fatalf("got %q, want Jeff", got)
	}
	if got := firstName(""); got != "" {
		t.Fatalf("got %q, want empty", got)
	}
}
