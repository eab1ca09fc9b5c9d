package outbound

import (
	"strconv"
	"strings"

	"github.com/lokutor-ai/lokutor-gateway/pkg/remoteconfig"
)

// Command is the parsed kind of an incoming chat-bot message.
type Command int

const (
	CmdUnknown Command = iota
	CmdHelp
	CmdCall
	CmdConfirm
	CmdCancel
)

// HelpText is the reply to /help, /start, or bare "help" (§4.10).
const HelpText = "Commands:\n/call <name> <last4> | <theme>\n/call <phone> | <theme>\nYES <code>\n/cancel <code>"

// CallRequest is a parsed /call command, before VIP/phone resolution.
type CallRequest struct {
	Name  string // empty if a direct phone number was given
	Last4 string
	Phone string // empty if name+last4 was given
	Theme string
}

// Parse classifies an incoming message and, for /call, extracts its fields.
func Parse(text string) (Command, CallRequest) {
	trimmed := strings.TrimSpace(text)
	lower := strings.ToLower(trimmed)

	switch {
	case lower == "/help" || lower == "/start" || lower == "help":
		return CmdHelp, CallRequest{}
	case strings.HasPrefix(lower, "yes "):
		return CmdConfirm, CallRequest{}
	case strings.HasPrefix(lower, "/cancel "):
		return CmdCancel, CallRequest{}
	case strings.HasPrefix(lower, "/call "):
		req, ok := parseCallArgs(trimmed[len("/call "):])
		if !ok {
			return CmdUnknown, CallRequest{}
		}
		return CmdCall, req
	default:
		return CmdUnknown, CallRequest{}
	}
}

// ConfirmCode extracts the code from a "YES <code>" message.
func ConfirmCode(text string) string {
	fields := strings.Fields(strings.TrimSpace(text))
	if len(fields) < 2 {
		return ""
	}
	return fields[1]
}

// CancelCode extracts the code from a "/cancel <code>" message.
func CancelCode(text string) string {
	fields := strings.Fields(strings.TrimSpace(text))
	if len(fields) < 2 {
		return ""
	}
	return fields[1]
}

func parseCallArgs(rest string) (CallRequest, bool) {
	parts := strings.SplitN(rest, "|", 2)
	if len(parts) != 2 {
		return CallRequest{}, false
	}
	target := strings.TrimSpace(parts[0])
	theme := strings.TrimSpace(parts[1])
	if theme == "" || target == "" {
		return CallRequest{}, false
	}

	fields := strings.Fields(target)
	if len(fields) == 2 && isDigits(fields[1]) && len(fields[1]) == 4 {
		return CallRequest{Name: fields[0], Last4: fields[1], Theme: theme}, true
	}
	return CallRequest{Phone: target, Theme: theme}, true
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	_, err := strconv.Atoi(s)
	return err == nil
}

// ResolveVIP finds a VIP by case-insensitive substring match on name AND
// exact last-4 match on phone (§4.10).
func ResolveVIP(vips []remoteconfig.VIP, name, last4 string) (remoteconfig.VIP, bool) {
	nameLower := strings.ToLower(name)
	for _, v := range vips {
		if !strings.Contains(strings.ToLower(v.Name), nameLower) {
			continue
		}
		last10 := remoteconfig.NormalizeLast10(v.Phone)
		if len(last10) >= 4 && last10[len(last10)-4:] == last4 {
			return v, true
		}
	}
	return remoteconfig.VIP{}, false
}

// ToE164US normalizes a raw phone string to E.164 assuming a US country
// code default (§4.10 "for direct phone normalize to E.164 (US default)").
func ToE164US(raw string) string {
	last10 := remoteconfig.NormalizeLast10(raw)
	if last10 == "" {
		return ""
	}
	return "+1" + last10
}
