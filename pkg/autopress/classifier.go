// Package autopress implements the auto-press engine (§4.9): it classifies
// caller utterances for "press N to be removed" intent and, above
// confidence threshold and outside the rate-limit window, redirects the
// call's TwiML to play the digit and hang up.
package autopress

import (
	"regexp"
	"strings"
)

var digitWords = map[string]byte{
	"zero": '0', "oh": '0', "o": '0',
	"one": '1', "two": '2', "three": '3', "four": '4',
	"five": '5', "six": '6', "seven": '7', "eight": '8', "nine": '9',
}

var pressRe = regexp.MustCompile(`(?i)\b(?:press|dial|hit|enter|push|tap)\s+(\d|zero|oh|o|one|two|three|four|five|six|seven|eight|nine)\b`)

var removalKeywords = []string{
	"removed", "remove", "opt out", "opt-out", "unsubscribe", "do not call", "don't call",
}

var strongRemovalRe = regexp.MustCompile(`(?i)(?:to\s+be\s+removed|opt.?out|unsubscribe|do\s+not\s+call)`)

// Classification is the outcome of classifying one caller utterance.
type Classification struct {
	Digit      byte
	Confidence float64
	Found      bool
}

// Classify implements §4.9 steps 1-2: extract a single target digit, then
// compute a confidence score from co-occurring removal language and the
// caller-name (CNAM) spam signal.
func Classify(text, callerName string) Classification {
	m := pressRe.FindStringSubmatch(text)
	if m == nil {
		return Classification{}
	}
	digit := toDigit(m[1])
	if digit == 0 {
		return Classification{}
	}

	confidence := 0.25 // base: only the press-digit was found
	switch {
	case strongRemovalRe.MatchString(text):
		confidence = 0.97
	case containsAny(strings.ToLower(text), removalKeywords):
		confidence = 0.94
	case isSpamCNAM(callerName):
		confidence = 0.90
	}

	return Classification{Digit: digit, Confidence: confidence, Found: true}
}

// isSpamCNAM reports whether the telephony caller-name field matches the
// weak spam/scam signal §4.9 step 2 and step 4 both use.
func isSpamCNAM(callerName string) bool {
	lower := strings.ToLower(callerName)
	return strings.Contains(lower, "spam") || strings.Contains(lower, "scam")
}

func containsAny(s string, substrs []string) bool {
	for _, sub := range substrs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func toDigit(tok string) byte {
	if len(tok) == 1 && tok[0] >= '0' && tok[0] <= '9' {
		return tok[0]
	}
	if d, ok := digitWords[strings.ToLower(tok)]; ok {
		return d
	}
	return 0
}
