// Package outbound implements the outbound command FSM (§4.10): a chat-bot
// webhook that parses /call, issues a two-step confirmation code, and on
// "YES <code>" places the call through the telephony REST endpoint.
package outbound

import (
	"crypto/rand"
	"fmt"
	"sync"
	"time"
)

// Pending is one issued-but-not-yet-confirmed outbound call (§3).
type Pending struct {
	DestinationE164 string
	Display         string
	Theme           string
	RecipientName   string
	CreatedAt       time.Time
	RequesterID     string
}

// Store is the TTL-keyed map of confirmation code -> Pending. Grounded on
// SPEC_FULL §9's "typed stores behind a lock" design note.
type Store struct {
	mu      sync.Mutex
	ttl     time.Duration
	pending map[string]Pending
}

// NewStore builds a Store with the given code TTL (§6 OUTBOUND_CODE_TTL_MS).
func NewStore(ttl time.Duration) *Store {
	return &Store{ttl: ttl, pending: make(map[string]Pending)}
}

// Issue generates a fresh 6-digit code for p and stores it.
func (s *Store) Issue(p Pending) (string, error) {
	code, err := generateCode()
	if err != nil {
		return "", err
	}
	p.CreatedAt = time.Now()

	s.mu.Lock()
	s.pending[code] = p
	s.mu.Unlock()
	return code, nil
}

// Consume pops the pending entry for code if it exists and is within TTL.
// Expired entries are purged lazily on this call, per §5's "Outbound
// confirmation codes expire by timestamp, purged lazily on webhook entry."
func (s *Store) Consume(code string) (Pending, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.pending[code]
	for c, other := range s.pending {
		if time.Since(other.CreatedAt) > s.ttl {
			delete(s.pending, c)
		}
	}
	if !ok {
		return Pending{}, ErrCodeUnknown
	}
	delete(s.pending, code)
	if time.Since(p.CreatedAt) > s.ttl {
		return Pending{}, ErrCodeExpired
	}
	return p, nil
}

// Cancel removes a pending entry without placing the call (/cancel <code>).
// Reports whether an entry existed.
func (s *Store) Cancel(code string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.pending[code]; !ok {
		return false
	}
	delete(s.pending, code)
	return true
}

func generateCode() (string, error) {
	var buf [4]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return "", err
	}
	n := uint32(buf[0])<<24 | uint32(buf[1])<<16 | uint32(buf[2])<<8 | uint32(buf[3])
	return fmt.Sprintf("%06d", n%1000000), nil
}
