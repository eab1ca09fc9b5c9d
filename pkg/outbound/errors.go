package outbound

import "errors"

var (
	// ErrCodeUnknown is returned when a confirmation code is not pending:
	// never issued, already consumed or cancelled, or purged after expiry.
	ErrCodeUnknown = errors.New("outbound: unknown confirmation code")
	// ErrCodeExpired is returned when a code's TTL has elapsed.
	ErrCodeExpired = errors.New("outbound: confirmation code expired")
	// ErrEmptyTheme names a /call command without a theme. Parse does not
	// return it; such a command parses as CmdUnknown.
	ErrEmptyTheme = errors.New("outbound: theme is required")
	// ErrNoMatch names a name+last4 /call command that resolves to no VIP.
	// ResolveVIP reports a miss with its bool result instead.
	ErrNoMatch = errors.New("outbound: no matching VIP")
	// ErrNotAllowed names a chat id outside the allow-list or a bad secret.
	// No function in this package returns it.
	ErrNotAllowed = errors.New("outbound: chat not allowed")
)
