package callstate

import "errors"

var (
	// ErrCallNotFound names a lookup that misses the store. Store.Get reports
	// a miss with its bool result and does not return this error.
	ErrCallNotFound = errors.New("callstate: call not found")
	// ErrAlreadyGreeted guards the greeting-exactly-once invariant.
	ErrAlreadyGreeted = errors.New("callstate: greeting already sent")
	// ErrDNCAttempted names an action refused because DNC has latched. Nothing
	// returns it; callers check CallState.DNCAttempted and LatchDNC directly.
	ErrDNCAttempted = errors.New("callstate: dnc already attempted")
)
