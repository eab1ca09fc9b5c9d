package codec

import "errors"

// ErrEmptyFrame names an empty re-framing input. Slice160 does not return
// it: given zero bytes, it returns a nil slice.
var ErrEmptyFrame = errors.New("codec: empty frame")
