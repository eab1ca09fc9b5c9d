// Package codec implements the gateway's audio re-framing (§4.1). The
// μ-law/linear transform itself is a well-known fixed mathematical kernel
// (per SPEC_FULL §9's "no-FFI codec" note) so it is not reimplemented here;
// the only arithmetic this package owns is re-framing opaque byte streams
// into 20ms slices, plus a fallback PCM16→μ-law encode for the rare case
// the model emits raw linear audio instead of μ-law.
package codec

import (
	"bytes"

	"github.com/zaf/g711"
)

// FrameBytes is one 20ms frame at 8kHz μ-law (one byte per sample).
const FrameBytes = 160

// Slice160 splits a μ-law byte stream into FrameBytes-sized frames. The
// final, possibly short, slice is the frame's residue and is emitted as-is
// per §4.1 ("never emit a frame smaller than one slice except as the final
// residue"). Frames are never concatenated across calls to Slice160 — the
// caller re-frames one delta payload at a time.
func Slice160(mulaw []byte) [][]byte {
	if len(mulaw) == 0 {
		return nil
	}
	frames := make([][]byte, 0, (len(mulaw)+FrameBytes-1)/FrameBytes)
	for off := 0; off < len(mulaw); off += FrameBytes {
		end := off + FrameBytes
		if end > len(mulaw) {
			end = len(mulaw)
		}
		frame := make([]byte, end-off)
		copy(frame, mulaw[off:end])
		frames = append(frames, frame)
	}
	return frames
}

// Downsample2to1 halves a 16kHz PCM16 stream to 8kHz by sample decimation
// (every other 16-bit sample), which §4.1 calls acceptable for voice. pcm
// must contain an even number of 16-bit samples; a dangling odd byte is
// dropped.
func Downsample2to1(pcm16 []byte) []byte {
	out := make([]byte, 0, len(pcm16)/4*2)
	for i := 0; i+1 < len(pcm16); i += 4 {
		out = append(out, pcm16[i], pcm16[i+1])
	}
	return out
}

// PCM16ToMulaw encodes 16-bit linear PCM (already at 8kHz, post-downsample)
// into μ-law using the real G.711 codec — the fallback path of §4.1, for
// the rare case the model delivers binary PCM16 instead of μ-law.
func PCM16ToMulaw(pcm []byte) ([]byte, error) {
	var buf bytes.Buffer
	enc, err := g711.NewUlawEncoder(&buf)
	if err != nil {
		return nil, err
	}
	if _, err := enc.Write(pcm); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
