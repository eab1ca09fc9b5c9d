package codec

import "testing"

func TestSlice160ExactMultiple(t *testing.T) {
	data := make([]byte, 320)
	for i := range data {
		data[i] = byte(i)
	}
	frames := Slice160(data)
	if len(frames) != 2 {
		t.Fatalf("len(frames) = %d, want 2", len(frames))
	}
	for _, f := range frames {
		if len(f) != FrameBytes {
			t.Fatalf("frame len = %d, want %d", len(f), FrameBytes)
		}
	}
}

func TestSlice160Residue(t *testing.T) {
	data := make([]byte, 250)
	frames := Slice160(data)
	if len(frames) != 2 {
		t.Fatalf("len(frames) = %d, want 2", len(frames))
	}
	if len(frames[0]) != FrameBytes {
		t.Fatalf("first frame len = %d, want %d", len(frames[0]), FrameBytes)
	}
	if len(frames[1]) != 90 {
		t.Fatalf("residue frame len = %d, want 90", len(frames[1]))
	}
}

func TestSlice160RoundTrip(t *testing.T) {
	data := make([]byte, 483)
	for i := range data {
		data[i] = byte(i % 256)
	}
	frames := Slice160(data)
	var got []byte
	for _, f := range frames {
		got = append(got, f...)
	}
	if len(got) != len(data) {
		t.Fatalf("reassembled len = %d, want %d", len(got), len(data))
	}
	for i := range data {
		if got[i] != data[i] {
			t.Fatalf("byte %d mismatch: got %d want %d", i, got[i], data[i])
		}
	}
}

func TestSlice160Empty(t *testing.T) {
	if frames := Slice160(nil); frames != nil {
		t.Fatalf("Slice160(nil) = %v, want nil", frames)
	}
}

func TestDownsample2to1(t *testing.T) {
	// 4 samples (8 bytes) -> 2 samples (4 bytes), keeping samples 0 and 2.
	in := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	out := Downsample2to1(in)
	want := []byte{1, 2, 5, 6}
	if len(out) != len(want) {
		t.Fatalf("len = %d, want %d", len(out), len(want))
	}
	for i := range want {
		if out[i] != want[i] {
			t.Fatalf("byte %d = %d, want %d", i, out[i], want[i])
		}
	}
}
