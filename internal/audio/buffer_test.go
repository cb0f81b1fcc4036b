package audio

import (
	"bytes"
	"testing"
)

func TestRingBuffer_WriteRead(t *testing.T) {
	rb := NewRingBuffer(16)

	data := []byte{1, 2, 3, 4, 5}
	written := rb.Write(data)
	if written != 5 {
		t.Errorf("Expected 5 bytes written, got %d", written)
	}

	if rb.Available() != 5 {
		t.Errorf("Expected 5 bytes available, got %d", rb.Available())
	}

	out := make([]byte, 5)
	read := rb.Read(out)
	if read != 5 {
		t.Errorf("Expected 5 bytes read, got %d", read)
	}
	if !bytes.Equal(out, data) {
		t.Errorf("Expected %v, got %v", data, out)
	}

	if !rb.IsEmpty() {
		t.Error("Expected buffer to be empty after full read")
	}
}

func TestRingBuffer_Truncation(t *testing.T) {
	rb := NewRingBuffer(4)

	written := rb.Write([]byte{1, 2, 3, 4, 5, 6})
	if written != 4 {
		t.Errorf("Expected write truncated to 4 bytes, got %d", written)
	}
	if rb.Space() != 0 {
		t.Errorf("Expected 0 space, got %d", rb.Space())
	}
}

func TestRingBuffer_WrapAround(t *testing.T) {
	rb := NewRingBuffer(8)

	rb.Write([]byte{1, 2, 3, 4, 5, 6})
	out := make([]byte, 4)
	rb.Read(out)

	// Write wraps past the end of the backing array
	written := rb.Write([]byte{7, 8, 9, 10})
	if written != 4 {
		t.Fatalf("Expected 4 bytes written, got %d", written)
	}

	expected := []byte{5, 6, 7, 8, 9, 10}
	got := make([]byte, 6)
	read := rb.Read(got)
	if read != 6 {
		t.Fatalf("Expected 6 bytes read, got %d", read)
	}
	if !bytes.Equal(got, expected) {
		t.Errorf("Expected %v, got %v", expected, got)
	}
}

func TestRingBuffer_ReadEmpty(t *testing.T) {
	rb := NewRingBuffer(8)

	out := make([]byte, 4)
	if read := rb.Read(out); read != 0 {
		t.Errorf("Expected 0 bytes from empty buffer, got %d", read)
	}
}

func TestRingBuffer_Clear(t *testing.T) {
	rb := NewRingBuffer(8)
	rb.Write([]byte{1, 2, 3})

	rb.Clear()

	if !rb.IsEmpty() {
		t.Error("Expected buffer to be empty after Clear")
	}
	if rb.Space() != 8 {
		t.Errorf("Expected full space after Clear, got %d", rb.Space())
	}
}

func TestBytesToInt16RoundTrip(t *testing.T) {
	samples := []int16{0, 1, -1, 32767, -32768, 1000}

	data := Int16ToBytes(samples)
	if len(data) != len(samples)*2 {
		t.Fatalf("Expected %d bytes, got %d", len(samples)*2, len(data))
	}

	got := BytesToInt16(data)
	for i := range samples {
		if got[i] != samples[i] {
			t.Errorf("Sample %d: expected %d, got %d", i, samples[i], got[i])
		}
	}
}

func TestBytesToInt16_OddTrailingByte(t *testing.T) {
	got := BytesToInt16([]byte{0x01, 0x00, 0xFF})
	if len(got) != 1 {
		t.Fatalf("Expected 1 sample, got %d", len(got))
	}
	if got[0] != 1 {
		t.Errorf("Expected sample 1, got %d", got[0])
	}
}

func TestFramer(t *testing.T) {
	f := NewFramer(4)

	// 3 samples: no complete frame yet
	frames := f.Push(Int16ToBytes([]int16{1, 2, 3}))
	if len(frames) != 0 {
		t.Fatalf("Expected no frames, got %d", len(frames))
	}
	if f.Pending() != 3 {
		t.Errorf("Expected 3 pending samples, got %d", f.Pending())
	}

	// 6 more: two complete frames, one pending sample
	frames = f.Push(Int16ToBytes([]int16{4, 5, 6, 7, 8, 9}))
	if len(frames) != 2 {
		t.Fatalf("Expected 2 frames, got %d", len(frames))
	}

	expectFirst := []int16{1, 2, 3, 4}
	for i, s := range expectFirst {
		if frames[0][i] != s {
			t.Errorf("Frame 0 sample %d: expected %d, got %d", i, s, frames[0][i])
		}
	}
	if f.Pending() != 1 {
		t.Errorf("Expected 1 pending sample, got %d", f.Pending())
	}

	f.Reset()
	if f.Pending() != 0 {
		t.Errorf("Expected 0 pending samples after Reset, got %d", f.Pending())
	}
}
