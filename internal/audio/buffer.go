package audio

import (
	"sync"
)

// RingBuffer is a thread-safe byte ring buffer used to pace TTS audio
// playback into the room. Writes past capacity are truncated rather than
// blocking the producer.
type RingBuffer struct {
	mu     sync.Mutex
	buffer []byte
	size   int
	read   int
	write  int
	count  int
}

// NewRingBuffer creates a ring buffer holding up to size bytes.
func NewRingBuffer(size int) *RingBuffer {
	return &RingBuffer{
		buffer: make([]byte, size),
		size:   size,
	}
}

// Write copies data into the buffer and returns the number of bytes
// actually stored (less than len(data) when the buffer fills up).
func (rb *RingBuffer) Write(data []byte) int {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	free := rb.size - rb.count
	n := len(data)
	if n > free {
		n = free
	}

	for i := 0; i < n; i++ {
		rb.buffer[rb.write] = data[i]
		rb.write = (rb.write + 1) % rb.size
	}
	rb.count += n
	return n
}

// Read copies up to len(data) buffered bytes into data and returns the
// number of bytes read.
func (rb *RingBuffer) Read(data []byte) int {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	n := len(data)
	if n > rb.count {
		n = rb.count
	}

	for i := 0; i < n; i++ {
		data[i] = rb.buffer[rb.read]
		rb.read = (rb.read + 1) % rb.size
	}
	rb.count -= n
	return n
}

// Available returns the number of bytes buffered for reading.
func (rb *RingBuffer) Available() int {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	return rb.count
}

// Space returns the number of bytes that can be written without truncation.
func (rb *RingBuffer) Space() int {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	return rb.size - rb.count
}

// Clear discards all buffered bytes. Used when user speech interrupts
// TTS playback mid-utterance.
func (rb *RingBuffer) Clear() {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	rb.read = 0
	rb.write = 0
	rb.count = 0
}

// IsEmpty returns true if no bytes are buffered.
func (rb *RingBuffer) IsEmpty() bool {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	return rb.count == 0
}
