package audio

// Framer re-chunks arbitrarily sized PCM16 writes into fixed-length sample
// frames. The Silero detector wants exact 512-sample windows at 16 kHz,
// while room media messages arrive in whatever sizes the client sent.
type Framer struct {
	frameSize int
	pending   []int16
}

// NewFramer creates a framer emitting frames of frameSize samples.
func NewFramer(frameSize int) *Framer {
	return &Framer{
		frameSize: frameSize,
		pending:   make([]int16, 0, frameSize*2),
	}
}

// Push appends PCM16 bytes and returns all complete frames now available.
// Leftover samples are retained for the next call.
func (f *Framer) Push(data []byte) [][]int16 {
	f.pending = append(f.pending, BytesToInt16(data)...)

	var frames [][]int16
	for len(f.pending) >= f.frameSize {
		frame := make([]int16, f.frameSize)
		copy(frame, f.pending[:f.frameSize])
		frames = append(frames, frame)
		f.pending = f.pending[f.frameSize:]
	}
	return frames
}

// Pending returns the number of buffered samples not yet forming a frame.
func (f *Framer) Pending() int {
	return len(f.pending)
}

// Reset discards buffered samples.
func (f *Framer) Reset() {
	f.pending = f.pending[:0]
}
