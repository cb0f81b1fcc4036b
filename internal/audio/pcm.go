package audio

import (
	"encoding/binary"
)

// SampleRate is the PCM sample rate used across the pipeline. Room audio,
// the STT stream and the Silero VAD model all operate at 16 kHz mono.
const SampleRate = 16000

// BytesToInt16 converts little-endian PCM16 bytes to samples.
// A trailing odd byte is dropped.
func BytesToInt16(data []byte) []int16 {
	n := len(data) / 2
	samples := make([]int16, n)
	for i := 0; i < n; i++ {
		samples[i] = int16(binary.LittleEndian.Uint16(data[i*2:]))
	}
	return samples
}

// Int16ToBytes converts samples to little-endian PCM16 bytes.
func Int16ToBytes(samples []int16) []byte {
	data := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(data[i*2:], uint16(s))
	}
	return data
}
