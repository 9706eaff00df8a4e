package audio

import (
	"fmt"
	"math"
)

// maxAmplitude is the largest representable magnitude of a signed 16-bit
// PCM sample, used to normalize loudness to the [0, 1] range.
const maxAmplitude = 32768.0

// Buffer represents one fixed-capacity frame of signed 16-bit PCM samples.
// Samples is allocated once at the frame capacity and reused across read
// cycles; Count marks how many leading samples are valid.
type Buffer struct {
	Samples []int16
	Count   int
}

// NewBuffer creates an empty buffer with the given frame capacity.
func NewBuffer(capacity int) *Buffer {
	return &Buffer{
		Samples: make([]int16, capacity),
	}
}

// Capacity returns the maximum number of samples the buffer can hold.
func (b *Buffer) Capacity() int {
	return len(b.Samples)
}

// Empty reports whether the buffer holds no valid samples.
func (b *Buffer) Empty() bool {
	return b.Count == 0
}

// Reset discards the valid samples without releasing storage.
func (b *Buffer) Reset() {
	b.Count = 0
}

// Bytes returns the valid samples encoded as little-endian PCM16 bytes.
// This is the representation sent over the wire as one audio chunk.
func (b *Buffer) Bytes() []byte {
	out := make([]byte, b.Count*2)
	for i := 0; i < b.Count; i++ {
		s := uint16(b.Samples[i])
		out[i*2] = byte(s)
		out[i*2+1] = byte(s >> 8)
	}
	return out
}

// SetBytes fills the buffer from little-endian PCM16 bytes, replacing any
// previous contents. The data must be an even number of bytes and fit the
// buffer capacity.
func (b *Buffer) SetBytes(data []byte) error {
	if len(data)%2 != 0 {
		return fmt.Errorf("audio data length must be even (got %d bytes)", len(data))
	}

	samples := len(data) / 2
	if samples > len(b.Samples) {
		return fmt.Errorf("audio data exceeds buffer capacity: %d samples, capacity %d", samples, len(b.Samples))
	}

	for i := 0; i < samples; i++ {
		b.Samples[i] = int16(data[i*2]) | int16(data[i*2+1])<<8
	}
	b.Count = samples

	return nil
}

// Loudness returns the root-mean-square amplitude of the valid samples
// normalized by the maximum representable amplitude, in [0, 1].
// An empty buffer has loudness 0.
func (b *Buffer) Loudness() float64 {
	if b.Count == 0 {
		return 0
	}

	var acc float64
	for i := 0; i < b.Count; i++ {
		s := float64(b.Samples[i])
		acc += s * s
	}

	return math.Sqrt(acc/float64(b.Count)) / maxAmplitude
}

// SamplesToBytes encodes a raw sample slice as little-endian PCM16 bytes.
func SamplesToBytes(samples []int16) []byte {
	out := make([]byte, len(samples)*2)
	for i, v := range samples {
		s := uint16(v)
		out[i*2] = byte(s)
		out[i*2+1] = byte(s >> 8)
	}
	return out
}

// BytesToSamples decodes little-endian PCM16 bytes into samples.
// The data must be an even number of bytes.
func BytesToSamples(data []byte) ([]int16, error) {
	if len(data)%2 != 0 {
		return nil, fmt.Errorf("audio data length must be even (got %d bytes)", len(data))
	}

	samples := make([]int16, len(data)/2)
	for i := range samples {
		samples[i] = int16(data[i*2]) | int16(data[i*2+1])<<8
	}

	return samples, nil
}
