package audio

import (
	"sync"
	"time"
)

// MockDevice is an in-memory Device fed with scripted frames. Useful for
// local development without a sound card and for exercising the capture and
// playback paths in tests.
type MockDevice struct {
	config DeviceConfig

	pending [][]int16 // frames returned by ReadFrame in order
	played  [][]int16 // samples received by PlaySamples in order
	closed  bool

	mu sync.Mutex
}

// NewMockDevice creates a mock device with the given configuration.
func NewMockDevice(config DeviceConfig) *MockDevice {
	return &MockDevice{config: config}
}

// QueueFrame appends one scripted capture frame.
func (m *MockDevice) QueueFrame(samples []int16) {
	m.mu.Lock()
	defer m.mu.Unlock()

	frame := make([]int16, len(samples))
	copy(frame, samples)
	m.pending = append(m.pending, frame)
}

// ReadFrame returns the next scripted frame, or an empty buffer once the
// script is exhausted (mirroring a capture timeout).
func (m *MockDevice) ReadFrame(timeout time.Duration) (*Buffer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	buf := NewBuffer(m.config.FrameSize)
	if len(m.pending) == 0 {
		return buf, nil
	}

	frame := m.pending[0]
	m.pending = m.pending[1:]
	buf.Count = copy(buf.Samples, frame)

	return buf, nil
}

// PlaySamples records the samples for later inspection. No-op without
// playback enabled, matching the hardware device contract.
func (m *MockDevice) PlaySamples(samples []int16) error {
	if !m.config.EnablePlayback {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	call := make([]int16, len(samples))
	copy(call, samples)
	m.played = append(m.played, call)

	return nil
}

// Played returns every PlaySamples call in order.
func (m *MockDevice) Played() [][]int16 {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([][]int16, len(m.played))
	copy(out, m.played)
	return out
}

// PlayedSamples returns all played samples concatenated in arrival order.
func (m *MockDevice) PlayedSamples() []int16 {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []int16
	for _, call := range m.played {
		out = append(out, call...)
	}
	return out
}

// Close marks the device closed.
func (m *MockDevice) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}
