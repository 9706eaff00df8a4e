package audio

import (
	"fmt"
	"time"
)

// DeviceConfig contains the peripheral configuration shared by the capture
// and playback paths. It is set once at device creation; there is no
// process-wide hardware state.
type DeviceConfig struct {
	SampleRate     int  // samples per second (e.g. 16000)
	FrameSize      int  // samples per capture frame (e.g. 512)
	Channels       int  // 1 = mono
	EnablePlayback bool // configure the playback path at init time
}

// Device is the audio peripheral used for capture and playback.
//
// ReadFrame blocks up to timeout for one frame of captured samples. A timeout
// is normal flow control, not an error: it yields an empty buffer (Count 0)
// and a nil error. PlaySamples blocks until the playback path has accepted
// all samples; it is a no-op when playback was not enabled at init time.
type Device interface {
	ReadFrame(timeout time.Duration) (*Buffer, error)
	PlaySamples(samples []int16) error
	Close() error
}

// Validate checks the device configuration for usable values.
func (c DeviceConfig) Validate() error {
	if c.SampleRate <= 0 {
		return fmt.Errorf("sample rate must be positive, got %d", c.SampleRate)
	}
	if c.FrameSize <= 0 {
		return fmt.Errorf("frame size must be positive, got %d", c.FrameSize)
	}
	if c.Channels != 1 {
		return fmt.Errorf("only mono capture is supported, got %d channels", c.Channels)
	}
	return nil
}

// FrameDuration returns the wall-clock duration of one full capture frame.
func (c DeviceConfig) FrameDuration() time.Duration {
	return time.Duration(c.FrameSize) * time.Second / time.Duration(c.SampleRate)
}
