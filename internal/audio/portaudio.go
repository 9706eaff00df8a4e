//go:build cgo

package audio

import (
	"fmt"
	"sync"
	"time"

	"github.com/gordonklaus/portaudio"
)

// PortAudioDevice implements Device on top of the default portaudio host
// streams. The capture path is configured unconditionally; the playback path
// only when the config enables it. A constructor failure leaves no stream
// open: callers must not use a device whose construction returned an error.
type PortAudioDevice struct {
	config DeviceConfig

	in      *portaudio.Stream
	out     *portaudio.Stream
	inBuf   []int16
	outBuf  []int16
	frames  chan []int16
	failed  chan struct{}
	readErr error

	closeOnce sync.Once
	done      chan struct{}
	pumpWG    sync.WaitGroup

	mu sync.Mutex
}

// NewPortAudioDevice initializes portaudio and opens the configured streams.
// Either configuration step failing tears down everything already opened and
// returns the error; no partial-success state is retained.
func NewPortAudioDevice(config DeviceConfig) (*PortAudioDevice, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("device config: %w", err)
	}

	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize portaudio: %w", err)
	}

	d := &PortAudioDevice{
		config: config,
		inBuf:  make([]int16, config.FrameSize),
		frames: make(chan []int16, 4),
		failed: make(chan struct{}),
		done:   make(chan struct{}),
	}

	in, err := portaudio.OpenDefaultStream(
		config.Channels, 0,
		float64(config.SampleRate),
		config.FrameSize,
		d.inBuf,
	)
	if err != nil {
		portaudio.Terminate()
		return nil, fmt.Errorf("failed to open capture stream: %w", err)
	}
	d.in = in

	if err := d.in.Start(); err != nil {
		d.in.Close()
		portaudio.Terminate()
		return nil, fmt.Errorf("failed to start capture stream: %w", err)
	}

	if config.EnablePlayback {
		d.outBuf = make([]int16, config.FrameSize)
		out, err := portaudio.OpenDefaultStream(
			0, config.Channels,
			float64(config.SampleRate),
			config.FrameSize,
			d.outBuf,
		)
		if err != nil {
			d.in.Stop()
			d.in.Close()
			portaudio.Terminate()
			return nil, fmt.Errorf("failed to open playback stream: %w", err)
		}
		d.out = out

		if err := d.out.Start(); err != nil {
			d.out.Close()
			d.in.Stop()
			d.in.Close()
			portaudio.Terminate()
			return nil, fmt.Errorf("failed to start playback stream: %w", err)
		}
	}

	// Pump captured frames into a channel so ReadFrame can honor its
	// timeout; portaudio's blocking read has none of its own.
	d.pumpWG.Add(1)
	go d.pump()

	return d, nil
}

// pump reads frames from the capture stream until the device is closed.
func (d *PortAudioDevice) pump() {
	defer d.pumpWG.Done()

	for {
		select {
		case <-d.done:
			return
		default:
		}

		if err := d.in.Read(); err != nil {
			d.mu.Lock()
			d.readErr = err
			d.mu.Unlock()
			close(d.failed)
			return
		}

		frame := make([]int16, len(d.inBuf))
		copy(frame, d.inBuf)

		select {
		case d.frames <- frame:
		case <-d.done:
			return
		}
	}
}

// ReadFrame blocks up to timeout for one captured frame. An expired timeout
// returns an empty buffer and a nil error.
func (d *PortAudioDevice) ReadFrame(timeout time.Duration) (*Buffer, error) {
	buf := NewBuffer(d.config.FrameSize)

	select {
	case frame := <-d.frames:
		n := copy(buf.Samples, frame)
		buf.Count = n
		return buf, nil
	case <-time.After(timeout):
		return buf, nil
	case <-d.failed:
		d.mu.Lock()
		err := d.readErr
		d.mu.Unlock()
		return buf, fmt.Errorf("capture stream failed: %w", err)
	case <-d.done:
		return buf, fmt.Errorf("device closed")
	}
}

// PlaySamples writes the samples to the playback stream in frame-sized
// slices, blocking until the backend has accepted them. It is a no-op when
// playback was not enabled at construction time.
func (d *PortAudioDevice) PlaySamples(samples []int16) error {
	if d.out == nil {
		return nil
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	for len(samples) > 0 {
		n := copy(d.outBuf, samples)
		samples = samples[n:]

		// Zero-pad a short final frame so stale samples are not replayed.
		for i := n; i < len(d.outBuf); i++ {
			d.outBuf[i] = 0
		}

		if err := d.out.Write(); err != nil {
			return fmt.Errorf("failed to write playback frame: %w", err)
		}
	}

	return nil
}

// Close stops the streams and terminates the portaudio host. Safe to call
// more than once.
func (d *PortAudioDevice) Close() error {
	var err error

	d.closeOnce.Do(func() {
		close(d.done)

		if stopErr := d.in.Stop(); stopErr != nil && err == nil {
			err = stopErr
		}
		d.in.Close()

		if d.out != nil {
			if stopErr := d.out.Stop(); stopErr != nil && err == nil {
				err = stopErr
			}
			d.out.Close()
		}

		portaudio.Terminate()
	})

	return err
}
