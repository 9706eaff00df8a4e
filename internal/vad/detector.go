package vad

import (
	"fmt"
	"sync"
	"time"
)

// EndReason explains why the detector closed an utterance.
type EndReason int

const (
	EndNone EndReason = iota
	EndSilence
	EndMaxLength
)

// String returns a human-readable name for the end reason.
func (r EndReason) String() string {
	switch r {
	case EndSilence:
		return "silence"
	case EndMaxLength:
		return "max_length"
	default:
		return "none"
	}
}

// Config contains the endpointing parameters.
type Config struct {
	Threshold    float64       // loudness above which a frame counts as speech (0..1)
	MinSilence   time.Duration // trailing silence that closes an utterance
	MaxUtterance time.Duration // hard cap on utterance length
}

// Verdict is the detector's decision for a single frame.
type Verdict struct {
	Speech      bool      // frame loudness exceeded the threshold
	InUtterance bool      // frame belongs to the current utterance
	Ended       bool      // this frame closed the utterance
	Reason      EndReason // why the utterance ended, if it did
}

// DetectorStats is a snapshot of detector counters.
type DetectorStats struct {
	FramesProcessed  uint64  `json:"frames_processed"`
	SpeechFrames     uint64  `json:"speech_frames"`
	UtterancesClosed uint64  `json:"utterances_closed"`
	SpeechPercentage float64 `json:"speech_percentage"`
}

// Detector is a loudness gate that segments a frame stream into utterances.
// Frames before the first speech frame are ignored; once speech has started,
// silent frames still belong to the utterance until the trailing silence
// reaches MinSilence or the utterance reaches MaxUtterance.
type Detector struct {
	config Config

	speaking bool
	silence  time.Duration
	elapsed  time.Duration

	framesProcessed  uint64
	speechFrames     uint64
	utterancesClosed uint64

	mu sync.RWMutex
}

// NewDetector creates an endpointing detector.
func NewDetector(config Config) (*Detector, error) {
	if config.Threshold < 0 || config.Threshold > 1 {
		return nil, fmt.Errorf("threshold must be between 0 and 1, got %f", config.Threshold)
	}
	if config.MinSilence <= 0 {
		return nil, fmt.Errorf("min silence must be positive, got %v", config.MinSilence)
	}
	if config.MaxUtterance <= 0 {
		return nil, fmt.Errorf("max utterance must be positive, got %v", config.MaxUtterance)
	}

	return &Detector{config: config}, nil
}

// ProcessFrame consumes one frame's loudness and duration and reports how
// the frame relates to the current utterance. When a verdict has Ended set,
// the detector has already reset itself for the next utterance.
func (d *Detector) ProcessFrame(loudness float64, frameDuration time.Duration) Verdict {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.framesProcessed++

	speech := loudness > d.config.Threshold
	if speech {
		d.speechFrames++
	}

	if !d.speaking {
		if !speech {
			return Verdict{}
		}
		// Speech onset.
		d.speaking = true
		d.silence = 0
		d.elapsed = frameDuration
		return Verdict{Speech: true, InUtterance: true}
	}

	d.elapsed += frameDuration
	if speech {
		d.silence = 0
	} else {
		d.silence += frameDuration
	}

	verdict := Verdict{Speech: speech, InUtterance: true}

	switch {
	case d.silence >= d.config.MinSilence:
		verdict.Ended = true
		verdict.Reason = EndSilence
	case d.elapsed >= d.config.MaxUtterance:
		verdict.Ended = true
		verdict.Reason = EndMaxLength
	}

	if verdict.Ended {
		d.utterancesClosed++
		d.speaking = false
		d.silence = 0
		d.elapsed = 0
	}

	return verdict
}

// Speaking reports whether an utterance is currently open.
func (d *Detector) Speaking() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.speaking
}

// Reset abandons any open utterance and clears timing state. Counters are
// preserved.
func (d *Detector) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.speaking = false
	d.silence = 0
	d.elapsed = 0
}

// GetStats returns a snapshot of the detector counters.
func (d *Detector) GetStats() DetectorStats {
	d.mu.RLock()
	defer d.mu.RUnlock()

	speechPct := float64(0)
	if d.framesProcessed > 0 {
		speechPct = float64(d.speechFrames) / float64(d.framesProcessed) * 100
	}

	return DetectorStats{
		FramesProcessed:  d.framesProcessed,
		SpeechFrames:     d.speechFrames,
		UtterancesClosed: d.utterancesClosed,
		SpeechPercentage: speechPct,
	}
}
