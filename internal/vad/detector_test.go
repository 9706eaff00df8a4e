package vad

import (
	"testing"
	"time"
)

const frame = 32 * time.Millisecond // 512 samples at 16 kHz

func newTestDetector(t *testing.T) *Detector {
	t.Helper()

	d, err := NewDetector(Config{
		Threshold:    0.05,
		MinSilence:   100 * time.Millisecond,
		MaxUtterance: 2 * time.Second,
	})
	if err != nil {
		t.Fatalf("NewDetector failed: %v", err)
	}
	return d
}

func TestNewDetectorValidation(t *testing.T) {
	tests := []struct {
		name   string
		config Config
	}{
		{"negative threshold", Config{Threshold: -0.1, MinSilence: time.Second, MaxUtterance: time.Second}},
		{"threshold above one", Config{Threshold: 1.5, MinSilence: time.Second, MaxUtterance: time.Second}},
		{"zero min silence", Config{Threshold: 0.5, MinSilence: 0, MaxUtterance: time.Second}},
		{"zero max utterance", Config{Threshold: 0.5, MinSilence: time.Second, MaxUtterance: 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewDetector(tt.config); err == nil {
				t.Error("Expected validation error")
			}
		})
	}
}

func TestLeadingSilenceIgnored(t *testing.T) {
	d := newTestDetector(t)

	for i := 0; i < 10; i++ {
		v := d.ProcessFrame(0.0, frame)
		if v.InUtterance {
			t.Fatal("Expected leading silence to stay outside the utterance")
		}
		if v.Ended {
			t.Fatal("Expected no utterance end during leading silence")
		}
	}

	if d.Speaking() {
		t.Error("Expected detector to stay idle on silence")
	}
}

func TestSpeechOnset(t *testing.T) {
	d := newTestDetector(t)

	v := d.ProcessFrame(0.3, frame)
	if !v.Speech || !v.InUtterance {
		t.Errorf("Expected speech onset verdict, got %+v", v)
	}

	if !d.Speaking() {
		t.Error("Expected detector to be speaking after onset")
	}
}

func TestTrailingSilenceClosesUtterance(t *testing.T) {
	d := newTestDetector(t)

	d.ProcessFrame(0.3, frame)
	d.ProcessFrame(0.3, frame)

	// MinSilence is 100ms, frames are 32ms: the 4th silent frame crosses it.
	var ended bool
	for i := 0; i < 4; i++ {
		v := d.ProcessFrame(0.0, frame)
		if !v.InUtterance {
			t.Fatal("Expected trailing silence frames to belong to the utterance")
		}
		if v.Ended {
			if v.Reason != EndSilence {
				t.Errorf("Expected silence end reason, got %v", v.Reason)
			}
			ended = true
			break
		}
	}

	if !ended {
		t.Fatal("Expected trailing silence to close the utterance")
	}

	if d.Speaking() {
		t.Error("Expected detector reset after utterance end")
	}
}

func TestSpeechResetsSilenceCounter(t *testing.T) {
	d := newTestDetector(t)

	d.ProcessFrame(0.3, frame)
	d.ProcessFrame(0.0, frame)
	d.ProcessFrame(0.0, frame)
	d.ProcessFrame(0.3, frame) // speech again, silence resets

	v := d.ProcessFrame(0.0, frame)
	if v.Ended {
		t.Error("Expected silence counter to reset after renewed speech")
	}
}

func TestMaxUtteranceClosesUtterance(t *testing.T) {
	d, err := NewDetector(Config{
		Threshold:    0.05,
		MinSilence:   10 * time.Second, // never reached
		MaxUtterance: 200 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("NewDetector failed: %v", err)
	}

	var ended bool
	for i := 0; i < 10; i++ {
		v := d.ProcessFrame(0.5, frame)
		if v.Ended {
			if v.Reason != EndMaxLength {
				t.Errorf("Expected max_length end reason, got %v", v.Reason)
			}
			ended = true
			break
		}
	}

	if !ended {
		t.Fatal("Expected max utterance length to close the utterance")
	}
}

func TestDetectorStats(t *testing.T) {
	d := newTestDetector(t)

	d.ProcessFrame(0.0, frame)
	d.ProcessFrame(0.5, frame)
	d.ProcessFrame(0.5, frame)
	d.ProcessFrame(0.0, frame)

	stats := d.GetStats()
	if stats.FramesProcessed != 4 {
		t.Errorf("Expected 4 frames processed, got %d", stats.FramesProcessed)
	}
	if stats.SpeechFrames != 2 {
		t.Errorf("Expected 2 speech frames, got %d", stats.SpeechFrames)
	}
	if stats.SpeechPercentage != 50 {
		t.Errorf("Expected 50%% speech, got %f", stats.SpeechPercentage)
	}
}

func TestDetectorReset(t *testing.T) {
	d := newTestDetector(t)

	d.ProcessFrame(0.5, frame)
	if !d.Speaking() {
		t.Fatal("Expected speaking state before reset")
	}

	d.Reset()
	if d.Speaking() {
		t.Error("Expected idle state after reset")
	}
}
