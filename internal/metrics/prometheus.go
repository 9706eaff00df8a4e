// Package metrics defines the Prometheus instrumentation for the voice
// assistant pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains all Prometheus metrics for the voice assistant.
type Metrics struct {
	// Capture metrics
	FramesCaptured prometheus.Counter
	FramesVoiced   prometheus.Counter
	FrameLoudness  prometheus.Histogram

	// Utterance metrics
	UtterancesStarted   prometheus.Counter
	UtterancesCompleted prometheus.Counter
	UtteranceDuration   prometheus.Histogram

	// STT metrics
	ChunksPushed      prometheus.Counter
	ChunkFailures     prometheus.Counter
	FinalizeSuccesses prometheus.Counter
	FinalizeFailures  prometheus.Counter
	FinalizeDuration  prometheus.Histogram

	// TTS metrics
	TTSRequests     prometheus.Counter
	TTSFailures     prometheus.Counter
	TTSBytesPlayed  prometheus.Counter
	TTSStreamsCut   prometheus.Counter
	PlaybackSeconds prometheus.Histogram
}

// NewMetrics creates and registers all Prometheus metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		FramesCaptured: promauto.NewCounter(prometheus.CounterOpts{
			Name: "va_frames_captured_total",
			Help: "Total number of audio frames read from the capture device",
		}),
		FramesVoiced: promauto.NewCounter(prometheus.CounterOpts{
			Name: "va_frames_voiced_total",
			Help: "Total number of captured frames classified as speech",
		}),
		FrameLoudness: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "va_frame_loudness",
			Help:    "Normalized RMS loudness of captured frames",
			Buckets: prometheus.LinearBuckets(0, 0.1, 11), // 0.0 to 1.0
		}),

		UtterancesStarted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "va_utterances_started_total",
			Help: "Total number of utterance sessions opened",
		}),
		UtterancesCompleted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "va_utterances_completed_total",
			Help: "Total number of utterances that produced recognized text",
		}),
		UtteranceDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "va_utterance_duration_seconds",
			Help:    "Captured length of utterances in seconds",
			Buckets: prometheus.ExponentialBuckets(0.25, 2, 8), // 0.25s to ~30s
		}),

		ChunksPushed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "va_stt_chunks_pushed_total",
			Help: "Total number of audio chunks uploaded to the STT service",
		}),
		ChunkFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "va_stt_chunk_failures_total",
			Help: "Total number of dropped audio chunks",
		}),
		FinalizeSuccesses: promauto.NewCounter(prometheus.CounterOpts{
			Name: "va_stt_finalize_successes_total",
			Help: "Total number of finalize calls that returned text",
		}),
		FinalizeFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "va_stt_finalize_failures_total",
			Help: "Total number of failed finalize calls",
		}),
		FinalizeDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "va_stt_finalize_duration_seconds",
			Help:    "Duration of finalize round trips",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10), // 50ms to ~50s
		}),

		TTSRequests: promauto.NewCounter(prometheus.CounterOpts{
			Name: "va_tts_requests_total",
			Help: "Total number of synthesis requests",
		}),
		TTSFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "va_tts_failures_total",
			Help: "Total number of failed synthesis requests",
		}),
		TTSBytesPlayed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "va_tts_bytes_played_total",
			Help: "Total PCM bytes streamed to the playback path",
		}),
		TTSStreamsCut: promauto.NewCounter(prometheus.CounterOpts{
			Name: "va_tts_streams_cut_total",
			Help: "Total number of synthesis streams cut short mid-playback",
		}),
		PlaybackSeconds: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "va_playback_duration_seconds",
			Help:    "Wall-clock duration of response playback",
			Buckets: prometheus.ExponentialBuckets(0.25, 2, 8),
		}),
	}
}

// RecordFrame records one captured frame and its loudness.
func (m *Metrics) RecordFrame(loudness float64, voiced bool) {
	m.FramesCaptured.Inc()
	m.FrameLoudness.Observe(loudness)
	if voiced {
		m.FramesVoiced.Inc()
	}
}

// RecordUtteranceStarted increments the utterance session counter.
func (m *Metrics) RecordUtteranceStarted() {
	m.UtterancesStarted.Inc()
}

// RecordUtteranceCompleted records a successfully recognized utterance.
func (m *Metrics) RecordUtteranceCompleted(durationSeconds float64) {
	m.UtterancesCompleted.Inc()
	m.UtteranceDuration.Observe(durationSeconds)
}

// RecordChunk records a chunk upload outcome.
func (m *Metrics) RecordChunk(ok bool) {
	if ok {
		m.ChunksPushed.Inc()
	} else {
		m.ChunkFailures.Inc()
	}
}

// RecordFinalize records a finalize outcome and its duration.
func (m *Metrics) RecordFinalize(ok bool, durationSeconds float64) {
	if ok {
		m.FinalizeSuccesses.Inc()
	} else {
		m.FinalizeFailures.Inc()
	}
	m.FinalizeDuration.Observe(durationSeconds)
}

// RecordTTSRequest records a synthesis request outcome.
func (m *Metrics) RecordTTSRequest(ok bool) {
	m.TTSRequests.Inc()
	if !ok {
		m.TTSFailures.Inc()
	}
}

// RecordPlayback records streamed bytes and playback duration.
func (m *Metrics) RecordPlayback(bytes uint64, cut bool, durationSeconds float64) {
	m.TTSBytesPlayed.Add(float64(bytes))
	if cut {
		m.TTSStreamsCut.Inc()
	}
	m.PlaybackSeconds.Observe(durationSeconds)
}
