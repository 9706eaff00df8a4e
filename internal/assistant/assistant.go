package assistant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/edgevoice/voice-assistant/internal/audio"
	"github.com/edgevoice/voice-assistant/internal/intent"
	"github.com/edgevoice/voice-assistant/internal/metrics"
	"github.com/edgevoice/voice-assistant/internal/stt"
	"github.com/edgevoice/voice-assistant/internal/tts"
	"github.com/edgevoice/voice-assistant/internal/vad"
)

// ErrNoSpeech is returned when the listen window elapses without any speech.
var ErrNoSpeech = errors.New("assistant: no speech detected")

// Config contains orchestration parameters.
type Config struct {
	FrameTimeout time.Duration // capture read timeout per frame
	ListenWindow time.Duration // max wait for speech onset
	SampleRate   int
	DumpDir      string // WAV debug dumps of captured utterances, empty disables
}

// UtteranceResult describes one completed voice-query round trip.
type UtteranceResult struct {
	ID             string                `json:"id"`
	Text           string                `json:"text"`
	Classification intent.Classification `json:"classification"`
	Response       string                `json:"response"`
	Duration       time.Duration         `json:"duration"`
	ChunksPushed   int                   `json:"chunks_pushed"`
	ChunksDropped  int                   `json:"chunks_dropped"`
}

// Stats is a snapshot of assistant counters.
type Stats struct {
	Utterances   uint64 `json:"utterances"`
	NoSpeech     uint64 `json:"no_speech"`
	Failures     uint64 `json:"failures"`
	LastText     string `json:"last_text,omitempty"`
	LastCategory string `json:"last_category,omitempty"`
}

// Assistant drives the capture → STT → intent → TTS pipeline.
type Assistant struct {
	device    audio.Device
	sttClient *stt.Client
	ttsClient *tts.Client
	detector  *vad.Detector
	resolver  *intent.Resolver
	logger    *slog.Logger
	metrics   *metrics.Metrics
	config    Config

	utterances   uint64
	noSpeech     uint64
	failures     uint64
	lastText     string
	lastCategory string

	mu sync.Mutex
}

// New creates an assistant. The metrics argument may be nil, in which case
// only internal stats are kept.
func New(device audio.Device, sttClient *stt.Client, ttsClient *tts.Client,
	detector *vad.Detector, resolver *intent.Resolver,
	logger *slog.Logger, m *metrics.Metrics, config Config) (*Assistant, error) {

	if config.SampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be positive, got %d", config.SampleRate)
	}
	if config.FrameTimeout <= 0 {
		config.FrameTimeout = 20 * time.Millisecond
	}
	if config.ListenWindow <= 0 {
		config.ListenWindow = 5 * time.Second
	}

	return &Assistant{
		device:    device,
		sttClient: sttClient,
		ttsClient: ttsClient,
		detector:  detector,
		resolver:  resolver,
		logger:    logger,
		metrics:   m,
		config:    config,
	}, nil
}

// HandleUtterance captures one utterance, recognizes it, and speaks the
// response. It returns ErrNoSpeech when the listen window elapses before
// anyone talks; the caller decides whether to listen again.
func (a *Assistant) HandleUtterance(ctx context.Context) (*UtteranceResult, error) {
	id := uuid.NewString()
	start := time.Now()

	a.detector.Reset()

	if err := a.sttClient.BeginStream(); err != nil {
		return nil, fmt.Errorf("failed to open utterance session: %w", err)
	}
	if a.metrics != nil {
		a.metrics.RecordUtteranceStarted()
	}

	a.logger.Debug("Listening", slog.String("utterance_id", id))

	result := &UtteranceResult{ID: id}
	var captured []int16
	var speechLen time.Duration

	for {
		select {
		case <-ctx.Done():
			a.abortSession(ctx)
			return nil, ctx.Err()
		default:
		}

		buf, err := a.device.ReadFrame(a.config.FrameTimeout)
		if err != nil {
			a.abortSession(ctx)
			a.recordFailure()
			return nil, fmt.Errorf("capture failed: %w", err)
		}

		if buf.Empty() {
			// Read timeout: nothing captured yet.
			if !a.detector.Speaking() && time.Since(start) > a.config.ListenWindow {
				a.abortSession(ctx)
				a.recordNoSpeech()
				return nil, ErrNoSpeech
			}
			continue
		}

		frameDuration := time.Duration(buf.Count) * time.Second / time.Duration(a.config.SampleRate)
		loudness := buf.Loudness()

		verdict := a.detector.ProcessFrame(loudness, frameDuration)
		if a.metrics != nil {
			a.metrics.RecordFrame(loudness, verdict.Speech)
		}

		if !verdict.InUtterance {
			if time.Since(start) > a.config.ListenWindow {
				a.abortSession(ctx)
				a.recordNoSpeech()
				return nil, ErrNoSpeech
			}
			continue
		}

		speechLen += frameDuration
		captured = append(captured, buf.Samples[:buf.Count]...)

		// Drop-and-continue on chunk failure: the audio is lost, the
		// session stays open.
		if err := a.sttClient.PushAudio(ctx, buf); err != nil {
			result.ChunksDropped++
			if a.metrics != nil {
				a.metrics.RecordChunk(false)
			}
			a.logger.Warn("Audio chunk dropped",
				slog.String("utterance_id", id),
				slog.String("error", err.Error()),
			)
		} else {
			result.ChunksPushed++
			if a.metrics != nil {
				a.metrics.RecordChunk(true)
			}
		}

		if verdict.Ended {
			a.logger.Debug("Utterance ended",
				slog.String("utterance_id", id),
				slog.String("reason", verdict.Reason.String()),
				slog.Duration("speech_length", speechLen),
			)
			break
		}
	}

	a.dumpCapture(id, captured)

	finalizeStart := time.Now()
	text, err := a.sttClient.EndStream(ctx)
	if a.metrics != nil {
		a.metrics.RecordFinalize(err == nil, time.Since(finalizeStart).Seconds())
	}
	if err != nil {
		a.recordFailure()
		return nil, fmt.Errorf("recognition failed: %w", err)
	}

	result.Text = text
	result.Classification, result.Response = a.resolver.Resolve(text)
	result.Duration = time.Since(start)

	a.logger.Info("Utterance recognized",
		slog.String("utterance_id", id),
		slog.String("text", text),
		slog.String("category", result.Classification.Category),
		slog.Float64("confidence", float64(result.Classification.Confidence)),
		slog.Int("chunks_pushed", result.ChunksPushed),
		slog.Int("chunks_dropped", result.ChunksDropped),
	)

	a.recordUtterance(text, result.Classification.Category)
	if a.metrics != nil {
		a.metrics.RecordUtteranceCompleted(speechLen.Seconds())
	}

	playbackStart := time.Now()
	ttsBefore := a.ttsClient.GetStats()
	ttsErr := a.ttsClient.RequestAndPlay(ctx, result.Response, a.device)
	if a.metrics != nil {
		a.metrics.RecordTTSRequest(ttsErr == nil)
		if ttsErr == nil {
			ttsAfter := a.ttsClient.GetStats()
			a.metrics.RecordPlayback(ttsAfter.BytesStreamed-ttsBefore.BytesStreamed,
				ttsAfter.StreamsCut > ttsBefore.StreamsCut,
				time.Since(playbackStart).Seconds())
		}
	}
	if ttsErr != nil {
		a.logger.Error("Response playback failed",
			slog.String("utterance_id", id),
			slog.String("error", ttsErr.Error()),
		)
		return result, fmt.Errorf("synthesis failed: %w", ttsErr)
	}

	a.logger.Debug("Response played",
		slog.String("utterance_id", id),
		slog.Duration("playback_time", time.Since(playbackStart)),
	)

	return result, nil
}

// abortSession closes an open STT session when the utterance cannot
// complete. The finalize outcome is irrelevant here.
func (a *Assistant) abortSession(ctx context.Context) {
	if _, err := a.sttClient.EndStream(ctx); err != nil && !errors.Is(err, stt.ErrNoSession) {
		a.logger.Debug("Session close after abort", slog.String("error", err.Error()))
	}
}

// dumpCapture writes the captured utterance as a WAV file when dumping is
// configured. Failures are logged, never fatal.
func (a *Assistant) dumpCapture(id string, samples []int16) {
	if a.config.DumpDir == "" || len(samples) == 0 {
		return
	}

	data, err := audio.EncodeWAV(samples, a.config.SampleRate)
	if err != nil {
		a.logger.Warn("Failed to encode utterance dump", slog.String("error", err.Error()))
		return
	}

	path := filepath.Join(a.config.DumpDir, id+".wav")
	if err := os.WriteFile(path, data, 0644); err != nil {
		a.logger.Warn("Failed to write utterance dump",
			slog.String("path", path),
			slog.String("error", err.Error()),
		)
	}
}

func (a *Assistant) recordUtterance(text, category string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.utterances++
	a.lastText = text
	a.lastCategory = category
}

func (a *Assistant) recordNoSpeech() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.noSpeech++
}

func (a *Assistant) recordFailure() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.failures++
}

// GetStats returns a snapshot of assistant counters.
func (a *Assistant) GetStats() Stats {
	a.mu.Lock()
	defer a.mu.Unlock()

	return Stats{
		Utterances:   a.utterances,
		NoSpeech:     a.noSpeech,
		Failures:     a.failures,
		LastText:     a.lastText,
		LastCategory: a.lastCategory,
	}
}
