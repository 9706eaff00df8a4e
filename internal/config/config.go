package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete assistant configuration.
type Config struct {
	Audio       AudioConfig       `yaml:"audio"`
	Endpointing EndpointingConfig `yaml:"endpointing"`
	Speech      SpeechConfig      `yaml:"speech"`
	Intent      IntentConfig      `yaml:"intent"`
	HTTP        HTTPConfig        `yaml:"http"`
	Logging     LoggingConfig     `yaml:"logging"`
}

// AudioConfig contains audio peripheral parameters.
type AudioConfig struct {
	SampleRate     int    `yaml:"sample_rate"`
	FrameSize      int    `yaml:"frame_size"` // samples per capture frame
	Channels       int    `yaml:"channels"`
	BitDepth       int    `yaml:"bit_depth"`
	EnablePlayback bool   `yaml:"enable_playback"`
	FrameTimeout   int    `yaml:"frame_timeout_ms"` // capture read timeout
	DumpDir        string `yaml:"dump_dir"`         // WAV debug dumps, empty disables
}

// EndpointingConfig contains utterance endpointing parameters.
type EndpointingConfig struct {
	Threshold    float64 `yaml:"threshold"`     // loudness gate, 0..1
	MinSilence   float64 `yaml:"min_silence"`   // seconds
	MaxUtterance float64 `yaml:"max_utterance"` // seconds
}

// SpeechConfig contains the remote speech service parameters.
type SpeechConfig struct {
	Endpoint      string `yaml:"endpoint"`
	STTTimeout    int    `yaml:"stt_timeout"`        // seconds, per request
	TTSTimeout    int    `yaml:"tts_header_timeout"` // seconds, response headers only
	PlayChunkSize int    `yaml:"play_chunk_size"`    // samples per playback write
}

// IntentConfig contains intent resolution parameters.
type IntentConfig struct {
	Threshold float32 `yaml:"threshold"`
}

// HTTPConfig contains the ops HTTP server configuration.
type HTTPConfig struct {
	Enabled bool   `yaml:"enabled"`
	Address string `yaml:"address"`
	Port    int    `yaml:"port"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads and parses the configuration file, applies environment
// overrides, and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	config.applyEnvOverrides()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

// applyEnvOverrides lets deployment-specific values override the file.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("VA_SPEECH_ENDPOINT"); v != "" {
		c.Speech.Endpoint = v
	}
	if v := os.Getenv("VA_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
}

// Validate performs validation of the full configuration.
func (c *Config) Validate() error {
	if err := c.Audio.Validate(); err != nil {
		return fmt.Errorf("audio config: %w", err)
	}

	if err := c.Endpointing.Validate(); err != nil {
		return fmt.Errorf("endpointing config: %w", err)
	}

	if err := c.Speech.Validate(); err != nil {
		return fmt.Errorf("speech config: %w", err)
	}

	if err := c.Intent.Validate(); err != nil {
		return fmt.Errorf("intent config: %w", err)
	}

	if err := c.HTTP.Validate(); err != nil {
		return fmt.Errorf("http config: %w", err)
	}

	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging config: %w", err)
	}

	return nil
}

// Validate validates audio configuration.
func (a *AudioConfig) Validate() error {
	if a.SampleRate != 16000 {
		return fmt.Errorf("sample_rate must be 16000 Hz for the speech service, got %d", a.SampleRate)
	}

	if a.Channels != 1 {
		return fmt.Errorf("channels must be 1 (mono), got %d", a.Channels)
	}

	if a.BitDepth != 16 {
		return fmt.Errorf("bit_depth must be 16, got %d", a.BitDepth)
	}

	if a.FrameSize < 64 || a.FrameSize > 4096 {
		return fmt.Errorf("frame_size must be between 64 and 4096 samples, got %d", a.FrameSize)
	}

	if a.FrameTimeout < 1 {
		return fmt.Errorf("frame_timeout_ms must be at least 1, got %d", a.FrameTimeout)
	}

	return nil
}

// Validate validates endpointing configuration.
func (e *EndpointingConfig) Validate() error {
	if e.Threshold < 0 || e.Threshold > 1 {
		return fmt.Errorf("threshold must be between 0 and 1, got %f", e.Threshold)
	}

	if e.MinSilence <= 0 {
		return fmt.Errorf("min_silence must be positive, got %f", e.MinSilence)
	}

	if e.MaxUtterance <= e.MinSilence {
		return fmt.Errorf("max_utterance (%f) must be greater than min_silence (%f)",
			e.MaxUtterance, e.MinSilence)
	}

	return nil
}

// Validate validates speech service configuration.
func (s *SpeechConfig) Validate() error {
	if s.Endpoint == "" {
		return fmt.Errorf("endpoint cannot be empty")
	}

	if s.STTTimeout < 1 {
		return fmt.Errorf("stt_timeout must be at least 1 second, got %d", s.STTTimeout)
	}

	if s.TTSTimeout < 1 {
		return fmt.Errorf("tts_header_timeout must be at least 1 second, got %d", s.TTSTimeout)
	}

	if s.PlayChunkSize < 1 {
		return fmt.Errorf("play_chunk_size must be at least 1 sample, got %d", s.PlayChunkSize)
	}

	return nil
}

// Validate validates intent configuration.
func (i *IntentConfig) Validate() error {
	if i.Threshold < 0 || i.Threshold > 1 {
		return fmt.Errorf("threshold must be between 0 and 1, got %f", i.Threshold)
	}

	return nil
}

// Validate validates HTTP configuration.
func (h *HTTPConfig) Validate() error {
	if h.Enabled {
		if h.Port < 1 || h.Port > 65535 {
			return fmt.Errorf("http port must be between 1 and 65535, got %d", h.Port)
		}

		if h.Address == "" {
			return fmt.Errorf("http address cannot be empty when HTTP is enabled")
		}
	}

	return nil
}

// Validate validates logging configuration.
func (l *LoggingConfig) Validate() error {
	validLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLevels[l.Level] {
		return fmt.Errorf("level must be one of [debug, info, warn, error], got '%s'", l.Level)
	}

	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("format must be 'json' or 'text', got '%s'", l.Format)
	}

	// Output accepts stdout, stderr, or a file path; nothing to reject here.
	return nil
}

// GetFrameTimeout returns the capture read timeout as a time.Duration.
func (a *AudioConfig) GetFrameTimeout() time.Duration {
	return time.Duration(a.FrameTimeout) * time.Millisecond
}

// GetMinSilence returns the trailing silence duration as a time.Duration.
func (e *EndpointingConfig) GetMinSilence() time.Duration {
	return time.Duration(e.MinSilence * float64(time.Second))
}

// GetMaxUtterance returns the utterance length cap as a time.Duration.
func (e *EndpointingConfig) GetMaxUtterance() time.Duration {
	return time.Duration(e.MaxUtterance * float64(time.Second))
}

// GetSTTTimeout returns the STT request timeout as a time.Duration.
func (s *SpeechConfig) GetSTTTimeout() time.Duration {
	return time.Duration(s.STTTimeout) * time.Second
}

// GetTTSTimeout returns the TTS header timeout as a time.Duration.
func (s *SpeechConfig) GetTTSTimeout() time.Duration {
	return time.Duration(s.TTSTimeout) * time.Second
}
