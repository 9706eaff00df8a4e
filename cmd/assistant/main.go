package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/edgevoice/voice-assistant/internal/assistant"
	"github.com/edgevoice/voice-assistant/internal/audio"
	"github.com/edgevoice/voice-assistant/internal/config"
	"github.com/edgevoice/voice-assistant/internal/intent"
	"github.com/edgevoice/voice-assistant/internal/metrics"
	"github.com/edgevoice/voice-assistant/internal/server"
	"github.com/edgevoice/voice-assistant/internal/stt"
	"github.com/edgevoice/voice-assistant/internal/tts"
	"github.com/edgevoice/voice-assistant/internal/vad"
)

const (
	defaultConfigPath = "configs/config.yaml"
	serviceName       = "voice-assistant"
	serviceVersion    = "1.0.0"
)

func main() {
	configPath := flag.String("config", defaultConfigPath, "Path to configuration file")
	flag.Parse()

	// Optional .env for deployment-specific overrides.
	godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger := initLogger(cfg.Logging)

	logger.Info("Service starting",
		slog.String("service", serviceName),
		slog.String("version", serviceVersion),
		slog.String("config_path", *configPath),
	)

	logger.Info("Configuration loaded",
		slog.Int("sample_rate", cfg.Audio.SampleRate),
		slog.Int("frame_size", cfg.Audio.FrameSize),
		slog.Bool("playback", cfg.Audio.EnablePlayback),
		slog.Float64("endpointing_threshold", cfg.Endpointing.Threshold),
		slog.Float64("min_silence", cfg.Endpointing.MinSilence),
		slog.String("speech_endpoint", cfg.Speech.Endpoint),
		slog.String("log_level", cfg.Logging.Level),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	appMetrics := metrics.NewMetrics()
	logger.Info("Prometheus metrics initialized")

	device, err := audio.NewPortAudioDevice(audio.DeviceConfig{
		SampleRate:     cfg.Audio.SampleRate,
		FrameSize:      cfg.Audio.FrameSize,
		Channels:       cfg.Audio.Channels,
		EnablePlayback: cfg.Audio.EnablePlayback,
	})
	if err != nil {
		logger.Error("Failed to initialize audio device", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer device.Close()
	logger.Info("Audio device initialized")

	sttClient, err := stt.NewClient(stt.Config{
		Endpoint: cfg.Speech.Endpoint,
		Timeout:  cfg.Speech.GetSTTTimeout(),
	})
	if err != nil {
		logger.Error("Failed to create STT client", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ttsClient, err := tts.NewClient(tts.Config{
		Endpoint:      cfg.Speech.Endpoint,
		HeaderTimeout: cfg.Speech.GetTTSTimeout(),
		PlayChunkSize: cfg.Speech.PlayChunkSize,
	})
	if err != nil {
		logger.Error("Failed to create TTS client", slog.String("error", err.Error()))
		os.Exit(1)
	}

	detector, err := vad.NewDetector(vad.Config{
		Threshold:    cfg.Endpointing.Threshold,
		MinSilence:   cfg.Endpointing.GetMinSilence(),
		MaxUtterance: cfg.Endpointing.GetMaxUtterance(),
	})
	if err != nil {
		logger.Error("Failed to create endpointing detector", slog.String("error", err.Error()))
		os.Exit(1)
	}

	resolver, err := intent.NewResolver(cfg.Intent.Threshold)
	if err != nil {
		logger.Error("Failed to create intent resolver", slog.String("error", err.Error()))
		os.Exit(1)
	}

	asst, err := assistant.New(device, sttClient, ttsClient, detector, resolver, logger, appMetrics, assistant.Config{
		FrameTimeout: cfg.Audio.GetFrameTimeout(),
		SampleRate:   cfg.Audio.SampleRate,
		DumpDir:      cfg.Audio.DumpDir,
	})
	if err != nil {
		logger.Error("Failed to create assistant", slog.String("error", err.Error()))
		os.Exit(1)
	}

	var httpServer *server.HTTPServer
	if cfg.HTTP.Enabled {
		httpServer = server.NewHTTPServer(server.HTTPServerConfig{
			Address: cfg.HTTP.Address,
			Port:    cfg.HTTP.Port,
		}, logger, asst, sttClient, ttsClient)

		if err := httpServer.Start(); err != nil {
			logger.Error("Failed to start ops HTTP server", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	// Run the utterance loop until a shutdown signal arrives.
	go runLoop(ctx, asst, logger)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	logger.Info("Service started successfully, listening for speech")

	sig := <-sigChan
	logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
	cancel()

	if httpServer != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		if err := httpServer.Stop(shutdownCtx); err != nil {
			logger.Error("Error stopping ops HTTP server", slog.String("error", err.Error()))
		}
	}

	stats := asst.GetStats()
	logger.Info("Final assistant statistics",
		slog.Uint64("utterances", stats.Utterances),
		slog.Uint64("no_speech", stats.NoSpeech),
		slog.Uint64("failures", stats.Failures),
	)

	logger.Info("Service stopped")
}

// runLoop handles utterances back to back until the context is cancelled.
func runLoop(ctx context.Context, asst *assistant.Assistant, logger *slog.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		result, err := asst.HandleUtterance(ctx)
		switch {
		case errors.Is(err, context.Canceled):
			return
		case errors.Is(err, assistant.ErrNoSpeech):
			// Nothing said; keep listening.
		case err != nil:
			logger.Error("Utterance failed", slog.String("error", err.Error()))
		default:
			logger.Info("Utterance handled",
				slog.String("category", result.Classification.Category),
				slog.Duration("duration", result.Duration),
			)
		}
	}
}

// initLogger creates the structured logger from configuration.
func initLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: level == slog.LevelDebug,
	}

	var output *os.File
	switch cfg.Output {
	case "stderr":
		output = os.Stderr
	case "stdout", "":
		output = os.Stdout
	default:
		file, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open log file %s: %v, falling back to stdout\n", cfg.Output, err)
			output = os.Stdout
		} else {
			output = file
		}
	}

	var handler slog.Handler
	switch cfg.Format {
	case "json":
		handler = slog.NewJSONHandler(output, opts)
	default:
		handler = slog.NewTextHandler(output, opts)
	}

	return slog.New(handler)
}
