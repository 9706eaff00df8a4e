package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/edgevoice/voice-assistant/internal/assistant"
	"github.com/edgevoice/voice-assistant/internal/stt"
	"github.com/edgevoice/voice-assistant/internal/tts"
)

// HTTPServer provides monitoring endpoints for the assistant.
type HTTPServer struct {
	server    *http.Server
	logger    *slog.Logger
	asst      *assistant.Assistant
	sttClient *stt.Client
	ttsClient *tts.Client
	startTime time.Time
}

// HTTPServerConfig contains ops server configuration.
type HTTPServerConfig struct {
	Address string
	Port    int
}

// statusResponse is the body of the /status endpoint.
type statusResponse struct {
	UptimeSeconds float64         `json:"uptime_seconds"`
	Assistant     assistant.Stats `json:"assistant"`
	STT           stt.ClientStats `json:"stt"`
	TTS           tts.ClientStats `json:"tts"`
}

// NewHTTPServer creates the ops HTTP server.
func NewHTTPServer(cfg HTTPServerConfig, logger *slog.Logger,
	asst *assistant.Assistant, sttClient *stt.Client, ttsClient *tts.Client) *HTTPServer {

	h := &HTTPServer{
		logger:    logger,
		asst:      asst,
		sttClient: sttClient,
		ttsClient: ttsClient,
		startTime: time.Now(),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", h.handleHealth)
	mux.HandleFunc("/status", h.handleStatus)
	mux.Handle("/metrics", promhttp.Handler())

	h.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Address, cfg.Port),
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return h
}

func (h *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (h *HTTPServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	resp := statusResponse{
		UptimeSeconds: time.Since(h.startTime).Seconds(),
		Assistant:     h.asst.GetStats(),
		STT:           h.sttClient.GetStats(),
		TTS:           h.ttsClient.GetStats(),
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.logger.Error("Failed to encode status response", slog.String("error", err.Error()))
	}
}

// Start begins serving in the background.
func (h *HTTPServer) Start() error {
	h.logger.Info("Starting ops HTTP server", slog.String("address", h.server.Addr))

	go func() {
		if err := h.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			h.logger.Error("Ops HTTP server failed", slog.String("error", err.Error()))
		}
	}()

	return nil
}

// Stop shuts the server down gracefully.
func (h *HTTPServer) Stop(ctx context.Context) error {
	h.logger.Info("Stopping ops HTTP server")
	return h.server.Shutdown(ctx)
}
