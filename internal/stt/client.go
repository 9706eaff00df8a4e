package stt

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/edgevoice/voice-assistant/internal/audio"
)

// State represents the session state of the client.
type State int

const (
	StateIdle State = iota
	StateStreaming
)

// String returns a human-readable name for the state.
func (s State) String() string {
	switch s {
	case StateStreaming:
		return "streaming"
	default:
		return "idle"
	}
}

var (
	// ErrSessionActive is returned by BeginStream when a session is
	// already open.
	ErrSessionActive = errors.New("stt: session already streaming")

	// ErrNoSession is returned by PushAudio and EndStream outside an open
	// session.
	ErrNoSession = errors.New("stt: no open session")
)

// Config contains the STT client configuration.
type Config struct {
	Endpoint string        // base URL of the speech service
	Timeout  time.Duration // per-request timeout
}

// ClientStats represents client statistics.
type ClientStats struct {
	ChunksPushed      uint64  `json:"chunks_pushed"`
	ChunksFailed      uint64  `json:"chunks_failed"`
	ChunkLossRate     float64 `json:"chunk_loss_rate"`
	FinalizeSuccesses uint64  `json:"finalize_successes"`
	FinalizeFailures  uint64  `json:"finalize_failures"`
}

// Client uploads one utterance at a time to the speech-to-text service.
//
// The session state machine is strictly sequential: BeginStream moves Idle to
// Streaming, PushAudio is valid only while Streaming, and EndStream always
// returns the client to Idle whatever the HTTP outcome. Each pushed buffer is
// an independent request; a failed chunk is dropped, never retried or
// buffered, and leaves the session open. Chunk ordering on the server side is
// implied by request order.
type Client struct {
	config     Config
	httpClient *http.Client

	state State

	chunksPushed      uint64
	chunksFailed      uint64
	finalizeSuccesses uint64
	finalizeFailures  uint64

	mu sync.Mutex
}

// NewClient creates a new STT client.
func NewClient(config Config) (*Client, error) {
	if config.Endpoint == "" {
		return nil, fmt.Errorf("endpoint cannot be empty")
	}

	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}

	httpClient := &http.Client{
		Timeout: config.Timeout,
		Transport: &http.Transport{
			MaxIdleConns:        10,
			MaxIdleConnsPerHost: 2,
			IdleConnTimeout:     90 * time.Second,
		},
	}

	return &Client{
		config:     config,
		httpClient: httpClient,
	}, nil
}

// State returns the current session state.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// BeginStream opens an utterance session. It fails without side effects when
// a session is already open; no network traffic is involved, the finalize
// endpoint is sessionless.
func (c *Client) BeginStream() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateIdle {
		return ErrSessionActive
	}

	c.state = StateStreaming
	return nil
}

// PushAudio uploads the buffer's valid samples as one independent chunk.
// Success means the transport delivered the request and got any response
// back; the status code is not interpreted. On failure the chunk is lost and
// the session stays open.
func (c *Client) PushAudio(ctx context.Context, buf *audio.Buffer) error {
	c.mu.Lock()
	if c.state != StateStreaming {
		c.mu.Unlock()
		return ErrNoSession
	}
	c.mu.Unlock()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.config.Endpoint+"/stt/chunk", bytes.NewReader(buf.Bytes()))
	if err != nil {
		c.recordChunk(false)
		return fmt.Errorf("failed to create chunk request: %w", err)
	}
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.recordChunk(false)
		return fmt.Errorf("chunk upload failed: %w", err)
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	c.recordChunk(true)
	return nil
}

// EndStream finalizes the utterance and returns the recognized text. The
// session is closed on every path. Success requires HTTP 200 and a non-empty
// body.
func (c *Client) EndStream(ctx context.Context) (string, error) {
	c.mu.Lock()
	if c.state != StateStreaming {
		c.mu.Unlock()
		return "", ErrNoSession
	}
	c.mu.Unlock()

	// The session closes whatever the finalize outcome is.
	defer func() {
		c.mu.Lock()
		c.state = StateIdle
		c.mu.Unlock()
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.config.Endpoint+"/stt/finish", nil)
	if err != nil {
		c.recordFinalize(false)
		return "", fmt.Errorf("failed to create finalize request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.recordFinalize(false)
		return "", fmt.Errorf("finalize request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		c.recordFinalize(false)
		return "", fmt.Errorf("finalize returned HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.recordFinalize(false)
		return "", fmt.Errorf("failed to read finalize response: %w", err)
	}

	text := string(body)
	if text == "" {
		c.recordFinalize(false)
		return "", fmt.Errorf("finalize returned empty text")
	}

	c.recordFinalize(true)
	return text, nil
}

func (c *Client) recordChunk(ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ok {
		c.chunksPushed++
	} else {
		c.chunksFailed++
	}
}

func (c *Client) recordFinalize(ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ok {
		c.finalizeSuccesses++
	} else {
		c.finalizeFailures++
	}
}

// GetStats returns a snapshot of client statistics.
func (c *Client) GetStats() ClientStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	total := c.chunksPushed + c.chunksFailed
	lossRate := float64(0)
	if total > 0 {
		lossRate = float64(c.chunksFailed) / float64(total) * 100
	}

	return ClientStats{
		ChunksPushed:      c.chunksPushed,
		ChunksFailed:      c.chunksFailed,
		ChunkLossRate:     lossRate,
		FinalizeSuccesses: c.finalizeSuccesses,
		FinalizeFailures:  c.finalizeFailures,
	}
}
