package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/edgevoice/voice-assistant/internal/audio"
)

// defaultPlayChunk is the number of samples forwarded to the playback path
// per write when the config does not override it.
const defaultPlayChunk = 512

// Player is the playback half of the audio device, the only part the TTS
// client needs.
type Player interface {
	PlaySamples(samples []int16) error
}

// Config contains the TTS client configuration.
type Config struct {
	Endpoint      string        // base URL of the speech service
	HeaderTimeout time.Duration // time allowed for response headers
	PlayChunkSize int           // samples per playback write
}

// ClientStats represents client statistics.
type ClientStats struct {
	Requests      uint64 `json:"requests"`
	Failures      uint64 `json:"failures"`
	BytesStreamed uint64 `json:"bytes_streamed"`
	StreamsCut    uint64 `json:"streams_cut_short"`
	SamplesPlayed uint64 `json:"samples_played"`
}

// synthesisRequest is the JSON body of a synthesis call.
type synthesisRequest struct {
	Text string `json:"text"`
}

// Client requests speech synthesis and streams the PCM response straight to
// a playback sink.
//
// There is deliberately no whole-body timeout: playback runs as long as the
// stream does. The header timeout bounds only the wait for the initial
// response. A stream cut short mid-playback plays what arrived and still
// counts as success; the success boundary is the 200 response, not stream
// completion.
type Client struct {
	config     Config
	httpClient *http.Client

	requests      uint64
	failures      uint64
	bytesStreamed uint64
	streamsCut    uint64
	samplesPlayed uint64

	mu sync.Mutex
}

// NewClient creates a new TTS client.
func NewClient(config Config) (*Client, error) {
	if config.Endpoint == "" {
		return nil, fmt.Errorf("endpoint cannot be empty")
	}

	if config.HeaderTimeout <= 0 {
		config.HeaderTimeout = 30 * time.Second
	}

	if config.PlayChunkSize <= 0 {
		config.PlayChunkSize = defaultPlayChunk
	}

	// The timeout goes on the header wait, not the client: a whole-request
	// timeout would cut off long playbacks mid-stream.
	httpClient := &http.Client{
		Transport: &http.Transport{
			MaxIdleConns:          10,
			MaxIdleConnsPerHost:   2,
			IdleConnTimeout:       90 * time.Second,
			ResponseHeaderTimeout: config.HeaderTimeout,
		},
	}

	return &Client{
		config:     config,
		httpClient: httpClient,
	}, nil
}

// RequestAndPlay synthesizes the text and plays the PCM response through out
// as it downloads. It returns an error when the request itself fails or the
// service answers with a non-200 status; once headers are in, mid-stream
// loss only truncates playback.
func (c *Client) RequestAndPlay(ctx context.Context, text string, out Player) error {
	c.mu.Lock()
	c.requests++
	c.mu.Unlock()

	body, err := json.Marshal(synthesisRequest{Text: text})
	if err != nil {
		c.recordFailure()
		return fmt.Errorf("failed to encode synthesis request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.config.Endpoint+"/tts", bytes.NewReader(body))
	if err != nil {
		c.recordFailure()
		return fmt.Errorf("failed to create synthesis request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.recordFailure()
		return fmt.Errorf("synthesis request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		c.recordFailure()
		return fmt.Errorf("synthesis returned HTTP %d", resp.StatusCode)
	}

	return c.streamToPlayer(resp.Body, out)
}

// streamToPlayer forwards the response body to the player in fixed-size
// sample chunks. Partial reads are played immediately; an odd trailing byte
// is carried into the next read so a sample is never split across writes.
func (c *Client) streamToPlayer(r io.Reader, out Player) error {
	chunkBytes := c.config.PlayChunkSize * 2
	buf := make([]byte, chunkBytes)
	carry := 0

	for {
		n, err := r.Read(buf[carry:])
		if n > 0 {
			total := carry + n
			whole := total - total%2

			if whole > 0 {
				samples, convErr := audio.BytesToSamples(buf[:whole])
				if convErr != nil {
					return convErr
				}
				if playErr := out.PlaySamples(samples); playErr != nil {
					return fmt.Errorf("playback failed: %w", playErr)
				}

				c.mu.Lock()
				c.bytesStreamed += uint64(whole)
				c.samplesPlayed += uint64(len(samples))
				c.mu.Unlock()
			}

			if total%2 == 1 {
				buf[0] = buf[total-1]
				carry = 1
			} else {
				carry = 0
			}
		}

		if err == io.EOF {
			return nil
		}
		if err != nil {
			// Connection dropped mid-stream: partial playback, still
			// an overall success.
			c.mu.Lock()
			c.streamsCut++
			c.mu.Unlock()
			return nil
		}
	}
}

func (c *Client) recordFailure() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failures++
}

// GetStats returns a snapshot of client statistics.
func (c *Client) GetStats() ClientStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	return ClientStats{
		Requests:      c.requests,
		Failures:      c.failures,
		BytesStreamed: c.bytesStreamed,
		StreamsCut:    c.streamsCut,
		SamplesPlayed: c.samplesPlayed,
	}
}
