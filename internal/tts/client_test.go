package tts

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/edgevoice/voice-assistant/internal/audio"
)

func newPlayback() *audio.MockDevice {
	return audio.NewMockDevice(audio.DeviceConfig{
		SampleRate:     16000,
		FrameSize:      512,
		Channels:       1,
		EnablePlayback: true,
	})
}

func TestNewClientRequiresEndpoint(t *testing.T) {
	if _, err := NewClient(Config{}); err == nil {
		t.Error("Expected error for empty endpoint")
	}
}

func TestRequestAndPlaySendsJSON(t *testing.T) {
	var gotContentType, gotBody string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/tts" {
			t.Errorf("Expected path /tts, got %s", r.URL.Path)
		}
		gotContentType = r.Header.Get("Content-Type")
		buf := make([]byte, 256)
		n, _ := r.Body.Read(buf)
		gotBody = string(buf[:n])
		w.Write(audio.SamplesToBytes([]int16{1, 2}))
	}))
	defer server.Close()

	client, err := NewClient(Config{Endpoint: server.URL})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}

	if err := client.RequestAndPlay(context.Background(), "test", newPlayback()); err != nil {
		t.Fatalf("RequestAndPlay failed: %v", err)
	}

	if gotContentType != "application/json" {
		t.Errorf("Expected json content type, got %s", gotContentType)
	}
	if gotBody != `{"text":"test"}` {
		t.Errorf("Expected JSON body {\"text\":\"test\"}, got %s", gotBody)
	}
}

func TestRequestAndPlayStreamsFragments(t *testing.T) {
	// 8 samples delivered in two network-level fragments must reach the
	// playback path completely, in arrival order, without duplication.
	first := []int16{1, 2, 3, 4}
	second := []int16{5, 6, 7, 8}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		flusher := w.(http.Flusher)
		w.Write(audio.SamplesToBytes(first))
		flusher.Flush()
		w.Write(audio.SamplesToBytes(second))
	}))
	defer server.Close()

	client, err := NewClient(Config{Endpoint: server.URL})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}

	playback := newPlayback()
	if err := client.RequestAndPlay(context.Background(), "test", playback); err != nil {
		t.Fatalf("RequestAndPlay failed: %v", err)
	}

	got := playback.PlayedSamples()
	want := append(append([]int16{}, first...), second...)

	if len(got) != len(want) {
		t.Fatalf("Expected %d samples played, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Sample %d: expected %d, got %d", i, want[i], got[i])
		}
	}
}

func TestRequestAndPlaySplitSample(t *testing.T) {
	// A sample split across two fragments must not be torn: the odd byte
	// is carried into the next read.
	data := audio.SamplesToBytes([]int16{100, -200, 300})

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		flusher := w.(http.Flusher)
		w.Write(data[:3]) // one and a half samples
		flusher.Flush()
		w.Write(data[3:])
	}))
	defer server.Close()

	client, err := NewClient(Config{Endpoint: server.URL})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}

	playback := newPlayback()
	if err := client.RequestAndPlay(context.Background(), "test", playback); err != nil {
		t.Fatalf("RequestAndPlay failed: %v", err)
	}

	got := playback.PlayedSamples()
	want := []int16{100, -200, 300}

	if len(got) != len(want) {
		t.Fatalf("Expected %d samples, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Sample %d: expected %d, got %d", i, want[i], got[i])
		}
	}
}

func TestRequestAndPlayNon200SkipsPlayback(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client, err := NewClient(Config{Endpoint: server.URL})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}

	playback := newPlayback()
	if err := client.RequestAndPlay(context.Background(), "test", playback); err == nil {
		t.Error("Expected error on non-200 response")
	}

	if len(playback.Played()) != 0 {
		t.Error("Expected no playback on failed synthesis request")
	}

	stats := client.GetStats()
	if stats.Failures != 1 {
		t.Errorf("Expected 1 failure, got %d", stats.Failures)
	}
}

func TestRequestAndPlayMidStreamCutIsSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "1024") // promise more than delivered
		w.Write(audio.SamplesToBytes([]int16{1, 2, 3, 4}))
		flusher := w.(http.Flusher)
		flusher.Flush()

		hj, ok := w.(http.Hijacker)
		if !ok {
			t.Fatal("Hijacking not supported")
		}
		conn, _, err := hj.Hijack()
		if err != nil {
			t.Fatalf("Hijack failed: %v", err)
		}
		conn.Close() // cut the stream mid-body
	}))
	defer server.Close()

	client, err := NewClient(Config{Endpoint: server.URL})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}

	playback := newPlayback()
	if err := client.RequestAndPlay(context.Background(), "test", playback); err != nil {
		t.Errorf("Expected success on mid-stream cut, got %v", err)
	}

	if got := playback.PlayedSamples(); len(got) != 4 {
		t.Errorf("Expected the 4 delivered samples to play, got %d", len(got))
	}

	stats := client.GetStats()
	if stats.StreamsCut != 1 {
		t.Errorf("Expected 1 cut stream recorded, got %d", stats.StreamsCut)
	}
}

func TestRequestAndPlayConnectionRefused(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	endpoint := server.URL
	server.Close()

	client, err := NewClient(Config{Endpoint: endpoint})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}

	if err := client.RequestAndPlay(context.Background(), "test", newPlayback()); err == nil {
		t.Error("Expected error when the request cannot be delivered")
	}
}

func TestGetStatsCountsBytes(t *testing.T) {
	samples := []int16{1, 2, 3, 4, 5, 6}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(audio.SamplesToBytes(samples))
	}))
	defer server.Close()

	client, err := NewClient(Config{Endpoint: server.URL})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}

	client.RequestAndPlay(context.Background(), "test", newPlayback())

	stats := client.GetStats()
	if stats.BytesStreamed != uint64(len(samples)*2) {
		t.Errorf("Expected %d bytes streamed, got %d", len(samples)*2, stats.BytesStreamed)
	}
	if stats.SamplesPlayed != uint64(len(samples)) {
		t.Errorf("Expected %d samples played, got %d", len(samples), stats.SamplesPlayed)
	}
}
