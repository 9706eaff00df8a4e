package stt

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/edgevoice/voice-assistant/internal/audio"
)

func testBuffer(t *testing.T, samples ...int16) *audio.Buffer {
	t.Helper()

	buf := audio.NewBuffer(len(samples))
	copy(buf.Samples, samples)
	buf.Count = len(samples)
	return buf
}

func TestNewClientRequiresEndpoint(t *testing.T) {
	if _, err := NewClient(Config{}); err == nil {
		t.Error("Expected error for empty endpoint")
	}
}

func TestBeginStreamWhileStreaming(t *testing.T) {
	client, err := NewClient(Config{Endpoint: "http://localhost:1"})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}

	if err := client.BeginStream(); err != nil {
		t.Fatalf("BeginStream failed: %v", err)
	}

	if err := client.BeginStream(); !errors.Is(err, ErrSessionActive) {
		t.Errorf("Expected ErrSessionActive, got %v", err)
	}

	if client.State() != StateStreaming {
		t.Errorf("Expected state streaming after failed BeginStream, got %v", client.State())
	}
}

func TestPushAudioWhileIdleMakesNoRequest(t *testing.T) {
	var calls int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&calls, 1)
	}))
	defer server.Close()

	client, err := NewClient(Config{Endpoint: server.URL})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}

	if err := client.PushAudio(context.Background(), testBuffer(t, 1, 2, 3)); !errors.Is(err, ErrNoSession) {
		t.Errorf("Expected ErrNoSession, got %v", err)
	}

	if _, err := client.EndStream(context.Background()); !errors.Is(err, ErrNoSession) {
		t.Errorf("Expected ErrNoSession from EndStream, got %v", err)
	}

	if n := atomic.LoadInt64(&calls); n != 0 {
		t.Errorf("Expected no network calls while idle, got %d", n)
	}
}

func TestPushAudioUploadsChunkBytes(t *testing.T) {
	var gotBody []byte
	var gotContentType string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/stt/chunk" {
			t.Errorf("Expected path /stt/chunk, got %s", r.URL.Path)
		}
		gotContentType = r.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(r.Body)
	}))
	defer server.Close()

	client, err := NewClient(Config{Endpoint: server.URL})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	client.BeginStream()

	buf := testBuffer(t, 1, -1)
	if err := client.PushAudio(context.Background(), buf); err != nil {
		t.Fatalf("PushAudio failed: %v", err)
	}

	if gotContentType != "application/octet-stream" {
		t.Errorf("Expected octet-stream content type, got %s", gotContentType)
	}

	want := buf.Bytes()
	if len(gotBody) != len(want) {
		t.Fatalf("Expected %d body bytes, got %d", len(want), len(gotBody))
	}
	for i := range want {
		if gotBody[i] != want[i] {
			t.Errorf("Body byte %d: expected %02X, got %02X", i, want[i], gotBody[i])
		}
	}
}

func TestPushAudioAcceptsAnyStatus(t *testing.T) {
	// Chunk delivery only requires that a response came back; the status
	// code is not interpreted.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client, err := NewClient(Config{Endpoint: server.URL})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	client.BeginStream()

	if err := client.PushAudio(context.Background(), testBuffer(t, 7)); err != nil {
		t.Errorf("Expected success on 500 response, got %v", err)
	}
}

func TestPushAudioFailureKeepsSessionOpen(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	endpoint := server.URL
	server.Close() // connection refused from here on

	client, err := NewClient(Config{Endpoint: endpoint, Timeout: time.Second})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	client.BeginStream()

	if err := client.PushAudio(context.Background(), testBuffer(t, 5)); err == nil {
		t.Error("Expected error when no response was received")
	}

	if client.State() != StateStreaming {
		t.Errorf("Expected session to stay streaming after chunk failure, got %v", client.State())
	}

	stats := client.GetStats()
	if stats.ChunksFailed != 1 {
		t.Errorf("Expected 1 failed chunk, got %d", stats.ChunksFailed)
	}
}

func TestEndStreamReturnsFinalText(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/stt/finish" {
			t.Errorf("Expected path /stt/finish, got %s", r.URL.Path)
		}
		if r.Method != http.MethodGet {
			t.Errorf("Expected GET, got %s", r.Method)
		}
		io.WriteString(w, "hello world")
	}))
	defer server.Close()

	client, err := NewClient(Config{Endpoint: server.URL})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	client.BeginStream()

	text, err := client.EndStream(context.Background())
	if err != nil {
		t.Fatalf("EndStream failed: %v", err)
	}

	if text != "hello world" {
		t.Errorf("Expected final text %q, got %q", "hello world", text)
	}

	if client.State() != StateIdle {
		t.Errorf("Expected state idle after EndStream, got %v", client.State())
	}
}

func TestEndStreamNon200ClosesSession(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	}))
	defer server.Close()

	client, err := NewClient(Config{Endpoint: server.URL})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	client.BeginStream()

	text, err := client.EndStream(context.Background())
	if err == nil {
		t.Error("Expected error on 404 finalize")
	}
	if text != "" {
		t.Errorf("Expected empty text on failure, got %q", text)
	}

	if client.State() != StateIdle {
		t.Errorf("Expected state idle after failed EndStream, got %v", client.State())
	}
}

func TestEndStreamEmptyBodyIsFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client, err := NewClient(Config{Endpoint: server.URL})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	client.BeginStream()

	if _, err := client.EndStream(context.Background()); err == nil {
		t.Error("Expected error on empty final text")
	}

	if client.State() != StateIdle {
		t.Errorf("Expected state idle, got %v", client.State())
	}
}

func TestSessionReusableAfterEndStream(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "ok")
	}))
	defer server.Close()

	client, err := NewClient(Config{Endpoint: server.URL})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}

	for i := 0; i < 3; i++ {
		if err := client.BeginStream(); err != nil {
			t.Fatalf("BeginStream round %d failed: %v", i, err)
		}
		if _, err := client.EndStream(context.Background()); err != nil {
			t.Fatalf("EndStream round %d failed: %v", i, err)
		}
	}
}

func TestGetStats(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "text")
	}))
	defer server.Close()

	client, err := NewClient(Config{Endpoint: server.URL})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}

	client.BeginStream()
	client.PushAudio(context.Background(), testBuffer(t, 1))
	client.PushAudio(context.Background(), testBuffer(t, 2))
	client.EndStream(context.Background())

	stats := client.GetStats()
	if stats.ChunksPushed != 2 {
		t.Errorf("Expected 2 chunks pushed, got %d", stats.ChunksPushed)
	}
	if stats.FinalizeSuccesses != 1 {
		t.Errorf("Expected 1 finalize success, got %d", stats.FinalizeSuccesses)
	}
	if stats.ChunkLossRate != 0 {
		t.Errorf("Expected 0%% loss rate, got %f", stats.ChunkLossRate)
	}
}
