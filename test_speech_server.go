package main

import (
	"encoding/binary"
	"encoding/json"
	"io"
	"log"
	"math"
	"net/http"
	"sync"
	"time"
)

// Fake speech service for local testing. Accepts STT chunk uploads,
// returns a canned transcript on finish, and streams a sine tone as TTS.

const fakeText = "коли дедлайн подачі заявки"

var (
	mu         sync.Mutex
	chunkCount int
	totalBytes int
)

func chunkHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	data, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Error reading audio chunk", http.StatusBadRequest)
		return
	}

	mu.Lock()
	chunkCount++
	totalBytes += len(data)
	n, total := chunkCount, totalBytes
	mu.Unlock()

	log.Printf("🎤 CHUNK RECEIVED: #%d, %d bytes (%d total)", n, len(data), total)
	w.WriteHeader(http.StatusOK)
}

func finishHandler(w http.ResponseWriter, r *http.Request) {
	mu.Lock()
	n, total := chunkCount, totalBytes
	chunkCount = 0
	totalBytes = 0
	mu.Unlock()

	log.Printf("✅ STREAM FINISHED: %d chunks, %d bytes", n, total)
	log.Printf("📝 TRANSCRIPT SENT: '%s'", fakeText)

	// Simulate recognition time
	time.Sleep(200 * time.Millisecond)

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, fakeText)
}

func ttsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Error parsing request", http.StatusBadRequest)
		return
	}

	log.Printf("🔊 TTS REQUEST: '%s'", req.Text)

	// One second of a 440 Hz tone at 16 kHz, streamed in small pieces
	// so the client exercises incremental playback.
	const (
		sampleRate = 16000
		freq       = 440.0
		amplitude  = 8000
	)

	w.Header().Set("Content-Type", "application/octet-stream")
	w.WriteHeader(http.StatusOK)

	flusher, _ := w.(http.Flusher)
	buf := make([]byte, 1024)
	sample := 0
	for sample < sampleRate {
		for i := 0; i < len(buf); i += 2 {
			v := int16(amplitude * math.Sin(2*math.Pi*freq*float64(sample)/sampleRate))
			binary.LittleEndian.PutUint16(buf[i:], uint16(v))
			sample++
		}
		if _, err := w.Write(buf); err != nil {
			log.Printf("⚠️ TTS STREAM CUT: %v", err)
			return
		}
		if flusher != nil {
			flusher.Flush()
		}
	}

	log.Printf("✅ TTS RESPONSE SENT: %d samples", sampleRate)
	log.Println("---")
}

func main() {
	http.HandleFunc("/stt/chunk", chunkHandler)
	http.HandleFunc("/stt/finish", finishHandler)
	http.HandleFunc("/tts", ttsHandler)

	port := ":9880"
	log.Printf("🚀 Test Speech Server starting on port %s", port)
	log.Printf("📡 STT: http://localhost%s/stt/chunk + /stt/finish", port)
	log.Printf("📡 TTS: http://localhost%s/tts", port)
	log.Println("💡 Update your config to use: http://localhost:9880")

	if err := http.ListenAndServe(port, nil); err != nil {
		log.Fatal("Server failed to start:", err)
	}
}
