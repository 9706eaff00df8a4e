// Package assistant orchestrates one voice-query round trip: capture an
// utterance from the audio device, stream it to the STT service, resolve the
// recognized text to an FAQ response, and speak the response through the TTS
// service. One utterance is active at a time.
package assistant
