// Package tts implements the HTTP client for the text-to-speech service.
// It requests synthesis of a text string and forwards the raw PCM response
// to the playback path incrementally as bytes arrive, never buffering the
// whole utterance in memory.
package tts
