// Package stt implements the HTTP client for the speech-to-text service.
// It manages the single-utterance session state machine, uploads captured
// audio frames as independent octet-stream chunks, and retrieves the
// recognized text on finalize.
package stt
