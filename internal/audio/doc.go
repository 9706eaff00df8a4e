// Package audio handles PCM sample buffering and peripheral audio I/O.
// It implements fixed-capacity sample frames with loudness measurement,
// little-endian PCM16 byte conversion, WAV encoding for debug dumps, and the
// device abstraction for microphone capture and speaker playback.
package audio
