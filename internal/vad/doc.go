// Package vad provides loudness-based utterance endpointing.
// It implements an RMS energy gate with configurable threshold, trailing
// silence detection, and a maximum utterance length guard.
package vad
