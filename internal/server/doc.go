// Package server implements the ops HTTP server for the assistant.
// It exposes Prometheus metrics, a health check, and JSON statistics for the
// running pipeline.
package server
