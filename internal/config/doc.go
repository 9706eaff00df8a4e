// Package config provides configuration loading and validation for the
// voice assistant. It handles YAML-based configuration with per-section
// validation and supports a small set of environment overrides for
// deployment-specific values.
package config
