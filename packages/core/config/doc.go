// Package config handles configuration loading and management for jsonpost.
//
// It provides functionality for:
//   - Loading configuration from .jsonpost.yaml or .jsonpost.json files
//   - Default configuration values
//   - JSONPOST_* environment overrides
package config
