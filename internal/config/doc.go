// Package config loads, validates, and normalizes TeamZones configuration
// from TOML files with sensible defaults for every section.
package config
