// Package config loads, validates, and normalizes the TOML configuration for
// the backstage daemon and CLI.
package config
