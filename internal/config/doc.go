// Package config loads, normalizes, and validates the TOML configuration
// that drives filmstrip: catalog connection and tag identifiers, output
// and scratch directories, external tool paths, path translations, and
// the batch, sprite, preview, and hardware-acceleration settings.
package config
