// Package config loads, normalizes, and validates pizzabox configuration data.
//
// It supplies appliance defaults (serial device, GPIO lines, sound and
// recording directories), expands user paths, reads TOML files, and honours
// PIZZABOX_* environment overrides. Language codes are canonicalized so the
// storyboard and the language select menu agree on one spelling.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths and clear validation errors.
package config
