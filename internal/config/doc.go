// Package config loads, normalizes, and validates captioner configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, loads optional .env files, and honours
// environment overrides such as CAPTIONER_API_ENDPOINT. The Config type
// centralizes every knob the CLI needs: where state and logs live, how to
// reach the transcription service, and which transport carries commands to
// the host application.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical enum values, and clear validation errors.
package config
