// Package config handles configuration loading, parsing, and validation
// from environment variables, .env files, and an optional YAML file. It
// provides type-safe access to engine settings while keeping configuration
// details separate from scheduling and storage logic.
package config
