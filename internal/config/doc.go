// Package config handles configuration loading for chatbridge.
//
// Configuration is loaded from YAML with ${VAR} environment variable
// expansion, "30s"-style duration parsing, defaults, and validation.
package config
