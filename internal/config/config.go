// ABOUTME: Configuration loading and parsing for chatbridge
// ABOUTME: Supports YAML files with environment variable expansion and duration parsing

package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete chatbridge configuration
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Auth     AuthConfig     `yaml:"auth"`
	Model    ModelConfig    `yaml:"model"`
	Prompts  PromptsConfig  `yaml:"prompts"`
	Dedupe   DedupeConfig   `yaml:"dedupe"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ServerConfig holds server address configuration
type ServerConfig struct {
	HTTPAddr string `yaml:"http_addr"`
}

// DatabaseConfig holds state database configuration
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// AuthConfig holds webhook authentication configuration.
// An empty secret disables authentication (local development).
type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
}

// ModelConfig holds model client configuration
type ModelConfig struct {
	APIKey          string  `yaml:"api_key"`
	Model           string  `yaml:"model"`
	Temperature     float32 `yaml:"temperature"`
	MaxOutputTokens int32   `yaml:"max_output_tokens"`
}

// PromptsConfig holds prompt template configuration
type PromptsConfig struct {
	Dir            string `yaml:"dir"`
	Default        string `yaml:"default"`
	MaxInputTokens int    `yaml:"max_input_tokens"`
}

// DedupeConfig holds webhook retry suppression configuration
type DedupeConfig struct {
	TTL        time.Duration `yaml:"-"`
	MaxEntries int           `yaml:"max_entries"`

	// Raw string value for YAML unmarshaling
	TTLRaw string `yaml:"ttl"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads a configuration file from the given path and returns a parsed Config.
// Environment variables in the format ${VAR_NAME} are expanded.
// Duration strings are parsed into time.Duration values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Expand environment variables in the raw YAML content
	expandedData := expandEnvVars(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := parseDurations(&cfg); err != nil {
		return nil, fmt.Errorf("parsing durations: %w", err)
	}

	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding environment variable values.
// If the environment variable is not set, it is replaced with an empty string.
func expandEnvVars(s string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)

	return re.ReplaceAllStringFunc(s, func(match string) string {
		varName := re.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

// applyDefaults fills in values that have sensible defaults when omitted.
func applyDefaults(cfg *Config) {
	if cfg.Prompts.Default == "" {
		cfg.Prompts.Default = "chat"
	}
	if cfg.Prompts.MaxInputTokens == 0 {
		cfg.Prompts.MaxInputTokens = 2048
	}
	if cfg.Dedupe.TTL == 0 {
		cfg.Dedupe.TTL = 5 * time.Minute
	}
	if cfg.Dedupe.MaxEntries == 0 {
		cfg.Dedupe.MaxEntries = 10000
	}
}

// Validate checks that all required configuration fields are present and valid.
// Returns an error describing the first validation failure encountered.
func (c *Config) Validate() error {
	if c.Server.HTTPAddr == "" {
		return fmt.Errorf("server.http_addr is required")
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	if c.Model.APIKey == "" {
		return fmt.Errorf("model.api_key is required")
	}
	if c.Prompts.Dir == "" {
		return fmt.Errorf("prompts.dir is required")
	}
	return nil
}

// parseDurations converts the raw duration strings into time.Duration values
func parseDurations(cfg *Config) error {
	if cfg.Dedupe.TTLRaw != "" {
		ttl, err := time.ParseDuration(cfg.Dedupe.TTLRaw)
		if err != nil {
			return fmt.Errorf("parsing dedupe ttl %q: %w", cfg.Dedupe.TTLRaw, err)
		}
		cfg.Dedupe.TTL = ttl
	}
	return nil
}
