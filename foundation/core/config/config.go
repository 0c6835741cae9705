// File: config.go
// Title: Configuration Loading and Access
// Description: Implements configuration loading from TOML and YAML files with
//              dotted-key access, typed getters with defaults, and environment
//              variable overrides.
// Version: v0.1.0
// Created: 2025-07-13
// Modified: 2025-07-13
//
// Change History:
// - 2025-07-13 v0.1.0: Initial configuration implementation

package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	formaerror "github.com/formalang/forma/foundation/core/error"
)

// Format identifies a configuration file format
type Format int

const (
	// FormatTOML is TOML configuration
	FormatTOML Format = iota

	// FormatYAML is YAML configuration
	FormatYAML
)

// String returns the string representation of the format
func (f Format) String() string {
	switch f {
	case FormatTOML:
		return "toml"
	case FormatYAML:
		return "yaml"
	default:
		return "unknown"
	}
}

// EnvPrefix is the prefix for environment variable overrides
const EnvPrefix = "FORMA"

// Config holds parsed configuration data with thread-safe access
type Config struct {
	mu           sync.RWMutex
	data         map[string]interface{}
	filePath     string
	format       Format
	lastModified time.Time

	handlers []ChangeHandler
	watching bool
	stopCh   chan struct{}
}

// ChangeHandler is called after the configuration was reloaded
type ChangeHandler func(c *Config)

// Load reads and parses a configuration file, detecting the format from the
// file extension
func Load(filePath string) (*Config, error) {
	content, err := os.ReadFile(filePath)
	if err != nil {
		return nil, formaerror.Wrap(err, "failed to read config file").
			WithCode(formaerror.CodeConfigError).
			WithOperation("config.Load").
			WithDetail("filePath", filePath)
	}

	format := detectFormat(filePath)
	data, err := parseContent(content, format)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		data:     data,
		filePath: filePath,
		format:   format,
	}
	if info, statErr := os.Stat(filePath); statErr == nil {
		cfg.lastModified = info.ModTime()
	}
	return cfg, nil
}

// LoadFromString parses configuration from a string in the given format
func LoadFromString(content string, format Format) (*Config, error) {
	data, err := parseContent([]byte(content), format)
	if err != nil {
		return nil, err
	}
	return &Config{data: data, format: format}, nil
}

// detectFormat determines the format from the file extension
func detectFormat(filePath string) Format {
	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatTOML
	}
}

// parseContent parses raw config bytes in the given format
func parseContent(content []byte, format Format) (map[string]interface{}, error) {
	data := make(map[string]interface{})

	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(content, &data); err != nil {
			return nil, formaerror.Wrap(err, "failed to parse YAML config").
				WithCode(formaerror.CodeInvalidConfig).
				WithOperation("config.parseContent")
		}
	default:
		if err := toml.Unmarshal(content, &data); err != nil {
			return nil, formaerror.Wrap(err, "failed to parse TOML config").
				WithCode(formaerror.CodeInvalidConfig).
				WithOperation("config.parseContent")
		}
	}

	return data, nil
}

// GetString returns a string value for a dotted key
func (c *Config) GetString(key string, defaultValue ...string) string {
	if env := c.getEnvValue(key); env != "" {
		return env
	}

	if value := c.getValue(key); value != nil {
		if s, ok := value.(string); ok {
			return s
		}
	}

	if len(defaultValue) > 0 {
		return defaultValue[0]
	}
	return ""
}

// GetInt returns an integer value for a dotted key
func (c *Config) GetInt(key string, defaultValue ...int) int {
	if env := c.getEnvValue(key); env != "" {
		if n, err := strconv.Atoi(env); err == nil {
			return n
		}
	}

	if value := c.getValue(key); value != nil {
		switch v := value.(type) {
		case int:
			return v
		case int64:
			return int(v)
		case float64:
			return int(v)
		}
	}

	if len(defaultValue) > 0 {
		return defaultValue[0]
	}
	return 0
}

// GetBool returns a boolean value for a dotted key
func (c *Config) GetBool(key string, defaultValue ...bool) bool {
	if env := c.getEnvValue(key); env != "" {
		if b, err := strconv.ParseBool(env); err == nil {
			return b
		}
	}

	if value := c.getValue(key); value != nil {
		if b, ok := value.(bool); ok {
			return b
		}
	}

	if len(defaultValue) > 0 {
		return defaultValue[0]
	}
	return false
}

// GetFloat returns a float value for a dotted key
func (c *Config) GetFloat(key string, defaultValue ...float64) float64 {
	if env := c.getEnvValue(key); env != "" {
		if f, err := strconv.ParseFloat(env, 64); err == nil {
			return f
		}
	}

	if value := c.getValue(key); value != nil {
		switch v := value.(type) {
		case float64:
			return v
		case int:
			return float64(v)
		case int64:
			return float64(v)
		}
	}

	if len(defaultValue) > 0 {
		return defaultValue[0]
	}
	return 0
}

// GetDuration returns a duration value for a dotted key. String values are
// parsed with time.ParseDuration, numeric values are taken as seconds.
func (c *Config) GetDuration(key string, defaultValue ...time.Duration) time.Duration {
	if env := c.getEnvValue(key); env != "" {
		if d, err := time.ParseDuration(env); err == nil {
			return d
		}
	}

	if value := c.getValue(key); value != nil {
		switch v := value.(type) {
		case string:
			if d, err := time.ParseDuration(v); err == nil {
				return d
			}
		case int:
			return time.Duration(v) * time.Second
		case int64:
			return time.Duration(v) * time.Second
		case float64:
			return time.Duration(v * float64(time.Second))
		}
	}

	if len(defaultValue) > 0 {
		return defaultValue[0]
	}
	return 0
}

// Has reports whether the key exists in configuration or environment
func (c *Config) Has(key string) bool {
	if c.getEnvValue(key) != "" {
		return true
	}
	return c.getValue(key) != nil
}

// Set sets a value for a dotted key, creating intermediate maps as needed
func (c *Config) Set(key string, value interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()

	parts := strings.Split(key, ".")
	current := c.data
	for _, part := range parts[:len(parts)-1] {
		next, ok := current[part].(map[string]interface{})
		if !ok {
			next = make(map[string]interface{})
			current[part] = next
		}
		current = next
	}
	current[parts[len(parts)-1]] = value
}

// FilePath returns the path the configuration was loaded from
func (c *Config) FilePath() string {
	return c.filePath
}

// OnChange registers a handler invoked after the file was reloaded
func (c *Config) OnChange(handler ChangeHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers = append(c.handlers, handler)
}

// getValue resolves a dotted key against the parsed data
func (c *Config) getValue(key string) interface{} {
	c.mu.RLock()
	defer c.mu.RUnlock()

	parts := strings.Split(key, ".")
	var current interface{} = c.data

	for _, part := range parts {
		switch m := current.(type) {
		case map[string]interface{}:
			current = m[part]
		case map[interface{}]interface{}:
			current = m[part]
		default:
			return nil
		}
	}
	return current
}

// getEnvValue checks for an environment override of the key, e.g.
// "expr.cache_size" -> FORMA_EXPR_CACHE_SIZE
func (c *Config) getEnvValue(key string) string {
	envKey := EnvPrefix + "_" + strings.ToUpper(strings.NewReplacer(".", "_", "-", "_").Replace(key))
	return os.Getenv(envKey)
}
