/*
 * Copyright (c) 2026 Firefly Software Solutions Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

/*
Package config provides configuration management for NeuralVault.

The configuration system supports multiple sources with clear precedence:
 1. Environment variables (highest priority)
 2. Configuration file
 3. Default values (lowest priority)

Configuration File Format:
The configuration file uses TOML format for readability.

Example configuration file:

	# NeuralVault Configuration
	data_dir = "/var/lib/nvault"
	compression_enabled = false
	cache_size_mb = 100
	encryption_enabled = false
	auto_compact_threshold = 0.3
	log_level = "info"
	log_json = false

Environment Variables:
  - NVAULT_DATA_DIR: Path to the database directory
  - NVAULT_COMPRESSION_ENABLED: Enable compression (true/false)
  - NVAULT_CACHE_SIZE_MB: Cache size budget in megabytes
  - NVAULT_ENCRYPTION_ENABLED: Enable encryption (true/false)
  - NVAULT_COMPACT_THRESHOLD: Auto-compaction dead-data ratio
  - NVAULT_LOG_LEVEL: Log level (debug, info, warn, error)
  - NVAULT_LOG_JSON: Enable JSON logging (true/false)
  - NVAULT_CONFIG_FILE: Path to configuration file

Unwired Knobs:
The compression, cache size, encryption, and auto-compaction settings
are accepted, validated, and surfaced here, but the storage engine does
not consult them. They describe capabilities the engine does not have
yet; accepting them keeps configuration files forward compatible.
*/
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Environment variable names for configuration.
const (
	EnvDataDir            = "NVAULT_DATA_DIR"
	EnvCompressionEnabled = "NVAULT_COMPRESSION_ENABLED"
	EnvCacheSizeMB        = "NVAULT_CACHE_SIZE_MB"
	EnvEncryptionEnabled  = "NVAULT_ENCRYPTION_ENABLED"
	EnvCompactThreshold   = "NVAULT_COMPACT_THRESHOLD"
	EnvLogLevel           = "NVAULT_LOG_LEVEL"
	EnvLogJSON            = "NVAULT_LOG_JSON"
	EnvConfigFile         = "NVAULT_CONFIG_FILE"
)

// GetDefaultDataDir returns the default directory for database storage.
// For root users, it uses /var/lib/nvault (Filesystem Hierarchy
// Standard). For non-root users, it uses ~/.local/share/nvault (XDG
// Base Directory).
func GetDefaultDataDir() string {
	if os.Getuid() == 0 {
		return "/var/lib/nvault"
	}
	if xdgData := os.Getenv("XDG_DATA_HOME"); xdgData != "" {
		return filepath.Join(xdgData, "nvault")
	}
	if home := os.Getenv("HOME"); home != "" {
		return filepath.Join(home, ".local", "share", "nvault")
	}
	return "./nvault_data"
}

// Default configuration file paths (searched in order).
var DefaultConfigPaths = []string{
	"/etc/nvault/nvault.conf",
	"$HOME/.config/nvault/nvault.conf",
	"./nvault.conf",
}

// Config holds all configuration values for NeuralVault. The storage
// knobs beyond DataDir are consumed at construction and never
// re-checked later.
type Config struct {
	// DataDir is the database directory holding the log file.
	DataDir string `toml:"data_dir" json:"data_dir"`

	// CompressionEnabled requests payload compression. Not consulted
	// by the engine.
	CompressionEnabled bool `toml:"compression_enabled" json:"compression_enabled"`

	// CacheSizeMB is the cache size budget. Not consulted by the engine.
	CacheSizeMB int `toml:"cache_size_mb" json:"cache_size_mb"`

	// EncryptionEnabled requests data-at-rest encryption. Not consulted
	// by the engine.
	EncryptionEnabled bool `toml:"encryption_enabled" json:"encryption_enabled"`

	// AutoCompactThreshold is the dead-data ratio beyond which the log
	// would be compacted.
	// TODO: wire this up once log compaction (rewrite live records into
	// a fresh log, atomic swap) is implemented.
	AutoCompactThreshold float64 `toml:"auto_compact_threshold" json:"auto_compact_threshold"`

	// Logging configuration
	LogLevel string `toml:"log_level" json:"log_level"`
	LogJSON  bool   `toml:"log_json" json:"log_json"`

	// ConfigFile records where the configuration was loaded from.
	ConfigFile string `toml:"-" json:"config_file,omitempty"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		DataDir:              GetDefaultDataDir(),
		CompressionEnabled:   false,
		CacheSizeMB:          100,
		EncryptionEnabled:    false,
		AutoCompactThreshold: 0.3,
		LogLevel:             "info",
		LogJSON:              false,
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("data_dir must not be empty")
	}
	if c.CacheSizeMB < 0 {
		return fmt.Errorf("cache_size_mb must not be negative, got %d", c.CacheSizeMB)
	}
	if c.AutoCompactThreshold < 0 || c.AutoCompactThreshold > 1 {
		return fmt.Errorf("auto_compact_threshold must be in [0, 1], got %g", c.AutoCompactThreshold)
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("invalid log_level: %s", c.LogLevel)
	}
	return nil
}

// Load builds the configuration from all sources with proper
// precedence: defaults, then the first config file found, then
// environment variables.
func Load() (*Config, error) {
	cfg := DefaultConfig()

	if path := FindConfigFile(); path != "" {
		if err := loadFile(cfg, path); err != nil {
			return nil, err
		}
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FindConfigFile searches for a configuration file: the NVAULT_CONFIG_FILE
// environment variable first, then the default locations. Returns empty
// if none exists.
func FindConfigFile() string {
	if envPath := os.Getenv(EnvConfigFile); envPath != "" {
		if _, err := os.Stat(os.ExpandEnv(envPath)); err == nil {
			return os.ExpandEnv(envPath)
		}
	}
	for _, path := range DefaultConfigPaths {
		expanded := os.ExpandEnv(path)
		if _, err := os.Stat(expanded); err == nil {
			return expanded
		}
	}
	return ""
}

// loadFile merges values from a TOML config file into cfg.
func loadFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := parseTOML(string(data), cfg); err != nil {
		return fmt.Errorf("failed to parse config file '%s': %w", path, err)
	}
	cfg.ConfigFile = path
	return nil
}

// applyEnv merges environment variables into cfg, overriding file
// values.
func applyEnv(cfg *Config) {
	if v := os.Getenv(EnvDataDir); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv(EnvCompressionEnabled); v != "" {
		cfg.CompressionEnabled = parseBool(v)
	}
	if v := os.Getenv(EnvCacheSizeMB); v != "" {
		if size, err := strconv.Atoi(v); err == nil {
			cfg.CacheSizeMB = size
		}
	}
	if v := os.Getenv(EnvEncryptionEnabled); v != "" {
		cfg.EncryptionEnabled = parseBool(v)
	}
	if v := os.Getenv(EnvCompactThreshold); v != "" {
		if ratio, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.AutoCompactThreshold = ratio
		}
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv(EnvLogJSON); v != "" {
		cfg.LogJSON = parseBool(v)
	}
}

func parseBool(v string) bool {
	return strings.ToLower(v) == "true" || v == "1"
}

// parseTOML is a simple TOML parser for our configuration format.
// It handles the subset of TOML we need without external dependencies.
func parseTOML(data string, cfg *Config) error {
	lines := strings.Split(data, "\n")

	for lineNum, line := range lines {
		if idx := strings.Index(line, "#"); idx != -1 {
			line = line[:idx]
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return fmt.Errorf("line %d: invalid syntax: %s", lineNum+1, line)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		// Remove quotes from string values
		if len(value) >= 2 && ((value[0] == '"' && value[len(value)-1] == '"') ||
			(value[0] == '\'' && value[len(value)-1] == '\'')) {
			value = value[1 : len(value)-1]
		}

		if err := applyConfigValue(cfg, key, value); err != nil {
			return fmt.Errorf("line %d: %w", lineNum+1, err)
		}
	}

	return nil
}

// applyConfigValue applies a key-value pair to the configuration.
func applyConfigValue(cfg *Config, key, value string) error {
	switch key {
	case "data_dir":
		cfg.DataDir = value
	case "compression_enabled":
		cfg.CompressionEnabled = parseBool(value)
	case "cache_size_mb":
		size, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid cache_size_mb value: %s", value)
		}
		cfg.CacheSizeMB = size
	case "encryption_enabled":
		cfg.EncryptionEnabled = parseBool(value)
	case "auto_compact_threshold":
		ratio, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid auto_compact_threshold value: %s", value)
		}
		cfg.AutoCompactThreshold = ratio
	case "log_level":
		cfg.LogLevel = value
	case "log_json":
		cfg.LogJSON = parseBool(value)
	default:
		// Ignore unknown keys for forward compatibility
	}

	return nil
}

// String returns a string representation of the configuration.
func (c *Config) String() string {
	var sb strings.Builder
	sb.WriteString("NeuralVault Configuration:\n")
	sb.WriteString(fmt.Sprintf("  Data Dir:          %s\n", c.DataDir))
	sb.WriteString(fmt.Sprintf("  Compression:       %v\n", c.CompressionEnabled))
	sb.WriteString(fmt.Sprintf("  Cache Size (MB):   %d\n", c.CacheSizeMB))
	sb.WriteString(fmt.Sprintf("  Encryption:        %v\n", c.EncryptionEnabled))
	sb.WriteString(fmt.Sprintf("  Compact Threshold: %g\n", c.AutoCompactThreshold))
	sb.WriteString(fmt.Sprintf("  Log Level:         %s\n", c.LogLevel))
	sb.WriteString(fmt.Sprintf("  Log JSON:          %v\n", c.LogJSON))
	if c.ConfigFile != "" {
		sb.WriteString(fmt.Sprintf("  Config File:       %s\n", c.ConfigFile))
	}
	return sb.String()
}

// ToTOML returns the configuration as a TOML string.
func (c *Config) ToTOML() string {
	var sb strings.Builder
	sb.WriteString("# NeuralVault Configuration File\n\n")
	sb.WriteString("# Database directory\n")
	sb.WriteString(fmt.Sprintf("data_dir = \"%s\"\n\n", c.DataDir))
	sb.WriteString("# Storage knobs (accepted, not consulted by the engine yet)\n")
	sb.WriteString(fmt.Sprintf("compression_enabled = %v\n", c.CompressionEnabled))
	sb.WriteString(fmt.Sprintf("cache_size_mb = %d\n", c.CacheSizeMB))
	sb.WriteString(fmt.Sprintf("encryption_enabled = %v\n", c.EncryptionEnabled))
	sb.WriteString(fmt.Sprintf("auto_compact_threshold = %g\n\n", c.AutoCompactThreshold))
	sb.WriteString("# Logging\n")
	sb.WriteString(fmt.Sprintf("log_level = \"%s\"\n", c.LogLevel))
	sb.WriteString(fmt.Sprintf("log_json = %v\n", c.LogJSON))
	return sb.String()
}

// SaveToFile saves the configuration to a file.
func (c *Config) SaveToFile(path string) error {
	path = os.ExpandEnv(path)

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, []byte(c.ToTOML()), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
