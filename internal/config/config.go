// Package config loads the process configuration: the Abra connection
// profile plus server, audit and logging settings. Values come from a JSON or
// YAML file with environment expansion, overridden by ABRA_* variables.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration.
type Config struct {
	Abra    AbraConfig    `json:"abra"`
	General GeneralConfig `json:"general"`
	Server  ServerConfig  `json:"server"`
	Audit   AuditConfig   `json:"audit"`
	Metrics MetricsConfig `json:"metrics"`
}

// AbraConfig is the connection profile for the Abra Gen API.
type AbraConfig struct {
	Host           string `json:"host"`     // e.g. http://localhost:699
	Database       string `json:"database"` // e.g. Demo
	Username       string `json:"username"`
	Password       string `json:"password"`
	TimeoutSeconds int    `json:"timeoutSeconds"`
	MaxRetries     int    `json:"maxRetries"` // transport-failure retries
}

// BaseURL is the host with trailing slashes stripped plus the database
// identifier.
func (a AbraConfig) BaseURL() string {
	return strings.TrimRight(a.Host, "/") + "/" + a.Database
}

// Timeout returns the request deadline as a duration.
func (a AbraConfig) Timeout() time.Duration {
	return time.Duration(a.TimeoutSeconds) * time.Second
}

type GeneralConfig struct {
	LogLevel string `json:"logLevel"`
	LogFile  string `json:"logFile,omitempty"`
}

// ServerConfig selects how the tool catalog is exposed.
type ServerConfig struct {
	Transport string `json:"transport"` // "stdio" | "http"
	Host      string `json:"host,omitempty"`
	Port      int    `json:"port,omitempty"`
}

func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type AuditConfig struct {
	Enabled       bool   `json:"enabled"`
	DBPath        string `json:"dbPath,omitempty"`
	RetentionDays int    `json:"retentionDays,omitempty"`
}

type MetricsConfig struct {
	Enabled bool `json:"enabled"`
}

// DefaultConfigDir returns the default config directory (~/.abramcp).
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".abramcp"
	}
	return filepath.Join(home, ".abramcp")
}

func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.json")
}

// Load reads and validates a config file. JSON by default; files ending in
// .yaml/.yml are parsed as YAML. `${VAR}` and `${VAR:-default}` references
// are expanded before parsing, and ABRA_* variables override the profile
// afterwards.
func Load(path string) (*Config, error) {
	path = ExpandPath(path)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read config file %s: %w", path, err)
	}
	data = []byte(ExpandEnvVars(string(data)))

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yamlToJSON(data)
		if err != nil {
			return nil, fmt.Errorf("cannot parse config file %s: %w", path, err)
		}
	}

	cfg := Defaults()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("cannot parse config file %s: %w", path, err)
	}

	applyEnv(cfg)
	cfg.Audit.DBPath = ExpandPath(cfg.Audit.DBPath)
	cfg.General.LogFile = ExpandPath(cfg.General.LogFile)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

// FromEnv builds a config purely from defaults and ABRA_* variables, for
// running without a config file.
func FromEnv() (*Config, error) {
	cfg := Defaults()
	applyEnv(cfg)
	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

// yamlToJSON converts a YAML document to JSON so one set of struct tags
// serves both formats.
func yamlToJSON(data []byte) ([]byte, error) {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	return json.Marshal(raw)
}

// applyEnv overrides the connection profile from the environment, matching
// the ABRA_ prefix convention of the API's own tooling.
func applyEnv(cfg *Config) {
	if v := os.Getenv("ABRA_HOST"); v != "" {
		cfg.Abra.Host = v
	}
	if v := os.Getenv("ABRA_DATABASE"); v != "" {
		cfg.Abra.Database = v
	}
	if v := os.Getenv("ABRA_USERNAME"); v != "" {
		cfg.Abra.Username = v
	}
	if v := os.Getenv("ABRA_PASSWORD"); v != "" {
		cfg.Abra.Password = v
	}
	if v := os.Getenv("ABRA_TIMEOUT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Abra.TimeoutSeconds = n
		}
	}
	if v := os.Getenv("ABRA_MAX_RETRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Abra.MaxRetries = n
		}
	}
}

// envVarPattern matches ${VAR} and ${VAR:-default} patterns in config strings.
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::-(.*?))?\}`)

// ExpandEnvVars replaces ${VAR} with the environment variable value.
// Supports default values: ${VAR:-default} uses "default" when VAR is unset
// or empty.
func ExpandEnvVars(input string) string {
	return envVarPattern.ReplaceAllStringFunc(input, func(match string) string {
		groups := envVarPattern.FindStringSubmatch(match)
		if len(groups) < 2 {
			return match
		}
		varName := groups[1]
		defaultVal := ""
		hasDefault := len(groups) >= 3 && groups[2] != ""
		if hasDefault {
			defaultVal = groups[2]
		}

		val, exists := os.LookupEnv(varName)
		if !exists || val == "" {
			if hasDefault {
				return defaultVal
			}
			return match
		}
		return val
	})
}

// Save writes the config as indented JSON, creating the directory if needed.
func Save(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("cannot create config directory: %w", err)
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("cannot marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// Validate checks that the config has valid values.
func Validate(cfg *Config) error {
	var errs []string

	if cfg.Abra.Host == "" {
		errs = append(errs, "abra.host is required (or set ABRA_HOST)")
	}
	if cfg.Abra.Database == "" {
		errs = append(errs, "abra.database is required (or set ABRA_DATABASE)")
	}
	if cfg.Abra.Username == "" {
		errs = append(errs, "abra.username is required (or set ABRA_USERNAME)")
	}
	if cfg.Abra.Password == "" {
		errs = append(errs, "abra.password is required (or set ABRA_PASSWORD)")
	}
	if cfg.Abra.TimeoutSeconds < 1 || cfg.Abra.TimeoutSeconds > 600 {
		errs = append(errs, "abra.timeoutSeconds must be between 1 and 600")
	}
	if cfg.Abra.MaxRetries < 0 || cfg.Abra.MaxRetries > 10 {
		errs = append(errs, "abra.maxRetries must be between 0 and 10")
	}

	switch cfg.Server.Transport {
	case "stdio", "http":
		// valid
	default:
		errs = append(errs, "server.transport must be one of: stdio, http")
	}
	if cfg.Server.Port < 0 || cfg.Server.Port > 65535 {
		errs = append(errs, "server.port must be between 0 and 65535")
	}

	if cfg.Audit.Enabled && cfg.Audit.DBPath == "" {
		errs = append(errs, "audit.dbPath is required when audit is enabled")
	}
	if cfg.Audit.RetentionDays < 0 {
		errs = append(errs, "audit.retentionDays must be >= 0")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// ExpandPath resolves ~/ to the user's home directory.
func ExpandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}
