package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/rhuss/datapilot/pkg/secret"
)

// Load loads configuration from a layered set of sources.
//
// The loading order is:
//  1. Built-in defaults
//  2. YAML config file (explicit path, DATAPILOT_CONFIG env, ./config.yaml, /etc/datapilot/config.yaml)
//  3. Environment variable overrides
//  4. File reference resolution (_file suffix)
//  5. Local-environment fallbacks
//  6. Validation
func Load(configPath string) (*Config, error) {
	cfg := Defaults()

	filePath := discoverConfigFile(configPath)
	if filePath != "" {
		if err := loadYAMLFile(filePath, &cfg); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", filePath, err)
		}
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return nil, fmt.Errorf("applying environment overrides: %w", err)
	}

	if err := resolveFileReferences(&cfg); err != nil {
		return nil, fmt.Errorf("resolving file references: %w", err)
	}

	if err := applyLocalFallbacks(&cfg); err != nil {
		return nil, fmt.Errorf("applying local fallbacks: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return &cfg, nil
}

// discoverConfigFile finds the config file path using the discovery order:
// 1. Explicit configPath argument
// 2. DATAPILOT_CONFIG environment variable
// 3. ./config.yaml in the current directory
// 4. /etc/datapilot/config.yaml
//
// Returns empty string if no config file is found.
func discoverConfigFile(configPath string) string {
	if configPath != "" {
		return configPath
	}

	if envPath := os.Getenv("DATAPILOT_CONFIG"); envPath != "" {
		return envPath
	}

	candidates := []string{
		"config.yaml",
		"/etc/datapilot/config.yaml",
	}
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// loadYAMLFile reads and parses a YAML file into the Config struct.
// Fields not present in the YAML retain their current (default) values.
func loadYAMLFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// applyEnvOverrides maps environment variables to config fields.
func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("DATAPILOT_ENV"); v != "" {
		cfg.Environment = strings.ToLower(v)
	}
	if v := os.Getenv("DATAPILOT_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("DATAPILOT_PORT: %w", err)
		}
		cfg.Server.Port = port
	}

	// JWT_SECRET_KEY is the historical name; the prefixed one wins.
	if v := os.Getenv("JWT_SECRET_KEY"); v != "" {
		cfg.Auth.SigningKey = v
	}
	if v := os.Getenv("DATAPILOT_JWT_SECRET_KEY"); v != "" {
		cfg.Auth.SigningKey = v
	}
	if v := os.Getenv("DATAPILOT_TOKEN_TTL"); v != "" {
		ttl, err := parseTTL(v)
		if err != nil {
			return fmt.Errorf("DATAPILOT_TOKEN_TTL: %w", err)
		}
		cfg.Auth.TokenTTL = ttl
	}
	if v := os.Getenv("DATAPILOT_ENCRYPTION_KEY"); v != "" {
		cfg.Secrets.EncryptionKey = v
	}

	if v := os.Getenv("DATAPILOT_DIRECTORY"); v != "" {
		cfg.Directory.Type = v
	}
	if v := os.Getenv("DATAPILOT_POSTGRES_DSN"); v != "" {
		cfg.Directory.Postgres.DSN = v
	}

	// DATAPILOT_USERS: JSON array of directory users.
	if v := os.Getenv("DATAPILOT_USERS"); v != "" {
		var users []UserConfig
		if err := json.Unmarshal([]byte(v), &users); err != nil {
			return fmt.Errorf("DATAPILOT_USERS: %w", err)
		}
		cfg.Directory.Users = users
	}

	// DATAPILOT_API_KEYS: JSON array of API key configs.
	if v := os.Getenv("DATAPILOT_API_KEYS"); v != "" {
		var keys []APIKeyConfig
		if err := json.Unmarshal([]byte(v), &keys); err != nil {
			return fmt.Errorf("DATAPILOT_API_KEYS: %w", err)
		}
		cfg.Auth.APIKeys = keys
	}

	if v := os.Getenv("DATAPILOT_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("DATAPILOT_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}

	return nil
}

// parseTTL accepts a Go duration ("45m") or a bare number of minutes ("30").
func parseTTL(s string) (time.Duration, error) {
	if n, err := strconv.Atoi(s); err == nil {
		return time.Duration(n) * time.Minute, nil
	}
	return time.ParseDuration(s)
}

// resolveFileReferences reads _file fields and populates the corresponding value fields.
// For each field ending in _file, if the value field is empty and the file field is set,
// the file is read, whitespace is trimmed, and the value field is populated.
func resolveFileReferences(cfg *Config) error {
	// auth.signing_key_file -> auth.signing_key
	if cfg.Auth.SigningKeyFile != "" && cfg.Auth.SigningKey == "" {
		val, err := readSecretFile(cfg.Auth.SigningKeyFile)
		if err != nil {
			return fmt.Errorf("auth.signing_key_file: %w", err)
		}
		cfg.Auth.SigningKey = val
	}

	// secrets.encryption_key_file -> secrets.encryption_key
	if cfg.Secrets.EncryptionKeyFile != "" && cfg.Secrets.EncryptionKey == "" {
		val, err := readSecretFile(cfg.Secrets.EncryptionKeyFile)
		if err != nil {
			return fmt.Errorf("secrets.encryption_key_file: %w", err)
		}
		cfg.Secrets.EncryptionKey = val
	}

	// directory.postgres.dsn_file -> directory.postgres.dsn
	if cfg.Directory.Postgres.DSNFile != "" && cfg.Directory.Postgres.DSN == "" {
		val, err := readSecretFile(cfg.Directory.Postgres.DSNFile)
		if err != nil {
			return fmt.Errorf("directory.postgres.dsn_file: %w", err)
		}
		cfg.Directory.Postgres.DSN = val
	}

	// auth.api_keys[*].key_file -> auth.api_keys[*].key
	for i := range cfg.Auth.APIKeys {
		if cfg.Auth.APIKeys[i].KeyFile != "" && cfg.Auth.APIKeys[i].Key == "" {
			val, err := readSecretFile(cfg.Auth.APIKeys[i].KeyFile)
			if err != nil {
				return fmt.Errorf("auth.api_keys[%d].key_file: %w", i, err)
			}
			cfg.Auth.APIKeys[i].Key = val
		}
	}

	return nil
}

// readSecretFile reads a file and returns its content with surrounding whitespace trimmed.
func readSecretFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// applyLocalFallbacks fills in missing keys and users when, and only when,
// the local environment is selected. Each substitution is logged at WARN.
func applyLocalFallbacks(cfg *Config) error {
	if !cfg.IsLocal() {
		return nil
	}

	if cfg.Auth.SigningKey == "" {
		key, err := secret.GenerateKey()
		if err != nil {
			return fmt.Errorf("generating signing key: %w", err)
		}
		cfg.Auth.SigningKey = key
		cfg.Auth.SigningKeyGenerated = true
		slog.Warn("no signing key configured, using a random per-process key; tokens will not survive a restart",
			"environment", cfg.Environment,
		)
	}

	if cfg.Secrets.EncryptionKey == "" {
		key, err := secret.GenerateKey()
		if err != nil {
			return fmt.Errorf("generating encryption key: %w", err)
		}
		cfg.Secrets.EncryptionKey = key
		cfg.Secrets.EncryptionKeyGenerated = true
		slog.Warn("no encryption key configured, using a random per-process key",
			"environment", cfg.Environment,
		)
	}

	if cfg.Directory.Type == "memory" && len(cfg.Directory.Users) == 0 && !cfg.Directory.DemoUsers {
		cfg.Directory.DemoUsers = true
		slog.Warn("no directory users configured, seeding demo users",
			"environment", cfg.Environment,
		)
	}

	return nil
}
