// Package config provides unified configuration for the datapilot gateway.
//
// Configuration is loaded with a layered approach:
//  1. Built-in defaults
//  2. YAML config file (discovered or explicitly specified)
//  3. Environment variable overrides (DATAPILOT_ prefix, plus the legacy
//     JWT_SECRET_KEY)
//  4. File reference resolution (_file suffix fields)
//  5. Local-environment fallbacks for missing keys
//  6. Validation
package config

import "time"

// Environment names.
const (
	EnvLocal      = "local"
	EnvProduction = "production"
)

// Config holds all configuration for the datapilot gateway.
type Config struct {
	// Environment is "local" or "production" (default). Only the local
	// environment tolerates missing keys.
	Environment string `yaml:"environment"`

	Server        ServerConfig        `yaml:"server"`
	Auth          AuthConfig          `yaml:"auth"`
	Directory     DirectoryConfig     `yaml:"directory"`
	Dispatch      DispatchConfig      `yaml:"dispatch"`
	Secrets       SecretsConfig       `yaml:"secrets"`
	MCP           MCPConfig           `yaml:"mcp"`
	Observability ObservabilityConfig `yaml:"observability"`
	Logging       LoggingConfig       `yaml:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int           `yaml:"port"`             // default: 8000
	ReadTimeout     time.Duration `yaml:"read_timeout"`     // default: 15s
	WriteTimeout    time.Duration `yaml:"write_timeout"`    // default: 30s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"` // default: 10s
	MaxBodySize     int64         `yaml:"max_body_size"`    // default: 1 MiB
}

// AuthConfig holds token and API key settings.
type AuthConfig struct {
	SigningKey     string         `yaml:"signing_key"`
	SigningKeyFile string         `yaml:"signing_key_file"` // _file variant for signing_key
	Issuer         string         `yaml:"issuer"`           // optional iss claim
	TokenTTL       time.Duration  `yaml:"token_ttl"`        // default: 30m
	APIKeys        []APIKeyConfig `yaml:"api_keys"`

	// BypassEndpoints replaces the default list of unauthenticated paths
	// when set.
	BypassEndpoints []string `yaml:"bypass_endpoints"`

	// SigningKeyGenerated is set when a random key was substituted in the
	// local environment. Tokens do not survive a restart in that case.
	SigningKeyGenerated bool `yaml:"-"`
}

// APIKeyConfig describes a single API key entry.
type APIKeyConfig struct {
	Key      string `yaml:"key" json:"key"`
	KeyFile  string `yaml:"key_file" json:"key_file"` // _file variant for key
	Subject  string `yaml:"subject" json:"subject"`
	TenantID string `yaml:"tenant_id" json:"tenant_id"`
}

// DirectoryConfig selects and configures the credential store.
type DirectoryConfig struct {
	Type       string         `yaml:"type"`        // "memory" or "postgres", default: "memory"
	Users      []UserConfig   `yaml:"users"`       // for memory
	DemoUsers  bool           `yaml:"demo_users"`  // seed the two demo organizations (local only)
	BcryptCost int            `yaml:"bcrypt_cost"` // default: bcrypt.DefaultCost
	Postgres   PostgresConfig `yaml:"postgres"`
}

// UserConfig describes a directory entry for the memory store.
type UserConfig struct {
	Username     string `yaml:"username" json:"username"`
	Password     string `yaml:"password" json:"password"`
	PasswordHash string `yaml:"password_hash" json:"password_hash"`
	TenantID     string `yaml:"tenant_id" json:"tenant_id"`
	Disabled     bool   `yaml:"disabled" json:"disabled"`
}

// PostgresConfig holds PostgreSQL-specific settings.
type PostgresConfig struct {
	DSN            string `yaml:"dsn"`
	DSNFile        string `yaml:"dsn_file"`         // _file variant for dsn
	MaxConns       int32  `yaml:"max_conns"`        // default: 10
	MigrateOnStart bool   `yaml:"migrate_on_start"` // default: false
}

// DispatchConfig holds routing settings.
type DispatchConfig struct {
	// SQLKeywords replaces the default keywords that select SQL_TOOL.
	SQLKeywords []string `yaml:"sql_keywords"`

	// AllowedTools restricts selectable tools by label ("NONE", "SQL_TOOL").
	AllowedTools []string `yaml:"allowed_tools"`

	// ReportMonth is the month filter of the SQL stub. Default: 10.
	ReportMonth int `yaml:"report_month"`
}

// SecretsConfig holds the encryption key for credentials at rest.
type SecretsConfig struct {
	EncryptionKey     string `yaml:"encryption_key"`      // hex, 32 bytes
	EncryptionKeyFile string `yaml:"encryption_key_file"` // _file variant for encryption_key

	// EncryptionKeyGenerated is set when a random key was substituted in
	// the local environment.
	EncryptionKeyGenerated bool `yaml:"-"`
}

// MCPConfig holds the Model Context Protocol endpoint settings.
type MCPConfig struct {
	Enabled bool   `yaml:"enabled"` // default: true
	Path    string `yaml:"path"`    // default: "/mcp"
}

// ObservabilityConfig holds monitoring and instrumentation settings.
type ObservabilityConfig struct {
	Metrics MetricsConfig `yaml:"metrics"`
}

// MetricsConfig holds Prometheus metrics endpoint settings.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"` // default: true
	Path    string `yaml:"path"`    // default: "/metrics"
}

// LoggingConfig holds slog and debug category settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // default: "INFO"
	Format string `yaml:"format"` // "text" (default) or "json"
	Debug  string `yaml:"debug"`  // comma-separated debug categories
}

// Defaults returns a Config with all default values filled in.
func Defaults() Config {
	return Config{
		Environment: EnvProduction,
		Server: ServerConfig{
			Port:            8000,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			MaxBodySize:     1 << 20,
		},
		Auth: AuthConfig{
			TokenTTL: 30 * time.Minute,
		},
		Directory: DirectoryConfig{
			Type: "memory",
			Postgres: PostgresConfig{
				MaxConns: 10,
			},
		},
		Dispatch: DispatchConfig{
			ReportMonth: 10,
		},
		MCP: MCPConfig{
			Enabled: true,
			Path:    "/mcp",
		},
		Observability: ObservabilityConfig{
			Metrics: MetricsConfig{
				Enabled: true,
				Path:    "/metrics",
			},
		},
		Logging: LoggingConfig{
			Level:  "INFO",
			Format: "text",
		},
	}
}

// IsLocal reports whether the local development environment is selected.
func (c *Config) IsLocal() bool {
	return c.Environment == EnvLocal
}
