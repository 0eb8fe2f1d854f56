package config

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/rhuss/datapilot/pkg/secret"
	"github.com/rhuss/datapilot/pkg/tools"
)

// MinSigningKeyLength is the shortest accepted HMAC signing key, in bytes.
const MinSigningKeyLength = 32

// Validate checks the configuration for required fields and valid values.
// All problems are reported together, each with its field path.
func (c *Config) Validate() error {
	var errs []error

	switch c.Environment {
	case EnvLocal, EnvProduction:
		// valid
	default:
		errs = append(errs, fmt.Errorf("environment must be %q or %q, got %q", EnvLocal, EnvProduction, c.Environment))
	}

	if c.Server.Port <= 0 {
		errs = append(errs, fmt.Errorf("server.port must be > 0, got %d", c.Server.Port))
	}
	if c.Server.MaxBodySize <= 0 {
		errs = append(errs, fmt.Errorf("server.max_body_size must be > 0, got %d", c.Server.MaxBodySize))
	}

	errs = append(errs, c.validateAuth()...)
	errs = append(errs, c.validateDirectory()...)
	errs = append(errs, c.validateDispatch()...)

	if c.Secrets.EncryptionKey == "" {
		errs = append(errs, fmt.Errorf("secrets.encryption_key is required outside the local environment"))
	} else if _, err := secret.NewEncryptor(c.Secrets.EncryptionKey); err != nil {
		errs = append(errs, fmt.Errorf("secrets.encryption_key: %w", err))
	}

	if c.MCP.Enabled && !strings.HasPrefix(c.MCP.Path, "/") {
		errs = append(errs, fmt.Errorf("mcp.path must start with \"/\", got %q", c.MCP.Path))
	}
	if c.Observability.Metrics.Enabled && !strings.HasPrefix(c.Observability.Metrics.Path, "/") {
		errs = append(errs, fmt.Errorf("observability.metrics.path must start with \"/\", got %q", c.Observability.Metrics.Path))
	}

	switch strings.ToLower(c.Logging.Format) {
	case "text", "json", "":
		// valid
	default:
		errs = append(errs, fmt.Errorf("logging.format must be \"text\" or \"json\", got %q", c.Logging.Format))
	}

	return errors.Join(errs...)
}

func (c *Config) validateAuth() []error {
	var errs []error

	switch {
	case c.Auth.SigningKey == "":
		errs = append(errs, fmt.Errorf("auth.signing_key is required outside the local environment"))
	case len(c.Auth.SigningKey) < MinSigningKeyLength:
		errs = append(errs, fmt.Errorf("auth.signing_key must be at least %d bytes, got %d", MinSigningKeyLength, len(c.Auth.SigningKey)))
	}

	if c.Auth.TokenTTL <= 0 {
		errs = append(errs, fmt.Errorf("auth.token_ttl must be > 0, got %s", c.Auth.TokenTTL))
	}

	seen := make(map[string]bool, len(c.Auth.APIKeys))
	for i, k := range c.Auth.APIKeys {
		if k.Key == "" {
			errs = append(errs, fmt.Errorf("auth.api_keys[%d].key is required", i))
			continue
		}
		// JWT-shaped values are claimed by the token authenticator.
		if strings.Count(k.Key, ".") == 2 {
			errs = append(errs, fmt.Errorf("auth.api_keys[%d].key must not contain exactly two dots", i))
		}
		if seen[k.Key] {
			errs = append(errs, fmt.Errorf("auth.api_keys[%d].key is a duplicate", i))
		}
		seen[k.Key] = true
		if k.Subject == "" {
			errs = append(errs, fmt.Errorf("auth.api_keys[%d].subject is required", i))
		}
		if k.TenantID == "" {
			errs = append(errs, fmt.Errorf("auth.api_keys[%d].tenant_id is required", i))
		}
	}

	return errs
}

func (c *Config) validateDirectory() []error {
	var errs []error
	d := c.Directory

	switch d.Type {
	case "memory":
		if len(d.Users) == 0 && !d.DemoUsers {
			errs = append(errs, fmt.Errorf("directory.users must not be empty when directory.type is \"memory\""))
		}
		for i, u := range d.Users {
			if u.Username == "" {
				errs = append(errs, fmt.Errorf("directory.users[%d].username is required", i))
			}
			if u.TenantID == "" {
				errs = append(errs, fmt.Errorf("directory.users[%d].tenant_id is required", i))
			}
			if u.Password == "" && u.PasswordHash == "" {
				errs = append(errs, fmt.Errorf("directory.users[%d]: password or password_hash is required", i))
			}
		}
	case "postgres":
		if d.Postgres.DSN == "" {
			errs = append(errs, fmt.Errorf("directory.postgres.dsn or directory.postgres.dsn_file is required when directory.type is \"postgres\""))
		}
	default:
		errs = append(errs, fmt.Errorf("directory.type must be \"memory\" or \"postgres\", got %q", d.Type))
	}

	if d.DemoUsers && !c.IsLocal() {
		errs = append(errs, fmt.Errorf("directory.demo_users is only allowed in the local environment"))
	}

	if d.BcryptCost != 0 && (d.BcryptCost < bcrypt.MinCost || d.BcryptCost > bcrypt.MaxCost) {
		errs = append(errs, fmt.Errorf("directory.bcrypt_cost must be between %d and %d, got %d", bcrypt.MinCost, bcrypt.MaxCost, d.BcryptCost))
	}

	return errs
}

func (c *Config) validateDispatch() []error {
	var errs []error

	if _, err := c.Dispatch.AllowedToolKinds(); err != nil {
		errs = append(errs, fmt.Errorf("dispatch.allowed_tools: %w", err))
	}
	if m := c.Dispatch.ReportMonth; m < 1 || m > 12 {
		errs = append(errs, fmt.Errorf("dispatch.report_month must be between 1 and 12, got %d", m))
	}

	return errs
}

// AllowedToolKinds parses AllowedTools.
func (d DispatchConfig) AllowedToolKinds() ([]tools.ToolKind, error) {
	var kinds []tools.ToolKind
	for _, label := range d.AllowedTools {
		k, err := tools.ParseToolKind(label)
		if err != nil {
			return nil, err
		}
		kinds = append(kinds, k)
	}
	return kinds, nil
}
