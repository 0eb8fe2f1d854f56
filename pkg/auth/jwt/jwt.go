// Package jwt issues and validates the HS256 bearer tokens that bind a
// username to an organization.
//
// Tokens are stateless: nothing is recorded server-side and there is no
// revocation list. A token stays valid until its exp claim passes.
package jwt

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// DefaultTTL is the token lifetime used when Config.TTL is zero.
const DefaultTTL = 30 * time.Minute

// ErrInvalidToken is returned by Validate for every failure: bad signature,
// wrong algorithm, expiry, missing claims, wrong issuer or malformed input.
var ErrInvalidToken = errors.New("invalid token")

// Config holds the settings shared by Issuer and Validator.
type Config struct {
	// SigningKey is the process-wide HMAC key (required).
	SigningKey []byte

	// Issuer is written to and checked against the iss claim. If empty,
	// iss is neither set nor validated.
	Issuer string

	// TTL is the default token lifetime. Default: 30 minutes.
	TTL time.Duration

	// Now overrides the clock. Nil means time.Now.
	Now func() time.Time
}

func (c *Config) applyDefaults() {
	if c.TTL == 0 {
		c.TTL = DefaultTTL
	}
	if c.Now == nil {
		c.Now = time.Now
	}
}

// Claims is the payload carried by every token.
type Claims struct {
	// TenantID is the organization the subject belonged to at issuance.
	TenantID string `json:"org_id"`
	jwtlib.RegisteredClaims
}

// Token is a signed credential and its absolute expiry.
type Token struct {
	Value     string
	ExpiresAt time.Time
}

// Issuer mints signed tokens.
type Issuer struct {
	cfg Config
}

// NewIssuer creates an Issuer. It fails when no signing key is configured.
func NewIssuer(cfg Config) (*Issuer, error) {
	if len(cfg.SigningKey) == 0 {
		return nil, errors.New("jwt: signing key is required")
	}
	cfg.applyDefaults()
	return &Issuer{cfg: cfg}, nil
}

// TTL returns the default token lifetime.
func (i *Issuer) TTL() time.Duration {
	return i.cfg.TTL
}

// Issue mints a token for subject and tenantID using the configured TTL.
func (i *Issuer) Issue(subject, tenantID string) (Token, error) {
	return i.IssueWithTTL(subject, tenantID, i.cfg.TTL)
}

// IssueWithTTL mints a token that expires ttl from now. A ttl of zero or
// less yields a token that is already expired.
func (i *Issuer) IssueWithTTL(subject, tenantID string, ttl time.Duration) (Token, error) {
	if subject == "" {
		return Token{}, errors.New("jwt: subject is required")
	}
	if tenantID == "" {
		return Token{}, errors.New("jwt: tenant id is required")
	}

	now := i.cfg.Now()
	expiresAt := now.Add(ttl)
	claims := Claims{
		TenantID: tenantID,
		RegisteredClaims: jwtlib.RegisteredClaims{
			Issuer:    i.cfg.Issuer,
			Subject:   subject,
			IssuedAt:  jwtlib.NewNumericDate(now),
			ExpiresAt: jwtlib.NewNumericDate(expiresAt),
			ID:        uuid.NewString(),
		},
	}

	signed, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString(i.cfg.SigningKey)
	if err != nil {
		return Token{}, fmt.Errorf("signing token: %w", err)
	}
	return Token{Value: signed, ExpiresAt: expiresAt}, nil
}

// Validator verifies tokens minted by an Issuer sharing the same key.
type Validator struct {
	cfg Config
}

// NewValidator creates a Validator. It fails when no signing key is configured.
func NewValidator(cfg Config) (*Validator, error) {
	if len(cfg.SigningKey) == 0 {
		return nil, errors.New("jwt: signing key is required")
	}
	cfg.applyDefaults()
	return &Validator{cfg: cfg}, nil
}

// Validate checks the signature, algorithm, expiry and required claims of
// token and returns its claims. Every failure is reported as
// ErrInvalidToken; the underlying reason is logged at debug level only.
func (v *Validator) Validate(token string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwtlib.ParseWithClaims(token, claims, func(*jwtlib.Token) (interface{}, error) {
		return v.cfg.SigningKey, nil
	}, v.parserOptions()...)
	if err != nil {
		slog.Debug("token validation failed", "error", err)
		return nil, ErrInvalidToken
	}
	if !parsed.Valid {
		return nil, ErrInvalidToken
	}

	if claims.Subject == "" || claims.TenantID == "" {
		slog.Debug("token validation failed", "error", "missing sub or org_id claim")
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// parserOptions builds JWT parser options based on the configuration.
func (v *Validator) parserOptions() []jwtlib.ParserOption {
	opts := []jwtlib.ParserOption{
		jwtlib.WithValidMethods([]string{jwtlib.SigningMethodHS256.Alg()}),
		jwtlib.WithExpirationRequired(),
		jwtlib.WithTimeFunc(v.cfg.Now),
		// Reject non-canonical base64 so that every signature bit is checked.
		jwtlib.WithStrictDecoding(),
	}

	if v.cfg.Issuer != "" {
		opts = append(opts, jwtlib.WithIssuer(v.cfg.Issuer))
	}

	return opts
}
