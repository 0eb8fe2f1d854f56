// Package session implements login and tenant-bound session resolution on
// top of the credential directory and the JWT issuer/validator.
//
// A token minted before an identity's tenant changes keeps its original
// tenant until it expires. Tenant reassignment requires the user to log in
// again.
package session

import (
	"context"
	"errors"
	"log/slog"

	"github.com/rhuss/datapilot/pkg/auth"
	"github.com/rhuss/datapilot/pkg/auth/jwt"
	"github.com/rhuss/datapilot/pkg/credential"
	"github.com/rhuss/datapilot/pkg/debug"
)

// PasswordVerifier checks a plaintext password against a stored hash.
type PasswordVerifier interface {
	Verify(plaintext, storedHash string) bool
	VerifyDummy(plaintext string) bool
}

// Service logs users in and resolves bearer tokens to sessions.
type Service struct {
	store     credential.Store
	passwords PasswordVerifier
	issuer    *jwt.Issuer
	validator *jwt.Validator
}

// New creates a Service. All collaborators are required.
func New(store credential.Store, passwords PasswordVerifier, issuer *jwt.Issuer, validator *jwt.Validator) *Service {
	return &Service{
		store:     store,
		passwords: passwords,
		issuer:    issuer,
		validator: validator,
	}
}

// Login verifies username and password and issues a token bound to the
// identity's tenant.
//
// An unknown username and a wrong password both yield
// auth.ErrInvalidCredentials. A disabled identity presenting the correct
// password yields auth.ErrInactiveAccount.
func (s *Service) Login(ctx context.Context, username, password string) (jwt.Token, error) {
	identity, err := s.store.Lookup(ctx, username)
	if errors.Is(err, credential.ErrNotFound) {
		s.passwords.VerifyDummy(password)
		debug.Log("auth", "login rejected", "reason", "unknown user")
		return jwt.Token{}, auth.ErrInvalidCredentials
	}
	if err != nil {
		return jwt.Token{}, err
	}

	if !s.passwords.Verify(password, identity.PasswordHash) {
		debug.Log("auth", "login rejected", "reason", "password mismatch")
		return jwt.Token{}, auth.ErrInvalidCredentials
	}

	if !identity.Active {
		return jwt.Token{}, auth.ErrInactiveAccount
	}

	return s.issuer.Issue(identity.Username, identity.TenantID)
}

// Resolve validates token and returns the session it grants.
//
// Invalid tokens and tokens naming an unknown user yield
// auth.ErrUnauthenticated. A valid token for a disabled identity yields
// auth.ErrInactiveAccount. The session's tenant comes from the token
// claim, not from the current directory entry.
func (s *Service) Resolve(ctx context.Context, token string) (*auth.Session, error) {
	claims, err := s.validator.Validate(token)
	if err != nil {
		return nil, auth.ErrUnauthenticated
	}

	identity, err := s.store.Lookup(ctx, claims.Subject)
	if errors.Is(err, credential.ErrNotFound) {
		debug.Log("auth", "token subject not in directory")
		return nil, auth.ErrUnauthenticated
	}
	if err != nil {
		slog.Error("credential lookup failed", "error", err)
		return nil, auth.ErrUnauthenticated
	}

	if !identity.Active {
		return nil, auth.ErrInactiveAccount
	}

	return &auth.Session{
		Username: claims.Subject,
		TenantID: claims.TenantID,
		Active:   identity.Active,
		Method:   "jwt",
	}, nil
}
