package transport

import (
	"context"

	"github.com/rhuss/datapilot/pkg/auth"
	"github.com/rhuss/datapilot/pkg/auth/jwt"
	"github.com/rhuss/datapilot/pkg/dispatch"
)

// TokenIssuer exchanges credentials for a signed bearer token.
// Implementations return auth.ErrInvalidCredentials for an unknown user or
// a wrong password, and auth.ErrInactiveAccount for a disabled user.
type TokenIssuer interface {
	Login(ctx context.Context, username, password string) (jwt.Token, error)
}

// Dispatcher routes free text on behalf of an authenticated session.
// Dispatch never fails: unknown or failing tools degrade to the NONE tool.
type Dispatcher interface {
	Dispatch(ctx context.Context, sess *auth.Session, text string) *dispatch.Result
}

// SecretSealer encrypts a secret for storage or transmission.
type SecretSealer interface {
	Encrypt(plaintext string) (string, error)
}

// HealthChecker verifies that a backing dependency is functional.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}
