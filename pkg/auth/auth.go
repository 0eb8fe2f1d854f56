package auth

import (
	"context"
	"errors"
	"net/http"
)

// AuthDecision represents the three possible outcomes of authentication.
type AuthDecision int

const (
	// Yes means credentials are valid. The chain stops and the session is used.
	Yes AuthDecision = iota

	// No means credentials are present but invalid. The chain stops and the
	// request is rejected.
	No

	// Abstain means this authenticator cannot handle the credentials type.
	// The chain continues to the next authenticator.
	Abstain
)

// AuthResult carries the outcome of an authentication attempt.
type AuthResult struct {
	Decision AuthDecision
	Session  *Session // populated only when Decision == Yes
	Err      error    // populated only when Decision == No
}

// Session is the request-scoped identity resolved from a bearer credential.
// It is never persisted.
type Session struct {
	// Username is the authenticated subject (required, non-empty).
	Username string

	// TenantID is the organization the request is bound to. For JWT
	// sessions it is taken from the token claim, not re-read from the
	// credential store, so a tenant reassignment only takes effect after
	// the user authenticates again.
	TenantID string

	// Active mirrors the credential store flag at resolution time.
	Active bool

	// Method names the authenticator that produced the session ("jwt", "apikey").
	Method string
}

// Authenticator examines request credentials and returns a three-outcome vote.
type Authenticator interface {
	Authenticate(ctx context.Context, r *http.Request) AuthResult
}

// Sentinel errors.
var (
	// ErrInvalidCredentials is returned by login for an unknown user or a
	// wrong password. Both causes are reported identically.
	ErrInvalidCredentials = errors.New("incorrect username or password")

	// ErrUnauthenticated covers missing, malformed, expired and forged
	// bearer tokens, and tokens naming an unknown user.
	ErrUnauthenticated = errors.New("could not validate credentials")

	// ErrInactiveAccount is returned when a valid token names a disabled user.
	ErrInactiveAccount = errors.New("inactive user")
)

// AuthChain evaluates authenticators in order using three-outcome voting.
type AuthChain struct {
	// Authenticators are evaluated left to right.
	Authenticators []Authenticator
}

// Authenticate runs the chain. Stops on the first Yes or No.
// If all abstain, the request is rejected as unauthenticated.
func (c *AuthChain) Authenticate(ctx context.Context, r *http.Request) AuthResult {
	for _, authn := range c.Authenticators {
		result := authn.Authenticate(ctx, r)
		if result.Decision != Abstain {
			return result
		}
	}

	return AuthResult{
		Decision: No,
		Err:      ErrUnauthenticated,
	}
}
