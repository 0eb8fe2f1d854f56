package session

import (
	"context"
	"net/http"
	"strings"

	"github.com/rhuss/datapilot/pkg/auth"
)

// Authenticator adapts a Service to the auth chain.
type Authenticator struct {
	service *Service
}

// Ensure Authenticator implements auth.Authenticator at compile time.
var _ auth.Authenticator = (*Authenticator)(nil)

// NewAuthenticator wraps s for use in an auth.AuthChain.
func NewAuthenticator(s *Service) *Authenticator {
	return &Authenticator{service: s}
}

// Authenticate resolves the bearer token in the Authorization header.
//
// Decision outcomes:
//   - Abstain: no bearer token, or a token that is not JWT-shaped
//   - No: the token is a JWT but does not resolve to an active session
//   - Yes: the session was resolved
func (a *Authenticator) Authenticate(ctx context.Context, r *http.Request) auth.AuthResult {
	token, ok := auth.BearerToken(r.Header.Get("Authorization"))
	if !ok || strings.Count(token, ".") != 2 {
		return auth.AuthResult{Decision: auth.Abstain}
	}

	sess, err := a.service.Resolve(ctx, token)
	if err != nil {
		return auth.AuthResult{Decision: auth.No, Err: err}
	}
	return auth.AuthResult{Decision: auth.Yes, Session: sess}
}
