// Package apikey provides an API key authenticator that validates
// opaque bearer tokens against a static key set using SHA-256 hashing
// and constant-time comparison.
//
// Each key is bound to a subject and a tenant. API keys are meant for
// service callers; they do not pass through the credential directory.
package apikey

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"net/http"

	"github.com/rhuss/datapilot/pkg/auth"
)

// keyEntry maps a key hash to the session it grants.
type keyEntry struct {
	hash     [32]byte
	subject  string
	tenantID string
}

// Authenticator validates bearer tokens against a static key set.
type Authenticator struct {
	keys []keyEntry
}

// Ensure Authenticator implements auth.Authenticator at compile time.
var _ auth.Authenticator = (*Authenticator)(nil)

// RawKeyEntry is the configuration format for API keys.
type RawKeyEntry struct {
	Key      string
	Subject  string
	TenantID string
}

// New creates an API key authenticator. Keys are hashed immediately;
// plaintext keys are not retained.
func New(entries []RawKeyEntry) *Authenticator {
	a := &Authenticator{}
	for _, e := range entries {
		a.keys = append(a.keys, keyEntry{
			hash:     sha256.Sum256([]byte(e.Key)),
			subject:  e.Subject,
			tenantID: e.TenantID,
		})
	}
	return a
}

// Authenticate extracts the bearer token and validates it.
// Returns Yes if the key is known, No if a bearer token is present but
// unknown, Abstain if there is no bearer token.
func (a *Authenticator) Authenticate(_ context.Context, r *http.Request) auth.AuthResult {
	token, ok := auth.BearerToken(r.Header.Get("Authorization"))
	if !ok {
		return auth.AuthResult{Decision: auth.Abstain}
	}
	if token == "" {
		return auth.AuthResult{Decision: auth.No, Err: auth.ErrUnauthenticated}
	}

	tokenHash := sha256.Sum256([]byte(token))

	// Compare against every entry so timing does not depend on position.
	match := -1
	for i, entry := range a.keys {
		if subtle.ConstantTimeCompare(tokenHash[:], entry.hash[:]) == 1 {
			match = i
		}
	}
	if match < 0 {
		return auth.AuthResult{Decision: auth.No, Err: auth.ErrUnauthenticated}
	}

	e := a.keys[match]
	return auth.AuthResult{
		Decision: auth.Yes,
		Session: &auth.Session{
			Username: e.subject,
			TenantID: e.tenantID,
			Active:   true,
			Method:   "apikey",
		},
	}
}
