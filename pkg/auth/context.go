package auth

import (
	"context"
	"strings"
)

// sessionKey is a private type for the session context key.
type sessionKey struct{}

// SetSession stores the resolved session in the context.
func SetSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

// SessionFromContext retrieves the resolved session.
// Returns nil if the request was not authenticated.
func SessionFromContext(ctx context.Context) *Session {
	if v, ok := ctx.Value(sessionKey{}).(*Session); ok {
		return v
	}
	return nil
}

// BearerToken extracts the token from an "Authorization: Bearer <token>"
// header value. The scheme match is case-insensitive. ok is false when the
// header is absent or uses another scheme.
func BearerToken(header string) (token string, ok bool) {
	const prefix = "Bearer "
	if len(header) < len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	return strings.TrimSpace(header[len(prefix):]), true
}
