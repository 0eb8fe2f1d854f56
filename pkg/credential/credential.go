package credential

import (
	"context"
	"errors"
)

// ErrNotFound is returned when no identity exists for a username.
var ErrNotFound = errors.New("identity not found")

// Identity is a directory entry. Identities are populated before the
// process serves traffic and are never mutated by it.
type Identity struct {
	// Username is unique, case-sensitive and immutable.
	Username string

	// TenantID is the organization the identity belongs to.
	TenantID string

	// PasswordHash is an opaque bcrypt hash. It is only ever compared.
	PasswordHash string

	// Active is false for disabled identities, which may neither log in
	// nor use previously issued tokens.
	Active bool
}

// Store looks up identities by exact username.
type Store interface {
	// Lookup returns the identity for username, or ErrNotFound.
	Lookup(ctx context.Context, username string) (*Identity, error)

	// HealthCheck reports whether the backing store is reachable.
	HealthCheck(ctx context.Context) error

	// Close releases resources held by the store.
	Close() error
}
