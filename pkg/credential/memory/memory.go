// Package memory provides an in-memory credential.Store built once at
// startup. It suits tests, demos and small static deployments.
package memory

import (
	"context"
	"fmt"

	"github.com/rhuss/datapilot/pkg/credential"
)

// Store is an immutable in-memory directory. The map is written only by
// the constructors, so concurrent lookups need no lock.
type Store struct {
	identities map[string]credential.Identity
}

// Ensure Store implements credential.Store at compile time.
var _ credential.Store = (*Store)(nil)

// New creates a store from pre-hashed identities. Duplicate or empty
// usernames and identities without a tenant are rejected.
func New(identities []credential.Identity) (*Store, error) {
	s := &Store{identities: make(map[string]credential.Identity, len(identities))}
	for _, id := range identities {
		if id.Username == "" {
			return nil, fmt.Errorf("identity with empty username")
		}
		if id.TenantID == "" {
			return nil, fmt.Errorf("identity %q has no tenant", id.Username)
		}
		if _, dup := s.identities[id.Username]; dup {
			return nil, fmt.Errorf("duplicate username %q", id.Username)
		}
		s.identities[id.Username] = id
	}
	return s, nil
}

// Hasher produces password hashes for FromUsers.
type Hasher interface {
	Hash(plaintext string) (string, error)
}

// User is a directory entry as found in configuration files. Either
// Password or PasswordHash is set; a PasswordHash is used as is.
type User struct {
	Username     string
	Password     string
	PasswordHash string
	TenantID     string
	Disabled     bool
}

// FromUsers hashes each user's plaintext password with h and builds a Store.
func FromUsers(users []User, h Hasher) (*Store, error) {
	identities := make([]credential.Identity, 0, len(users))
	for _, u := range users {
		hash := u.PasswordHash
		if hash == "" {
			var err error
			if hash, err = h.Hash(u.Password); err != nil {
				return nil, fmt.Errorf("hashing password for %q: %w", u.Username, err)
			}
		}
		identities = append(identities, credential.Identity{
			Username:     u.Username,
			TenantID:     u.TenantID,
			PasswordHash: hash,
			Active:       !u.Disabled,
		})
	}
	return New(identities)
}

// DemoUsers is the two-organization directory used by local development
// and the end-to-end tests.
func DemoUsers() []User {
	return []User{
		{Username: "johndoe", Password: "secret1", TenantID: "org_a"},
		{Username: "janesmith", Password: "secret2", TenantID: "org_b"},
	}
}

// Lookup returns a copy of the identity for username.
func (s *Store) Lookup(_ context.Context, username string) (*credential.Identity, error) {
	id, ok := s.identities[username]
	if !ok {
		return nil, credential.ErrNotFound
	}
	return &id, nil
}

// Len returns the number of identities.
func (s *Store) Len() int {
	return len(s.identities)
}

// HealthCheck always succeeds.
func (s *Store) HealthCheck(_ context.Context) error {
	return nil
}

// Close is a no-op.
func (s *Store) Close() error {
	return nil
}
