// Package credential defines the read-only user directory consulted by
// login and session resolution.
//
// Adapters (memory, postgres) implement Store. This package contains only
// the shared types and sentinel errors.
package credential
