// Package transport defines the service interfaces and HTTP middleware chain
// for the datapilot gateway.
//
// The transport layer bridges external clients and the gateway's internal
// services. It decodes incoming requests into the wire types defined in
// pkg/api, hands them to a service, and encodes the result as JSON.
//
// # Service Interfaces
//
// The HTTP adapter depends on four narrow interfaces rather than on concrete
// packages:
//
//   - TokenIssuer exchanges a username and password for a bearer token.
//   - Dispatcher routes a tenant's question to a tool.
//   - SecretSealer encrypts connection passwords.
//   - HealthChecker reports whether a backing store is reachable.
//
// # Middleware
//
// Middleware wraps an http.Handler with cross-cutting concerns. Built-in
// middleware provides panic recovery, request ID assignment (X-Request-ID),
// and structured logging via log/slog. Authentication and metrics live in
// pkg/auth and pkg/observability and compose with the same Chain.
package transport
