// Package auth provides pluggable bearer authentication for the datapilot
// gateway.
//
// Authentication uses a chain-of-responsibility pattern with three-outcome
// voting: each authenticator returns Yes (session resolved), No (credentials
// invalid), or Abstain (can't handle). When every authenticator abstains the
// request is rejected.
//
// Auth is implemented as HTTP middleware, keeping it decoupled from dispatch
// logic. The middleware injects the resolved session, and with it the
// caller's tenant, into the request context.
//
// The error taxonomy is deliberately coarse. ErrUnauthenticated covers every
// token problem (missing, malformed, expired, forged, unknown user) so the
// response never reveals which check failed. ErrInactiveAccount is the one
// distinguishable case.
package auth
