// Package api defines the wire types of the datapilot gateway: the login
// token response, the chat request and its tenant-scoped result, the
// connection registration payloads, and the structured error envelope.
//
// The package has no external dependencies and performs no I/O.
package api
